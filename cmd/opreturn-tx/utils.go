package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Maphikza/btc-opreturn-regtest/internal/config"
	"github.com/Maphikza/btc-opreturn-regtest/internal/database"
	"github.com/Maphikza/btc-opreturn-regtest/internal/logger"
	"github.com/Maphikza/btc-opreturn-regtest/internal/node"
)

// setup materializes the configuration and the logger for a command.
func setup() (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.New(viper.GetViper())
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	log, cleanup, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	return cfg, log, cleanup, nil
}

func connectNode(cfg config.Config) (*node.Client, error) {
	params, err := cfg.ChainParams()
	if err != nil {
		return nil, err
	}
	return node.Connect(node.ConnConfig{
		Host:     cfg.RPCServer,
		User:     cfg.RPCUser,
		Password: cfg.RPCPassword,
		Network:  params.Name,
	})
}

func openLedger(cfg config.Config) (*database.Store, error) {
	return database.InitSQLiteDB(cfg.LedgerPath)
}
