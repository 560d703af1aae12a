package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Maphikza/btc-opreturn-regtest/internal/config"
	"github.com/Maphikza/btc-opreturn-regtest/internal/node"
	"github.com/Maphikza/btc-opreturn-regtest/internal/pipeline"
	"github.com/Maphikza/btc-opreturn-regtest/lib/transaction"
)

func runPipeline(ctx context.Context) error {
	cfg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	base, err := connectNode(cfg)
	if err != nil {
		return err
	}
	defer base.Shutdown()

	var walletClient *node.Client
	defer func() {
		if walletClient != nil {
			walletClient.Shutdown()
		}
	}()
	dial := func(wallet string) (transaction.Node, error) {
		c, err := base.ForWallet(wallet)
		if err != nil {
			return nil, err
		}
		walletClient = c
		return c, nil
	}

	var opts []pipeline.Option
	if cfg.LedgerPath != "" {
		store, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, pipeline.WithLedger(store))
	}

	p, err := pipeline.New(cfg, base, dial, logger, opts...)
	if err != nil {
		return err
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	result := struct {
		TxID      string  `json:"txid"`
		BlockHash string  `json:"blockHash"`
		Fee       float64 `json:"fee"`
		OutFile   string  `json:"outFile"`
	}{
		TxID:      res.TxID.String(),
		BlockHash: res.BlockHash,
		Fee:       res.Fee.ToBTC(),
		OutFile:   cfg.OutFile,
	}
	return json.NewEncoder(os.Stdout).Encode(result)
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Get the wallet balance",
	Long:  `Retrieve the spendable balance of the configured wallet from the node.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		base, err := connectNode(cfg)
		if err != nil {
			return err
		}
		defer base.Shutdown()

		handle, err := transaction.EnsureWallet(base, cfg.WalletName, logger)
		if err != nil {
			return err
		}
		walletClient, err := base.ForWallet(handle.Name)
		if err != nil {
			return err
		}
		defer walletClient.Shutdown()

		balance, err := walletClient.GetBalance()
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}

		result := struct {
			WalletName string  `json:"walletName"`
			Balance    float64 `json:"balance"`
		}{
			WalletName: handle.Name,
			Balance:    balance.ToBTC(),
		}
		return json.NewEncoder(os.Stdout).Encode(result)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  `List the runs recorded in the run ledger, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		if cfg.LedgerPath == "" {
			return fmt.Errorf("run ledger is disabled (ledger_path is empty)")
		}
		store, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.ListRuns(limit)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(runs)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration to config.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefaultConfig("config.json"); err != nil {
			return err
		}
		slog.Info("Created default configuration file", slog.String("file", "config.json"))
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list, 0 for all")
}
