package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "OPRETURN"

var (
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config is the static configuration of one run. It is read once at startup
// and passed by value.
type Config struct {
	Network     string
	RPCServer   string
	RPCUser     string
	RPCPassword string

	WalletName string
	Recipient  string
	Amount     btcutil.Amount
	Message    string
	// FeeRate is in sat/vB.
	FeeRate float64

	SpendableBlocks int64
	SettleInterval  time.Duration
	SettleTimeout   time.Duration

	OutFile    string
	LedgerPath string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// LoadConfig prepares v: defaults, an optional .env file, OPRETURN_* variables
// and an optional config.json in the working directory.
func LoadConfig(v *viper.Viper) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets the values used for a local regtest node
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "regtest")
	v.SetDefault("rpc_server", "127.0.0.1:18443")
	v.SetDefault("rpc_user", "alice")
	v.SetDefault("rpc_password", "password")

	v.SetDefault("wallet_name", "testwallet")
	v.SetDefault("recipient_address", "bcrt1qq2yshcmzdlznnpxx258xswqlmqcxjs4dssfxt2")
	v.SetDefault("amount_btc", 100.0)
	v.SetDefault("message", "We are all Satoshi!!")
	v.SetDefault("fee_rate", 21.0) // sat/vB

	v.SetDefault("spendable_blocks", 101) // mined on top of coinbase maturity
	v.SetDefault("settle_interval", "250ms")
	v.SetDefault("settle_timeout", "30s")

	v.SetDefault("out_file", "out.txt")
	v.SetDefault("ledger_path", "./opreturn_runs.db")

	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "tint")
	v.SetDefault("log_file", "")
}

// WriteDefaultConfig writes the default settings to path. An existing file is left alone.
func WriteDefaultConfig(path string) error {
	v := viper.New()
	setDefaults(v)
	if err := v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return fmt.Errorf("config file %s already exists", path)
		}
		return fmt.Errorf("error creating config file: %w", err)
	}
	return nil
}

// New materializes and validates the configuration held by v.
func New(v *viper.Viper) (Config, error) {
	amount, err := btcutil.NewAmount(v.GetFloat64("amount_btc"))
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("amount_btc: %w", err))
	}

	cfg := Config{
		Network:         v.GetString("network"),
		RPCServer:       v.GetString("rpc_server"),
		RPCUser:         v.GetString("rpc_user"),
		RPCPassword:     v.GetString("rpc_password"),
		WalletName:      v.GetString("wallet_name"),
		Recipient:       v.GetString("recipient_address"),
		Amount:          amount,
		Message:         v.GetString("message"),
		FeeRate:         v.GetFloat64("fee_rate"),
		SpendableBlocks: v.GetInt64("spendable_blocks"),
		SettleInterval:  v.GetDuration("settle_interval"),
		SettleTimeout:   v.GetDuration("settle_timeout"),
		OutFile:         v.GetString("out_file"),
		LedgerPath:      v.GetString("ledger_path"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		LogFile:         v.GetString("log_file"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ChainParams returns the parameters of the configured network. Mainnet is
// refused: funding relies on mining blocks on demand.
func (c Config) ChainParams() (*chaincfg.Params, error) {
	switch c.Network {
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, c.Network)
}

func (c Config) Validate() error {
	if _, err := c.ChainParams(); err != nil {
		return err
	}

	var errs []error
	if c.RPCServer == "" {
		errs = append(errs, errors.New("rpc_server is empty"))
	}
	if c.WalletName == "" {
		errs = append(errs, errors.New("wallet_name is empty"))
	}
	if c.Recipient == "" {
		errs = append(errs, errors.New("recipient_address is empty"))
	}
	if c.Amount <= 0 {
		errs = append(errs, fmt.Errorf("amount_btc must be positive, got %v", c.Amount))
	}
	if len(c.Message) > txscript.MaxDataCarrierSize {
		errs = append(errs, fmt.Errorf("message is %d bytes, limit %d", len(c.Message), txscript.MaxDataCarrierSize))
	}
	if c.FeeRate <= 0 {
		errs = append(errs, fmt.Errorf("fee_rate must be positive, got %v", c.FeeRate))
	}
	if c.SpendableBlocks <= 0 {
		errs = append(errs, fmt.Errorf("spendable_blocks must be positive, got %d", c.SpendableBlocks))
	}
	if c.SettleInterval <= 0 || c.SettleTimeout < c.SettleInterval {
		errs = append(errs, fmt.Errorf("settle_interval %v must be positive and not above settle_timeout %v", c.SettleInterval, c.SettleTimeout))
	}
	if c.OutFile == "" {
		errs = append(errs, errors.New("out_file is empty"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
