package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	// given
	v := viper.New()
	setDefaults(v)

	// when
	cfg, err := New(v)

	// then
	require.NoError(t, err)
	require.Equal(t, "regtest", cfg.Network)
	require.Equal(t, "127.0.0.1:18443", cfg.RPCServer)
	require.Equal(t, "testwallet", cfg.WalletName)
	require.Equal(t, btcutil.Amount(100*btcutil.SatoshiPerBitcoin), cfg.Amount)
	require.Equal(t, "We are all Satoshi!!", cfg.Message)
	require.Equal(t, 21.0, cfg.FeeRate)
	require.Equal(t, int64(101), cfg.SpendableBlocks)
	require.Equal(t, 250*time.Millisecond, cfg.SettleInterval)
	require.Equal(t, 30*time.Second, cfg.SettleTimeout)
	require.Equal(t, "out.txt", cfg.OutFile)

	params, err := cfg.ChainParams()
	require.NoError(t, err)
	require.Equal(t, &chaincfg.RegressionNetParams, params)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name          string
		modify        func(v *viper.Viper)
		expectedError error
	}{
		{
			name:          "mainnet is refused",
			modify:        func(v *viper.Viper) { v.Set("network", "mainnet") },
			expectedError: ErrUnsupportedNetwork,
		},
		{
			name:          "negative fee rate",
			modify:        func(v *viper.Viper) { v.Set("fee_rate", -1) },
			expectedError: ErrInvalidConfig,
		},
		{
			name:          "zero amount",
			modify:        func(v *viper.Viper) { v.Set("amount_btc", 0) },
			expectedError: ErrInvalidConfig,
		},
		{
			name:          "message over the data-carrier limit",
			modify:        func(v *viper.Viper) { v.Set("message", strings.Repeat("m", 81)) },
			expectedError: ErrInvalidConfig,
		},
		{
			name:          "settle interval above timeout",
			modify:        func(v *viper.Viper) { v.Set("settle_interval", "1m") },
			expectedError: ErrInvalidConfig,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			v := viper.New()
			setDefaults(v)
			tc.modify(v)

			// when
			_, err := New(v)

			// then
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

func TestChainParams(t *testing.T) {
	for network, expected := range map[string]*chaincfg.Params{
		"regtest":  &chaincfg.RegressionNetParams,
		"testnet":  &chaincfg.TestNet3Params,
		"testnet3": &chaincfg.TestNet3Params,
		"signet":   &chaincfg.SigNetParams,
	} {
		params, err := Config{Network: network}.ChainParams()
		require.NoError(t, err)
		require.Equal(t, expected, params)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "config.json")

	// when
	err := WriteDefaultConfig(path)

	// then
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"wallet_name": "testwallet"`)

	require.Error(t, WriteDefaultConfig(path))
}
