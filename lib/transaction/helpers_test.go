package transaction

import (
	"io"
	"log/slog"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

var regtest = &chaincfg.RegressionNetParams

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testAddress returns a deterministic P2WPKH address on params.
func testAddress(t *testing.T, params *chaincfg.Params, seed byte) btcutil.Address {
	t.Helper()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160([]byte{seed}), params)
	require.NoError(t, err)
	return addr
}
