package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/Maphikza/btc-opreturn-regtest/internal/config"
	"github.com/Maphikza/btc-opreturn-regtest/internal/database"
	"github.com/Maphikza/btc-opreturn-regtest/internal/nodetest"
	"github.com/Maphikza/btc-opreturn-regtest/lib/transaction"
)

var regtest = &chaincfg.RegressionNetParams

type ledgerMock struct {
	runs []database.Run
	err  error
}

func (l *ledgerMock) SaveRun(run *database.Run) error {
	l.runs = append(l.runs, *run)
	return l.err
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	recipient, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160([]byte("recipient")), regtest)
	require.NoError(t, err)

	return config.Config{
		Network:         "regtest",
		RPCServer:       "127.0.0.1:18443",
		WalletName:      "testwallet",
		Recipient:       recipient.EncodeAddress(),
		Amount:          btcutil.Amount(100 * btcutil.SatoshiPerBitcoin),
		Message:         "We are all Satoshi!!",
		FeeRate:         21,
		SpendableBlocks: 101,
		SettleInterval:  time.Millisecond,
		SettleTimeout:   50 * time.Millisecond,
		OutFile:         filepath.Join(t.TempDir(), "out.txt"),
	}
}

func newPipeline(t *testing.T, cfg config.Config, n *nodetest.Node, ledger Ledger) *Pipeline {
	t.Helper()
	dial := func(_ string) (transaction.Node, error) {
		return n, nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sut, err := New(cfg, n, dial, logger, WithLedger(ledger))
	require.NoError(t, err)
	return sut
}

func TestRun(t *testing.T) {
	t.Run("confirms a transaction on an empty chain", func(t *testing.T) {
		// given
		cfg := testConfig(t)
		n := nodetest.New(regtest)
		ledger := &ledgerMock{}
		sut := newPipeline(t, cfg, n, ledger)

		// when
		res, err := sut.Run(context.Background())

		// then
		require.NoError(t, err)
		require.Equal(t, StateConfirmed, res.State)
		require.Equal(t, transaction.WalletHandle{Name: "testwallet"}, res.Wallet)
		require.NotNil(t, res.TxID)
		require.NotEmpty(t, res.BlockHash)
		require.Equal(t, int64(202), n.Height())

		content, err := os.ReadFile(cfg.OutFile)
		require.NoError(t, err)
		require.Equal(t, res.TxID.String(), string(content))

		tx, ok := n.Transaction(*res.TxID)
		require.True(t, ok)
		var payload [][]byte
		var paid int64
		for _, out := range tx.TxOut {
			if txscript.GetScriptClass(out.PkScript) == txscript.NullDataTy {
				payload, err = txscript.PushedData(out.PkScript)
				require.NoError(t, err)
				continue
			}
			_, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, regtest)
			require.NoError(t, err)
			if addrs[0].EncodeAddress() == cfg.Recipient {
				paid = out.Value
			}
		}
		require.Equal(t, [][]byte{[]byte(cfg.Message)}, payload)
		require.Equal(t, int64(cfg.Amount), paid)

		rate := transaction.FeeRateOf(res.Fee, transaction.VirtualSize(tx))
		require.GreaterOrEqual(t, float64(rate), cfg.FeeRate-float64(transaction.FeeRateTolerance))

		require.Len(t, ledger.runs, 1)
		require.Equal(t, "Confirmed", ledger.runs[0].State)
		require.Equal(t, res.TxID.String(), ledger.runs[0].TxID)
		require.True(t, ledger.runs[0].Succeeded())
	})

	t.Run("incomplete signature aborts before broadcast", func(t *testing.T) {
		// given
		cfg := testConfig(t)
		n := nodetest.New(regtest)
		n.Incomplete = true
		ledger := &ledgerMock{}
		sut := newPipeline(t, cfg, n, ledger)

		// when
		res, err := sut.Run(context.Background())

		// then
		require.ErrorIs(t, err, transaction.ErrSigningIncomplete)
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		require.Equal(t, StateComposed, stageErr.State)
		require.Contains(t, err.Error(), "fund and sign failed")

		require.Equal(t, StateComposed, res.State)
		require.Nil(t, res.TxID)
		require.NotContains(t, n.Calls, nodetest.MethodSendRawTx)
		require.NoFileExists(t, cfg.OutFile)

		require.Len(t, ledger.runs, 1)
		require.False(t, ledger.runs[0].Succeeded())
		require.Empty(t, ledger.runs[0].TxID)
	})

	t.Run("node rejection at broadcast is fatal", func(t *testing.T) {
		// given
		cfg := testConfig(t)
		n := nodetest.New(regtest)
		n.Fail[nodetest.MethodSendRawTx] = &btcjson.RPCError{Code: -26, Message: "tx-size"}
		sut := newPipeline(t, cfg, n, &ledgerMock{})

		// when
		res, err := sut.Run(context.Background())

		// then
		require.ErrorContains(t, err, "broadcast failed")
		require.ErrorContains(t, err, "-26: tx-size")
		require.Equal(t, StateSigned, res.State)
		require.NoFileExists(t, cfg.OutFile)
		require.Equal(t, int64(201), n.Height())
	})

	t.Run("wallet failure stops the run", func(t *testing.T) {
		// given
		cfg := testConfig(t)
		n := nodetest.New(regtest)
		n.Fail[nodetest.MethodCreateWallet] = errors.New("connection refused")
		sut := newPipeline(t, cfg, n, &ledgerMock{})

		// when
		res, err := sut.Run(context.Background())

		// then
		require.ErrorContains(t, err, "wallet setup failed")
		require.Equal(t, StateStarted, res.State)
		require.Equal(t, []string{nodetest.MethodCreateWallet}, n.Calls)
	})

	t.Run("cancelled run stops between stages", func(t *testing.T) {
		// given
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		n := nodetest.New(regtest)
		sut := newPipeline(t, testConfig(t), n, &ledgerMock{})

		// when
		res, err := sut.Run(ctx)

		// then
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, StateWalletReady, res.State)
		require.Zero(t, n.Height())
	})

	t.Run("ledger failure does not fail the run", func(t *testing.T) {
		cfg := testConfig(t)
		n := nodetest.New(regtest)
		sut := newPipeline(t, cfg, n, &ledgerMock{err: errors.New("disk full")})

		res, err := sut.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, StateConfirmed, res.State)
	})
}

func TestRunTwice(t *testing.T) {
	t.Run("independent chains give independent transactions", func(t *testing.T) {
		// given
		first, second := nodetest.New(regtest), nodetest.New(regtest)

		// when
		res1, err := newPipeline(t, testConfig(t), first, &ledgerMock{}).Run(context.Background())
		require.NoError(t, err)
		res2, err := newPipeline(t, testConfig(t), second, &ledgerMock{}).Run(context.Background())
		require.NoError(t, err)

		// then
		require.NotEqual(t, *res1.TxID, *res2.TxID)
		require.Equal(t, StateConfirmed, res1.State)
		require.Equal(t, StateConfirmed, res2.State)
		require.Equal(t, first.Height(), second.Height())
	})

	t.Run("second run on the same chain reuses the wallet", func(t *testing.T) {
		// given
		cfg := testConfig(t)
		n := nodetest.New(regtest)
		sut := newPipeline(t, cfg, n, &ledgerMock{})
		res1, err := sut.Run(context.Background())
		require.NoError(t, err)

		// when
		res2, err := sut.Run(context.Background())

		// then
		require.NoError(t, err)
		require.NotEqual(t, *res1.TxID, *res2.TxID)
		require.Contains(t, n.Calls, nodetest.MethodLoadWallet)

		content, err := os.ReadFile(cfg.OutFile)
		require.NoError(t, err)
		require.Equal(t, res2.TxID.String(), string(content))
	})
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Network = "mainnet"
	n := nodetest.New(regtest)

	_, err := New(cfg, n, func(string) (transaction.Node, error) { return n, nil }, slog.Default())

	require.ErrorIs(t, err, config.ErrUnsupportedNetwork)
}
