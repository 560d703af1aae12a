package transaction

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Confirmation is the outcome of a broadcast that was mined.
type Confirmation struct {
	TxID          chainhash.Hash
	BlockHash     string
	Confirmations int64
}

// Broadcast submits signed and writes the returned txid to outFile. Node
// rejections are returned with the node's message intact and are not retried.
func Broadcast(b Broadcaster, signed *SignedTransaction, outFile string, logger *slog.Logger) (*chainhash.Hash, error) {
	if signed == nil || !signed.Complete() {
		return nil, fmt.Errorf("%w: refusing to broadcast", ErrSigningIncomplete)
	}

	txid, err := b.SendRawTransaction(signed.MsgTx())
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	logger.Info("Transaction broadcast", slog.String("txid", txid.String()))

	if err := WriteTxID(outFile, *txid); err != nil {
		return nil, err
	}
	logger.Info("Saved transaction id", slog.String("file", outFile))

	return txid, nil
}

// Confirm mines one block to miningAddr and checks that txid made it in.
func Confirm(b Broadcaster, txid *chainhash.Hash, miningAddr btcutil.Address, logger *slog.Logger) (*Confirmation, error) {
	hashes, err := b.GenerateToAddress(1, miningAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to mine confirmation block: %w", err)
	}

	confirmations, blockHash, err := b.GetTransactionConfirmations(txid)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txid, err)
	}
	if confirmations < 1 {
		return nil, fmt.Errorf("%w: %s has %d confirmations after mining %d block(s)", ErrNotConfirmed, txid, confirmations, len(hashes))
	}

	logger.Info("Transaction confirmed", slog.String("txid", txid.String()), slog.String("block", blockHash))

	return &Confirmation{TxID: *txid, BlockHash: blockHash, Confirmations: confirmations}, nil
}

// BroadcastAndConfirm broadcasts signed and mines it into a block.
func BroadcastAndConfirm(b Broadcaster, signed *SignedTransaction, miningAddr btcutil.Address, outFile string, logger *slog.Logger) (*Confirmation, error) {
	txid, err := Broadcast(b, signed, outFile, logger)
	if err != nil {
		return nil, err
	}
	return Confirm(b, txid, miningAddr, logger)
}

// WriteTxID replaces the contents of path with txid.
func WriteTxID(path string, txid chainhash.Hash) error {
	if err := os.WriteFile(path, []byte(txid.String()), 0644); err != nil {
		return fmt.Errorf("failed to write txid to %s: %w", path, err)
	}
	return nil
}
