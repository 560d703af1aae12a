package transaction

import (
	"fmt"
	"log/slog"
)

// Fund asks the node to add inputs and a change output to unsigned so that
// the transaction pays feeRate.
func Fund(fs FunderSigner, unsigned *UnsignedTransaction, feeRate FeeRate, logger *slog.Logger) (*FundedTransaction, error) {
	if feeRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeeRate, feeRate)
	}

	skeleton := unsigned.MsgTx()
	tx, fee, err := fs.FundRawTransaction(skeleton, feeRate.BTCPerKvB())
	if err != nil {
		return nil, fmt.Errorf("failed to fund transaction: %w", err)
	}

	if err := verifyOutputsPreserved(skeleton, tx); err != nil {
		return nil, err
	}

	logger.Info("Funded transaction",
		slog.Float64("fee_rate", float64(feeRate)),
		slog.String("fee", fee.String()),
		slog.Int("inputs", len(tx.TxIn)),
		slog.Int("outputs", len(tx.TxOut)))

	return &FundedTransaction{tx: tx, fee: fee, feeRate: feeRate}, nil
}

// Sign has the wallet sign funded. A result the node reports as incomplete
// is never returned.
func Sign(fs FunderSigner, funded *FundedTransaction, logger *slog.Logger) (*SignedTransaction, error) {
	tx, complete, err := fs.SignRawTransactionWithWallet(funded.MsgTx())
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if !complete {
		return nil, fmt.Errorf("%w: node did not sign all %d inputs", ErrSigningIncomplete, len(tx.TxIn))
	}

	if err := verifyFeeRate(tx, funded.Fee(), funded.FeeRate()); err != nil {
		return nil, err
	}

	logger.Info("Signed transaction", slog.String("txid", tx.TxHash().String()), slog.Int64("vsize", VirtualSize(tx)))

	return &SignedTransaction{tx: tx, fee: funded.Fee(), complete: complete}, nil
}

// FundAndSign funds unsigned at feeRate and signs the result.
func FundAndSign(fs FunderSigner, unsigned *UnsignedTransaction, feeRate FeeRate, logger *slog.Logger) (*SignedTransaction, error) {
	funded, err := Fund(fs, unsigned, feeRate, logger)
	if err != nil {
		return nil, err
	}
	return Sign(fs, funded, logger)
}
