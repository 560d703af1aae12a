package transaction

import (
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// MaxDataCarrierSize is the largest OP_RETURN payload relayed as standard.
const MaxDataCarrierSize = txscript.MaxDataCarrierSize

// skeletonVersion matches the version createrawtransaction gives new transactions.
const skeletonVersion = 2

// BuildOutputs assembles the payment and data outputs of the transaction.
// The recipient must be an address of the network described by params.
func BuildOutputs(params *chaincfg.Params, recipient string, amount btcutil.Amount, message string) (OutputSet, error) {
	addr, err := btcutil.DecodeAddress(recipient, params)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRecipient, recipient, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("%w %q: not a %s address", ErrInvalidRecipient, recipient, params.Name)
	}

	if amount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	data := []byte(message)
	if len(data) > MaxDataCarrierSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(data), MaxDataCarrierSize)
	}

	return OutputSet{
		{Kind: OutputPayment, Address: addr, Amount: amount},
		{Kind: OutputData, Data: data},
	}, nil
}

// Compose builds an input-less transaction carrying outputs in order. Inputs
// and change are left to the node's funding logic.
func Compose(outputs OutputSet, logger *slog.Logger) (*UnsignedTransaction, error) {
	if err := outputs.validate(); err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(skeletonVersion)
	for _, o := range outputs {
		var (
			pkScript []byte
			err      error
		)
		switch o.Kind {
		case OutputPayment:
			pkScript, err = txscript.PayToAddrScript(o.Address)
			if err != nil {
				return nil, fmt.Errorf("failed to create output script: %w", err)
			}
		case OutputData:
			pkScript, err = txscript.NullDataScript(o.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to create OP_RETURN script: %w", err)
			}
		}
		tx.AddTxOut(wire.NewTxOut(int64(o.Amount), pkScript))
	}

	logger.Info("Composed transaction skeleton",
		slog.String("recipient", outputs.Payment().Address.EncodeAddress()),
		slog.String("amount", outputs.Payment().Amount.String()),
		slog.String("data", outputs.DataHex()))

	return &UnsignedTransaction{tx: tx, outputs: outputs}, nil
}
