package transaction

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// FeeRate is a fee rate in satoshis per virtual byte.
type FeeRate float64

// FeeRateTolerance absorbs the node's rounding when it sizes a fee against
// its own estimate of the signed transaction.
const FeeRateTolerance FeeRate = 1

// BTCPerKvB converts the rate to the unit fundrawtransaction's feeRate option takes.
func (r FeeRate) BTCPerKvB() float64 {
	return float64(r) * 1000 / btcutil.SatoshiPerBitcoin
}

// FeeRateOf is the rate paid by fee over a transaction of vsize virtual bytes.
func FeeRateOf(fee btcutil.Amount, vsize int64) FeeRate {
	if vsize <= 0 {
		return 0
	}
	return FeeRate(float64(fee) / float64(vsize))
}

// VirtualSize is the transaction's weight divided by the witness scale factor, rounded up.
func VirtualSize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))
	return (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
}
