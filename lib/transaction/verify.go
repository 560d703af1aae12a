package transaction

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// verifyFeeRate checks that fee over the signed transaction's vsize is within
// tolerance of target.
func verifyFeeRate(tx *wire.MsgTx, fee btcutil.Amount, target FeeRate) error {
	vsize := VirtualSize(tx)
	paid := FeeRateOf(fee, vsize)
	if paid < target-FeeRateTolerance {
		return fmt.Errorf("%w: paid %.2f sat/vB over %d vB, want %.2f sat/vB", ErrFeeRateBelowTarget, float64(paid), vsize, float64(target))
	}
	return nil
}

// verifyOutputsPreserved checks that every output of the skeleton survived
// funding with its script and value. Funding may add a change output at any position.
func verifyOutputsPreserved(skeleton, funded *wire.MsgTx) error {
	used := make([]bool, len(funded.TxOut))
	for i, want := range skeleton.TxOut {
		found := false
		for j, got := range funded.TxOut {
			if used[j] || got.Value != want.Value || !bytes.Equal(got.PkScript, want.PkScript) {
				continue
			}
			used[j] = true
			found = true
			break
		}
		if !found {
			return fmt.Errorf("%w: output %d missing", ErrFundedOutputsMismatch, i)
		}
	}
	return nil
}
