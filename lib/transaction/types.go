package transaction

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// WalletHandle names a wallet that is known to be loaded on the node.
type WalletHandle struct {
	Name string
}

type OutputKind int

const (
	OutputPayment OutputKind = iota
	OutputData
)

func (k OutputKind) String() string {
	if k == OutputData {
		return "data"
	}
	return "payment"
}

// Output is one entry of an OutputSet. Payment outputs carry Address and
// Amount, data outputs carry Data and a zero Amount.
type Output struct {
	Kind    OutputKind
	Address btcutil.Address
	Amount  btcutil.Amount
	Data    []byte
}

// OutputSet is the ordered list of outputs of a composed transaction:
// exactly one payment followed by exactly one data output.
type OutputSet []Output

func (s OutputSet) Payment() Output {
	for _, o := range s {
		if o.Kind == OutputPayment {
			return o
		}
	}
	return Output{}
}

func (s OutputSet) Data() Output {
	for _, o := range s {
		if o.Kind == OutputData {
			return o
		}
	}
	return Output{}
}

// DataHex is the hex encoding of the data output's payload.
func (s OutputSet) DataHex() string {
	return hex.EncodeToString(s.Data().Data)
}

// Params renders the set the way createrawtransaction takes its outputs
// argument: the recipient address mapped to a BTC amount, and "data" mapped
// to the hex payload.
func (s OutputSet) Params() map[string]interface{} {
	params := make(map[string]interface{}, len(s))
	for _, o := range s {
		switch o.Kind {
		case OutputPayment:
			params[o.Address.EncodeAddress()] = o.Amount.ToBTC()
		case OutputData:
			params["data"] = hex.EncodeToString(o.Data)
		}
	}
	return params
}

func (s OutputSet) validate() error {
	var payments, data int
	for _, o := range s {
		switch o.Kind {
		case OutputPayment:
			payments++
		case OutputData:
			data++
		}
	}
	if payments != 1 || data != 1 {
		return fmt.Errorf("%w: %d payment and %d data outputs", ErrInvalidOutputSet, payments, data)
	}
	return nil
}

// UnsignedTransaction is a transaction skeleton with no inputs.
type UnsignedTransaction struct {
	tx      *wire.MsgTx
	outputs OutputSet
}

// MsgTx returns a copy of the skeleton.
func (u *UnsignedTransaction) MsgTx() *wire.MsgTx {
	return u.tx.Copy()
}

func (u *UnsignedTransaction) Outputs() OutputSet {
	return u.outputs
}

// FundedTransaction is an UnsignedTransaction with node-selected inputs and change.
type FundedTransaction struct {
	tx      *wire.MsgTx
	fee     btcutil.Amount
	feeRate FeeRate
}

func (f *FundedTransaction) MsgTx() *wire.MsgTx {
	return f.tx.Copy()
}

func (f *FundedTransaction) Fee() btcutil.Amount {
	return f.fee
}

func (f *FundedTransaction) FeeRate() FeeRate {
	return f.feeRate
}

// SignedTransaction is a FundedTransaction with signatures attached.
type SignedTransaction struct {
	tx       *wire.MsgTx
	fee      btcutil.Amount
	complete bool
}

func (s *SignedTransaction) MsgTx() *wire.MsgTx {
	return s.tx.Copy()
}

func (s *SignedTransaction) Fee() btcutil.Amount {
	return s.fee
}

// Complete reports whether every input carries a valid signature.
func (s *SignedTransaction) Complete() bool {
	return s.complete
}
