package transaction

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// WalletLoader creates and loads wallets on the node.
type WalletLoader interface {
	CreateWallet(name string) error
	LoadWallet(name string) error
}

// Miner is the part of a wallet-routed session used to fund the wallet.
type Miner interface {
	GetNewAddress() (btcutil.Address, error)
	GenerateToAddress(numBlocks int64, addr btcutil.Address) ([]*chainhash.Hash, error)
	GetBalance() (btcutil.Amount, error)
	GetBlockCount() (int64, error)
}

// FunderSigner adds inputs to a transaction and signs it with wallet keys.
// feeRate is in BTC/kvB.
type FunderSigner interface {
	FundRawTransaction(tx *wire.MsgTx, feeRate float64) (*wire.MsgTx, btcutil.Amount, error)
	SignRawTransactionWithWallet(tx *wire.MsgTx) (*wire.MsgTx, bool, error)
}

// Broadcaster submits a transaction and mines it.
type Broadcaster interface {
	SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error)
	GenerateToAddress(numBlocks int64, addr btcutil.Address) ([]*chainhash.Hash, error)
	GetTransactionConfirmations(txHash *chainhash.Hash) (int64, string, error)
}

// Node is a session routed to a single wallet.
type Node interface {
	Miner
	FunderSigner
	Broadcaster
}
