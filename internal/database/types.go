package database

import "time"

// Run is the ledger's view of one orchestration run.
type Run struct {
	ID            uint
	CreatedAt     time.Time
	WalletName    string
	Network       string
	MiningAddress string
	Recipient     string
	AmountSats    int64
	Message       string
	FeeRate       float64
	State         string
	TxID          string
	FeeSats       int64
	BlockHash     string
	Error         string
}

// Succeeded reports whether the run ended without error.
func (r Run) Succeeded() bool {
	return r.Error == ""
}
