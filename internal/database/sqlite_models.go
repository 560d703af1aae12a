package database

import (
	"gorm.io/gorm"
)

// SQLiteRun is one orchestration run recorded in the ledger
type SQLiteRun struct {
	gorm.Model
	WalletName    string `gorm:"index"`
	Network       string
	MiningAddress string
	Recipient     string
	AmountSats    int64
	Message       string
	FeeRate       float64
	State         string `gorm:"index"`
	TxID          string `gorm:"index"`
	FeeSats       int64
	BlockHash     string
	Error         string
}
