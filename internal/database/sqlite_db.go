package database

import (
	"fmt"
)

// SaveRun inserts run and sets its ID and CreatedAt.
func (s *Store) SaveRun(run *Run) error {
	row := SQLiteRun{
		WalletName:    run.WalletName,
		Network:       run.Network,
		MiningAddress: run.MiningAddress,
		Recipient:     run.Recipient,
		AmountSats:    run.AmountSats,
		Message:       run.Message,
		FeeRate:       run.FeeRate,
		State:         run.State,
		TxID:          run.TxID,
		FeeSats:       run.FeeSats,
		BlockHash:     run.BlockHash,
		Error:         run.Error,
	}

	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save run: %v", err)
	}

	run.ID = row.ID
	run.CreatedAt = row.CreatedAt
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero returns all runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	var rows []SQLiteRun

	query := s.db.Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %v", err)
	}

	runs := make([]Run, len(rows))
	for i, row := range rows {
		runs[i] = fromSQLiteRun(row)
	}
	return runs, nil
}

// GetRunByTxID returns the run that broadcast txID.
func (s *Store) GetRunByTxID(txID string) (*Run, error) {
	var row SQLiteRun
	if err := s.db.Where("tx_id = ?", txID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("no run found for transaction %s: %v", txID, err)
	}
	run := fromSQLiteRun(row)
	return &run, nil
}

func fromSQLiteRun(row SQLiteRun) Run {
	return Run{
		ID:            row.ID,
		CreatedAt:     row.CreatedAt,
		WalletName:    row.WalletName,
		Network:       row.Network,
		MiningAddress: row.MiningAddress,
		Recipient:     row.Recipient,
		AmountSats:    row.AmountSats,
		Message:       row.Message,
		FeeRate:       row.FeeRate,
		State:         row.State,
		TxID:          row.TxID,
		FeeSats:       row.FeeSats,
		BlockHash:     row.BlockHash,
		Error:         row.Error,
	}
}
