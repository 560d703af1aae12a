package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Maphikza/btc-opreturn-regtest/internal/config"
	"github.com/Maphikza/btc-opreturn-regtest/internal/database"
	"github.com/Maphikza/btc-opreturn-regtest/lib/transaction"
)

// Dialer returns a session routed to the named wallet.
type Dialer func(wallet string) (transaction.Node, error)

// Ledger records finished runs.
type Ledger interface {
	SaveRun(run *database.Run) error
}

// Result is what a run produced, up to the state it reached.
type Result struct {
	State         State
	Wallet        transaction.WalletHandle
	MiningAddress btcutil.Address
	Outputs       transaction.OutputSet
	Fee           btcutil.Amount
	TxID          *chainhash.Hash
	BlockHash     string
}

// Pipeline runs the stages that take an empty wallet to a confirmed
// transaction, one after the other. The first failure ends the run; nothing
// done before it is undone.
type Pipeline struct {
	cfg    config.Config
	params *chaincfg.Params
	loader transaction.WalletLoader
	dial   Dialer
	ledger Ledger
	logger *slog.Logger
}

type Option func(p *Pipeline)

// WithLedger records every run in ledger.
func WithLedger(ledger Ledger) Option {
	return func(p *Pipeline) {
		p.ledger = ledger
	}
}

func New(cfg config.Config, loader transaction.WalletLoader, dial Dialer, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, err := cfg.ChainParams()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		params: params,
		loader: loader,
		dial:   dial,
		logger: logger.With(slog.String("module", "pipeline")),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Run executes the pipeline once. The returned Result is never nil and holds
// the state the run reached; a failure is returned as a *StageError.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{State: StateStarted}

	err := p.run(ctx, res)
	if err != nil {
		err = &StageError{State: res.State, Err: err}
		p.logger.Error("Run aborted", slog.String("state", res.State.String()), slog.String("err", err.Error()))
	} else {
		p.logger.Info("Run finished", slog.String("txid", res.TxID.String()), slog.String("block", res.BlockHash))
	}

	p.record(res, err)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	p.logger.Info("Setting up wallet", slog.String("wallet", p.cfg.WalletName))
	handle, err := transaction.EnsureWallet(p.loader, p.cfg.WalletName, p.logger)
	if err != nil {
		return err
	}
	res.Wallet = handle
	res.State = StateWalletReady

	node, err := p.dial(handle.Name)
	if err != nil {
		return fmt.Errorf("failed to connect to wallet %s: %w", handle.Name, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("Funding wallet")
	policy := transaction.NewFundingPolicy(p.params, p.cfg.SpendableBlocks, p.cfg.SettleInterval, p.cfg.SettleTimeout)
	miningAddr, err := transaction.FundWallet(ctx, node, p.params, policy, p.cfg.Amount, p.logger)
	if err != nil {
		return err
	}
	res.MiningAddress = miningAddr
	res.State = StateFunded

	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("Composing transaction")
	outputs, err := transaction.BuildOutputs(p.params, p.cfg.Recipient, p.cfg.Amount, p.cfg.Message)
	if err != nil {
		return err
	}
	unsigned, err := transaction.Compose(outputs, p.logger)
	if err != nil {
		return err
	}
	res.Outputs = outputs
	res.State = StateComposed

	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("Funding and signing transaction", slog.Float64("fee_rate", p.cfg.FeeRate))
	signed, err := transaction.FundAndSign(node, unsigned, transaction.FeeRate(p.cfg.FeeRate), p.logger)
	if err != nil {
		return err
	}
	res.Fee = signed.Fee()
	res.State = StateSigned

	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("Broadcasting transaction")
	txid, err := transaction.Broadcast(node, signed, p.cfg.OutFile, p.logger)
	if err != nil {
		return err
	}
	res.TxID = txid
	res.State = StateBroadcast

	p.logger.Info("Mining confirmation block")
	conf, err := transaction.Confirm(node, txid, miningAddr, p.logger)
	if err != nil {
		return err
	}
	res.BlockHash = conf.BlockHash
	res.State = StateConfirmed

	return nil
}

func (p *Pipeline) record(res *Result, runErr error) {
	if p.ledger == nil {
		return
	}

	run := &database.Run{
		WalletName: p.cfg.WalletName,
		Network:    p.params.Name,
		Recipient:  p.cfg.Recipient,
		AmountSats: int64(p.cfg.Amount),
		Message:    p.cfg.Message,
		FeeRate:    p.cfg.FeeRate,
		State:      res.State.String(),
		FeeSats:    int64(res.Fee),
		BlockHash:  res.BlockHash,
	}
	if res.MiningAddress != nil {
		run.MiningAddress = res.MiningAddress.EncodeAddress()
	}
	if res.TxID != nil {
		run.TxID = res.TxID.String()
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := p.ledger.SaveRun(run); err != nil {
		p.logger.Error("Failed to record run", slog.String("err", err.Error()))
	}
}
