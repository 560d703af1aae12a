package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cenkalti/backoff/v4"
)

// FundingPolicy decides how many blocks are mined to fund the wallet and how
// long the wallet balance is polled afterwards.
type FundingPolicy struct {
	// Maturity is the network's coinbase maturity depth.
	Maturity int64
	// SpendableBlocks is how many mined rewards are mature once mining is done.
	SpendableBlocks int64
	SettleInterval  time.Duration
	SettleTimeout   time.Duration
}

func NewFundingPolicy(params *chaincfg.Params, spendableBlocks int64, settleInterval, settleTimeout time.Duration) FundingPolicy {
	return FundingPolicy{
		Maturity:        int64(params.CoinbaseMaturity),
		SpendableBlocks: spendableBlocks,
		SettleInterval:  settleInterval,
		SettleTimeout:   settleTimeout,
	}
}

// Blocks is the number of blocks mined to the funding address.
func (p FundingPolicy) Blocks() int64 {
	return p.Maturity + p.SpendableBlocks
}

// ExpectedReward sums the subsidies of the blocks that will be mature after
// mining on top of height.
func (p FundingPolicy) ExpectedReward(params *chaincfg.Params, height int64) btcutil.Amount {
	var total int64
	for h := height + 1; h <= height+p.SpendableBlocks; h++ {
		total += blockchain.CalcBlockSubsidy(int32(h), params)
	}
	return btcutil.Amount(total)
}

// FundWallet mines the policy's block count to a fresh wallet address and
// waits until the wallet can spend target. The address is returned for
// mining the confirmation block later.
func FundWallet(ctx context.Context, miner Miner, params *chaincfg.Params, policy FundingPolicy, target btcutil.Amount, logger *slog.Logger) (btcutil.Address, error) {
	height, err := miner.GetBlockCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get block count: %w", err)
	}

	balance, err := miner.GetBalance()
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	expected := policy.ExpectedReward(params, height)
	if balance+expected < target {
		return nil, fmt.Errorf("%w: %d mature blocks from height %d yield %v, have %v, need %v",
			ErrFundingPolicyTooSmall, policy.SpendableBlocks, height, expected, balance, target)
	}

	addr, err := miner.GetNewAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to get new address: %w", err)
	}
	logger.Info("Generated mining address", slog.String("address", addr.EncodeAddress()))

	blocks := policy.Blocks()
	_, err = miner.GenerateToAddress(blocks, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to mine %d blocks: %w", blocks, err)
	}
	logger.Info("Mined funding blocks",
		slog.Int64("blocks", blocks),
		slog.Int64("from_height", height),
		slog.String("expected_reward", expected.String()))

	balance, err = WaitForFunds(ctx, miner, target, policy, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Wallet funded", slog.String("balance", balance.String()))

	return addr, nil
}

// WaitForFunds polls the wallet balance until it reaches target or the
// policy's settle timeout runs out. A failing balance query ends the wait at once.
func WaitForFunds(ctx context.Context, miner Miner, target btcutil.Amount, policy FundingPolicy, logger *slog.Logger) (btcutil.Amount, error) {
	var retries uint64
	if policy.SettleInterval > 0 {
		retries = uint64(policy.SettleTimeout / policy.SettleInterval)
	}

	policyContext := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.SettleInterval), retries), ctx)

	var queryErr error
	operation := func() (btcutil.Amount, error) {
		balance, err := miner.GetBalance()
		if err != nil {
			queryErr = fmt.Errorf("failed to get balance: %w", err)
			return 0, backoff.Permanent(queryErr)
		}
		if balance < target {
			return balance, fmt.Errorf("balance %v below %v", balance, target)
		}
		return balance, nil
	}

	notify := func(err error, nextTry time.Duration) {
		logger.Debug("Waiting for funds", slog.String("next try", nextTry.String()), slog.String("err", err.Error()))
	}

	balance, err := backoff.RetryNotifyWithData(operation, policyContext, notify)
	if err != nil {
		if queryErr != nil {
			return 0, queryErr
		}
		return balance, errors.Join(ErrFundsNotSettled, err)
	}

	return balance, nil
}
