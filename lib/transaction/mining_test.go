package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"

	"github.com/Maphikza/btc-opreturn-regtest/internal/nodetest"
)

func testPolicy() FundingPolicy {
	return NewFundingPolicy(regtest, 101, time.Millisecond, 50*time.Millisecond)
}

func TestFundingPolicy(t *testing.T) {
	policy := testPolicy()

	require.Equal(t, int64(100), policy.Maturity)
	require.Equal(t, int64(201), policy.Blocks())
	require.Equal(t, btcutil.Amount(101*50*btcutil.SatoshiPerBitcoin), policy.ExpectedReward(regtest, 0))

	// regtest halves the subsidy every 150 blocks
	policy.SpendableBlocks = 2
	require.Equal(t, btcutil.Amount(75*btcutil.SatoshiPerBitcoin), policy.ExpectedReward(regtest, 148))
}

func TestFundWallet(t *testing.T) {
	target := btcutil.Amount(100 * btcutil.SatoshiPerBitcoin)

	t.Run("mines past maturity on an empty wallet", func(t *testing.T) {
		// given
		n := nodetest.New(regtest)

		// when
		addr, err := FundWallet(context.Background(), n, regtest, testPolicy(), target, discardLogger())

		// then
		require.NoError(t, err)
		require.NotNil(t, addr)
		require.Equal(t, int64(201), n.Height())

		balance, err := n.GetBalance()
		require.NoError(t, err)
		require.Equal(t, btcutil.Amount(101*50*btcutil.SatoshiPerBitcoin), balance)
	})

	t.Run("waits for a lagging balance", func(t *testing.T) {
		// given
		n := nodetest.New(regtest)
		n.BalanceLag = 3

		// when
		_, err := FundWallet(context.Background(), n, regtest, testPolicy(), target, discardLogger())

		// then
		require.NoError(t, err)
		var balanceCalls int
		for _, c := range n.Calls {
			if c == nodetest.MethodGetBalance {
				balanceCalls++
			}
		}
		// one before mining, three lagging, one settled
		require.Equal(t, 5, balanceCalls)
	})

	t.Run("gives up when the balance never settles", func(t *testing.T) {
		// given
		n := nodetest.New(regtest)
		n.BalanceLag = 1000

		// when
		_, err := FundWallet(context.Background(), n, regtest, testPolicy(), target, discardLogger())

		// then
		require.ErrorIs(t, err, ErrFundsNotSettled)
	})

	t.Run("rejects a policy that cannot cover the payment", func(t *testing.T) {
		// given
		n := nodetest.New(regtest)
		policy := testPolicy()
		policy.SpendableBlocks = 1

		// when
		_, err := FundWallet(context.Background(), n, regtest, policy, target, discardLogger())

		// then
		require.ErrorIs(t, err, ErrFundingPolicyTooSmall)
		require.Zero(t, n.Height())
	})

	t.Run("node failure aborts funding", func(t *testing.T) {
		// given
		n := nodetest.New(regtest)
		n.Fail[nodetest.MethodGenerateToAddress] = errors.New("connection refused")

		// when
		_, err := FundWallet(context.Background(), n, regtest, testPolicy(), target, discardLogger())

		// then
		require.ErrorContains(t, err, "connection refused")
		require.NotErrorIs(t, err, ErrFundsNotSettled)
	})
}

func TestWaitForFundsBalanceError(t *testing.T) {
	n := nodetest.New(regtest)
	n.Fail[nodetest.MethodGetBalance] = errors.New("connection refused")

	_, err := WaitForFunds(context.Background(), n, 1, testPolicy(), discardLogger())

	require.ErrorContains(t, err, "connection refused")
	require.NotErrorIs(t, err, ErrFundsNotSettled)
	require.Len(t, n.Calls, 1)
}
