package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForWallet(t *testing.T) {
	// given
	base, err := Connect(ConnConfig{Host: "127.0.0.1:18443/", User: "alice", Password: "password", Network: "regtest"})
	require.NoError(t, err)
	defer base.Shutdown()

	// when
	walletClient, err := base.ForWallet("testwallet")

	// then
	require.NoError(t, err)
	defer walletClient.Shutdown()
	require.Empty(t, base.Wallet())
	require.Equal(t, "testwallet", walletClient.Wallet())

	_, err = base.ForWallet("")
	require.Error(t, err)
}
