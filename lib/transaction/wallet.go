package transaction

import (
	"fmt"
	"log/slog"

	"github.com/Maphikza/btc-opreturn-regtest/internal/node"
)

// EnsureWallet makes sure the named wallet exists and is loaded. It tries to
// create the wallet first; if it already exists it loads it, and a wallet that
// is already loaded counts as success. Any other failure is returned.
func EnsureWallet(loader WalletLoader, name string, logger *slog.Logger) (WalletHandle, error) {
	if name == "" {
		return WalletHandle{}, fmt.Errorf("wallet name must not be empty")
	}

	err := loader.CreateWallet(name)
	if err == nil {
		logger.Info("Created wallet", slog.String("wallet", name))
		return WalletHandle{Name: name}, nil
	}

	switch node.Classify(err) {
	case node.KindWalletExists:
		logger.Info("Wallet already exists, loading it", slog.String("wallet", name))
	case node.KindWalletAlreadyLoaded:
		logger.Info("Wallet already loaded", slog.String("wallet", name))
		return WalletHandle{Name: name}, nil
	default:
		return WalletHandle{}, fmt.Errorf("failed to create wallet %s: %w", name, err)
	}

	err = loader.LoadWallet(name)
	if err == nil {
		logger.Info("Loaded wallet", slog.String("wallet", name))
		return WalletHandle{Name: name}, nil
	}

	if node.Classify(err) == node.KindWalletAlreadyLoaded {
		logger.Info("Wallet already loaded", slog.String("wallet", name))
		return WalletHandle{Name: name}, nil
	}

	return WalletHandle{}, fmt.Errorf("failed to load wallet %s: %w", name, err)
}
