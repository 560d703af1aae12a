package node

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
)

// ConnConfig describes how to reach the node's RPC server.
type ConnConfig struct {
	Host     string
	User     string
	Password string
	// Network is the rpcclient params name: "regtest", "testnet3", "signet" or "mainnet".
	Network string
}

// Client is a request/response gateway to a bitcoind RPC endpoint. A Client
// created with Connect talks to the node itself; ForWallet returns a Client
// whose wallet calls are routed to one named wallet.
type Client struct {
	rpc    *rpcclient.Client
	cfg    ConnConfig
	wallet string
}

// Connect creates a client for the node. HTTP POST mode is used, so no
// connection is opened until the first call.
func Connect(cfg ConnConfig) (*Client, error) {
	return dial(cfg, "")
}

func dial(cfg ConnConfig, wallet string) (*Client, error) {
	host := strings.TrimSuffix(cfg.Host, "/")
	if wallet != "" {
		host = fmt.Sprintf("%s/wallet/%s", host, wallet)
	}

	rpc, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         host,
		User:         cfg.User,
		Pass:         cfg.Password,
		Params:       cfg.Network,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client for %s: %w", host, err)
	}

	return &Client{rpc: rpc, cfg: cfg, wallet: wallet}, nil
}

// ForWallet returns a client routed to the named wallet.
func (c *Client) ForWallet(name string) (*Client, error) {
	if name == "" {
		return nil, fmt.Errorf("wallet name must not be empty")
	}
	return dial(c.cfg, name)
}

// Wallet is the wallet this client is routed to, empty for the node client.
func (c *Client) Wallet() string {
	return c.wallet
}

func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}

func (c *Client) CreateWallet(name string) error {
	_, err := c.rpc.CreateWallet(name)
	return err
}

func (c *Client) LoadWallet(name string) error {
	_, err := c.rpc.LoadWallet(name)
	return err
}

func (c *Client) GetNewAddress() (btcutil.Address, error) {
	return c.rpc.GetNewAddress("")
}

func (c *Client) GenerateToAddress(numBlocks int64, addr btcutil.Address) ([]*chainhash.Hash, error) {
	return c.rpc.GenerateToAddress(numBlocks, addr, nil)
}

// GetBalance returns the wallet's trusted spendable balance.
func (c *Client) GetBalance() (btcutil.Amount, error) {
	return c.rpc.GetBalance("*")
}

func (c *Client) GetBlockCount() (int64, error) {
	return c.rpc.GetBlockCount()
}

// FundRawTransaction asks the wallet to add inputs and a change output to tx
// at feeRate, expressed in BTC per kvB as the node expects it.
func (c *Client) FundRawTransaction(tx *wire.MsgTx, feeRate float64) (*wire.MsgTx, btcutil.Amount, error) {
	// Input-less transactions are ambiguous with the segwit marker, so the
	// node is told to decode them as legacy.
	isWitness := false
	res, err := c.rpc.FundRawTransaction(tx, btcjson.FundRawTransactionOpts{
		FeeRate: &feeRate,
	}, &isWitness)
	if err != nil {
		return nil, 0, err
	}
	return res.Transaction, res.Fee, nil
}

func (c *Client) SignRawTransactionWithWallet(tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	return c.rpc.SignRawTransactionWithWallet(tx)
}

func (c *Client) SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error) {
	return c.rpc.SendRawTransaction(tx, false)
}

// GetTransactionConfirmations reports the wallet's view of a transaction:
// its confirmation count and the hash of the block that mined it, if any.
func (c *Client) GetTransactionConfirmations(txHash *chainhash.Hash) (int64, string, error) {
	res, err := c.rpc.GetTransaction(txHash)
	if err != nil {
		return 0, "", err
	}
	return res.Confirmations, res.BlockHash, nil
}
