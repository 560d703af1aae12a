// Package nodetest provides an in-memory stand-in for a regtest node's RPC
// interface, good enough to drive the transaction pipeline in tests.
package nodetest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Method names used as keys of Node.Fail.
const (
	MethodCreateWallet      = "createwallet"
	MethodLoadWallet        = "loadwallet"
	MethodGetNewAddress     = "getnewaddress"
	MethodGenerateToAddress = "generatetoaddress"
	MethodGetBalance        = "getbalance"
	MethodGetBlockCount     = "getblockcount"
	MethodFundRawTx         = "fundrawtransaction"
	MethodSignRawTx         = "signrawtransactionwithwallet"
	MethodSendRawTx         = "sendrawtransaction"
	MethodGetTransaction    = "gettransaction"
)

// Sizes of the dummy P2WPKH witness attached when signing.
const (
	dummySigSize    = 72
	dummyPubKeySize = 33
)

// instances gives every Node its own key space, so two nodes never hand out
// the same addresses or outpoints.
var instances atomic.Uint32

type walletState struct {
	loaded bool
}

type coinbase struct {
	height int64
	value  btcutil.Amount
}

type mempoolTx struct {
	tx          *wire.MsgTx
	blockHeight int64
	blockHash   string
}

// Node is a fake node with a single wallet view. The zero value is not
// usable; create one with New.
type Node struct {
	mu sync.Mutex

	params  *chaincfg.Params
	id      uint32
	wallets map[string]*walletState
	height  int64

	addrCount uint32
	ownScript map[string]bool
	coinbases []coinbase
	spent     btcutil.Amount
	inputs    map[wire.OutPoint]btcutil.Amount
	txs       map[chainhash.Hash]*mempoolTx

	// Fail makes the named method return the error instead of running.
	Fail map[string]error
	// Incomplete makes signing report an incomplete signature.
	Incomplete bool
	// BalanceLag is how many balance queries after mining still see the old balance.
	BalanceLag int
	// Calls records every method invoked, in order.
	Calls []string

	lagRemaining int
	lagBalance   btcutil.Amount
}

func New(params *chaincfg.Params) *Node {
	return &Node{
		params:    params,
		id:        instances.Add(1),
		wallets:   make(map[string]*walletState),
		ownScript: make(map[string]bool),
		inputs:    make(map[wire.OutPoint]btcutil.Amount),
		txs:       make(map[chainhash.Hash]*mempoolTx),
		Fail:      make(map[string]error),
	}
}

// AddWallet registers a wallet on disk, loaded or not.
func (n *Node) AddWallet(name string, loaded bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.wallets[name] = &walletState{loaded: loaded}
}

// WalletLoaded reports whether the named wallet exists and is loaded.
func (n *Node) WalletLoaded(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	w, ok := n.wallets[name]
	return ok && w.loaded
}

func (n *Node) Height() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

// Transaction returns a broadcast transaction by id.
func (n *Node) Transaction(txid chainhash.Hash) (*wire.MsgTx, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	mtx, ok := n.txs[txid]
	if !ok {
		return nil, false
	}
	return mtx.tx.Copy(), true
}

func (n *Node) call(method string) error {
	n.Calls = append(n.Calls, method)
	if err, ok := n.Fail[method]; ok {
		return err
	}
	return nil
}

func (n *Node) CreateWallet(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodCreateWallet); err != nil {
		return err
	}
	if _, ok := n.wallets[name]; ok {
		return &btcjson.RPCError{
			Code:    -4,
			Message: fmt.Sprintf("Wallet file verification failed. Failed to create database path '/regtest/wallets/%s'. Database already exists.", name),
		}
	}
	n.wallets[name] = &walletState{loaded: true}
	return nil
}

func (n *Node) LoadWallet(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodLoadWallet); err != nil {
		return err
	}
	w, ok := n.wallets[name]
	if !ok {
		return &btcjson.RPCError{Code: -18, Message: fmt.Sprintf("Wallet file not found: %s", name)}
	}
	if w.loaded {
		return &btcjson.RPCError{Code: -35, Message: fmt.Sprintf("Wallet \"%s\" is already loaded.", name)}
	}
	w.loaded = true
	return nil
}

func (n *Node) newAddress() (btcutil.Address, error) {
	n.addrCount++
	var seed [8]byte
	binary.BigEndian.PutUint32(seed[:4], n.id)
	binary.BigEndian.PutUint32(seed[4:], n.addrCount)
	hash := btcutil.Hash160(seed[:])

	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, n.params)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}
	n.ownScript[string(script)] = true
	return addr, nil
}

func (n *Node) GetNewAddress() (btcutil.Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodGetNewAddress); err != nil {
		return nil, err
	}
	return n.newAddress()
}

func (n *Node) GenerateToAddress(numBlocks int64, addr btcutil.Address) ([]*chainhash.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodGenerateToAddress); err != nil {
		return nil, err
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, &btcjson.RPCError{Code: -5, Message: "Invalid address"}
	}
	own := n.ownScript[string(script)]

	n.lagBalance = n.matureBalance()
	n.lagRemaining = n.BalanceLag

	hashes := make([]*chainhash.Hash, 0, numBlocks)
	for i := int64(0); i < numBlocks; i++ {
		n.height++
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(n.height))
		hash := chainhash.DoubleHashH(b[:])
		hashes = append(hashes, &hash)

		if own {
			n.coinbases = append(n.coinbases, coinbase{
				height: n.height,
				value:  btcutil.Amount(blockchain.CalcBlockSubsidy(int32(n.height), n.params)),
			})
		}
		for _, mtx := range n.txs {
			if mtx.blockHash == "" {
				mtx.blockHeight = n.height
				mtx.blockHash = hash.String()
			}
		}
	}
	return hashes, nil
}

// matureBalance is the wallet's spendable balance: coinbases at least
// CoinbaseMaturity blocks deep, less what has been sent away.
func (n *Node) matureBalance() btcutil.Amount {
	var total btcutil.Amount
	for _, cb := range n.coinbases {
		if n.height-cb.height >= int64(n.params.CoinbaseMaturity) {
			total += cb.value
		}
	}
	return total - n.spent
}

func (n *Node) GetBalance() (btcutil.Amount, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodGetBalance); err != nil {
		return 0, err
	}
	if n.lagRemaining > 0 {
		n.lagRemaining--
		return n.lagBalance, nil
	}
	return n.matureBalance(), nil
}

func (n *Node) GetBlockCount() (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodGetBlockCount); err != nil {
		return 0, err
	}
	return n.height, nil
}

func attachDummyWitness(tx *wire.MsgTx) {
	for _, in := range tx.TxIn {
		in.Witness = wire.TxWitness{
			bytes.Repeat([]byte{0x30}, dummySigSize),
			bytes.Repeat([]byte{0x02}, dummyPubKeySize),
		}
	}
}

// FundRawTransaction spends the whole mature balance through one input and
// returns the rest as change at output position 1.
func (n *Node) FundRawTransaction(tx *wire.MsgTx, feeRate float64) (*wire.MsgTx, btcutil.Amount, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodFundRawTx); err != nil {
		return nil, 0, err
	}

	available := n.matureBalance()
	var outputs btcutil.Amount
	for _, out := range tx.TxOut {
		outputs += btcutil.Amount(out.Value)
	}
	if available < outputs {
		return nil, 0, &btcjson.RPCError{Code: -4, Message: "Insufficient funds"}
	}

	funded := tx.Copy()
	var b [8]byte
	binary.BigEndian.PutUint32(b[:4], n.id)
	binary.BigEndian.PutUint32(b[4:], uint32(len(n.inputs)+1))
	outpoint := wire.OutPoint{Hash: chainhash.DoubleHashH(b[:]), Index: 0}
	funded.AddTxIn(wire.NewTxIn(&outpoint, nil, nil))

	changeAddr, err := n.newAddress()
	if err != nil {
		return nil, 0, err
	}
	changeScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return nil, 0, err
	}
	change := wire.NewTxOut(0, changeScript)
	funded.TxOut = append(funded.TxOut[:1], append([]*wire.TxOut{change}, funded.TxOut[1:]...)...)

	sized := funded.Copy()
	attachDummyWitness(sized)
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(sized))
	vsize := (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
	satPerVByte := feeRate * btcutil.SatoshiPerBitcoin / 1000
	fee := btcutil.Amount(math.Ceil(satPerVByte * float64(vsize)))

	if available < outputs+fee {
		return nil, 0, &btcjson.RPCError{Code: -4, Message: "Insufficient funds"}
	}
	change.Value = int64(available - outputs - fee)
	n.inputs[outpoint] = available

	return funded, fee, nil
}

func (n *Node) SignRawTransactionWithWallet(tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodSignRawTx); err != nil {
		return nil, false, err
	}
	signed := tx.Copy()
	attachDummyWitness(signed)
	if n.Incomplete && len(signed.TxIn) > 0 {
		signed.TxIn[0].Witness = nil
	}
	return signed, !n.Incomplete, nil
}

func (n *Node) SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodSendRawTx); err != nil {
		return nil, err
	}

	var in btcutil.Amount
	for _, txIn := range tx.TxIn {
		value, ok := n.inputs[txIn.PreviousOutPoint]
		if !ok {
			return nil, &btcjson.RPCError{Code: -25, Message: "bad-txns-inputs-missingorspent"}
		}
		in += value
	}
	var change btcutil.Amount
	for _, out := range tx.TxOut {
		if n.ownScript[string(out.PkScript)] {
			change += btcutil.Amount(out.Value)
		}
	}
	n.spent += in - change

	txid := tx.TxHash()
	n.txs[txid] = &mempoolTx{tx: tx.Copy()}
	return &txid, nil
}

func (n *Node) GetTransactionConfirmations(txHash *chainhash.Hash) (int64, string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.call(MethodGetTransaction); err != nil {
		return 0, "", err
	}
	mtx, ok := n.txs[*txHash]
	if !ok {
		return 0, "", &btcjson.RPCError{Code: -5, Message: "Invalid or non-wallet transaction id"}
	}
	if mtx.blockHash == "" {
		return 0, "", nil
	}
	return n.height - mtx.blockHeight + 1, mtx.blockHash, nil
}
