package node

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
)

// Node error codes not exported by btcjson.
const (
	codeWalletError         btcjson.RPCErrorCode = -4
	codeWalletAlreadyLoaded btcjson.RPCErrorCode = -35
)

// ErrorKind is the classification of a node-reported error.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindWalletExists
	KindWalletAlreadyLoaded
)

func (k ErrorKind) String() string {
	switch k {
	case KindWalletExists:
		return "wallet exists"
	case KindWalletAlreadyLoaded:
		return "wallet already loaded"
	default:
		return "other"
	}
}

// Classify maps an error returned by a Client call to an ErrorKind. Errors
// that did not come from the node (transport failures) are KindOther.
//
// Older nodes report both wallet conditions as a generic wallet error (-4), so
// for that code the message is the only discriminator left.
func Classify(err error) ErrorKind {
	var rpcErr *btcjson.RPCError
	if !errors.As(err, &rpcErr) {
		return KindOther
	}

	switch rpcErr.Code {
	case codeWalletAlreadyLoaded:
		return KindWalletAlreadyLoaded
	case codeWalletError:
		msg := strings.ToLower(rpcErr.Message)
		switch {
		case strings.Contains(msg, "already loaded"):
			return KindWalletAlreadyLoaded
		case strings.Contains(msg, "already exists"):
			return KindWalletExists
		}
	}

	return KindOther
}

// IsNodeError reports whether err was produced by the node rather than by the transport.
func IsNodeError(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr)
}
