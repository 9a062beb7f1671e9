package web3signer

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// FakeWeb3Signer is an http.Handler that answers the Web3Signer JSON-RPC methods with a
// single in-memory key. It is meant for tests that need a remote signer.
type FakeWeb3Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address

	mu    sync.Mutex
	calls []string
}

func NewFakeWeb3Signer(privateKey *ecdsa.PrivateKey) *FakeWeb3Signer {
	return &FakeWeb3Signer{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

func (f *FakeWeb3Signer) Address() common.Address {
	return f.address
}

// Calls returns the JSON-RPC methods received so far, in order
func (f *FakeWeb3Signer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type jsonRpcRequest struct {
	Id     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type jsonRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonRpcError   `json:"error,omitempty"`
}

func (f *FakeWeb3Signer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req jsonRpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, req.Method)
	f.mu.Unlock()

	resp := jsonRpcResponse{JsonRpc: "2.0", Id: req.Id}
	result, err := f.handle(&req)
	if err != nil {
		resp.Error = &jsonRpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *FakeWeb3Signer) handle(req *jsonRpcRequest) (interface{}, error) {
	switch req.Method {
	case "eth_accounts":
		return []string{f.address.Hex()}, nil
	case "eth_sign":
		if len(req.Params) != 2 {
			return nil, fmt.Errorf("eth_sign expects 2 params")
		}
		if err := f.checkAccount(req.Params[0]); err != nil {
			return nil, err
		}
		var data string
		if err := json.Unmarshal(req.Params[1], &data); err != nil {
			return nil, err
		}
		payload, err := hexutil.Decode(data)
		if err != nil {
			return nil, err
		}
		return f.sign(accounts.TextHash(payload))
	case "eth_signTypedData":
		if len(req.Params) != 2 {
			return nil, fmt.Errorf("eth_signTypedData expects 2 params")
		}
		if err := f.checkAccount(req.Params[0]); err != nil {
			return nil, err
		}
		var typedData apitypes.TypedData
		if err := json.Unmarshal(req.Params[1], &typedData); err != nil {
			return nil, err
		}
		hash, _, err := apitypes.TypedDataAndHash(typedData)
		if err != nil {
			return nil, err
		}
		return f.sign(hash)
	case "eth_signTransaction":
		if len(req.Params) != 1 {
			return nil, fmt.Errorf("eth_signTransaction expects 1 param")
		}
		var fields map[string]string
		if err := json.Unmarshal(req.Params[0], &fields); err != nil {
			return nil, err
		}
		return f.signTransaction(fields)
	default:
		return nil, fmt.Errorf("method %s not supported", req.Method)
	}
}

func (f *FakeWeb3Signer) checkAccount(raw json.RawMessage) error {
	var account string
	if err := json.Unmarshal(raw, &account); err != nil {
		return err
	}
	if !strings.EqualFold(account, f.address.Hex()) {
		return fmt.Errorf("unknown account %s", account)
	}
	return nil
}

func (f *FakeWeb3Signer) sign(hash []byte) (string, error) {
	sig, err := crypto.Sign(hash, f.privateKey)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func (f *FakeWeb3Signer) signTransaction(fields map[string]string) (string, error) {
	if !strings.EqualFold(fields["from"], f.address.Hex()) {
		return "", fmt.Errorf("unknown account %s", fields["from"])
	}

	bigField := func(name string) (*big.Int, error) {
		v, ok := fields[name]
		if !ok {
			return new(big.Int), nil
		}
		return hexutil.DecodeBig(v)
	}
	uintField := func(name string) (uint64, error) {
		v, ok := fields[name]
		if !ok {
			return 0, nil
		}
		return hexutil.DecodeUint64(v)
	}

	chainId, err := bigField("chainId")
	if err != nil {
		return "", err
	}
	value, err := bigField("value")
	if err != nil {
		return "", err
	}
	tipCap, err := bigField("maxPriorityFeePerGas")
	if err != nil {
		return "", err
	}
	feeCap, err := bigField("maxFeePerGas")
	if err != nil {
		return "", err
	}
	gas, err := uintField("gas")
	if err != nil {
		return "", err
	}
	nonce, err := uintField("nonce")
	if err != nil {
		return "", err
	}
	data, err := hexutil.Decode(fields["data"])
	if err != nil {
		return "", err
	}
	to := common.HexToAddress(fields["to"])

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainId,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainId), f.privateKey)
	if err != nil {
		return "", err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(raw), nil
}
