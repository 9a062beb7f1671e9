package web3signer

import (
	"context"
	"net/http"
)

// IWeb3Signer is the Ethereum JSON-RPC surface of a web3signer instance that remote
// wallets sign through. Accounts and payloads are hex strings as they go on the wire.
type IWeb3Signer interface {
	SetHttpClient(client *http.Client)

	// EthAccounts lists the addresses the signer holds keys for (eth_accounts)
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSignTransaction returns the RLP encoded signed transaction (eth_signTransaction)
	EthSignTransaction(ctx context.Context, from string, transaction map[string]interface{}) (string, error)

	// EthSign signs data with the EIP-191 personal message prefix (eth_sign)
	EthSign(ctx context.Context, account string, data string) (string, error)

	// EthSignTypedData signs EIP-712 typed data (eth_signTypedData)
	EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error)
}

var _ IWeb3Signer = (*Client)(nil)
