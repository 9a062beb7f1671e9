package web3signer

import (
	"context"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupFakeSigner(t *testing.T) (*Client, *FakeWeb3Signer) {
	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	fake := NewFakeWeb3Signer(privateKey)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseUrl = server.URL
	client, err := NewClient(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, fake
}

func recoverAddress(t *testing.T, hash []byte, sigHex string) common.Address {
	t.Helper()
	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, crypto.SignatureLength)
	sig[crypto.RecoveryIDOffset] -= 27

	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}

func Test_Client(t *testing.T) {
	ctx := context.Background()

	t.Run("Should list the signer accounts", func(t *testing.T) {
		client, fake := setupFakeSigner(t)

		accs, err := client.EthAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accs, 1)
		assert.True(t, strings.EqualFold(fake.Address().Hex(), accs[0]))
	})

	t.Run("Should sign a personal message", func(t *testing.T) {
		client, fake := setupFakeSigner(t)
		message := []byte("Only sign this request if you've initiated an action with Arc.")

		sig, err := client.EthSign(ctx, fake.Address().Hex(), hexutil.Encode(message))
		require.NoError(t, err)
		assert.Equal(t, fake.Address(), recoverAddress(t, accounts.TextHash(message), sig))
		assert.Equal(t, []string{"eth_sign"}, fake.Calls())
	})

	t.Run("Should sign typed data", func(t *testing.T) {
		client, fake := setupFakeSigner(t)
		typedData := apitypes.TypedData{
			Types: apitypes.Types{
				"EIP712Domain": {
					{Name: "name", Type: "string"},
					{Name: "version", Type: "string"},
					{Name: "chainId", Type: "uint256"},
				},
				"User": {
					{Name: "username", Type: "string"},
					{Name: "starkKey", Type: "string"},
				},
			},
			PrimaryType: "User",
			Domain: apitypes.TypedDataDomain{
				Name:    "Arc",
				Version: "1",
				ChainId: math.NewHexOrDecimal256(5),
			},
			Message: apitypes.TypedDataMessage{
				"username": "alice",
				"starkKey": "77a3b314db07c45076d11f62b6f9e748a39790441823307743cf00d6597ea43",
			},
		}

		sig, err := client.EthSignTypedData(ctx, fake.Address().Hex(), typedData)
		require.NoError(t, err)

		hash, _, err := apitypes.TypedDataAndHash(typedData)
		require.NoError(t, err)
		assert.Equal(t, fake.Address(), recoverAddress(t, hash, sig))
	})

	t.Run("Should sign a transaction", func(t *testing.T) {
		client, fake := setupFakeSigner(t)
		to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

		signedHex, err := client.EthSignTransaction(ctx, fake.Address().Hex(), map[string]interface{}{
			"to":                   to.Hex(),
			"value":                hexutil.EncodeBig(big.NewInt(1000)),
			"gas":                  hexutil.EncodeUint64(21000),
			"maxPriorityFeePerGas": hexutil.EncodeBig(big.NewInt(1)),
			"maxFeePerGas":         hexutil.EncodeBig(big.NewInt(2)),
			"nonce":                hexutil.EncodeUint64(7),
			"data":                 hexutil.Encode([]byte{0xde, 0xad}),
			"type":                 "0x2",
			"chainId":              hexutil.EncodeUint64(31337),
		})
		require.NoError(t, err)

		raw, err := hexutil.Decode(signedHex)
		require.NoError(t, err)
		var tx types.Transaction
		require.NoError(t, tx.UnmarshalBinary(raw))

		sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), &tx)
		require.NoError(t, err)
		assert.Equal(t, fake.Address(), sender)
		assert.Equal(t, uint64(7), tx.Nonce())
		assert.Equal(t, to, *tx.To())
	})

	t.Run("Should surface JSON-RPC errors", func(t *testing.T) {
		client, _ := setupFakeSigner(t)

		_, err := client.EthSign(ctx, "0x0000000000000000000000000000000000000001", "0x00")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown account")
	})

	t.Run("Should stop waiting for the rate limiter when the context ends", func(t *testing.T) {
		privateKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		server := httptest.NewServer(NewFakeWeb3Signer(privateKey))
		defer server.Close()

		client, err := NewClient(&Config{
			BaseUrl:           server.URL,
			RequestsPerSecond: 0.001,
			Burst:             1,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer client.Close()

		_, err = client.EthAccounts(ctx)
		require.NoError(t, err)

		shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = client.EthAccounts(shortCtx)
		assert.Error(t, err)
	})
}
