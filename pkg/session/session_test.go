package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/Layr-Labs/arc-crypto-go/pkg/contractCaller"
	"github.com/Layr-Labs/arc-crypto-go/pkg/dispatcher"
	"github.com/Layr-Labs/arc-crypto-go/pkg/keyDerivation"
	"github.com/Layr-Labs/arc-crypto-go/pkg/messageHasher"
	"github.com/Layr-Labs/arc-crypto-go/pkg/registration"
	"github.com/Layr-Labs/arc-crypto-go/pkg/signingWallet"
	"github.com/Layr-Labs/arc-crypto-go/pkg/starkSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// anvil account 0
const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const (
	operatorAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	assetAddress    = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	assetTypeHex    = "0x2893294412a4c8f915f75892b395ebbf6859ec246ec365c3b1f56f47c3a0a5d"
)

// countingWallet wraps a local wallet and counts personal sign requests
type countingWallet struct {
	*signingWallet.LocalWallet
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func newCountingWallet(t *testing.T) *countingWallet {
	w, err := signingWallet.NewLocalWalletFromHex(testPrivateKey)
	require.NoError(t, err)
	return &countingWallet{LocalWallet: w}
}

func (c *countingWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	c.mu.Lock()
	c.messages = append(c.messages, message)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.LocalWallet.SignMessage(ctx, message)
}

var _ signingWallet.ISigningWallet = (*countingWallet)(nil)

func setupSession(t *testing.T) (*Session, *countingWallet, *contractCaller.MockContractCallerStub) {
	wallet := newCountingWallet(t)
	stub := contractCaller.NewMockContractCallerStub()
	s, err := NewBuilder(wallet, zaptest.NewLogger(t)).
		WithDispatcher(dispatcher.NewDispatcher(stub, zaptest.NewLogger(t))).
		Build(context.Background())
	require.NoError(t, err)
	return s, wallet, stub
}

func referenceOrder() *types.LimitOrderMessage {
	return &types.LimitOrderMessage{
		SellVault:   21,
		BuyVault:    27,
		SellAmount:  "2154686749748910716",
		BuyAmount:   "1470242115489520459",
		SellAssetId: "0x5fa3383597691ea9d827a79e1a4f0f7989c35ced18ca9619de8ab97e661020",
		BuyAssetId:  "0x774961c824a3b0fb3d2965f01471c9c7734bf8dbde659e0c08dca2ef18d56a",
		Nonce:       0,
		Expiration:  438953,
	}
}

func Test_Builder(t *testing.T) {
	ctx := context.Background()

	t.Run("Should derive the keypair from the key derivation signature", func(t *testing.T) {
		s, wallet, _ := setupSession(t)

		require.Len(t, wallet.messages, 1)
		assert.Equal(t, config.DefaultKeyDerivationMessage, string(wallet.messages[0]))

		sig, err := wallet.LocalWallet.SignMessage(ctx, []byte(config.DefaultKeyDerivationMessage))
		require.NoError(t, err)
		expected, err := keyDerivation.Derive(sig)
		require.NoError(t, err)

		assert.True(t, expected.Equal(s.StarkKeyPair()))
		assert.Equal(t, wallet.GetAddress(), s.Wallet().GetAddress())
	})

	t.Run("Should sign a custom key derivation message", func(t *testing.T) {
		wallet := newCountingWallet(t)
		_, err := NewBuilder(wallet, zaptest.NewLogger(t)).
			WithKeyDerivationMessage("custom message").
			Build(ctx)
		require.NoError(t, err)
		assert.Equal(t, "custom message", string(wallet.messages[0]))
	})

	t.Run("Should require a wallet", func(t *testing.T) {
		_, err := NewBuilder(nil, zaptest.NewLogger(t)).Build(ctx)
		assert.True(t, errors.Is(err, types.ErrMissingWallet))
	})

	t.Run("Should not produce a session when the wallet refuses to sign", func(t *testing.T) {
		wallet := newCountingWallet(t)
		wallet.err = fmt.Errorf("user rejected the request")

		s, err := NewBuilder(wallet, zaptest.NewLogger(t)).Build(ctx)
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, wallet.err))
	})

	t.Run("Should hand out copies of the keypair", func(t *testing.T) {
		s, _, _ := setupSession(t)
		kp := s.StarkKeyPair()
		kp.SecretKey.SetInt64(1)
		assert.NotEqual(t, 0, s.StarkKeyPair().SecretKey.Cmp(big.NewInt(1)))
	})
}

func Test_SessionSigning(t *testing.T) {
	s, _, _ := setupSession(t)
	publicKey := s.StarkKeyPair().PublicKey

	t.Run("Should sign limit orders verifiably", func(t *testing.T) {
		sig, err := s.SignOrder(referenceOrder())
		require.NoError(t, err)

		hash, err := messageHasher.HashLimitOrder(referenceOrder())
		require.NoError(t, err)
		assert.True(t, starkSigner.Verify(publicKey, hash, sig))
	})

	t.Run("Should sign transfers and marketplace orders", func(t *testing.T) {
		payload := "0x5a3b9e7c1d0f"
		transferSig, err := s.SignTransfer(&types.TransferMessage{SignablePayload: payload})
		require.NoError(t, err)
		orderSig, err := s.SignMarketplaceOrder(&types.MarketplaceOrderMessage{SignablePayload: payload})
		require.NoError(t, err)

		hash, err := types.ParseHexBig(payload)
		require.NoError(t, err)
		assert.True(t, starkSigner.Verify(publicKey, hash, transferSig))
		assert.True(t, transferSig.Equal(orderSig))
	})

	t.Run("Should reject payloads outside the signable domain", func(t *testing.T) {
		tooWide := "0x" + new(big.Int).Lsh(big.NewInt(1), 251).Text(16)
		_, err := s.SignTransfer(&types.TransferMessage{SignablePayload: tooWide})
		assert.True(t, errors.Is(err, types.ErrInvalidHashDomain))
	})

	t.Run("Should propagate field range errors", func(t *testing.T) {
		order := referenceOrder()
		order.SellVault = 1 << 31
		_, err := s.SignOrder(order)
		assert.True(t, errors.Is(err, types.ErrFieldOutOfRange))

		order = referenceOrder()
		order.Expiration = 123123123
		sig, err := s.SignOrder(order)
		assert.Nil(t, sig)
		assert.True(t, errors.Is(err, types.ErrFieldOutOfRange))
	})

	t.Run("Should sign concurrently", func(t *testing.T) {
		expected, err := s.SignOrder(referenceOrder())
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]*types.StarkSignature, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = s.SignOrder(referenceOrder())
			}(i)
		}
		wg.Wait()

		for _, sig := range results {
			assert.True(t, expected.Equal(sig))
		}
	})
}

func Test_SessionRegister(t *testing.T) {
	t.Run("Should register the session identity", func(t *testing.T) {
		s, wallet, _ := setupSession(t)
		details := registration.BuildRegistrationTypedData(apitypes.TypedDataDomain{
			Name:    "Arc",
			Version: "1.0.0",
			ChainId: math.NewHexOrDecimal256(11155111),
		}, "alice", s.StarkKeyPair().PublicKey, wallet.GetAddress())

		claim, err := s.Register(context.Background(), details)
		require.NoError(t, err)
		assert.Equal(t, s.StarkKeyPair().PublicKey.Text(16), claim.StarkKey)
		assert.Equal(t, wallet.GetAddress().Hex(), claim.Address)

		hash, err := messageHasher.HashIdentityClaim(wallet.GetAddress())
		require.NoError(t, err)
		assert.True(t, starkSigner.Verify(s.StarkKeyPair().PublicKey, hash, claim.StarkSignature))
	})
}

func Test_SessionOnChain(t *testing.T) {
	ctx := context.Background()

	t.Run("Should approve then deposit ERC20", func(t *testing.T) {
		s, _, stub := setupSession(t)
		action, err := s.Deposit(ctx, &types.DepositDetails{
			DepositFunction:         dispatcher.DepositFunction_Erc20,
			OperatorContractAddress: operatorAddress,
			AssetContractAddress:    assetAddress,
			StarkKey:                s.StarkKeyPair().PublicKeyHex(),
			AssetType:               assetTypeHex,
			VaultId:                 "7",
			Amount:                  "1000000",
			QuantizedAmount:         "100",
		})
		require.NoError(t, err)
		assert.Equal(t, dispatcher.ActionState_Done, action.State())
		assert.Equal(t, []string{"approve", "depositERC20"}, stub.Methods())
		assert.Equal(t, common.HexToAddress(assetAddress), stub.Calls()[0].Contract)
	})

	t.Run("Should withdraw", func(t *testing.T) {
		s, _, stub := setupSession(t)
		action, err := s.Withdraw(ctx, &types.WithdrawDetails{
			WithdrawFunction:        dispatcher.WithdrawFunction_Plain,
			OperatorContractAddress: operatorAddress,
			StarkKey:                s.StarkKeyPair().PublicKeyHex(),
			AssetType:               assetTypeHex,
		})
		require.NoError(t, err)
		assert.Equal(t, dispatcher.ActionState_Done, action.State())
		assert.Equal(t, []string{"withdraw"}, stub.Methods())
	})

	t.Run("Should return the failed action", func(t *testing.T) {
		s, _, stub := setupSession(t)
		stub.FailOn("deposit", fmt.Errorf("insufficient funds"))

		action, err := s.Deposit(ctx, &types.DepositDetails{
			DepositFunction:         dispatcher.DepositFunction_Eth,
			OperatorContractAddress: operatorAddress,
			StarkKey:                s.StarkKeyPair().PublicKeyHex(),
			AssetType:               assetTypeHex,
			VaultId:                 "7",
			Amount:                  "1000000",
			QuantizedAmount:         "100",
		})
		assert.True(t, errors.Is(err, types.ErrContractCallReverted))
		require.NotNil(t, action)
		assert.Equal(t, dispatcher.ActionState_Failed, action.State())
	})

	t.Run("Should reject unknown deposit functions without calls", func(t *testing.T) {
		s, _, stub := setupSession(t)
		_, err := s.Deposit(ctx, &types.DepositDetails{DepositFunction: "depositBtc"})
		assert.True(t, errors.Is(err, types.ErrUnsupportedDepositVariant))
		assert.Empty(t, stub.Calls())
	})

	t.Run("Should fail without a chain connection", func(t *testing.T) {
		s, err := NewBuilder(newCountingWallet(t), zaptest.NewLogger(t)).Build(ctx)
		require.NoError(t, err)
		_, err = s.Withdraw(ctx, &types.WithdrawDetails{WithdrawFunction: dispatcher.WithdrawFunction_Plain})
		assert.Error(t, err)
	})
}

type staticChainID struct {
	id *big.Int
}

func (s staticChainID) ChainID(ctx context.Context) (*big.Int, error) {
	return s.id, nil
}

func Test_NewSessionFromConfig(t *testing.T) {
	t.Run("Should reject an invalid config before dialing", func(t *testing.T) {
		_, err := NewSessionFromConfig(context.Background(), &config.SessionConfig{
			ChainID: config.ChainId_EthereumSepolia,
		}, zaptest.NewLogger(t))
		assert.Error(t, err)
	})

	t.Run("Should reject a nil config", func(t *testing.T) {
		_, err := NewSessionFromConfig(context.Background(), nil, zaptest.NewLogger(t))
		assert.Error(t, err)
	})

	t.Run("Should compare the endpoint chain with the configured one", func(t *testing.T) {
		ctx := context.Background()
		assert.NoError(t, checkChainID(ctx, staticChainID{id: big.NewInt(11155111)}, config.ChainId_EthereumSepolia))
		assert.Error(t, checkChainID(ctx, staticChainID{id: big.NewInt(1)}, config.ChainId_EthereumSepolia))
	})
}
