package signingWallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// LocalWallet holds a raw secp256k1 key in process memory
type LocalWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewLocalWallet(privateKey *ecdsa.PrivateKey) (*LocalWallet, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}
	return &LocalWallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// NewLocalWalletFromHex parses a hex private key, with or without the 0x prefix
func NewLocalWalletFromHex(privateKeyHex string) (*LocalWallet, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewLocalWallet(privateKey)
}

func (lw *LocalWallet) GetAddress() common.Address {
	return lw.address
}

func (lw *LocalWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	return lw.signHash(accounts.TextHash(message))
}

func (lw *LocalWallet) SignTypedData(ctx context.Context, domain apitypes.TypedDataDomain, types apitypes.Types, message apitypes.TypedDataMessage) ([]byte, error) {
	typedData, err := typedDataFor(domain, types, message)
	if err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return lw.signHash(hash)
}

func (lw *LocalWallet) SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), lw.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

func (lw *LocalWallet) signHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, lw.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
