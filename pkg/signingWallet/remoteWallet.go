package signingWallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/clients/web3signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

// IRemoteBroker is a signer whose key lives outside this process
type IRemoteBroker interface {
	Address() common.Address
	SignPersonalMessage(ctx context.Context, message []byte) ([]byte, error)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
	SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// RemoteWallet delegates every signature to an IRemoteBroker
type RemoteWallet struct {
	broker IRemoteBroker
	logger *zap.Logger
}

func NewRemoteWallet(broker IRemoteBroker, logger *zap.Logger) *RemoteWallet {
	return &RemoteWallet{
		broker: broker,
		logger: logger,
	}
}

func (rw *RemoteWallet) GetAddress() common.Address {
	return rw.broker.Address()
}

func (rw *RemoteWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	rw.logger.Sugar().Debugw("Requesting remote message signature", "address", rw.broker.Address().Hex())

	sig, err := rw.broker.SignPersonalMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	return normalizeSignature(sig)
}

func (rw *RemoteWallet) SignTypedData(ctx context.Context, domain apitypes.TypedDataDomain, types apitypes.Types, message apitypes.TypedDataMessage) ([]byte, error) {
	typedData, err := typedDataFor(domain, types, message)
	if err != nil {
		return nil, err
	}

	rw.logger.Sugar().Debugw("Requesting remote typed data signature",
		"address", rw.broker.Address().Hex(),
		"primaryType", typedData.PrimaryType,
	)

	sig, err := rw.broker.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, err
	}
	return normalizeSignature(sig)
}

func (rw *RemoteWallet) SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := rw.broker.SignTransaction(ctx, tx, chainID)
	if err != nil {
		return nil, err
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		return nil, fmt.Errorf("remote signer returned an unverifiable transaction: %w", err)
	}
	if sender != rw.broker.Address() {
		return nil, fmt.Errorf("remote signer signed as %s, expected %s", sender.Hex(), rw.broker.Address().Hex())
	}
	return signed, nil
}

// normalizeSignature enforces the 65 byte layout and moves v into {27, 28}
func normalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("remote signature has %d bytes, expected %d", len(sig), crypto.SignatureLength)
	}
	out := append([]byte(nil), sig...)
	if out[crypto.RecoveryIDOffset] < 27 {
		out[crypto.RecoveryIDOffset] += 27
	}
	return out, nil
}

// Web3SignerBroker adapts a Web3Signer JSON-RPC client to IRemoteBroker
type Web3SignerBroker struct {
	client  web3signer.IWeb3Signer
	address common.Address
}

func NewWeb3SignerBroker(client web3signer.IWeb3Signer, address common.Address) *Web3SignerBroker {
	return &Web3SignerBroker{
		client:  client,
		address: address,
	}
}

func (b *Web3SignerBroker) Address() common.Address {
	return b.address
}

func (b *Web3SignerBroker) SignPersonalMessage(ctx context.Context, message []byte) ([]byte, error) {
	sigHex, err := b.client.EthSign(ctx, b.address.Hex(), hexutil.Encode(message))
	if err != nil {
		return nil, fmt.Errorf("failed to sign message with Web3Signer: %w", err)
	}
	return hexutil.Decode(sigHex)
}

func (b *Web3SignerBroker) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	sigHex, err := b.client.EthSignTypedData(ctx, b.address.Hex(), typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data with Web3Signer: %w", err)
	}
	return hexutil.Decode(sigHex)
}

func (b *Web3SignerBroker) SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if tx.To() == nil {
		return nil, fmt.Errorf("contract creation is not supported by the remote wallet")
	}

	txData := map[string]interface{}{
		"to":                   tx.To().Hex(),
		"value":                hexutil.EncodeBig(tx.Value()),
		"gas":                  hexutil.EncodeUint64(tx.Gas()),
		"maxPriorityFeePerGas": hexutil.EncodeBig(tx.GasTipCap()),
		"maxFeePerGas":         hexutil.EncodeBig(tx.GasFeeCap()),
		"nonce":                hexutil.EncodeUint64(tx.Nonce()),
		"data":                 hexutil.Encode(tx.Data()),
		"type":                 "0x2", // EIP-1559 transaction type
		"chainId":              hexutil.EncodeBig(chainID),
	}

	signedTxHex, err := b.client.EthSignTransaction(ctx, b.address.Hex(), txData)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction with Web3Signer: %w", err)
	}

	signedTxBytes, err := hexutil.Decode(signedTxHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	var signedTx types.Transaction
	if err := signedTx.UnmarshalBinary(signedTxBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signed transaction: %w", err)
	}
	return &signedTx, nil
}
