package signingWallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/arc-crypto-go/pkg/clients/awsKmsSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/clients/web3signer"
	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

// ISigningWallet is the Ethereum side of a session: it owns the account that signs the
// key derivation message, registration typed data and on-chain transactions.
type ISigningWallet interface {
	GetAddress() common.Address

	// SignMessage signs message with the EIP-191 personal message prefix.
	// The result is r||s||v with v in {27, 28}.
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	// SignTypedData signs the EIP-712 (v4) hash of the typed data.
	// The result is r||s||v with v in {27, 28}.
	SignTypedData(ctx context.Context, domain apitypes.TypedDataDomain, types apitypes.Types, message apitypes.TypedDataMessage) ([]byte, error)

	SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// NewSigningWalletFromConfig builds the wallet variant selected by cfg.Type
func NewSigningWalletFromConfig(ctx context.Context, cfg *config.WalletConfig, logger *zap.Logger) (ISigningWallet, error) {
	if cfg == nil {
		return nil, fmt.Errorf("wallet config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wallet config: %w", err)
	}

	switch cfg.Type {
	case config.WalletType_Local:
		return NewLocalWalletFromHex(cfg.LocalPrivateKey)

	case config.WalletType_Web3Signer:
		client, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(cfg.RemoteSigner, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create web3signer client: %w", err)
		}
		broker := NewWeb3SignerBroker(client, common.HexToAddress(cfg.RemoteSigner.FromAddress))
		return NewRemoteWallet(broker, logger), nil

	case config.WalletType_AWSKMS:
		signer, err := awsKmsSigner.NewSignerFromConfig(ctx, cfg.AWSKMS, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS KMS signer: %w", err)
		}
		return NewRemoteWallet(signer, logger), nil

	default:
		return nil, fmt.Errorf("unsupported wallet type %q", cfg.Type)
	}
}

// typedDataFor assembles the apitypes.TypedData that both wallet variants hash. The
// EIP712Domain type is derived from the populated domain fields when the caller did
// not declare it.
func typedDataFor(domain apitypes.TypedDataDomain, types apitypes.Types, message apitypes.TypedDataMessage) (apitypes.TypedData, error) {
	primaryType, err := primaryTypeOf(types)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	allTypes := make(apitypes.Types, len(types)+1)
	for name, fields := range types {
		allTypes[name] = fields
	}
	if _, ok := allTypes["EIP712Domain"]; !ok {
		allTypes["EIP712Domain"] = domainType(domain)
	}

	return apitypes.TypedData{
		Types:       allTypes,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}, nil
}

// primaryTypeOf returns the one type that no other type references
func primaryTypeOf(types apitypes.Types) (string, error) {
	referenced := make(map[string]bool)
	for name, fields := range types {
		if name == "EIP712Domain" {
			continue
		}
		for _, f := range fields {
			referenced[strings.Split(f.Type, "[")[0]] = true
		}
	}

	var candidates []string
	for name := range types {
		if name == "EIP712Domain" || referenced[name] {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) != 1 {
		return "", fmt.Errorf("expected exactly one primary type, found %d", len(candidates))
	}
	return candidates[0], nil
}

func domainType(domain apitypes.TypedDataDomain) []apitypes.Type {
	var fields []apitypes.Type
	if domain.Name != "" {
		fields = append(fields, apitypes.Type{Name: "name", Type: "string"})
	}
	if domain.Version != "" {
		fields = append(fields, apitypes.Type{Name: "version", Type: "string"})
	}
	if domain.ChainId != nil {
		fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if domain.VerifyingContract != "" {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	if domain.Salt != "" {
		fields = append(fields, apitypes.Type{Name: "salt", Type: "bytes32"})
	}
	return fields
}
