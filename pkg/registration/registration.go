package registration

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/arc-crypto-go/pkg/keyDerivation"
	"github.com/Layr-Labs/arc-crypto-go/pkg/messageHasher"
	"github.com/Layr-Labs/arc-crypto-go/pkg/signingWallet"
	"github.com/Layr-Labs/arc-crypto-go/pkg/starkSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

const (
	// RegistrationPrimaryType is the EIP-712 struct signed when registering a user
	RegistrationPrimaryType = "User"

	starkKeyField = "starkKey"
)

// Coordinator produces the dual-signature claim that registers a STARK key for an
// Ethereum account under a username.
type Coordinator struct {
	logger *zap.Logger
}

func NewCoordinator(logger *zap.Logger) *Coordinator {
	return &Coordinator{logger: logger}
}

// Register signs details.TypedData with wallet and the identity claim hash of the wallet
// address with keyPair. Nothing is retried.
func (c *Coordinator) Register(
	ctx context.Context,
	details *types.RegistrationDetails,
	wallet signingWallet.ISigningWallet,
	keyPair *types.StarkKeyPair,
) (*types.RegistrationClaim, error) {
	if wallet == nil {
		return nil, types.ErrMissingWallet
	}
	if details == nil {
		return nil, fmt.Errorf("registration details are nil")
	}
	if keyPair == nil {
		return nil, fmt.Errorf("%w: keypair is nil", types.ErrInvalidKeyMaterial)
	}
	if err := starkSigner.ValidateSecretKey(keyPair.SecretKey); err != nil {
		return nil, err
	}

	address := wallet.GetAddress()
	if err := checkIdentity(details, address, keyPair); err != nil {
		return nil, err
	}

	message, err := normalizeMessage(details.TypedData)
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Infow("Signing registration typed data",
		zap.String("username", details.Username),
		zap.String("address", address.Hex()),
		zap.String("starkKey", keyPair.PublicKeyHex()),
	)
	eip712Signature, err := wallet.SignTypedData(ctx, details.TypedData.Domain, details.TypedData.Types, message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign registration typed data: %w", err)
	}

	hash, err := messageHasher.HashIdentityClaim(address)
	if err != nil {
		return nil, err
	}
	starkSignature, err := starkSigner.Sign(keyPair.SecretKey, hash)
	if err != nil {
		return nil, err
	}

	// the settlement API takes the stark key as bare unpadded hex
	return &types.RegistrationClaim{
		Username:        details.Username,
		StarkKey:        keyPair.PublicKey.Text(16),
		Address:         address.Hex(),
		EIP712Signature: hexutil.Encode(eip712Signature),
		StarkSignature:  starkSignature,
	}, nil
}

// RegisterWithSignature derives the keypair from primarySignature before touching the
// wallet, then registers it.
func (c *Coordinator) RegisterWithSignature(
	ctx context.Context,
	details *types.RegistrationDetails,
	wallet signingWallet.ISigningWallet,
	primarySignature []byte,
) (*types.RegistrationClaim, error) {
	keyPair, err := keyDerivation.Derive(primarySignature)
	if err != nil {
		return nil, err
	}
	return c.Register(ctx, details, wallet, keyPair)
}

// checkIdentity rejects details that were issued for a different address or stark key
func checkIdentity(details *types.RegistrationDetails, address common.Address, keyPair *types.StarkKeyPair) error {
	if details.Address != "" {
		if !common.IsHexAddress(details.Address) || common.HexToAddress(details.Address) != address {
			return fmt.Errorf("registration details are for address %s, wallet is %s", details.Address, address.Hex())
		}
	}
	if details.StarkKey != "" {
		starkKey, err := types.ParseHexBig(details.StarkKey)
		if err != nil {
			return fmt.Errorf("%w: stark key in registration details: %w", types.ErrInvalidKeyMaterial, err)
		}
		if keyPair.PublicKey == nil || starkKey.Cmp(keyPair.PublicKey) != 0 {
			return fmt.Errorf("%w: registration details are for stark key %s", types.ErrInvalidKeyMaterial, details.StarkKey)
		}
	}
	return nil
}

// normalizeMessage copies the typed message and rewrites its starkKey the way the
// settlement API verifies it: string fields lose the 0x prefix, integer fields carry
// the parsed value so the hasher cannot read stripped hex as decimal.
func normalizeMessage(typedData apitypes.TypedData) (apitypes.TypedDataMessage, error) {
	message := make(apitypes.TypedDataMessage, len(typedData.Message))
	for k, v := range typedData.Message {
		message[k] = v
	}

	raw, ok := message[starkKeyField].(string)
	if !ok {
		return message, nil
	}

	switch fieldType := fieldTypeOf(typedData, starkKeyField); {
	case fieldType == "string":
		message[starkKeyField] = types.StripHexPrefix(raw)
	case strings.HasPrefix(fieldType, "uint"):
		v, err := types.ParseHexBig(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: starkKey: %w", types.ErrFieldOutOfRange, err)
		}
		message[starkKeyField] = v
	}
	return message, nil
}

// fieldTypeOf looks up the declared type of name in the primary struct
func fieldTypeOf(typedData apitypes.TypedData, name string) string {
	primaryType := typedData.PrimaryType
	if primaryType == "" {
		primaryType = RegistrationPrimaryType
	}
	for _, f := range typedData.Types[primaryType] {
		if f.Name == name {
			return f.Type
		}
	}
	return ""
}

// BuildRegistrationTypedData builds the default User(username, starkKey, address)
// payload for a fetch layer that only returns the plain fields.
func BuildRegistrationTypedData(domain apitypes.TypedDataDomain, username string, starkKey *big.Int, address common.Address) *types.RegistrationDetails {
	starkKeyHex := types.FormatFieldHex(starkKey)

	var domainFields []apitypes.Type
	if domain.Name != "" {
		domainFields = append(domainFields, apitypes.Type{Name: "name", Type: "string"})
	}
	if domain.Version != "" {
		domainFields = append(domainFields, apitypes.Type{Name: "version", Type: "string"})
	}
	if domain.ChainId != nil {
		domainFields = append(domainFields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if domain.VerifyingContract != "" {
		domainFields = append(domainFields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}

	return &types.RegistrationDetails{
		Username: username,
		StarkKey: starkKeyHex,
		Address:  address.Hex(),
		TypedData: apitypes.TypedData{
			Types: apitypes.Types{
				"EIP712Domain":          domainFields,
				RegistrationPrimaryType: []apitypes.Type{
					{Name: "username", Type: "string"},
					{Name: starkKeyField, Type: "string"},
					{Name: "address", Type: "address"},
				},
			},
			PrimaryType: RegistrationPrimaryType,
			Domain:      domain,
			Message: apitypes.TypedDataMessage{
				"username":    username,
				starkKeyField: starkKeyHex,
				"address":     address.Hex(),
			},
		},
	}
}
