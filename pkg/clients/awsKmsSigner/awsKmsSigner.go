package awsKmsSigner

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	arcAws "github.com/Layr-Labs/arc-crypto-go/internal/aws"
	"github.com/Layr-Labs/arc-crypto-go/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmsTypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// secp256k1 curve order, used for low-S canonicalization
var (
	secp256k1N, _  = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// IKMSClient is the subset of the AWS KMS API used for signing
type IKMSClient interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// Signer signs Ethereum payloads with a secp256k1 key held in AWS KMS
type Signer struct {
	logger    *zap.Logger
	kmsClient IKMSClient
	keyId     string
	publicKey *cryptoEcdsa.PublicKey
	address   common.Address
}

func NewSigner(ctx context.Context, kmsClient IKMSClient, keyId string, logger *zap.Logger) (*Signer, error) {
	out, err := kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyId)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", keyId)
	}

	publicKey, err := parseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s", keyId)
	}

	address := crypto.PubkeyToAddress(*publicKey)
	logger.Sugar().Infow("Loaded AWS KMS signing key",
		zap.String("keyId", keyId),
		zap.String("address", address.Hex()),
	)

	return &Signer{
		logger:    logger,
		kmsClient: kmsClient,
		keyId:     keyId,
		publicKey: publicKey,
		address:   address,
	}, nil
}

// NewSignerFromConfig loads AWS credentials the standard way and binds cfg.KeyId
func NewSignerFromConfig(ctx context.Context, cfg *config.AWSKMSConfig, logger *zap.Logger) (*Signer, error) {
	awsCfg, err := arcAws.LoadKMSConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	arn, err := arcAws.CallerArn(ctx, awsCfg)
	if err != nil {
		logger.Sugar().Warnw("Could not resolve AWS caller identity", zap.Error(err))
	} else {
		logger.Sugar().Infow("Using AWS identity",
			zap.String("arn", arn),
			zap.String("region", awsCfg.Region),
		)
	}

	return NewSigner(ctx, kms.NewFromConfig(awsCfg), cfg.KeyId, logger)
}

func (k *Signer) Address() common.Address {
	return k.address
}

// SignPersonalMessage signs message with the EIP-191 prefix, v in {27, 28}
func (k *Signer) SignPersonalMessage(ctx context.Context, message []byte) ([]byte, error) {
	return k.SignDigest(ctx, accounts.TextHash(message))
}

// SignTypedData signs the EIP-712 hash of typedData, v in {27, 28}
func (k *Signer) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash typed data")
	}
	return k.SignDigest(ctx, hash)
}

func (k *Signer) SignTransaction(ctx context.Context, tx *ethTypes.Transaction, chainID *big.Int) (*ethTypes.Transaction, error) {
	signer := ethTypes.LatestSignerForChainID(chainID)
	sig, err := k.SignDigest(ctx, signer.Hash(tx).Bytes())
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] -= 27
	return tx.WithSignature(signer, sig)
}

// SignDigest signs a 32 byte digest and returns r||s||v with low S and v in {27, 28}
func (k *Signer) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("hash must be exactly 32 bytes, got %d", len(digest))
	}

	signOutput, err := k.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(k.keyId),
		Message:          digest,
		SigningAlgorithm: kmsTypes.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      kmsTypes.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign with key %s", k.keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(signOutput.Signature, &sigAsn1); err != nil {
		return nil, errors.Wrap(err, "failed to parse KMS signature")
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)
	if s.Cmp(secp256k1HalfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	signature := make([]byte, crypto.SignatureLength)
	r.FillBytes(signature[0:32])
	s.FillBytes(signature[32:64])

	// KMS does not return the recovery id, so find the one that yields our key
	for recoveryId := 0; recoveryId < 4; recoveryId++ {
		signature[crypto.RecoveryIDOffset] = byte(recoveryId)

		recovered, err := crypto.SigToPub(digest, signature)
		if err != nil {
			k.logger.Debug("Ecrecover failed",
				zap.Int("recoveryId", recoveryId),
				zap.Error(err))
			continue
		}
		if recovered.X.Cmp(k.publicKey.X) == 0 && recovered.Y.Cmp(k.publicKey.Y) == 0 {
			signature[crypto.RecoveryIDOffset] = byte(27 + recoveryId)
			return signature, nil
		}
	}

	return nil, fmt.Errorf("could not determine valid recovery ID - signature recovery failed")
}

// parseECDSAPublicKey parses the DER-encoded public key from KMS
func parseECDSAPublicKey(derBytes []byte) (*cryptoEcdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	_, err := asn1.Unmarshal(derBytes, &asn1pubk)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}

	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}
