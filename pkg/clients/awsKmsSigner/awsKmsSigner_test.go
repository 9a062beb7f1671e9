package awsKmsSigner

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeKMS signs with a local key and returns DER encoded values like KMS does
type fakeKMS struct {
	privateKey *cryptoEcdsa.PrivateKey
	highS      bool
	signCalls  int
}

func (f *fakeKMS) GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	pub := crypto.FromECDSAPub(&f.privateKey.PublicKey)
	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{
			Algorithm:  asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1},
			Parameters: asn1.ObjectIdentifier{1, 3, 132, 0, 10},
		},
		PublicKey: asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{KeyId: params.KeyId, PublicKey: der}, nil
}

func (f *fakeKMS) Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error) {
	f.signCalls++
	if len(params.Message) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes")
	}
	sig, err := crypto.Sign(params.Message, f.privateKey)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if f.highS {
		s = new(big.Int).Sub(secp256k1N, s)
	}
	der, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{KeyId: params.KeyId, Signature: der}, nil
}

func setupSigner(t *testing.T, highS bool) (*Signer, *fakeKMS) {
	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	fake := &fakeKMS{privateKey: privateKey, highS: highS}
	signer, err := NewSigner(context.Background(), fake, "test-key", zaptest.NewLogger(t))
	require.NoError(t, err)
	return signer, fake
}

func Test_AWSKMSSigner(t *testing.T) {
	ctx := context.Background()

	t.Run("Should derive the address from the KMS public key", func(t *testing.T) {
		signer, fake := setupSigner(t, false)
		assert.Equal(t, crypto.PubkeyToAddress(fake.privateKey.PublicKey), signer.Address())
	})

	for _, highS := range []bool{false, true} {
		t.Run(fmt.Sprintf("Should produce recoverable low-S signatures (highS=%v)", highS), func(t *testing.T) {
			signer, _ := setupSigner(t, highS)
			message := []byte("Only sign this request if you've initiated an action with Arc.")

			sig, err := signer.SignPersonalMessage(ctx, message)
			require.NoError(t, err)
			require.Len(t, sig, crypto.SignatureLength)
			assert.True(t, sig[64] == 27 || sig[64] == 28)

			s := new(big.Int).SetBytes(sig[32:64])
			assert.True(t, s.Cmp(secp256k1HalfN) <= 0)

			raw := append([]byte(nil), sig...)
			raw[64] -= 27
			pub, err := crypto.SigToPub(accounts.TextHash(message), raw)
			require.NoError(t, err)
			assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
		})
	}

	t.Run("Should sign a transaction for the chain", func(t *testing.T) {
		signer, _ := setupSigner(t, false)
		chainID := big.NewInt(5)
		to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

		tx := ethTypes.NewTx(&ethTypes.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     3,
			GasTipCap: big.NewInt(1),
			GasFeeCap: big.NewInt(10),
			Gas:       100000,
			To:        &to,
			Value:     big.NewInt(0),
			Data:      []byte{0x01},
		})
		signed, err := signer.SignTransaction(ctx, tx, chainID)
		require.NoError(t, err)

		sender, err := ethTypes.Sender(ethTypes.LatestSignerForChainID(chainID), signed)
		require.NoError(t, err)
		assert.Equal(t, signer.Address(), sender)
	})

	t.Run("Should reject digests that are not 32 bytes", func(t *testing.T) {
		signer, fake := setupSigner(t, false)
		_, err := signer.SignDigest(ctx, []byte{0x01})
		assert.Error(t, err)
		assert.Equal(t, 0, fake.signCalls)
	})

	t.Run("Should fail when the public key cannot be fetched", func(t *testing.T) {
		_, err := NewSigner(ctx, &brokenKMS{}, "missing", zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})
}

type brokenKMS struct{}

func (b *brokenKMS) GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	return nil, fmt.Errorf("key %s not found", aws.ToString(params.KeyId))
}

func (b *brokenKMS) Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error) {
	return nil, fmt.Errorf("not implemented")
}
