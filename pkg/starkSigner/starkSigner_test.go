package starkSigner

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/arc-crypto-go/pkg/starkCurve"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, "bad hex fixture %s", s)
	return v
}

// party_a key and order hash from StarkWare's signature_test_data.json
const (
	fixtureSecretKey = "3c1e9550e66958296d11b60f8e8e7a7ad990d07fa65d5f7652c4a6c87d4e3cc"
	partyAOrderHash  = "397e76d1667c4454bfb83514e120583af836f8e32a516765497823eabe16a3f"
)

func Test_Sign(t *testing.T) {
	t.Run("Should reproduce the published signature vector", func(t *testing.T) {
		secretKey := hexInt(t, "2dccce1da22003777062ee0870e9881b460a8b7eca276870f57c601f182136c")
		hash := hexInt(t, "c465dd6b1bbffdb05442eb17f5ca38ad1aa78a6f56bf4415bdee219114a47")

		sig, err := Sign(secretKey, hash)
		require.NoError(t, err)
		assert.Equal(t, "5f496f6f210b5810b2711c74c15c05244dad43d18ecbbdbe6ed55584bc3b0a2", sig.R.Text(16))
		assert.Equal(t, "4e8657b153787f741a67c0666bad6426c3741b478c8eaa3155196fc571416f3", sig.S.Text(16))

		publicKey, err := PublicKey(secretKey)
		require.NoError(t, err)
		assert.True(t, Verify(publicKey, hash, sig))
	})

	t.Run("Should reproduce the published party_a_order signature", func(t *testing.T) {
		secretKey := hexInt(t, fixtureSecretKey)
		hash := hexInt(t, partyAOrderHash)

		sig, err := Sign(secretKey, hash)
		require.NoError(t, err)
		assert.Equal(t, "173fd03d8b008ee7432977ac27d1e9d1a1f6c98b1a2f05fa84a21c84c44e882", sig.R.Text(16))
		assert.Equal(t, "4b6d75385aed025aa222f28a0adc6d58db78ff17e51c3f59e259b131cd5a1cc", sig.S.Text(16))
	})

	t.Run("Should be deterministic and verifiable", func(t *testing.T) {
		secretKey := hexInt(t, fixtureSecretKey)
		publicKey, err := PublicKey(secretKey)
		require.NoError(t, err)

		for _, hash := range []*big.Int{
			big.NewInt(0),
			big.NewInt(1),
			hexInt(t, "123abcdef"),
			new(big.Int).Sub(starkCurve.MaxEcdsaValue, big.NewInt(1)),
		} {
			first, err := Sign(secretKey, hash)
			require.NoError(t, err)
			second, err := Sign(secretKey, hash)
			require.NoError(t, err)

			assert.True(t, first.Equal(second), "hash 0x%s", hash.Text(16))
			assert.True(t, Verify(publicKey, hash, first), "hash 0x%s", hash.Text(16))
		}
	})

	t.Run("Should reject secret keys outside [1, EC_ORDER)", func(t *testing.T) {
		hash := big.NewInt(42)
		for _, secretKey := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5), starkCurve.EcOrder} {
			_, err := Sign(secretKey, hash)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidKeyMaterial))
		}
	})

	t.Run("Should reject hashes outside [0, 2^251)", func(t *testing.T) {
		secretKey := hexInt(t, fixtureSecretKey)
		for _, hash := range []*big.Int{nil, big.NewInt(-1), starkCurve.MaxEcdsaValue, starkCurve.FieldPrime} {
			_, err := Sign(secretKey, hash)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidHashDomain))
		}
	})
}

func Test_Verify(t *testing.T) {
	secretKey := hexInt(t, fixtureSecretKey)
	publicKey, err := PublicKey(secretKey)
	require.NoError(t, err)
	hash := hexInt(t, partyAOrderHash)
	sig, err := Sign(secretKey, hash)
	require.NoError(t, err)

	t.Run("Should fail for a different hash", func(t *testing.T) {
		assert.False(t, Verify(publicKey, new(big.Int).Add(hash, big.NewInt(1)), sig))
	})

	t.Run("Should fail for a different key", func(t *testing.T) {
		other, err := PublicKey(big.NewInt(7))
		require.NoError(t, err)
		assert.False(t, Verify(other, hash, sig))
	})

	t.Run("Should fail for a tampered signature", func(t *testing.T) {
		tampered := &types.StarkSignature{R: sig.R, S: new(big.Int).Add(sig.S, big.NewInt(1))}
		assert.False(t, Verify(publicKey, hash, tampered))
		assert.False(t, Verify(publicKey, hash, &types.StarkSignature{R: big.NewInt(0), S: sig.S}))
		assert.False(t, Verify(publicKey, hash, nil))
	})

	t.Run("Should verify against the full point", func(t *testing.T) {
		point := starkCurve.ScalarBaseMul(secretKey)
		assert.True(t, VerifyWithPoint(&point, hash, sig))

		negated := starkCurve.Negate(&point)
		assert.False(t, VerifyWithPoint(&negated, hash, sig))
	})
}

func Test_Signer(t *testing.T) {
	secretKey := hexInt(t, fixtureSecretKey)
	publicKey, err := PublicKey(secretKey)
	require.NoError(t, err)

	t.Run("Should sign with the bound keypair", func(t *testing.T) {
		signer, err := NewSigner(&types.StarkKeyPair{PublicKey: publicKey, SecretKey: secretKey})
		require.NoError(t, err)

		hash := big.NewInt(987654321)
		sig, err := signer.SignHash(hash)
		require.NoError(t, err)
		assert.True(t, signer.VerifyHash(hash, sig))
		assert.Equal(t, 0, signer.StarkKey().Cmp(publicKey))
	})

	t.Run("Should reject an unusable keypair", func(t *testing.T) {
		_, err := NewSigner(nil)
		assert.True(t, errors.Is(err, types.ErrInvalidKeyMaterial))

		_, err = NewSigner(&types.StarkKeyPair{PublicKey: publicKey, SecretKey: big.NewInt(0)})
		assert.True(t, errors.Is(err, types.ErrInvalidKeyMaterial))
	})
}

func Test_GenerateK(t *testing.T) {
	t.Run("Should change the nonce when extra entropy is supplied", func(t *testing.T) {
		secretKey := hexInt(t, fixtureSecretKey)
		hash := big.NewInt(12345)

		k0 := generateK(hash, secretKey, nil)
		k1 := generateK(hash, secretKey, big.NewInt(1))
		assert.NotEqual(t, 0, k0.Cmp(k1))
		assert.Equal(t, 0, k0.Cmp(generateK(hash, secretKey, nil)))
		assert.True(t, k0.Sign() > 0 && k0.Cmp(starkCurve.EcOrder) < 0)
	})
}
