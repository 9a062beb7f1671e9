package keyDerivation

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/arc-crypto-go/pkg/starkSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureEthSignature = "0x21fbf0696d5e0aa2ef41a2b4ffb623bcaf070461d61cf7251c74161f82fec3a4370854bc0a34b3ab487c1bc021cd318c734c51ae29374f2beb0e6f2dd49b4bf41c"

func Test_Derive(t *testing.T) {
	t.Run("Should derive the reference keypair from a wallet signature", func(t *testing.T) {
		kp, err := DeriveFromHex(fixtureEthSignature)
		require.NoError(t, err)

		assert.Equal(t, "766f11e90cd7c7b43085b56da35c781f8c067ac0d578eabdceebc4886435bda", kp.SecretKey.Text(16))
		assert.Equal(t, "5b20c8eea0dab0e62278f967feb1ef58d910cb7d5653cc33b0447355ea5d640", kp.PublicKey.Text(16))
		assert.Equal(t, "0x05b20c8eea0dab0e62278f967feb1ef58d910cb7d5653cc33b0447355ea5d640", kp.PublicKeyHex())
	})

	t.Run("Should be deterministic", func(t *testing.T) {
		sig := hexutil.MustDecode(fixtureEthSignature)
		first, err := Derive(sig)
		require.NoError(t, err)
		second, err := Derive(sig)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})

	t.Run("Should derive different keys for different signatures", func(t *testing.T) {
		sig := hexutil.MustDecode(fixtureEthSignature)
		other := bytes.Clone(sig)
		other[0] ^= 0x01

		first, err := Derive(sig)
		require.NoError(t, err)
		second, err := Derive(other)
		require.NoError(t, err)
		assert.False(t, first.Equal(second))
	})

	t.Run("Should only use r as the seed", func(t *testing.T) {
		sig := hexutil.MustDecode(fixtureEthSignature)
		other := bytes.Clone(sig)
		other[40] ^= 0xff
		other[64] = 0x1b

		first, err := Derive(sig)
		require.NoError(t, err)
		second, err := Derive(other)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})

	t.Run("Should derive a keypair that signs and verifies", func(t *testing.T) {
		privateKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		sig, err := crypto.Sign(crypto.Keccak256([]byte("arc key derivation")), privateKey)
		require.NoError(t, err)

		kp, err := Derive(sig)
		require.NoError(t, err)

		hash := big.NewInt(424242)
		starkSig, err := starkSigner.Sign(kp.SecretKey, hash)
		require.NoError(t, err)
		assert.True(t, starkSigner.Verify(kp.PublicKey, hash, starkSig))
	})

	t.Run("Should reject malformed signatures", func(t *testing.T) {
		for _, sig := range [][]byte{nil, {}, make([]byte, 64), make([]byte, 66)} {
			_, err := Derive(sig)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidSignatureMaterial))
		}

		for _, sig := range []string{"", "0x", "not-hex", "0x1234", fixtureEthSignature + "00"} {
			_, err := DeriveFromHex(sig)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidSignatureMaterial), sig)
		}
	})
}

func Test_PrivateToStarkKey(t *testing.T) {
	t.Run("Should match the reference public key", func(t *testing.T) {
		secretKey, ok := new(big.Int).SetString("3c1e9550e66958296d11b60f8e8e7a7ad990d07fa65d5f7652c4a6c87d4e3cc", 16)
		require.True(t, ok)

		publicKey, err := PrivateToStarkKey(secretKey)
		require.NoError(t, err)
		assert.Equal(t, "77a3b314db07c45076d11f62b6f9e748a39790441823307743cf00d6597ea43", publicKey.Text(16))
	})

	t.Run("Should reject a zero key", func(t *testing.T) {
		_, err := PrivateToStarkKey(big.NewInt(0))
		assert.True(t, errors.Is(err, types.ErrInvalidKeyMaterial))
	})
}

func Test_GrindKey(t *testing.T) {
	t.Run("Should reduce below the curve order", func(t *testing.T) {
		key, err := GrindKey([]byte{0x01, 0x02, 0x03})
		require.NoError(t, err)
		assert.True(t, key.Sign() > 0)
		assert.True(t, key.BitLen() <= 252)
	})

	t.Run("Should reject an empty seed", func(t *testing.T) {
		_, err := GrindKey(nil)
		assert.True(t, errors.Is(err, types.ErrInvalidSignatureMaterial))
	})
}
