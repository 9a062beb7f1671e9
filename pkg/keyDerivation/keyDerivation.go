package keyDerivation

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/starkCurve"
	"github.com/Layr-Labs/arc-crypto-go/pkg/starkSigner"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// maxGrindAttempts bounds the index appended to the seed; a single attempt succeeds with
// probability above 1 - 2^-4, so this is never reached in practice.
const maxGrindAttempts = 256

// sha256KeyLimit is the largest multiple of EC_ORDER not exceeding 2^256. Digests at or
// above it are discarded so that reducing mod EC_ORDER stays uniform.
var sha256KeyLimit = func() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return new(big.Int).Sub(max, new(big.Int).Mod(max, starkCurve.EcOrder))
}()

// Derive turns an Ethereum signature over the key derivation message into a STARK keypair.
// The signature must be the 65 byte r||s||v form; only r seeds the key.
func Derive(primarySignature []byte) (*types.StarkKeyPair, error) {
	if len(primarySignature) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			types.ErrInvalidSignatureMaterial, crypto.SignatureLength, len(primarySignature))
	}

	secretKey, err := GrindKey(primarySignature[:32])
	if err != nil {
		return nil, err
	}

	publicKey, err := PrivateToStarkKey(secretKey)
	if err != nil {
		return nil, err
	}

	return &types.StarkKeyPair{
		PublicKey: publicKey,
		SecretKey: secretKey,
	}, nil
}

// DeriveFromHex is Derive for a 0x prefixed hex signature as returned by wallets
func DeriveFromHex(primarySignature string) (*types.StarkKeyPair, error) {
	sig, err := hexutil.Decode(primarySignature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidSignatureMaterial, err)
	}
	return Derive(sig)
}

// GrindKey hashes seed||index with SHA-256 for increasing index until the digest falls
// below sha256KeyLimit, then reduces it mod EC_ORDER.
func GrindKey(seed []byte) (*big.Int, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: empty key seed", types.ErrInvalidSignatureMaterial)
	}

	buf := make([]byte, len(seed)+1)
	copy(buf, seed)
	for index := 0; index < maxGrindAttempts; index++ {
		buf[len(seed)] = byte(index)
		digest := sha256.Sum256(buf)

		key := new(big.Int).SetBytes(digest[:])
		if key.Cmp(sha256KeyLimit) < 0 {
			key.Mod(key, starkCurve.EcOrder)
			if key.Sign() == 0 {
				continue
			}
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: no usable key after %d attempts", types.ErrInvalidKeyMaterial, maxGrindAttempts)
}

// PrivateToStarkKey returns the x coordinate of secretKey*G
func PrivateToStarkKey(secretKey *big.Int) (*big.Int, error) {
	return starkSigner.PublicKey(secretKey)
}
