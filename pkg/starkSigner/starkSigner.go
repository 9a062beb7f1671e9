package starkSigner

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/starkCurve"
	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	starkEc "github.com/consensys/gnark-crypto/ecc/stark-curve"
)

// ValidateSecretKey checks that secretKey is a usable scalar in [1, EC_ORDER)
func ValidateSecretKey(secretKey *big.Int) error {
	if secretKey == nil {
		return fmt.Errorf("%w: secret key is nil", types.ErrInvalidKeyMaterial)
	}
	if secretKey.Sign() <= 0 || secretKey.Cmp(starkCurve.EcOrder) >= 0 {
		return fmt.Errorf("%w: secret key must be in [1, EC_ORDER)", types.ErrInvalidKeyMaterial)
	}
	return nil
}

// ValidateHash checks that hash lies in [0, 2^251)
func ValidateHash(hash *big.Int) error {
	if hash == nil {
		return fmt.Errorf("%w: hash is nil", types.ErrInvalidHashDomain)
	}
	if hash.Sign() < 0 || hash.Cmp(starkCurve.MaxEcdsaValue) >= 0 {
		return fmt.Errorf("%w: 0x%s is not below 2^251", types.ErrInvalidHashDomain, hash.Text(16))
	}
	return nil
}

// PublicKey returns the stark key (x coordinate of secretKey*G)
func PublicKey(secretKey *big.Int) (*big.Int, error) {
	if err := ValidateSecretKey(secretKey); err != nil {
		return nil, err
	}
	point := starkCurve.ScalarBaseMul(secretKey)
	return starkCurve.XCoordinate(&point), nil
}

// Sign signs hash with secretKey. The nonce is derived deterministically, so signing the
// same hash twice with the same key yields the same signature.
func Sign(secretKey, hash *big.Int) (*types.StarkSignature, error) {
	if err := ValidateSecretKey(secretKey); err != nil {
		return nil, err
	}
	if err := ValidateHash(hash); err != nil {
		return nil, err
	}

	order := starkCurve.EcOrder
	var seed *big.Int
	for {
		k := generateK(hash, secretKey, seed)
		if seed == nil {
			seed = big.NewInt(1)
		} else {
			seed = new(big.Int).Add(seed, big.NewInt(1))
		}

		kG := starkCurve.ScalarBaseMul(k)
		r := starkCurve.XCoordinate(&kG)
		if !inEcdsaRange(r) {
			continue
		}

		// s = (hash + r*secretKey) / k, with w = 1/s required to be below 2^251
		sum := new(big.Int).Mul(r, secretKey)
		sum.Add(sum, hash)
		sum.Mod(sum, order)
		if sum.Sign() == 0 {
			continue
		}

		sumInv := new(big.Int).ModInverse(sum, order)
		if sumInv == nil {
			continue
		}
		w := new(big.Int).Mul(k, sumInv)
		w.Mod(w, order)
		if !inEcdsaRange(w) {
			continue
		}

		s := new(big.Int).ModInverse(w, order)
		if s == nil {
			continue
		}
		return &types.StarkSignature{R: r, S: s}, nil
	}
}

// Verify checks sig over hash against an x-only stark key
func Verify(publicKey, hash *big.Int, sig *types.StarkSignature) bool {
	if publicKey == nil || sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	if ValidateHash(hash) != nil || !inEcdsaRange(sig.R) {
		return false
	}
	if sig.S.Sign() <= 0 || sig.S.Cmp(starkCurve.EcOrder) >= 0 {
		return false
	}
	w := new(big.Int).ModInverse(sig.S, starkCurve.EcOrder)
	if w == nil || !inEcdsaRange(w) {
		return false
	}

	q, err := starkCurve.PointFromX(publicKey)
	if err != nil {
		return false
	}
	negQ := starkCurve.Negate(&q)

	// the y coordinate is not carried by the stark key, so both roots are tried
	for _, candidate := range []*starkEc.G1Affine{&q, &negQ} {
		if verifyWithPoint(candidate, hash, sig.R, w) {
			return true
		}
	}
	return false
}

// VerifyWithPoint checks sig against a full public key point
func VerifyWithPoint(publicKey *starkEc.G1Affine, hash *big.Int, sig *types.StarkSignature) bool {
	if publicKey == nil || sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	if ValidateHash(hash) != nil || !inEcdsaRange(sig.R) {
		return false
	}
	if sig.S.Sign() <= 0 || sig.S.Cmp(starkCurve.EcOrder) >= 0 {
		return false
	}
	w := new(big.Int).ModInverse(sig.S, starkCurve.EcOrder)
	if w == nil || !inEcdsaRange(w) {
		return false
	}
	return verifyWithPoint(publicKey, hash, sig.R, w)
}

func verifyWithPoint(q *starkEc.G1Affine, hash, r, w *big.Int) bool {
	zG := starkCurve.ScalarBaseMul(hash)
	rQ := starkCurve.ScalarMul(q, r)
	sum := starkCurve.AddPoints(&zG, &rQ)
	if sum.IsInfinity() {
		return false
	}
	wB := starkCurve.ScalarMul(&sum, w)
	return starkCurve.XCoordinate(&wB).Cmp(r) == 0
}

func inEcdsaRange(v *big.Int) bool {
	return v.Sign() > 0 && v.Cmp(starkCurve.MaxEcdsaValue) < 0
}

// Signer signs hashes with a fixed keypair
type Signer struct {
	keyPair *types.StarkKeyPair
}

// NewSigner binds a keypair after checking its secret scalar
func NewSigner(keyPair *types.StarkKeyPair) (*Signer, error) {
	if keyPair == nil {
		return nil, fmt.Errorf("%w: keypair is nil", types.ErrInvalidKeyMaterial)
	}
	if err := ValidateSecretKey(keyPair.SecretKey); err != nil {
		return nil, err
	}
	return &Signer{keyPair: keyPair}, nil
}

func (s *Signer) SignHash(hash *big.Int) (*types.StarkSignature, error) {
	return Sign(s.keyPair.SecretKey, hash)
}

func (s *Signer) VerifyHash(hash *big.Int, sig *types.StarkSignature) bool {
	return Verify(s.keyPair.PublicKey, hash, sig)
}

func (s *Signer) StarkKey() *big.Int {
	return new(big.Int).Set(s.keyPair.PublicKey)
}
