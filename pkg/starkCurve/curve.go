package starkCurve

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	starkEc "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Curve parameters of the STARK-friendly curve y^2 = x^3 + alpha*x + beta over F_p
var (
	FieldPrime = mustHex("800000000000011000000000000000000000000000000000000000000000001")
	EcOrder    = mustHex("800000000000010ffffffffffffffffb781126dcae7b2321e66a241adc64d2f")
	Alpha      = big.NewInt(1)
	Beta       = mustHex("6f21413efbe40de150e596d72f7a8c5609ad26c15c915c1f4cdfcb99cee9e89")

	// MaxEcdsaValue is 2^251, the exclusive upper bound of signable hashes and of r, w
	MaxEcdsaValue = new(big.Int).Lsh(big.NewInt(1), NElementBitsEcdsa)
)

const (
	NElementBitsEcdsa = 251
	NElementBitsHash  = 252
)

var (
	generatorX = mustHex("1ef15c18599971b7beced415a40f0c7deacfd9b0d1819e03d723d8bc943cfca")
	generatorY = mustHex("5668060aa49730b7be4801df46ec62de53ecd11abe43a32873000c36e8dc1f")

	generator = mustPoint(generatorX, generatorY)
)

// Generator returns the curve base point
func Generator() starkEc.G1Affine {
	return generator
}

// NewPoint builds an affine point and checks that it lies on the curve
func NewPoint(x, y *big.Int) (starkEc.G1Affine, error) {
	var p starkEc.G1Affine
	if x.Sign() < 0 || x.Cmp(FieldPrime) >= 0 || y.Sign() < 0 || y.Cmp(FieldPrime) >= 0 {
		return p, fmt.Errorf("%w: point coordinates must be below the field prime", types.ErrFieldOutOfRange)
	}
	p.X.SetBigInt(x)
	p.Y.SetBigInt(y)
	if !p.IsOnCurve() {
		return p, fmt.Errorf("point (%s, %s) is not on the curve", x.Text(16), y.Text(16))
	}
	return p, nil
}

// PointFromX recovers a point from its x coordinate. Either root of y is a valid
// answer; callers that need both use Negate.
func PointFromX(x *big.Int) (starkEc.G1Affine, error) {
	var p starkEc.G1Affine
	if x.Sign() < 0 || x.Cmp(FieldPrime) >= 0 {
		return p, fmt.Errorf("%w: x coordinate must be below the field prime", types.ErrFieldOutOfRange)
	}

	var xe, rhs, tmp, beta fp.Element
	xe.SetBigInt(x)
	beta.SetBigInt(Beta)
	rhs.Square(&xe)
	rhs.Mul(&rhs, &xe)
	rhs.Add(&rhs, &xe) // alpha == 1
	rhs.Add(&rhs, &beta)

	if tmp.Sqrt(&rhs) == nil {
		return p, fmt.Errorf("x coordinate %s is not on the curve", x.Text(16))
	}
	p.X = xe
	p.Y = tmp
	return p, nil
}

// Negate returns -p
func Negate(p *starkEc.G1Affine) starkEc.G1Affine {
	var res starkEc.G1Affine
	res.Neg(p)
	return res
}

// ScalarMul returns k*p
func ScalarMul(p *starkEc.G1Affine, k *big.Int) starkEc.G1Affine {
	var res starkEc.G1Affine
	res.ScalarMultiplication(p, k)
	return res
}

// ScalarBaseMul returns k*G
func ScalarBaseMul(k *big.Int) starkEc.G1Affine {
	return ScalarMul(&generator, k)
}

// AddPoints returns a+b. Addition is carried out in Jacobian coordinates so that the
// doubling and infinity cases are handled.
func AddPoints(a, b *starkEc.G1Affine) starkEc.G1Affine {
	var acc, other starkEc.G1Jac
	acc.FromAffine(a)
	other.FromAffine(b)
	acc.AddAssign(&other)

	var res starkEc.G1Affine
	res.FromJacobian(&acc)
	return res
}

// XCoordinate returns the canonical x coordinate of p
func XCoordinate(p *starkEc.G1Affine) *big.Int {
	return p.X.BigInt(new(big.Int))
}

// YCoordinate returns the canonical y coordinate of p
func YCoordinate(p *starkEc.G1Affine) *big.Int {
	return p.Y.BigInt(new(big.Int))
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic(fmt.Sprintf("invalid curve constant %s", s))
	}
	return v
}

func mustPoint(x, y *big.Int) starkEc.G1Affine {
	p, err := NewPoint(x, y)
	if err != nil {
		panic(err)
	}
	return p
}
