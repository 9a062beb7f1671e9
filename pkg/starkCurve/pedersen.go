package starkCurve

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/types"
	starkEc "github.com/consensys/gnark-crypto/ecc/stark-curve"
)

// lowPartBits is the number of low bits of an element multiplied by the first point of
// its pair; the remaining high bits go to the second point.
const lowPartBits = 248

var (
	lowPartMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), lowPartBits), big.NewInt(1))

	shiftPoint = mustPoint(
		mustHex("49ee3eba8c1600700ee1b87eb599f16716b0b1022947733551fde4050ca6804"),
		mustHex("3ca0cfe4b3bc6ddf346d49d06ea0ed34e621062c0e056c1d0405d266e10268a"),
	)

	// pedersenPoints holds P0..P3: (P0, P1) hash the first element, (P2, P3) the second
	pedersenPoints = [4]starkEc.G1Affine{
		mustPoint(
			mustHex("234287dcbaffe7f969c748655fca9e58fa8120b6d56eb0c1080d17957ebe47b"),
			mustHex("3b056f100f96fb21e889527d41f4e39940135dd7a6c94cc6ed0268ee89e5615"),
		),
		mustPoint(
			mustHex("4fa56f376c83db33f9dab2656558f3399099ec1de5e3018b7a6932dba8aa378"),
			mustHex("3fa0984c931c9e38113e0c0e47e4401562761f92a7a23b45168f4e80ff5b54d"),
		),
		mustPoint(
			mustHex("4ba4cc166be8dec764910f75b45f74b40c690c74709e90f3aa372f0bd2d6997"),
			mustHex("40301cf5c1751f4b971e46c4ede85fcac5c59a5ce5ae7c48151f27b24b219c"),
		),
		mustPoint(
			mustHex("54302dcb0e6cc1c6e44cca8f61a63bb2ca65048d53fb325d36ff12c49a58202"),
			mustHex("1b77b3e37d13504b348046268d8ae25ce98ad783c25561a879dcc77e99c2426"),
		),
	}
)

// PedersenHash hashes two field elements:
//
//	H(a, b) = [shift + a_low*P0 + a_high*P1 + b_low*P2 + b_high*P3].x
func PedersenHash(a, b *big.Int) (*big.Int, error) {
	return PedersenHashElements(a, b)
}

// PedersenHashElements hashes one or two field elements. A single element leaves the
// second pair of points unused, matching pedersen([x]) of the reference tooling.
func PedersenHashElements(elements ...*big.Int) (*big.Int, error) {
	if len(elements) == 0 || len(elements) > len(pedersenPoints)/2 {
		return nil, fmt.Errorf("pedersen hash takes 1 or 2 elements, got %d", len(elements))
	}

	var acc starkEc.G1Jac
	acc.FromAffine(&shiftPoint)

	for i, element := range elements {
		if element == nil {
			return nil, fmt.Errorf("%w: element %d is nil", types.ErrFieldOutOfRange, i)
		}
		if element.Sign() < 0 || element.Cmp(FieldPrime) >= 0 {
			return nil, fmt.Errorf("%w: element %d (0x%s) is not below the field prime", types.ErrFieldOutOfRange, i, element.Text(16))
		}

		low := new(big.Int).And(element, lowPartMask)
		high := new(big.Int).Rsh(element, lowPartBits)

		for j, part := range []*big.Int{low, high} {
			if part.Sign() == 0 {
				continue
			}
			var term starkEc.G1Affine
			term.ScalarMultiplication(&pedersenPoints[2*i+j], part)

			var termJac starkEc.G1Jac
			termJac.FromAffine(&term)
			acc.AddAssign(&termJac)
		}
	}

	var res starkEc.G1Affine
	res.FromJacobian(&acc)
	return XCoordinate(&res), nil
}
