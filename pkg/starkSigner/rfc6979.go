package starkSigner

import (
	"crypto/hmac"
	"crypto/sha256"
	"math/big"

	"github.com/Layr-Labs/arc-crypto-go/pkg/starkCurve"
)

// generateK derives the signing nonce for msgHash deterministically (RFC 6979, HMAC-SHA256).
// Hashes that are one nibble short of a whole byte are shifted left by four bits first,
// which keeps nonces identical to the ones produced by the JavaScript reference tooling.
// seed is the extra entropy used after a rejected nonce; nil on the first attempt.
func generateK(msgHash, secretKey, seed *big.Int) *big.Int {
	h := new(big.Int).Set(msgHash)
	if bitLen := h.BitLen(); bitLen >= 248 && bitLen%8 >= 1 && bitLen%8 <= 4 {
		h.Lsh(h, 4)
	}

	var extraEntropy []byte
	if seed != nil {
		extraEntropy = seed.Bytes()
	}

	return rfc6979Nonce(starkCurve.EcOrder, secretKey, h.Bytes(), extraEntropy)
}

func rfc6979Nonce(order, secretKey *big.Int, data, extraEntropy []byte) *big.Int {
	qlen := order.BitLen()
	rolen := (qlen + 7) / 8

	privOctets := secretKey.FillBytes(make([]byte, rolen))
	msgOctets := bits2octets(data, order, rolen)

	v := make([]byte, sha256.Size)
	for i := range v {
		v[i] = 0x01
	}
	k := make([]byte, sha256.Size)

	k = hmacSum(k, v, []byte{0x00}, privOctets, msgOctets, extraEntropy)
	v = hmacSum(k, v)
	k = hmacSum(k, v, []byte{0x01}, privOctets, msgOctets, extraEntropy)
	v = hmacSum(k, v)

	for {
		var t []byte
		for len(t) < rolen {
			v = hmacSum(k, v)
			t = append(t, v...)
		}

		candidate := bits2int(t, qlen)
		if candidate.Sign() > 0 && candidate.Cmp(order) < 0 {
			return candidate
		}

		k = hmacSum(k, v, []byte{0x00})
		v = hmacSum(k, v)
	}
}

func bits2int(data []byte, qlen int) *big.Int {
	x := new(big.Int).SetBytes(data)
	if l := len(data) * 8; l > qlen {
		x.Rsh(x, uint(l-qlen))
	}
	return x
}

func bits2octets(data []byte, order *big.Int, rolen int) []byte {
	z1 := bits2int(data, order.BitLen())
	z2 := new(big.Int).Sub(z1, order)
	if z2.Sign() < 0 {
		z2 = z1
	}
	return z2.FillBytes(make([]byte, rolen))
}

func hmacSum(key []byte, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}
