package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// StarkKeyPair is the STARK curve keypair derived for a session
type StarkKeyPair struct {
	PublicKey *big.Int // x coordinate of SecretKey*G
	SecretKey *big.Int
}

// PublicKeyHex returns the stark key as a 0x prefixed, 32 byte hex string
func (kp *StarkKeyPair) PublicKeyHex() string {
	return FormatFieldHex(kp.PublicKey)
}

// SecretKeyHex returns the secret scalar as a 0x prefixed, 32 byte hex string
func (kp *StarkKeyPair) SecretKeyHex() string {
	return FormatFieldHex(kp.SecretKey)
}

// Equal reports whether both keypairs hold the same scalars
func (kp *StarkKeyPair) Equal(other *StarkKeyPair) bool {
	if kp == nil || other == nil {
		return kp == other
	}
	return kp.PublicKey.Cmp(other.PublicKey) == 0 && kp.SecretKey.Cmp(other.SecretKey) == 0
}

// StarkSignature is an (r, s) pair on the STARK curve
type StarkSignature struct {
	R *big.Int
	S *big.Int
}

type starkSignatureJSON struct {
	R string `json:"r"`
	S string `json:"s"`
}

// MarshalJSON encodes r and s as unprefixed hex, the shape the settlement API expects
func (s *StarkSignature) MarshalJSON() ([]byte, error) {
	if s.R == nil || s.S == nil {
		return nil, fmt.Errorf("signature is incomplete")
	}
	return json.Marshal(starkSignatureJSON{
		R: s.R.Text(16),
		S: s.S.Text(16),
	})
}

func (s *StarkSignature) UnmarshalJSON(data []byte) error {
	var raw starkSignatureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r, err := ParseHexBig(raw.R)
	if err != nil {
		return fmt.Errorf("invalid r: %w", err)
	}
	sv, err := ParseHexBig(raw.S)
	if err != nil {
		return fmt.Errorf("invalid s: %w", err)
	}
	s.R = r
	s.S = sv
	return nil
}

// Equal reports whether both signatures carry the same scalars
func (s *StarkSignature) Equal(other *StarkSignature) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.R.Cmp(other.R) == 0 && s.S.Cmp(other.S) == 0
}

// FormatFieldHex renders a field element as 0x followed by 64 hex digits
func FormatFieldHex(v *big.Int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("0x%064x", v)
}

// ParseHexBig parses a hex string with or without the 0x prefix
func ParseHexBig(s string) (*big.Int, error) {
	trimmed := StripHexPrefix(strings.TrimSpace(s))
	if trimmed == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex string %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", s)
	}
	return v, nil
}

// ParseDecimalBig parses an unsigned base 10 integer string
func ParseDecimalBig(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty decimal string")
	}
	v, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal string %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", s)
	}
	return v, nil
}

// ParseNumeric accepts either a 0x prefixed hex string or a decimal string
func ParseNumeric(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		return ParseHexBig(trimmed)
	}
	return ParseDecimalBig(trimmed)
}

func StripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
