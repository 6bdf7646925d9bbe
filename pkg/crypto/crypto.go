package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

var (
	// SNARK_FIELD_SIZE is the size of the BN254 scalar field
	SNARK_FIELD_SIZE, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)
)

// GenerateSeed generates a cryptographically secure random seed strictly
// below the BN254 scalar modulus.
func GenerateSeed() (*big.Int, error) {
	// 31 bytes to stay within field size
	b := make([]byte, 31)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// Poseidon1 hashes one field element with circomlib-compatible parameters (t=2).
func Poseidon1(a *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a})
}

// Poseidon2 hashes two field elements (t=3).
func Poseidon2(a, b *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a, b})
}

// Poseidon3 hashes three field elements (t=4).
func Poseidon3(a, b, c *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a, b, c})
}

// Commitment computes Poseidon1(seed), the value published on-chain in
// create/join transactions.
func Commitment(seed *big.Int) (*big.Int, error) {
	return Poseidon1(seed)
}

// CombinedSeed computes Poseidon3(seed1, seed2, sessionID), the single value
// the deck is derived from.
func CombinedSeed(seed1, seed2 *big.Int, sessionID uint32) (*big.Int, error) {
	return Poseidon3(seed1, seed2, new(big.Int).SetUint64(uint64(sessionID)))
}

// FieldBytes encodes a field element as a 32-byte big-endian blob, the
// session schema representation of seeds and commitments.
func FieldBytes(v *big.Int) [32]byte {
	var out [32]byte
	v.FillBytes(out[:])
	return out
}

// FieldFromBytes decodes a 32-byte big-endian blob into a field element.
func FieldFromBytes(b [32]byte) *big.Int {
	return new(big.Int).SetBytes(b[:])
}

// FieldToHex encodes a field element as a 0x-prefixed 64-digit hex string.
func FieldToHex(v *big.Int) string {
	b := FieldBytes(v)
	return "0x" + hex.EncodeToString(b[:])
}

// FieldFromHex parses a hex string (with or without 0x prefix) into a field
// element, rejecting values at or above the scalar modulus.
func FieldFromHex(s string) (*big.Int, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex field element: %w", err)
	}
	if len(b) > 32 {
		return nil, fmt.Errorf("field element too long: %d bytes", len(b))
	}
	v := new(big.Int).SetBytes(b)
	if v.Cmp(SNARK_FIELD_SIZE) >= 0 {
		return nil, fmt.Errorf("value exceeds scalar field modulus")
	}
	return v, nil
}

// ParseField parses a decimal or 0x-hex string into a field element.
func ParseField(s string) (*big.Int, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return FieldFromHex(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal field element: %q", s)
	}
	if v.Sign() < 0 || v.Cmp(SNARK_FIELD_SIZE) >= 0 {
		return nil, fmt.Errorf("value outside scalar field")
	}
	return v, nil
}
