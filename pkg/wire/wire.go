// Package wire encodes proof payloads in the on-chain verifier's curve
// encoding: fixed-width big-endian field elements, G1 as be(X)||be(Y), and
// G2 with the c1 limb first. The proving stack emits (c0, c1); the verifier
// expects (c1, c0), and this package is the only place that swap lives.
package wire

import (
	"bytes"
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
)

const (
	// G1Len is the serialized size of an uncompressed G1 point.
	G1Len = 64
	// G2Len is the serialized size of an uncompressed G2 point.
	G2Len = 128
	// InputLen is the serialized size of one public input.
	InputLen = 32
	// PayloadLen is the full proof payload: pi_a, pi_b, pi_c, six inputs.
	PayloadLen = G1Len + G2Len + G1Len + 6*InputLen
)

// PublicInputs holds the six public inputs as 32-byte big-endian field
// elements, in the contract schema's field order (map keys sort by name:
// seed1, seed2, seedCommit1, seedCommit2, sessionID, winner).
type PublicInputs struct {
	Seed1       [32]byte
	Seed2       [32]byte
	SeedCommit1 [32]byte
	SeedCommit2 [32]byte
	SessionID   [32]byte
	Winner      [32]byte
}

// NewPublicInputs packs field-element values into their wire form.
func NewPublicInputs(commit1, commit2, seed1, seed2 *big.Int, sessionID uint32, winner int) PublicInputs {
	return PublicInputs{
		Seed1:       crypto.FieldBytes(seed1),
		Seed2:       crypto.FieldBytes(seed2),
		SeedCommit1: crypto.FieldBytes(commit1),
		SeedCommit2: crypto.FieldBytes(commit2),
		SessionID:   SessionIDBytes(sessionID),
		Winner:      crypto.FieldBytes(big.NewInt(int64(winner))),
	}
}

// SessionIDBytes widens a session id to a 32-byte big-endian field element.
func SessionIDBytes(sessionID uint32) [32]byte {
	var out [32]byte
	out[28] = byte(sessionID >> 24)
	out[29] = byte(sessionID >> 16)
	out[30] = byte(sessionID >> 8)
	out[31] = byte(sessionID)
	return out
}

// WinnerCode decodes the winner input, or 0 if it is not a small integer.
func (p *PublicInputs) WinnerCode() int {
	w := new(big.Int).SetBytes(p.Winner[:])
	if !w.IsInt64() {
		return 0
	}
	return int(w.Int64())
}

// Marshal serializes the six inputs in field order.
func (p *PublicInputs) Marshal() []byte {
	out := make([]byte, 0, 6*InputLen)
	out = append(out, p.Seed1[:]...)
	out = append(out, p.Seed2[:]...)
	out = append(out, p.SeedCommit1[:]...)
	out = append(out, p.SeedCommit2[:]...)
	out = append(out, p.SessionID[:]...)
	out = append(out, p.Winner[:]...)
	return out
}

// UnmarshalPublicInputs parses a 192-byte input block.
func UnmarshalPublicInputs(data []byte) (PublicInputs, error) {
	var p PublicInputs
	if len(data) != 6*InputLen {
		return p, fmt.Errorf("public inputs: want %d bytes, got %d", 6*InputLen, len(data))
	}
	copy(p.Seed1[:], data[0:32])
	copy(p.Seed2[:], data[32:64])
	copy(p.SeedCommit1[:], data[64:96])
	copy(p.SeedCommit2[:], data[96:128])
	copy(p.SessionID[:], data[128:160])
	copy(p.Winner[:], data[160:192])
	return p, nil
}

// ProofPayload is the settle transaction body: the three proof points in the
// verifier's encoding plus the public input block.
type ProofPayload struct {
	PiA    [G1Len]byte
	PiB    [G2Len]byte
	PiC    [G1Len]byte
	Inputs PublicInputs
}

// FromProof serializes a gnark Groth16 proof into the verifier encoding.
func FromProof(proof groth16.Proof, inputs PublicInputs) (*ProofPayload, error) {
	p, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T (need BN254)", proof)
	}
	if len(p.Commitments) != 0 {
		return nil, fmt.Errorf("proof carries commitments; the verifier encoding has no room for them")
	}

	out := &ProofPayload{Inputs: inputs}
	out.PiA = encodeG1(&p.Ar)
	out.PiB = encodeG2(&p.Bs)
	out.PiC = encodeG1(&p.Krs)
	return out, nil
}

// Proof rebuilds the gnark proof object from the wire encoding.
func (pp *ProofPayload) Proof() (groth16.Proof, error) {
	var p groth16bn254.Proof
	var err error
	if p.Ar, err = decodeG1(pp.PiA); err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	if p.Bs, err = decodeG2(pp.PiB); err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	if p.Krs, err = decodeG1(pp.PiC); err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	return &p, nil
}

// Marshal serializes the payload.
func (pp *ProofPayload) Marshal() []byte {
	out := make([]byte, 0, PayloadLen)
	out = append(out, pp.PiA[:]...)
	out = append(out, pp.PiB[:]...)
	out = append(out, pp.PiC[:]...)
	out = append(out, pp.Inputs.Marshal()...)
	return out
}

// Unmarshal parses a 448-byte payload.
func Unmarshal(data []byte) (*ProofPayload, error) {
	if len(data) != PayloadLen {
		return nil, fmt.Errorf("proof payload: want %d bytes, got %d", PayloadLen, len(data))
	}
	var pp ProofPayload
	copy(pp.PiA[:], data[0:64])
	copy(pp.PiB[:], data[64:192])
	copy(pp.PiC[:], data[192:256])
	inputs, err := UnmarshalPublicInputs(data[256:])
	if err != nil {
		return nil, err
	}
	pp.Inputs = inputs
	return &pp, nil
}

// Equal compares two payloads byte-for-byte.
func (pp *ProofPayload) Equal(other *ProofPayload) bool {
	return bytes.Equal(pp.Marshal(), other.Marshal())
}

func encodeG1(p *curve.G1Affine) [G1Len]byte {
	var out [G1Len]byte
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[0:32], x[:])
	copy(out[32:64], y[:])
	return out
}

// encodeG2 emits be(X.c1) || be(X.c0) || be(Y.c1) || be(Y.c0). gnark-crypto
// stores c0 in A0 and c1 in A1; the verifier wants c1 first.
func encodeG2(p *curve.G2Affine) [G2Len]byte {
	var out [G2Len]byte
	xc1 := p.X.A1.Bytes()
	xc0 := p.X.A0.Bytes()
	yc1 := p.Y.A1.Bytes()
	yc0 := p.Y.A0.Bytes()
	copy(out[0:32], xc1[:])
	copy(out[32:64], xc0[:])
	copy(out[64:96], yc1[:])
	copy(out[96:128], yc0[:])
	return out
}

func decodeG1(data [G1Len]byte) (curve.G1Affine, error) {
	var p curve.G1Affine
	if err := setFp(&p.X, data[0:32]); err != nil {
		return p, err
	}
	if err := setFp(&p.Y, data[32:64]); err != nil {
		return p, err
	}
	return p, nil
}

func decodeG2(data [G2Len]byte) (curve.G2Affine, error) {
	var p curve.G2Affine
	if err := setFp(&p.X.A1, data[0:32]); err != nil {
		return p, err
	}
	if err := setFp(&p.X.A0, data[32:64]); err != nil {
		return p, err
	}
	if err := setFp(&p.Y.A1, data[64:96]); err != nil {
		return p, err
	}
	if err := setFp(&p.Y.A0, data[96:128]); err != nil {
		return p, err
	}
	return p, nil
}

func setFp(e *fp.Element, data []byte) error {
	if err := e.SetBytesCanonical(data); err != nil {
		return fmt.Errorf("coordinate out of range: %w", err)
	}
	return nil
}
