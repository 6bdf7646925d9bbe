// Package verifier checks settlement proofs. The native path rebuilds the
// public witness from a wire payload and runs the Groth16 pairing check; the
// circom path accepts snarkjs artifacts (the in-browser prover's output)
// through the circom2gnark parser.
package verifier

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/circom2gnark/parser"

	"github.com/ohloss/pirate-cards-go/pkg/circuit"
	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/wire"
)

// PublicAssignment builds the public-only circuit assignment for a set of
// wire inputs. Field order must match the circuit's public declaration:
// commit1, commit2, seed1, seed2, sessionID, winner.
func PublicAssignment(inputs wire.PublicInputs) *circuit.SettlementCircuit {
	return &circuit.SettlementCircuit{
		SeedCommit1: crypto.FieldFromBytes(inputs.SeedCommit1),
		SeedCommit2: crypto.FieldFromBytes(inputs.SeedCommit2),
		Seed1:       crypto.FieldFromBytes(inputs.Seed1),
		Seed2:       crypto.FieldFromBytes(inputs.Seed2),
		SessionID:   crypto.FieldFromBytes(inputs.SessionID),
		Winner:      crypto.FieldFromBytes(inputs.Winner),
	}
}

// Verify checks a proof object against its public inputs.
func Verify(vk groth16.VerifyingKey, proof groth16.Proof, inputs wire.PublicInputs) error {
	witness, err := frontend.NewWitness(PublicAssignment(inputs), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}
	if err := groth16.Verify(proof, vk, witness); err != nil {
		return fmt.Errorf("pairing check failed: %w", err)
	}
	return nil
}

// VerifyPayload decodes a wire payload and checks it.
func VerifyPayload(vk groth16.VerifyingKey, payload *wire.ProofPayload) error {
	proof, err := payload.Proof()
	if err != nil {
		return err
	}
	return Verify(vk, proof, payload.Inputs)
}

// VerifyBytes parses and checks a serialized payload.
func VerifyBytes(vk groth16.VerifyingKey, data []byte) error {
	payload, err := wire.Unmarshal(data)
	if err != nil {
		return err
	}
	return VerifyPayload(vk, payload)
}

// VerifyCircom checks a snarkjs proof JSON against a snarkjs verification
// key JSON. publicSignals are decimal strings in circuit input order.
func VerifyCircom(proofJSON, vkJSON []byte, publicSignals []string) error {
	circomVk, err := parser.UnmarshalCircomVerificationKeyJSON(vkJSON)
	if err != nil {
		return fmt.Errorf("invalid circom VK JSON: %w", err)
	}
	return VerifyCircomKey(proofJSON, circomVk, publicSignals)
}

// VerifyCircomKey checks a snarkjs proof JSON against an already-parsed
// verification key.
func VerifyCircomKey(proofJSON []byte, circomVk *parser.CircomVerificationKey, publicSignals []string) error {
	circomProof, err := parser.UnmarshalCircomProofJSON(proofJSON)
	if err != nil {
		return fmt.Errorf("invalid circom proof JSON: %w", err)
	}

	gnarkProof, err := parser.ConvertCircomToGnark(circomProof, circomVk, publicSignals)
	if err != nil {
		return fmt.Errorf("circom to gnark conversion failed: %w", err)
	}

	valid, err := parser.VerifyProof(gnarkProof)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if !valid {
		return fmt.Errorf("verification returned false")
	}
	return nil
}
