// Package prover turns a pair of revealed seeds into a settlement proof. It
// is the witness-generator side of the protocol: the simulator supplies the
// deck and outcome, and the Groth16 backend proves the circuit accepts them.
package prover

import (
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/ohloss/pirate-cards-go/pkg/circuit"
	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/deck"
	"github.com/ohloss/pirate-cards-go/pkg/game"
	"github.com/ohloss/pirate-cards-go/pkg/wire"
)

// Keys bundles the compiled constraint system with its Groth16 key pair.
type Keys struct {
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

var (
	cachedKeys *Keys
	keysMutex  sync.Mutex
)

// Compile builds the settlement constraint system.
func Compile() (constraint.ConstraintSystem, error) {
	var c circuit.SettlementCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &c)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	return ccs, nil
}

// Setup compiles the circuit and runs the Groth16 setup, caching the result
// in memory for the lifetime of the process.
func Setup() (*Keys, error) {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	if cachedKeys != nil {
		return cachedKeys, nil
	}

	ccs, err := Compile()
	if err != nil {
		return nil, err
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}

	cachedKeys = &Keys{CCS: ccs, PK: pk, VK: vk}
	return cachedKeys, nil
}

// LoadOrSetupKeys loads cached key files or runs setup and caches them.
func LoadOrSetupKeys(pkPath, vkPath string) (*Keys, error) {
	ccs, err := Compile()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(pkPath); err == nil {
		if _, err := os.Stat(vkPath); err == nil {
			pkFile, err := os.Open(pkPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open pk file: %w", err)
			}
			defer pkFile.Close()

			vkFile, err := os.Open(vkPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open vk file: %w", err)
			}
			defer vkFile.Close()

			pk := groth16.NewProvingKey(ecc.BN254)
			vk := groth16.NewVerifyingKey(ecc.BN254)

			if _, err := pk.ReadFrom(pkFile); err != nil {
				return nil, fmt.Errorf("failed to read pk: %w", err)
			}
			if _, err := vk.ReadFrom(vkFile); err != nil {
				return nil, fmt.Errorf("failed to read vk: %w", err)
			}

			return &Keys{CCS: ccs, PK: pk, VK: vk}, nil
		}
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}

	pkFile, err := os.Create(pkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create pk file: %w", err)
	}
	defer pkFile.Close()

	vkFile, err := os.Create(vkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create vk file: %w", err)
	}
	defer vkFile.Close()

	if _, err := pk.WriteTo(pkFile); err != nil {
		return nil, fmt.Errorf("failed to write pk: %w", err)
	}
	if _, err := vk.WriteTo(vkFile); err != nil {
		return nil, fmt.Errorf("failed to write vk: %w", err)
	}

	return &Keys{CCS: ccs, PK: pk, VK: vk}, nil
}

// BuildAssignment runs the simulator and assembles the full witness
// assignment for (seed1, seed2, sessionID). It fails on truncated-weight
// collisions rather than producing an order the circuit cannot sort.
func BuildAssignment(seed1, seed2 *big.Int, sessionID uint32) (*circuit.SettlementCircuit, *game.Result, error) {
	commit1, err := crypto.Commitment(seed1)
	if err != nil {
		return nil, nil, fmt.Errorf("commitment 1: %w", err)
	}
	commit2, err := crypto.Commitment(seed2)
	if err != nil {
		return nil, nil, fmt.Errorf("commitment 2: %w", err)
	}
	combined, err := crypto.CombinedSeed(seed1, seed2, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("combined seed: %w", err)
	}
	d, err := deck.Derive(combined)
	if err != nil {
		return nil, nil, err
	}
	sim, err := game.Simulate(seed1, seed2, sessionID)
	if err != nil {
		return nil, nil, err
	}

	assignment := &circuit.SettlementCircuit{
		SeedCommit1: commit1,
		SeedCommit2: commit2,
		Seed1:       seed1,
		Seed2:       seed2,
		SessionID:   sessionID,
		Winner:      sim.Winner,
	}
	for i := 0; i < deck.NumCards; i++ {
		assignment.Deck[i] = d.Cards[i]
		assignment.TruncWeights[i] = d.Trunc[i]
		assignment.HighWeights[i] = d.High[i]
	}
	return assignment, sim, nil
}

// Result carries the proof, its wire payload, and the simulation it attests.
type Result struct {
	Proof       groth16.Proof
	Payload     *wire.ProofPayload
	Simulation  *game.Result
	ProvingTime time.Duration
	Constraints int
}

// Prove generates a settlement proof for a revealed session.
func Prove(keys *Keys, seed1, seed2 *big.Int, sessionID uint32) (*Result, error) {
	if keys == nil {
		var err error
		keys, err = Setup()
		if err != nil {
			return nil, err
		}
	}

	assignment, sim, err := BuildAssignment(seed1, seed2, sessionID)
	if err != nil {
		return nil, err
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	start := time.Now()
	proof, err := groth16.Prove(keys.CCS, keys.PK, witness)
	if err != nil {
		return nil, fmt.Errorf("proving failed: %w", err)
	}
	elapsed := time.Since(start)

	commit1, _ := crypto.Commitment(seed1)
	commit2, _ := crypto.Commitment(seed2)
	inputs := wire.NewPublicInputs(commit1, commit2, seed1, seed2, sessionID, sim.Winner)

	payload, err := wire.FromProof(proof, inputs)
	if err != nil {
		return nil, err
	}

	return &Result{
		Proof:       proof,
		Payload:     payload,
		Simulation:  sim,
		ProvingTime: elapsed,
		Constraints: keys.CCS.GetNbConstraints(),
	}, nil
}
