package prover_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/game"
	"github.com/ohloss/pirate-cards-go/pkg/ledger"
	"github.com/ohloss/pirate-cards-go/pkg/prover"
	"github.com/ohloss/pirate-cards-go/pkg/verifier"
)

// setupKeys shares one circuit setup across the heavy tests.
func setupKeys(t *testing.T) *prover.Keys {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Groth16 setup in short mode")
	}
	keys, err := prover.Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return keys
}

func TestProveAndVerifyEndToEnd(t *testing.T) {
	keys := setupKeys(t)

	s1, s2 := big.NewInt(1), big.NewInt(2)
	res, err := prover.Prove(keys, s1, s2, 1)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}

	if err := verifier.VerifyPayload(keys.VK, res.Payload); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// The proof attests exactly what the simulator computed.
	sim, err := game.Simulate(s1, s2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sim.Winner != res.Simulation.Winner || sim.Deck != res.Simulation.Deck {
		t.Fatal("prover simulation disagrees with the reference simulator")
	}
	if res.Payload.Inputs.WinnerCode() != sim.Winner {
		t.Fatal("payload winner does not match simulation")
	}

	commit1, _ := crypto.Commitment(s1)
	if res.Payload.Inputs.SeedCommit1 != crypto.FieldBytes(commit1) {
		t.Fatal("payload commitment does not reopen from the seed")
	}
}

func TestStatementDeterminism(t *testing.T) {
	keys := setupKeys(t)

	a, err := prover.Prove(keys, big.NewInt(9), big.NewInt(10), 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := prover.Prove(keys, big.NewInt(9), big.NewInt(10), 3)
	if err != nil {
		t.Fatal(err)
	}

	// Groth16 proving is randomized, so proof bytes differ run to run; the
	// statement (deck, winner, public inputs) must not.
	if a.Payload.Inputs != b.Payload.Inputs {
		t.Fatal("public inputs differ between identical runs")
	}
	if a.Simulation.Deck != b.Simulation.Deck || a.Simulation.Winner != b.Simulation.Winner {
		t.Fatal("simulation differs between identical runs")
	}
}

func TestTamperedWinnerFailsVerification(t *testing.T) {
	keys := setupKeys(t)

	// Concrete reproducible seeds: 0x1111...11 and 0x2222...22, session 42.
	s1, err := crypto.FieldFromHex(strings.Repeat("11", 32))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := crypto.FieldFromHex(strings.Repeat("22", 32))
	if err != nil {
		t.Fatal(err)
	}

	res, err := prover.Prove(keys, s1, s2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if err := verifier.VerifyPayload(keys.VK, res.Payload); err != nil {
		t.Fatalf("honest payload rejected: %v", err)
	}

	w := res.Payload.Inputs.WinnerCode()
	tampered := *res.Payload
	tampered.Inputs.Winner = crypto.FieldBytes(big.NewInt(int64(3 - w)))
	if err := verifier.VerifyPayload(keys.VK, &tampered); err == nil {
		t.Fatal("flipped winner verified")
	}
}

func TestTamperedProofBitsFailVerification(t *testing.T) {
	keys := setupKeys(t)

	res, err := prover.Prove(keys, big.NewInt(1), big.NewInt(2), 1)
	if err != nil {
		t.Fatal(err)
	}

	raw := res.Payload.Marshal()
	// One flip in each proof point region and in one public input.
	for _, offset := range []int{10, 64 + 10, 192 + 10, 256 + 31} {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[offset] ^= 0x01

		if err := verifier.VerifyBytes(keys.VK, mutated); err == nil {
			t.Fatalf("bit flip at offset %d still verified", offset)
		}
	}
}

func TestLedgerSettleWithRealProof(t *testing.T) {
	keys := setupKeys(t)
	ctx := context.Background()

	s1, s2 := big.NewInt(1), big.NewInt(2)
	commit1, _ := crypto.Commitment(s1)
	commit2, _ := crypto.Commitment(s2)

	led := ledger.New(ledger.NewMemoryStore(), ledger.GnarkVerifier{VK: keys.VK}, nil, zerolog.Nop())
	if err := led.Create(ctx, 1, "alice", crypto.FieldBytes(commit1)); err != nil {
		t.Fatal(err)
	}
	if err := led.Join(ctx, 1, "bob", crypto.FieldBytes(commit2)); err != nil {
		t.Fatal(err)
	}
	if err := led.Reveal(ctx, 1, "alice", crypto.FieldBytes(s1)); err != nil {
		t.Fatal(err)
	}
	if err := led.Reveal(ctx, 1, "bob", crypto.FieldBytes(s2)); err != nil {
		t.Fatal(err)
	}

	res, err := prover.Prove(keys, s1, s2, 1)
	if err != nil {
		t.Fatal(err)
	}

	winner, err := led.Settle(ctx, 1, res.Payload)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	wantAddr := "alice"
	if res.Simulation.Winner == game.WinnerPlayer2 {
		wantAddr = "bob"
	}
	if winner != wantAddr {
		t.Fatalf("winner %q, want %q", winner, wantAddr)
	}

	// Second settlement races and loses.
	if _, err := led.Settle(ctx, 1, res.Payload); !errors.Is(err, ledger.ErrAlreadySettled) {
		t.Fatalf("want ErrAlreadySettled, got %v", err)
	}

	s, err := led.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Phase != ledger.PhaseSettled || int(s.Winner) != res.Simulation.Winner {
		t.Fatal("settled session does not match proof outcome")
	}
}

func TestBuildAssignmentMatchesSimulator(t *testing.T) {
	assignment, sim, err := prover.BuildAssignment(big.NewInt(1), big.NewInt(2), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, card := range sim.Deck {
		if assignment.Deck[i] != card {
			t.Fatalf("assignment deck slot %d does not match simulation", i)
		}
	}
	if assignment.Winner != sim.Winner {
		t.Fatal("assignment winner does not match simulation")
	}
}
