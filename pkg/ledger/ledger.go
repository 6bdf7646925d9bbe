package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/rs/zerolog"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/verifier"
	"github.com/ohloss/pirate-cards-go/pkg/wire"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 100

// Event records a lifecycle transition.
type Event struct {
	Type      string    `json:"type"` // created, joined, revealed, settled
	SessionID uint32    `json:"sessionId"`
	Player    string    `json:"player,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	At        time.Time `json:"at"`
}

// ResultSink receives match lifecycle callbacks, the tournament protocol's
// start_game/end_game hook.
type ResultSink interface {
	StartGame(sessionID uint32, player1, player2 string)
	EndGame(sessionID uint32, player1Won bool)
}

// LogSink is a ResultSink that only logs, for deployments without a
// tournament contract.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) StartGame(sessionID uint32, player1, player2 string) {
	s.Log.Info().Uint32("session", sessionID).Str("player1", player1).Str("player2", player2).Msg("start_game")
}

func (s LogSink) EndGame(sessionID uint32, player1Won bool) {
	s.Log.Info().Uint32("session", sessionID).Bool("player1Won", player1Won).Msg("end_game")
}

// ProofVerifier checks a settle payload. The production implementation wraps
// the embedded Groth16 verification key.
type ProofVerifier interface {
	VerifyPayload(payload *wire.ProofPayload) error
}

// GnarkVerifier verifies payloads against a gnark verification key.
type GnarkVerifier struct {
	VK groth16.VerifyingKey
}

func (v GnarkVerifier) VerifyPayload(payload *wire.ProofPayload) error {
	return verifier.VerifyPayload(v.VK, payload)
}

// Ledger applies session operations atomically. A single mutex stands in for
// the chain's per-transaction serialization; sessions share no other state.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	verify ProofVerifier
	sink   ResultSink
	log    zerolog.Logger
	events []Event
}

// New builds a ledger over a store with the verification key's verifier.
// sink may be nil.
func New(store Store, verify ProofVerifier, sink ResultSink, log zerolog.Logger) *Ledger {
	return &Ledger{store: store, verify: verify, sink: sink, log: log}
}

// Create opens a session with player 1's commitment.
func (l *Ledger) Create(ctx context.Context, sessionID uint32, player1 string, commit1 [32]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	exists, err := l.store.Has(ctx, sessionID)
	if err != nil {
		return err
	}
	if exists {
		return ErrSessionExists
	}

	s := &Session{
		Player1: player1,
		Commit1: commit1,
		Phase:   PhaseOpen,
	}
	if err := l.store.Put(ctx, sessionID, s); err != nil {
		return err
	}
	l.emit(Event{Type: "created", SessionID: sessionID, Player: player1})
	return nil
}

// Join fills the second slot of an open session with player 2's commitment.
func (l *Ledger) Join(ctx context.Context, sessionID uint32, player2 string, commit2 [32]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Phase != PhaseOpen {
		return ErrNotOpen
	}
	if player2 == s.Player1 {
		return ErrSelfJoin
	}

	s.Player2 = player2
	s.Commit2 = commit2
	s.Phase = PhaseCommitted
	if err := l.store.Put(ctx, sessionID, s); err != nil {
		return err
	}

	if l.sink != nil {
		l.sink.StartGame(sessionID, s.Player1, player2)
	}
	l.emit(Event{Type: "joined", SessionID: sessionID, Player: player2})
	return nil
}

// Reveal publishes a player's seed. The seed must open that player's stored
// commitment; reveals may arrive in either order and the phase advances once
// both are present.
func (l *Ledger) Reveal(ctx context.Context, sessionID uint32, player string, seed [32]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Phase != PhaseCommitted {
		return ErrNotCommitted
	}

	var commit *[32]byte
	var slot *[32]byte
	switch player {
	case s.Player1:
		commit, slot = &s.Commit1, &s.Seed1
	case s.Player2:
		commit, slot = &s.Commit2, &s.Seed2
	default:
		return ErrNotPlayer
	}
	if *slot != zero32 {
		return ErrAlreadyRevealed
	}
	if seed == zero32 {
		// The zero blob is the "not revealed" sentinel and is never a
		// valid seed.
		return ErrBadOpening
	}

	digest, err := crypto.Poseidon1(crypto.FieldFromBytes(seed))
	if err != nil {
		return err
	}
	if crypto.FieldBytes(digest) != *commit {
		return ErrBadOpening
	}

	*slot = seed
	if s.Revealed() {
		s.Phase = PhaseRevealed
	}
	if err := l.store.Put(ctx, sessionID, s); err != nil {
		return err
	}
	l.emit(Event{Type: "revealed", SessionID: sessionID, Player: player})
	return nil
}

// Settle finalizes a revealed session from a proof payload. Anyone may
// submit; the first valid settlement wins and later attempts observe
// ErrAlreadySettled. Returns the winning player's address.
func (l *Ledger) Settle(ctx context.Context, sessionID uint32, payload *wire.ProofPayload) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s.Phase == PhaseSettled {
		return "", ErrAlreadySettled
	}
	if s.Phase != PhaseRevealed {
		return "", ErrNotRevealed
	}

	in := payload.Inputs
	if in.SeedCommit1 != s.Commit1 || in.SeedCommit2 != s.Commit2 ||
		in.Seed1 != s.Seed1 || in.Seed2 != s.Seed2 ||
		in.SessionID != wire.SessionIDBytes(sessionID) {
		return "", ErrInputMismatch
	}

	winner := in.WinnerCode()
	if winner != 1 && winner != 2 {
		return "", ErrInvalidWinner
	}

	// Pairing check last; it is the expensive step.
	if err := l.verify.VerifyPayload(payload); err != nil {
		l.log.Warn().Uint32("session", sessionID).Err(err).Msg("settlement proof rejected")
		return "", ErrInvalidProof
	}

	s.Winner = uint32(winner)
	s.Phase = PhaseSettled
	if err := l.store.Put(ctx, sessionID, s); err != nil {
		return "", err
	}

	winnerAddr := s.Player1
	if winner == 2 {
		winnerAddr = s.Player2
	}
	if l.sink != nil {
		l.sink.EndGame(sessionID, winner == 1)
	}
	l.emit(Event{Type: "settled", SessionID: sessionID, Winner: winnerAddr})
	return winnerAddr, nil
}

// Get returns a snapshot of a session.
func (l *Ledger) Get(ctx context.Context, sessionID uint32) (*Session, error) {
	return l.store.Get(ctx, sessionID)
}

// Events returns a copy of the recent event log (most recent last).
func (l *Ledger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Ledger) emit(e Event) {
	e.At = time.Now().UTC()
	l.events = append(l.events, e)
	if len(l.events) > maxEvents {
		l.events = l.events[len(l.events)-maxEvents:]
	}
	l.log.Info().
		Str("event", e.Type).
		Uint32("session", e.SessionID).
		Str("player", e.Player).
		Str("winner", e.Winner).
		Msg("session event")
}
