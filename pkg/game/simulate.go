// Package game is the deterministic simulator. It is the ground truth for
// the board UI and the witness generator; the settlement circuit enforces
// the same rules constraint-by-constraint.
package game

import (
	"fmt"
	"math/big"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/deck"
)

// Winner codes used across the simulator, circuit and ledger.
const (
	WinnerNone    = 0
	WinnerPlayer1 = 1
	WinnerPlayer2 = 2
)

// TargetScore ends the game as soon as a player reaches it.
const TargetScore = 3

// EndReason records which rule terminated the game.
type EndReason string

const (
	ReasonBlackSpot EndReason = "blackspot"
	ReasonScore     EndReason = "score"
	ReasonExhausted EndReason = "exhausted"
	ReasonCoinflip  EndReason = "coinflip"
)

// Round is one two-card draw and its consequences.
type Round struct {
	CardP1    int
	CardP2    int
	TypeP1    int
	TypeP2    int
	Winner    int // 0 tie, 1 player1, 2 player2
	BlackSpot bool
	ScoreP1   int // cumulative after this round
	ScoreP2   int
	GameOver  bool
}

// Result is the full outcome of a simulated session.
type Result struct {
	Deck    [deck.NumCards]int
	Rounds  []Round
	Winner  int
	Reason  EndReason
	ScoreP1 int
	ScoreP2 int
}

// Simulate plays out the session determined by the two seeds and session id.
// The returned winner is always 1 or 2.
func Simulate(seed1, seed2 *big.Int, sessionID uint32) (*Result, error) {
	combined, err := crypto.CombinedSeed(seed1, seed2, sessionID)
	if err != nil {
		return nil, fmt.Errorf("combined seed: %w", err)
	}
	d, err := deck.Derive(combined)
	if err != nil {
		return nil, err
	}
	return playOut(combined, d)
}

// playOut runs the round loop against an already-derived deck.
func playOut(combined *big.Int, d *deck.Deck) (*Result, error) {
	res := &Result{Deck: d.Cards}

	score1, score2 := 0, 0
	active := true

	for i := 0; i < deck.NumRounds && active; i++ {
		c1, c2 := d.Cards[2*i], d.Cards[2*i+1]
		t1, t2 := deck.CardType(c1), deck.CardType(c2)

		r := Round{CardP1: c1, CardP2: c2, TypeP1: t1, TypeP2: t2}

		switch {
		case t1 == deck.TypeBlackSpot:
			res.Winner = WinnerPlayer2
			res.Reason = ReasonBlackSpot
			r.Winner = WinnerPlayer2
			r.BlackSpot = true
			active = false
		case t2 == deck.TypeBlackSpot:
			res.Winner = WinnerPlayer1
			res.Reason = ReasonBlackSpot
			r.Winner = WinnerPlayer1
			r.BlackSpot = true
			active = false
		default:
			switch {
			case t1 == t2:
				r.Winner = WinnerNone
			case (t1+1)%3 == t2:
				r.Winner = WinnerPlayer1
				score1++
			default:
				r.Winner = WinnerPlayer2
				score2++
			}
			// Player 1 takes priority if both thresholds ever appear at once.
			if score1 >= TargetScore {
				res.Winner = WinnerPlayer1
				res.Reason = ReasonScore
				active = false
			} else if score2 >= TargetScore {
				res.Winner = WinnerPlayer2
				res.Reason = ReasonScore
				active = false
			}
		}

		r.ScoreP1 = score1
		r.ScoreP2 = score2
		r.GameOver = !active
		res.Rounds = append(res.Rounds, r)
	}

	if active {
		switch {
		case score1 > score2:
			res.Winner = WinnerPlayer1
			res.Reason = ReasonExhausted
		case score2 > score1:
			res.Winner = WinnerPlayer2
			res.Reason = ReasonExhausted
		default:
			coin, err := deck.Coinflip(combined)
			if err != nil {
				return nil, fmt.Errorf("coinflip: %w", err)
			}
			res.Winner = int(coin.Bit(0)) + 1
			res.Reason = ReasonCoinflip
		}
	}

	res.ScoreP1 = score1
	res.ScoreP2 = score2
	return res, nil
}
