// Package deck derives the 25-card deal from a combined seed.
//
// Each card index is assigned a Poseidon-derived weight; the deck order is
// the ascending sort of the low 128 bits of those weights. The 128-bit
// truncation mirrors the comparator width used by the settlement circuit, so
// native ordering and in-circuit ordering agree as long as no two truncated
// weights collide.
package deck

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
)

const (
	// NumCards is the deck size.
	NumCards = 25
	// NumRounds is the number of two-card draws a full game consumes.
	NumRounds = 12
	// CoinflipIndex is the weight index reserved for the exhaustion tiebreak.
	CoinflipIndex = 25
)

// Card types, by index range: 0-7, 8-15, 16-23, 24.
const (
	TypeRum         = 0
	TypeSkull       = 1
	TypeBackstabber = 2
	TypeBlackSpot   = 3
)

// ErrWeightCollision is returned when two truncated weights are equal. The
// circuit's comparator cannot distinguish such decks, so witness generation
// must refuse rather than produce an order the proof cannot support.
var ErrWeightCollision = fmt.Errorf("truncated weight collision")

var truncMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// CardType maps a card index in [0,25) to its type.
func CardType(index int) int {
	if index == NumCards-1 {
		return TypeBlackSpot
	}
	return index / 8
}

// Deck is a derived deal: Cards[k] is the card index at draw position k, and
// Trunc[k]/High[k] are the low 128 bits and high remainder of that card's
// Poseidon weight, in the same (sorted) position order the circuit consumes.
type Deck struct {
	Cards [NumCards]int
	Trunc [NumCards]*big.Int
	High  [NumCards]*big.Int
}

// Derive computes the deck for a combined seed. It returns
// ErrWeightCollision if any two truncated weights are equal.
func Derive(combined *big.Int) (*Deck, error) {
	type weighted struct {
		card  int
		trunc *big.Int
		high  *big.Int
	}

	ws := make([]weighted, NumCards)
	for i := 0; i < NumCards; i++ {
		w, err := crypto.Poseidon2(combined, big.NewInt(int64(i)))
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i, err)
		}
		ws[i] = weighted{
			card:  i,
			trunc: new(big.Int).And(w, truncMask),
			high:  new(big.Int).Rsh(w, 128),
		}
	}

	// Ascending by truncated weight; ties break by card index via the
	// stable sort, but a tie is a soundness hazard and is rejected below.
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].trunc.Cmp(ws[j].trunc) < 0
	})

	d := &Deck{}
	for k, w := range ws {
		if k > 0 && w.trunc.Cmp(ws[k-1].trunc) == 0 {
			return nil, fmt.Errorf("%w: cards %d and %d", ErrWeightCollision, ws[k-1].card, w.card)
		}
		d.Cards[k] = w.card
		d.Trunc[k] = w.trunc
		d.High[k] = w.high
	}
	return d, nil
}

// Coinflip computes the exhaustion tiebreak bit source,
// Poseidon2(combined, 25).
func Coinflip(combined *big.Int) (*big.Int, error) {
	return crypto.Poseidon2(combined, big.NewInt(CoinflipIndex))
}
