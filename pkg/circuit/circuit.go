// Package circuit defines the settlement constraint system: a Groth16-provable
// statement that the public winner is the unique consequence of the two
// committed seeds and the session id.
package circuit

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/bits"
	"github.com/vocdoni/gnark-crypto-primitives/hash/native/bn254/poseidon"

	"github.com/ohloss/pirate-cards-go/pkg/deck"
)

// two128 is the weight split point: w = trunc + high * 2^128.
var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// SettlementCircuit proves, for public inputs
// (commit1, commit2, seed1, seed2, sessionID, winner):
//
//  1. Poseidon1(seedN) opens commitN.
//  2. The private deck is a permutation of [0,25) ordered by the low 128
//     bits of each card's Poseidon weight under the combined seed.
//  3. Replaying the 12 rounds over that deck yields the declared winner.
type SettlementCircuit struct {
	SeedCommit1 frontend.Variable `gnark:",public"`
	SeedCommit2 frontend.Variable `gnark:",public"`
	Seed1       frontend.Variable `gnark:",public"`
	Seed2       frontend.Variable `gnark:",public"`
	SessionID   frontend.Variable `gnark:",public"`
	Winner      frontend.Variable `gnark:",public"`

	Deck         [deck.NumCards]frontend.Variable
	TruncWeights [deck.NumCards]frontend.Variable
	HighWeights  [deck.NumCards]frontend.Variable
}

// Define declares the constraints.
func (c *SettlementCircuit) Define(api frontend.API) error {
	// 1. Commitment openings.
	commit1, err := poseidon.Hash(api, c.Seed1)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.SeedCommit1, commit1)

	commit2, err := poseidon.Hash(api, c.Seed2)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.SeedCommit2, commit2)

	// 2. Combined seed.
	combined, err := poseidon.Hash(api, c.Seed1, c.Seed2, c.SessionID)
	if err != nil {
		return err
	}

	// 3. Permutation validity: every card in [0,25), all pairwise distinct.
	// The type of card k is floor(k/8), read directly off bits 3 and 4.
	var types [deck.NumCards]frontend.Variable
	for i := 0; i < deck.NumCards; i++ {
		b := bits.ToBinary(api, c.Deck[i], bits.WithNbDigits(5))
		api.AssertIsLessOrEqual(c.Deck[i], deck.NumCards-1)
		types[i] = api.Add(b[3], api.Mul(b[4], 2))
	}
	for i := 0; i < deck.NumCards; i++ {
		for j := i + 1; j < deck.NumCards; j++ {
			// Inverse is only satisfiable when the difference is non-zero.
			api.Inverse(api.Sub(c.Deck[i], c.Deck[j]))
		}
	}

	// 4. Weight decomposition: Poseidon2(combined, deck[i]) splits into a
	// 128-bit truncation and a high part below 2^126.
	for i := 0; i < deck.NumCards; i++ {
		w, err := poseidon.Hash(api, combined, c.Deck[i])
		if err != nil {
			return err
		}
		bits.ToBinary(api, c.TruncWeights[i], bits.WithNbDigits(128))
		bits.ToBinary(api, c.HighWeights[i], bits.WithNbDigits(126))
		api.AssertIsEqual(w, api.Add(c.TruncWeights[i], api.Mul(c.HighWeights[i], two128)))
	}

	// 5. Sort order on the truncated weights.
	for i := 0; i < deck.NumCards-1; i++ {
		assertLessOrEqual128(api, c.TruncWeights[i], c.TruncWeights[i+1])
	}

	// 6. Round replay.
	score1 := frontend.Variable(0)
	score2 := frontend.Variable(0)
	active := frontend.Variable(1)
	winner := frontend.Variable(0)

	for i := 0; i < deck.NumRounds; i++ {
		t1, t2 := types[2*i], types[2*i+1]

		bs1 := api.IsZero(api.Sub(t1, deck.TypeBlackSpot))
		bs2 := api.IsZero(api.Sub(t2, deck.TypeBlackSpot))
		anyBS := api.Sub(api.Add(bs1, bs2), api.Mul(bs1, bs2))
		notBS := api.Sub(1, anyBS)

		// RPS over types 0..2: t1 beats t2 iff t2 == (t1+1) mod 3. Only
		// meaningful when neither side drew the Black Spot; gated by notBS.
		tie := api.IsZero(api.Sub(t1, t2))
		beats := api.Add(
			api.IsZero(api.Sub(api.Add(t1, 1), t2)),
			api.Mul(api.IsZero(api.Sub(t1, 2)), api.IsZero(t2)),
		)
		p1Round := api.Mul(beats, notBS)
		p2Round := api.Mul(api.Sub(1, api.Add(tie, beats)), notBS)

		score1 = api.Add(score1, api.Mul(active, p1Round))
		score2 = api.Add(score2, api.Mul(active, p2Round))

		ge3p1 := geTarget(api, score1)
		ge3p2 := geTarget(api, score2)

		// Black Spot: drawer loses. The -3*bs1*bs2 term keeps the winner
		// register well-defined if an adversarial witness sets both flags.
		bsWin := api.Sub(
			api.Add(api.Mul(bs1, 2), bs2),
			api.Mul(api.Mul(bs1, bs2), 3),
		)
		// First-to-3: player 1's flag gates player 2's to avoid winner=3.
		scoreWin := api.Add(ge3p1, api.Mul(api.Mul(ge3p2, 2), api.Sub(1, ge3p1)))

		roundWin := api.Add(api.Mul(anyBS, bsWin), api.Mul(notBS, scoreWin))
		winner = api.Add(winner, api.Mul(active, roundWin))

		active = api.Mul(active, notBS)
		active = api.Mul(active, api.Sub(1, ge3p1))
		active = api.Mul(active, api.Sub(1, ge3p2))
	}

	// 7. Exhaustion tail: score lead wins, a tied board flips the Poseidon
	// coin Poseidon2(combined, 25).
	coin, err := poseidon.Hash(api, combined, deck.CoinflipIndex)
	if err != nil {
		return err
	}
	coinBit := bits.ToBinary(api, coin, bits.WithNbDigits(254))[0]

	// Scores stay below 16, so s1-s2+16 fits 5 bits and bit 4 is s1 >= s2.
	geBits := bits.ToBinary(api, api.Add(api.Sub(score1, score2), 16), bits.WithNbDigits(5))
	ge := geBits[4]
	eq := api.IsZero(api.Sub(score1, score2))
	gt := api.Mul(ge, api.Sub(1, eq))
	lt := api.Sub(1, ge)

	endWin := api.Add(gt, api.Mul(lt, 2))
	endWin = api.Add(endWin, api.Mul(eq, api.Add(coinBit, 1)))
	winner = api.Add(winner, api.Mul(active, endWin))

	// 8. Winner binding.
	api.AssertIsEqual(winner, c.Winner)

	return nil
}

// assertLessOrEqual128 enforces a <= b for values already constrained to
// 128 bits: b - a + 2^128 has bit 128 set exactly when b >= a.
func assertLessOrEqual128(api frontend.API, a, b frontend.Variable) {
	d := api.Add(api.Sub(b, a), two128)
	db := bits.ToBinary(api, d, bits.WithNbDigits(129))
	api.AssertIsEqual(db[128], 1)
}

// geTarget returns 1 iff score >= 3. Scores are bounded by the round count,
// so score+13 fits 5 bits and bit 4 reads score >= 3.
func geTarget(api frontend.API, score frontend.Variable) frontend.Variable {
	b := bits.ToBinary(api, api.Add(score, 13), bits.WithNbDigits(5))
	return b[4]
}
