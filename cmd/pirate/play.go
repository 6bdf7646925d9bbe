package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/game"
)

var (
	playSeed1   string
	playSeed2   string
	playSession uint32
)

var cardNames = [4]string{"Rum", "Skull", "Backstabber", "Black Spot"}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Simulate a session and print the outcome",
	Run: func(cmd *cobra.Command, args []string) {
		s1, s2 := resolveSeeds(playSeed1, playSeed2)

		res, err := game.Simulate(s1, s2, playSession)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		printHeader(fmt.Sprintf("Session %d", playSession))
		fmt.Printf("Deck: %v\n", res.Deck)

		printSection("Rounds")
		for i, r := range res.Rounds {
			outcome := "tie"
			switch r.Winner {
			case game.WinnerPlayer1:
				outcome = "player 1"
			case game.WinnerPlayer2:
				outcome = "player 2"
			}
			if r.BlackSpot {
				outcome += " (black spot)"
			}
			fmt.Printf("  %2d: %2d (%s) vs %2d (%s) -> %s  [%d-%d]\n",
				i, r.CardP1, cardNames[r.TypeP1], r.CardP2, cardNames[r.TypeP2],
				outcome, r.ScoreP1, r.ScoreP2)
		}

		printSection("Result")
		fmt.Printf("Winner: %s (%s)\n",
			color.GreenString("player %d", res.Winner), res.Reason)
	},
}

// resolveSeeds parses the seed flags, generating fresh random seeds for any
// left empty.
func resolveSeeds(f1, f2 string) (*big.Int, *big.Int) {
	parse := func(name, v string) *big.Int {
		if v == "" {
			s, err := crypto.GenerateSeed()
			if err != nil {
				printError("seed generation failed: " + err.Error())
				os.Exit(1)
			}
			fmt.Printf("Generated %s: %s\n", name, crypto.FieldToHex(s))
			return s
		}
		s, err := crypto.ParseField(v)
		if err != nil {
			printError(fmt.Sprintf("invalid %s: %v", name, err))
			os.Exit(1)
		}
		return s
	}
	return parse("seed1", f1), parse("seed2", f2)
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playSeed1, "seed1", "", "player 1 seed (decimal or 0x-hex)")
	playCmd.Flags().StringVar(&playSeed2, "seed2", "", "player 2 seed (decimal or 0x-hex)")
	playCmd.Flags().Uint32Var(&playSession, "session", 1, "session id")
}
