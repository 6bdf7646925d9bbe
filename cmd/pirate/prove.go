package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/prover"
	"github.com/ohloss/pirate-cards-go/pkg/verifier"
)

var (
	proveSeed1   string
	proveSeed2   string
	proveSession uint32
	provePKPath  string
	proveVKPath  string
	proveOutFile string
)

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Generate a Groth16 settlement proof",
	Long:  `Run the witness generator on both revealed seeds plus the session id and produce the proof payload a settle transaction submits.`,
	Run: func(cmd *cobra.Command, args []string) {
		s1, s2 := resolveSeeds(proveSeed1, proveSeed2)

		printHeader("Settlement Prover")
		fmt.Println("Loading proving keys (first run compiles the circuit and runs setup)...")
		keys, err := prover.LoadOrSetupKeys(provePKPath, proveVKPath)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		res, err := prover.Prove(keys, s1, s2, proveSession)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		// Self-check before anything leaves the process.
		if err := verifier.VerifyPayload(keys.VK, res.Payload); err != nil {
			printError("generated proof failed self-verification: " + err.Error())
			os.Exit(1)
		}

		printSuccess(fmt.Sprintf("Proof generated in %s (%d constraints)",
			res.ProvingTime.Round(1e6), res.Constraints))
		fmt.Printf("Winner: player %d (%s)\n", res.Simulation.Winner, res.Simulation.Reason)
		if verbose {
			fmt.Printf("Deck:   %v\n", res.Simulation.Deck)
			fmt.Printf("Seed1:  %s\n", crypto.FieldToHex(s1))
			fmt.Printf("Seed2:  %s\n", crypto.FieldToHex(s2))
		}

		if err := os.WriteFile(proveOutFile, res.Payload.Marshal(), 0o644); err != nil {
			printError("failed to write payload: " + err.Error())
			os.Exit(1)
		}
		printSuccess("Payload written to " + proveOutFile)
	},
}

func init() {
	rootCmd.AddCommand(proveCmd)

	proveCmd.Flags().StringVar(&proveSeed1, "seed1", "", "player 1 seed (decimal or 0x-hex)")
	proveCmd.Flags().StringVar(&proveSeed2, "seed2", "", "player 2 seed (decimal or 0x-hex)")
	proveCmd.Flags().Uint32Var(&proveSession, "session", 1, "session id")
	proveCmd.Flags().StringVar(&provePKPath, "pk", "cards.pk", "proving key path")
	proveCmd.Flags().StringVar(&proveVKPath, "vk", "cards.vk", "verification key path")
	proveCmd.Flags().StringVar(&proveOutFile, "out", "settle.bin", "output path for the proof payload")
}
