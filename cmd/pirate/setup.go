package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ohloss/pirate-cards-go/pkg/prover"
)

var (
	setupPKPath string
	setupVKPath string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Compile the circuit and generate Groth16 keys",
	Long:  `Compile the settlement circuit and run the Groth16 setup, writing the proving and verification keys to disk. The verification key is what gets embedded in the contract.`,
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("Circuit Setup")

		keys, err := prover.LoadOrSetupKeys(setupPKPath, setupVKPath)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		printSuccess(fmt.Sprintf("Constraint system: %d constraints", keys.CCS.GetNbConstraints()))
		printSuccess("Proving key: " + setupPKPath)
		printSuccess("Verification key: " + setupVKPath)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().StringVar(&setupPKPath, "pk", "cards.pk", "proving key output path")
	setupCmd.Flags().StringVar(&setupVKPath, "vk", "cards.vk", "verification key output path")
}
