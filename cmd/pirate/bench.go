package main

import (
	"fmt"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/spf13/cobra"

	"github.com/ohloss/pirate-cards-go/pkg/crypto"
	"github.com/ohloss/pirate-cards-go/pkg/prover"
)

var benchRuns int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark compile, witness and prove times",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("Prover Benchmark")

		start := time.Now()
		ccs, err := prover.Compile()
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		compileMs := float64(time.Since(start).Microseconds()) / 1000.0
		fmt.Printf("Compile:  %10.2f ms  (%d constraints)\n", compileMs, ccs.GetNbConstraints())

		keys, err := prover.Setup()
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		for run := 0; run < benchRuns; run++ {
			s1, err := crypto.GenerateSeed()
			if err != nil {
				printError(err.Error())
				os.Exit(1)
			}
			s2, err := crypto.GenerateSeed()
			if err != nil {
				printError(err.Error())
				os.Exit(1)
			}

			start = time.Now()
			assignment, _, err := prover.BuildAssignment(s1, s2, uint32(run+1))
			if err != nil {
				printError(err.Error())
				os.Exit(1)
			}
			witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
			if err != nil {
				printError(err.Error())
				os.Exit(1)
			}
			witnessMs := float64(time.Since(start).Microseconds()) / 1000.0

			start = time.Now()
			if _, err := groth16.Prove(keys.CCS, keys.PK, witness); err != nil {
				printError(err.Error())
				os.Exit(1)
			}
			proveMs := float64(time.Since(start).Microseconds()) / 1000.0

			fmt.Printf("Run %2d:   witness %8.2f ms   prove %10.2f ms\n", run+1, witnessMs, proveMs)
		}
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVar(&benchRuns, "runs", 3, "number of prove runs")
}
