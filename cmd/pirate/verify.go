package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ohloss/pirate-cards-go/pkg/verifier"
	"github.com/ohloss/pirate-cards-go/pkg/vk"
	"github.com/ohloss/pirate-cards-go/pkg/wire"
)

var (
	verifyVKPath      string
	verifyCircomProof string
	verifyCircomVK    string
	verifyPublicFile  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <payload.bin>",
	Short: "Verify a settlement proof payload",
	Long:  `Decode a wire-encoded proof payload and run the Groth16 pairing check against the verification key. With --circom-proof, verify a snarkjs artifact instead.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("Settlement Verifier")

		if verifyCircomProof != "" {
			runCircomVerify()
			return
		}

		if len(args) != 1 {
			printError("payload file required (or use --circom-proof)")
			os.Exit(1)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		key, err := vk.LoadBinaryKey(verifyVKPath)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		payload, err := wire.Unmarshal(data)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}

		start := time.Now()
		err = verifier.VerifyPayload(key, payload)
		elapsed := time.Since(start)

		if err != nil {
			printError("Proof invalid: " + err.Error())
			os.Exit(1)
		}

		printSuccess(fmt.Sprintf("Proof valid (%s)", elapsed.Round(1e5)))
		fmt.Printf("Declared winner: player %d\n", payload.Inputs.WinnerCode())
	},
}

func runCircomVerify() {
	proofJSON, err := os.ReadFile(verifyCircomProof)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	circomVk, err := vk.LoadCircomKey(verifyCircomVK)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	var publicSignals []string
	if verifyPublicFile != "" {
		raw, err := os.ReadFile(verifyPublicFile)
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		if err := json.Unmarshal(raw, &publicSignals); err != nil {
			printError("invalid public signals JSON: " + err.Error())
			os.Exit(1)
		}
	}

	if err := verifier.VerifyCircomKey(proofJSON, circomVk, publicSignals); err != nil {
		printError("Proof invalid: " + err.Error())
		os.Exit(1)
	}
	printSuccess("snarkjs proof valid")
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyVKPath, "vk", "cards.vk", "verification key path (gnark binary)")
	verifyCmd.Flags().StringVar(&verifyCircomProof, "circom-proof", "", "snarkjs proof JSON (browser prover output)")
	verifyCmd.Flags().StringVar(&verifyCircomVK, "circom-vk", "verification_key.json", "snarkjs verification key JSON")
	verifyCmd.Flags().StringVar(&verifyPublicFile, "public", "", "snarkjs public signals JSON")
}
