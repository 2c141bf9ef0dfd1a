package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	privateKey, err := signature.GenerateKey()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(accountPath, 0755); err != nil {
		return err
	}

	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %s already exists", path)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), database.PublicKeyToAccountID(privateKey.PublicKey))
	return nil
}
