package cmd

import (
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the node's chain",
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	var chain struct {
		Chain   []database.Block `json:"chain"`
		Length  int              `json:"length"`
		IsValid bool             `json:"isValid"`
	}

	resp, err := newRequest(&chain).
		SetContext(cmd.Context()).
		Get(fmt.Sprintf("%s/v1/chain", nodeURL))
	if err != nil {
		return err
	}

	if err := checkResponse(resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "length: %d valid: %v\n", chain.Length, chain.IsValid)
	for i, block := range chain.Chain {
		fmt.Fprintf(out, "%4d %s trans[%d] nonce[%d]\n", i, block.Hash(), len(block.Transactions), block.Nonce)
	}

	return nil
}
