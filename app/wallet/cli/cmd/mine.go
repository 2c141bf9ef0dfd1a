package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine the pending transactions",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	var mined struct {
		Message string `json:"message"`
		Hash    string `json:"hash"`
	}

	resp, err := newRequest(&mined).
		SetContext(cmd.Context()).
		Get(fmt.Sprintf("%s/v1/mine", nodeURL))
	if err != nil {
		return err
	}

	if err := checkResponse(resp); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", mined.Message, mined.Hash)
	return nil
}
