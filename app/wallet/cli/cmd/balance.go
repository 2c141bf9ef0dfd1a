package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}

	var info struct {
		Accounts []struct {
			Account string `json:"account"`
			Balance int64  `json:"balance"`
		} `json:"accounts"`
	}

	resp, err := newRequest(&info).
		SetContext(cmd.Context()).
		Get(fmt.Sprintf("%s/v1/accounts/list/%s", nodeURL, id.Address()))
	if err != nil {
		return err
	}

	if err := checkResponse(resp); err != nil {
		return err
	}

	var balance int64
	if len(info.Accounts) > 0 {
		balance = info.Accounts[0].Balance
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", id.Address(), balance)
	return nil
}
