package cmd

import (
	"fmt"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and send a transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account to send the value to.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Value to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}

	recipient, err := database.ToAccountID(to)
	if err != nil {
		return err
	}

	tx, err := database.NewTx(database.AccountID(id.Address()), recipient, amount, false).Sign(id)
	if err != nil {
		return err
	}

	resp, err := newRequest(nil).
		SetContext(cmd.Context()).
		SetBody(tx).
		Post(fmt.Sprintf("%s/v1/tx/submit", nodeURL))
	if err != nil {
		return err
	}

	if err := checkResponse(resp); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tx.Signature)
	return nil
}
