// Package cmd contains the wallet commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-resty/resty/v2"
	"github.com/ledgerd/powchain/foundation/blockchain/identity"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	nodeURL     string
)

const (
	keyExtenstion = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node's public api.")
}

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Simple wallet for a proof of work node",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, keyExtenstion) {
		name += keyExtenstion
	}

	return filepath.Join(accountPath, name)
}

func loadIdentity() (*identity.Identity, error) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return identity.FromPrivateKey(privateKey), nil
}

// errorResponse is the error document returned by the node.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func newRequest(result any) *resty.Request {
	client := resty.New().
		SetTimeout(time.Minute).
		SetHeader("Content-Type", "application/json")

	req := client.R().SetError(&errorResponse{})
	if result != nil {
		req.SetResult(result)
	}

	return req
}

func checkResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	if er, ok := resp.Error().(*errorResponse); ok && er.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status(), er.Error)
	}

	return fmt.Errorf("%s", resp.Status())
}
