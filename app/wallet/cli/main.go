package main

import "github.com/ledgerd/powchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
