package main

import "github.com/hancoin9/hancoin/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
