package main

import "github.com/swarmcoin/swarmcoin/app/wallet/cmd"

func main() {
	cmd.Execute()
}
