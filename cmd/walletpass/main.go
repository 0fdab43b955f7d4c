// walletpass is the command line tool for building envelopes, checking callback signatures
// and calling the wallet server REST API.
package main

import "github.com/walletkit-demo/walletpass/internal/cli"

func main() {
	cli.Execute()
}
