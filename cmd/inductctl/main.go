// Command inductctl scores and ranks the fleet from the command line using
// the same configuration and stores as the API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
