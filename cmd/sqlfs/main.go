// Command sqlfs derives, sets up and queries SQL feature stores.
package main

import (
	"os"

	"github.com/syssam/sqlfs/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
