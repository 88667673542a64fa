// Command bridge-cli is the operator CLI for the bridge, talking to
// cmd/bridge-api over HTTP.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/most-network/bridge/cmd/bridge-cli/cli"
)

func main() {
	root := &cobra.Command{
		Use:   "bridge-cli",
		Short: "Operator CLI for the MOST bridge",
	}
	cli.Register(root)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
