package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func setHalted(halted bool) error {
	cli := newBridgeClient()
	return cli.post("/api/admin/halt", map[string]bool{"halted": halted}, nil)
}

var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Pause the bridge (owner-only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setHalted(true); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "bridge halted")
		return nil
	},
}

var unhaltCmd = &cobra.Command{
	Use:   "unhalt",
	Short: "Resume the bridge (owner-only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setHalted(false); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "bridge running")
		return nil
	},
}

// HaltCmd and UnhaltCmd are the top-level halt/unhalt commands.
var (
	HaltCmd   = haltCmd
	UnhaltCmd = unhaltCmd
)
