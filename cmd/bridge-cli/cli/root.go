package cli

import "github.com/spf13/cobra"

// Register attaches every bridge-cli command group to root.
func Register(root *cobra.Command) {
	root.AddCommand(StatusCmd)
	root.AddCommand(HaltCmd)
	root.AddCommand(UnhaltCmd)
	root.AddCommand(CommitteeCmd)
	root.AddCommand(RequestCmd)
	root.AddCommand(RewardsCmd)
}
