package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type bridgeStatus struct {
	Halted       bool   `json:"halted"`
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner,omitempty"`
	CommitteeID  uint64 `json:"committee_id"`
	RequestNonce string `json:"request_nonce"`
	PocketMoney  string `json:"pocket_money"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the bridge's current global state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli := newBridgeClient()
		var resp bridgeStatus
		if err := cli.get("/api/status", &resp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "halted:        %v\n", resp.Halted)
		fmt.Fprintf(cmd.OutOrStdout(), "owner:         %s\n", resp.Owner)
		if resp.PendingOwner != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "pending owner: %s\n", resp.PendingOwner)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "committee id:  %d\n", resp.CommitteeID)
		fmt.Fprintf(cmd.OutOrStdout(), "request nonce: %s\n", resp.RequestNonce)
		fmt.Fprintf(cmd.OutOrStdout(), "pocket money:  %s\n", resp.PocketMoney)
		return nil
	},
}

// StatusCmd is the top-level status command.
var StatusCmd = statusCmd
