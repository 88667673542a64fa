package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func requestStatus(hash string) (string, uint64, error) {
	cli := newBridgeClient()
	var resp struct {
		Status         string `json:"status"`
		SignatureCount uint64 `json:"signature_count"`
	}
	if err := cli.get(fmt.Sprintf("/api/requests/%s/status", hash), &resp); err != nil {
		return "", 0, err
	}
	return resp.Status, resp.SignatureCount, nil
}

var requestRootCmd = &cobra.Command{
	Use:   "request",
	Short: "Request ledger inspection",
}

var requestStatusCmd = &cobra.Command{
	Use:   "status <hash>",
	Short: "Report the lifecycle stage of a canonical request hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, count, err := requestStatus(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "status: %s  signatures: %d\n", status, count)
		return nil
	},
}

// requestListCmd reports the status of every hash given, a convenience
// wrapper over repeated status lookups — the bridge keeps no index of
// "all known hashes" since the ledger is addressed by hash, not scanned.
var requestListCmd = &cobra.Command{
	Use:   "list <hash> [hash...]",
	Short: "Report the lifecycle stage of each given request hash",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, h := range args {
			status, count, err := requestStatus(h)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", h, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (signatures: %d)\n", h, status, count)
		}
		return nil
	},
}

func init() {
	requestRootCmd.AddCommand(requestStatusCmd, requestListCmd)
}

// RequestCmd is the consolidated request command tree.
var RequestCmd = requestRootCmd
