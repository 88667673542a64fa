package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// -----------------------------------------------------------------------------
// Controllers
// -----------------------------------------------------------------------------

func committeeRotate(members []string, threshold uint64) (uint64, error) {
	cli := newBridgeClient()
	var resp struct {
		CommitteeID uint64 `json:"committee_id"`
	}
	body := map[string]any{"members": members, "threshold": threshold}
	if err := cli.post("/api/admin/committee", body, &resp); err != nil {
		return 0, err
	}
	return resp.CommitteeID, nil
}

func committeeShowMember(id uint64, account string) (bool, error) {
	cli := newBridgeClient()
	var resp struct {
		IsMember bool `json:"is_member"`
	}
	if err := cli.get(fmt.Sprintf("/api/committee/%d/member/%s", id, account), &resp); err != nil {
		return false, err
	}
	return resp.IsMember, nil
}

// -----------------------------------------------------------------------------
// Cobra command tree
// -----------------------------------------------------------------------------

var committeeRootCmd = &cobra.Command{
	Use:   "committee",
	Short: "Committee registry operations",
}

var committeeRotateCmd = &cobra.Command{
	Use:   "rotate <threshold> <member1,member2,...>",
	Short: "Install a new committee (owner-only, bridge must be halted)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid threshold: %w", err)
		}
		members := strings.Split(args[1], ",")
		id, err := committeeRotate(members, threshold)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "new committee id: %d\n", id)
		return nil
	},
}

var committeeShowCmd = &cobra.Command{
	Use:   "show <committee_id> <account>",
	Short: "Report whether account belongs to committee_id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid committee id: %w", err)
		}
		isMember, err := committeeShowMember(id, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", isMember)
		return nil
	},
}

func init() {
	committeeRootCmd.AddCommand(committeeRotateCmd, committeeShowCmd)
}

// CommitteeCmd is the consolidated committee command tree.
var CommitteeCmd = committeeRootCmd
