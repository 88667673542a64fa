package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func rewardsPayout(committeeID uint64, member string) error {
	cli := newBridgeClient()
	body := map[string]any{"committee_id": committeeID, "member": member}
	return cli.post("/api/rewards/payout", body, nil)
}

func rewardsOutstanding(committeeID uint64, member string) (string, error) {
	cli := newBridgeClient()
	var resp struct {
		Outstanding string `json:"outstanding"`
	}
	if err := cli.get(fmt.Sprintf("/api/rewards/%d/%s/outstanding", committeeID, member), &resp); err != nil {
		return "", err
	}
	return resp.Outstanding, nil
}

var rewardsRootCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Guardian reward payout and inspection",
}

var rewardsPayoutCmd = &cobra.Command{
	Use:   "payout <committee_id> <member>",
	Short: "Transfer a member's outstanding reward balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid committee id: %w", err)
		}
		if err := rewardsPayout(id, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "payout submitted")
		return nil
	},
}

var rewardsOutstandingCmd = &cobra.Command{
	Use:   "outstanding <committee_id> <member>",
	Short: "Report a member's unclaimed reward balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid committee id: %w", err)
		}
		amt, err := rewardsOutstanding(id, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amt)
		return nil
	},
}

func init() {
	rewardsRootCmd.AddCommand(rewardsPayoutCmd, rewardsOutstandingCmd)
}

// RewardsCmd is the consolidated rewards command tree.
var RewardsCmd = rewardsRootCmd
