package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdelaney/renewal-ops/internal/core"
)

var ackFlags struct {
	ruleID string
	field  string
	undo   bool
	user   string
}

var ackCmd = &cobra.Command{
	Use:   "ack <comparison-id>",
	Short: "Acknowledge (or un-acknowledge) one check result",
	Args:  cobra.ExactArgs(1),
	RunE:  runAck,
}

func init() {
	f := ackCmd.Flags()
	f.StringVar(&ackFlags.ruleID, "rule", "", "Rule ID of the check (required)")
	f.StringVar(&ackFlags.field, "field", "", "Field of the check")
	f.BoolVar(&ackFlags.undo, "undo", false, "Clear the acknowledgement instead of setting it")
	f.StringVar(&ackFlags.user, "user", os.Getenv("USER"), "Acting user")
	_ = ackCmd.MarkFlagRequired("rule")
}

func runAck(cmd *cobra.Command, args []string) error {
	id := args[0]
	input := core.ReviewToggleInput{
		RuleID:     ackFlags.ruleID,
		Field:      ackFlags.field,
		Reviewed:   !ackFlags.undo,
		ActingUser: ackFlags.user,
	}

	var out core.RenewalComparison
	if err := newClient().do("POST", "/comparisons/"+id+"/checks:review", input, &out); err != nil {
		return err
	}

	reviewable := core.ReviewableChecks(out.Checks)
	reviewed := 0
	for _, cr := range reviewable {
		if cr.Reviewed {
			reviewed++
		}
	}
	fmt.Printf("check %s updated; reviewed %d/%d\n", ackFlags.ruleID, reviewed, len(reviewable))
	return nil
}
