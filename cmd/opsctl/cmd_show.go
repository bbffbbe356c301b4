package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdelaney/renewal-ops/internal/core"
)

var showFlags struct {
	view string
}

var showCmd = &cobra.Command{
	Use:   "show <comparison-id>",
	Short: "Show one comparison, or one of its derived views",
	Long: `Show prints the full comparison document by default. Pick a derived
view with --view:

  reasons   premium-change reasons and the summary line
  aging     per-claim surcharge decay timeline
  review    acknowledgement progress
  actions   decision actions currently offered`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showFlags.view, "view", "", "Derived view: reasons, aging, review or actions")
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	c := newClient()

	switch showFlags.view {
	case "":
		var out core.RenewalComparison
		if err := c.do("GET", "/comparisons/"+id, nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	case "reasons":
		var out core.ReasonView
		if err := c.do("GET", "/comparisons/"+id+"/reasons", nil, &out); err != nil {
			return err
		}
		for _, r := range out.Reasons {
			fmt.Printf("[%s] %s: %s\n", r.Color, r.Tag, r.Detail)
		}
		fmt.Println(out.Summary)
		return nil
	case "aging":
		var out []core.ClaimAgingView
		if err := c.do("GET", "/comparisons/"+id+"/aging", nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	case "review":
		var out core.ReviewView
		if err := c.do("GET", "/comparisons/"+id+"/review", nil, &out); err != nil {
			return err
		}
		fmt.Printf("reviewed %d/%d (%d%%)\n", out.ReviewedCount, out.ReviewableCount, out.Progress)
		return nil
	case "actions":
		var out core.ActionsView
		if err := c.do("GET", "/comparisons/"+id+"/actions", nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	default:
		return fmt.Errorf("unknown view %q", showFlags.view)
	}
}
