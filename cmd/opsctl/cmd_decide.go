package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdelaney/renewal-ops/internal/core"
)

var decideFlags struct {
	kind  string
	notes string
	user  string
}

var decideCmd = &cobra.Command{
	Use:   "decide <comparison-id>",
	Short: "Record a decision on a comparison",
	Long: `Decide records an agent decision. Kinds:

  renew_as_is       accept the renewal (requires 100% review progress)
  reshop            request requotes (notes required)
  needs_more_info   flag for follow-up (notes required)
  contact_customer  park pending a customer conversation
  no_better_option  close after reshop with the incumbent carrier
  bound_new_policy  close after reshop on a new policy (notes required)`,
	Args: cobra.ExactArgs(1),
	RunE: runDecide,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <comparison-id>",
	Short: "Cancel a pending comparison",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	f := decideCmd.Flags()
	f.StringVar(&decideFlags.kind, "kind", "", "Decision kind (required)")
	f.StringVar(&decideFlags.notes, "notes", "", "Agent notes")
	f.StringVar(&decideFlags.user, "user", os.Getenv("USER"), "Acting user")
	_ = decideCmd.MarkFlagRequired("kind")
}

func runDecide(cmd *cobra.Command, args []string) error {
	id := args[0]
	input := core.DecisionInput{
		Kind:       core.DecisionKind(decideFlags.kind),
		Notes:      decideFlags.notes,
		ActingUser: decideFlags.user,
	}

	var out core.RenewalComparison
	if err := newClient().do("POST", "/comparisons/"+id+"/decisions", input, &out); err != nil {
		return err
	}

	fmt.Printf("decision %s recorded; status is now %s\n", decideFlags.kind, out.Status)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	id := args[0]

	var out core.RenewalComparison
	if err := newClient().do("POST", "/comparisons/"+id+":cancel", nil, &out); err != nil {
		return err
	}

	fmt.Printf("comparison %s cancelled\n", out.ID)
	return nil
}
