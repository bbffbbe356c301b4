package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mdelaney/renewal-ops/internal/core"
)

var listFlags struct {
	status string
	line   string
	limit  int
	offset int
	asJSON bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the renewal review queue",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listFlags.status, "status", "", "Filter by status (pending, requote_requested, completed, cancelled)")
	f.StringVar(&listFlags.line, "line", "", "Filter by line kind (home, auto, other)")
	f.IntVar(&listFlags.limit, "limit", 20, "Page size")
	f.IntVar(&listFlags.offset, "offset", 0, "Page offset")
	f.BoolVar(&listFlags.asJSON, "json", false, "Print raw JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if listFlags.status != "" {
		q.Set("status", listFlags.status)
	}
	if listFlags.line != "" {
		q.Set("line", listFlags.line)
	}
	q.Set("limit", fmt.Sprint(listFlags.limit))
	q.Set("offset", fmt.Sprint(listFlags.offset))

	var page struct {
		Items  []core.RenewalComparison `json:"items"`
		Total  int64                    `json:"total"`
		Limit  int                      `json:"limit"`
		Offset int                      `json:"offset"`
	}
	if err := newClient().do("GET", "/comparisons?"+q.Encode(), nil, &page); err != nil {
		return err
	}

	if listFlags.asJSON {
		return printJSON(page)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOLICY\tLINE\tSTATUS\tPREMIUM\tDELTA")
	for _, c := range page.Items {
		delta := "n/a"
		if c.PremiumChangeAmount != nil {
			delta = fmt.Sprintf("%+.0f", *c.PremiumChangeAmount)
			if c.PremiumChangePercent != nil {
				delta = fmt.Sprintf("%s (%+.1f%%)", delta, *c.PremiumChangePercent)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%s\n",
			c.ID, c.PolicyNumber, c.Line, c.Status, c.Renewal.Premium, delta)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d (offset %d)\n", len(page.Items), page.Total, page.Offset)
	return nil
}
