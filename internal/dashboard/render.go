package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"kirshify/admin/internal/client"
	"kirshify/admin/internal/table"
)

func renderStats(out io.Writer, s client.Stats) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Users\t%s\n", humanize.Comma(int64(s.Users)))
	fmt.Fprintf(tw, "Active farms\t%s\n", humanize.Comma(int64(s.ActiveFarms)))
	fmt.Fprintf(tw, "Revenue\t₹%s\n", humanize.Comma(int64(s.Revenue)))
	tw.Flush()
}

func renderTable(out io.Writer, v table.View) {
	if len(v.Items) == 0 {
		fmt.Fprintln(out, "No users found.")
	} else {
		selected := make(map[string]bool, len(v.Selected))
		for _, id := range v.Selected {
			selected[id] = true
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		allMark := "[ ]"
		if v.AllOnPageSelected {
			allMark = "[x]"
		}
		fmt.Fprintf(tw, "%s\tID\tNAME\tEMAIL\tROLE\tLAST LOGIN\n", allMark)
		for _, u := range v.Items {
			mark := "[ ]"
			if selected[u.ID] {
				mark = "[x]"
			}
			lastLogin := u.LastLogin
			if lastLogin == "" {
				lastLogin = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", mark, u.ID, u.Name, u.Email, u.Role, lastLogin)
		}
		tw.Flush()
	}

	fmt.Fprintf(out, "Page %d of %d  Total: %d", v.Page, v.TotalPages, v.Total)
	if v.Search != "" {
		fmt.Fprintf(out, "  Search: %q", v.Search)
	}
	if len(v.Selected) > 0 {
		fmt.Fprintf(out, "  Selected: %d", len(v.Selected))
	}
	fmt.Fprintln(out)
	if v.ConfirmOpen {
		fmt.Fprintf(out, "Pending delete: %s (confirm or cancel)\n", v.PendingDelete)
	}
}
