package devicesync

import (
	"fmt"
	"io"

	"netsync/core/reconcile"

	"github.com/fatih/color"
)

const indent = "        "

// Render prints a human readable report of res: one block per kind, one
// line per item that was or would be changed, and the totals. Items skipped
// because they already match are left out. plain disables colors.
func Render(w io.Writer, res *Result, plain bool) {
	green := newColor(plain, color.FgGreen)
	yellow := newColor(plain, color.FgYellow)
	red := newColor(plain, color.FgRed)
	cyan := newColor(plain, color.FgCyan)
	faint := newColor(plain, color.Faint)

	mode := ""
	if res.DryRun {
		mode = " (dry run)"
	}
	device := res.Device
	if device == "" {
		device = "<unknown>"
	}
	cyan.Fprintf(w, "sync %s%s\n", device, mode)

	for _, r := range res.Reports {
		fmt.Fprintf(w, "\n%s:\n", r.Kind)
		if r.Error != "" {
			red.Fprintf(w, "%s%-10s%s\n", indent, "error:", r.Error)
		}
		shown := 0
		for _, d := range r.Details {
			var c *color.Color
			label := ""
			switch d.Outcome {
			case reconcile.OutcomeCreated:
				c, label = green, "new:"
			case reconcile.OutcomeUpdated:
				c, label = yellow, "modified:"
			case reconcile.OutcomeDeleted:
				c, label = red, "deleted:"
			case reconcile.OutcomeFailed:
				c, label = red, "failed:"
			case reconcile.OutcomePending:
				c, label = faint, "pending:"
			case reconcile.OutcomeSkipped:
				if d.Description == reconcile.ReasonNoChanges {
					continue
				}
				c, label = faint, "skipped:"
			default:
				continue
			}
			line := fmt.Sprintf("%s%-10s%s", indent, label, d.Identity)
			if d.Description != "" {
				line += " (" + d.Description + ")"
			}
			c.Fprintln(w, line)
			shown++
		}
		if shown == 0 && r.Error == "" {
			fmt.Fprintf(w, "%sno changes\n", indent)
		}
	}

	fmt.Fprintln(w)
	if res.Fatal {
		red.Fprintf(w, "aborted: %s\n", res.Error)
	}
	if s := res.Summary; s != nil {
		line := fmt.Sprintf("created=%d updated=%d deleted=%d skipped=%d failed=%d", s.Created, s.Updated, s.Deleted, s.Skipped, s.Failed)
		if s.Remaining > 0 {
			line += fmt.Sprintf(" pending=%d", s.Remaining)
		}
		fmt.Fprintln(w, line)
	}
}

func newColor(plain bool, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if plain {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}
