package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ehr/fhirviewer/internal/domain/catalog"
	"github.com/ehr/fhirviewer/internal/platform/db"
	"github.com/ehr/fhirviewer/internal/platform/fhir"
)

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderList(w io.Writer, items []catalog.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDISPLAY\tTYPE\tELEMENTS\tMUST-SUPPORT")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.Name, s.DisplayName, s.Type, s.ElementCount, s.MustSupportCount)
	}
	return tw.Flush()
}

// renderTree prints one line per node, indented by level.
func renderTree(w io.Writer, view *catalog.TreeView, describe bool) error {
	fmt.Fprintf(w, "%s (%s, %d fields)\n", view.DisplayName, view.Namespace, view.FieldCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fhir.Walk(view.Fields, func(n *fhir.FieldTreeNode, level int) bool {
		indent := strings.Repeat("  ", level+1)
		if n.Synthetic {
			fmt.Fprintf(tw, "%s%s\t\t\t%s\n", indent, n.Field.Name, n.Display.Short)
			return true
		}
		var flags []string
		if n.Field.MustSupport {
			flags = append(flags, "MS")
		}
		if n.Field.IsModifier {
			flags = append(flags, "?!")
		}
		if n.Field.IsSummary {
			flags = append(flags, "Σ")
		}
		line := fmt.Sprintf("%s%s\t%s\t%s\t%s", indent, n.Field.Name, n.Field.Cardinality, n.Field.Type, strings.Join(flags, " "))
		if describe && n.Display.Short != "" {
			line += "\t" + n.Display.Short
		}
		fmt.Fprintln(tw, line)
		return true
	})
	return tw.Flush()
}

func renderComparison(w io.Writer, c *catalog.Comparison) error {
	fmt.Fprintf(w, "%s (%s) vs %s (%s): %d shared paths\n", c.Profile, c.Namespace, c.Base, c.BaseNamespace, c.Overlap)
	if c.Overlap == 0 {
		fmt.Fprintln(w, "warning: the profile shares no paths with its base")
	}

	fmt.Fprintf(w, "\nAdded (%d):\n", len(c.AddedFields))
	for _, f := range c.AddedFields {
		fmt.Fprintf(w, "  + %s %s %s\n", f.Path, f.Cardinality, f.Type)
	}

	fmt.Fprintf(w, "\nModified (%d):\n", len(c.ModifiedFields))
	for _, m := range c.ModifiedFields {
		parts := make([]string, len(m.Changes))
		for i, ch := range m.Changes {
			parts[i] = fmt.Sprintf("%s %s -> %s", ch.Kind, ch.Before, ch.After)
		}
		fmt.Fprintf(w, "  ~ %s: %s\n", m.Field.Path, strings.Join(parts, "; "))
	}

	fmt.Fprintf(w, "\nMust support (%d):\n", len(c.MustSupportFields))
	for _, f := range c.MustSupportFields {
		fmt.Fprintf(w, "  * %s\n", f.Path)
	}
	return nil
}

func renderMigrations(w io.Writer, statuses []db.MigrationStatus) error {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
	return nil
}
