package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lineagekit/lineagekit/internal/export"
	"github.com/lineagekit/lineagekit/internal/graph"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	OutputFormat string
	Upstream     bool
	Downstream   bool
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <group.table>",
		Short: "Show lineage for a table",
		Long: `Display the upstream ancestors and downstream dependents of a table.

Upstream lineage is column-precise: only tables that actually feed the
target's columns are reported, not every dependency of shared sources.`,
		Example: `  # Show full lineage for a table
  lineagekit lineage analytics.revenue

  # Show only upstream ancestors
  lineagekit lineage analytics.revenue --downstream=false

  # Column-level detail as JSON
  lineagekit lineage analytics.revenue --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include upstream ancestors")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include downstream dependents")

	return cmd
}

func runLineage(cmd *cobra.Command, tableID string, opts *LineageOptions) error {
	proj, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}
	g := proj.Graph()

	if !g.HasTable(tableID) {
		return fmt.Errorf("table not found: %s", tableID)
	}

	if opts.OutputFormat == "json" {
		return lineageJSON(cmd.OutOrStdout(), g, tableID)
	}
	return lineageText(cmd.OutOrStdout(), g, tableID, opts)
}

func lineageJSON(w io.Writer, g *graph.Graph, tableID string) error {
	payload, err := export.TableLineage(g, tableID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func lineageText(w io.Writer, g *graph.Graph, tableID string, opts *LineageOptions) error {
	fmt.Fprintf(w, "Lineage for %s\n", tableID)

	if opts.Upstream {
		ancestors, err := g.ColumnAncestors(tableID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nUpstream (%d):\n", len(ancestors))
		if len(ancestors) == 0 {
			fmt.Fprintln(w, "  (none - source table)")
		}
		for _, id := range ancestors {
			fmt.Fprintf(w, "  <- %s\n", id)
		}
	}

	if opts.Downstream {
		descendants, err := g.Descendants(tableID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nDownstream (%d):\n", len(descendants))
		if len(descendants) == 0 {
			fmt.Fprintln(w, "  (none - no dependents)")
		}
		for _, id := range descendants {
			fmt.Fprintf(w, "  -> %s\n", id)
		}
	}

	return nil
}
