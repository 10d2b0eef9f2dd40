package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lineagekit/lineagekit/internal/export"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Table   string
	OutFile string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the lineage graph as JSON",
		Long: `Build the lineage graph and write its grouped JSON representation.

Without --table the full table graph is exported. With --table the
export is restricted to that table's lineage subgraph: its column-level
ancestors plus its table-level descendants.`,
		Example: `  # Export the full graph to stdout
  lineagekit export

  # Export one table's lineage subgraph
  lineagekit export --table analytics.revenue

  # Write to a file
  lineagekit export --out graph.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "Restrict export to this table's lineage (group.table)")
	cmd.Flags().StringVar(&opts.OutFile, "out", "", "Write output to a file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	proj, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}
	g := proj.Graph()

	var payload any
	if opts.Table != "" {
		groups, err := export.Lineage(g, opts.Table)
		if err != nil {
			return err
		}
		payload = groups
	} else {
		payload = export.Graph(g)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	data = append(data, '\n')

	if opts.OutFile != "" {
		if err := os.WriteFile(opts.OutFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.OutFile, err)
		}
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
