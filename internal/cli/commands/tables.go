package commands

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lineagekit/lineagekit/internal/graph"
)

// TablesOptions holds options for the tables command.
type TablesOptions struct {
	OutputFormat string
	Group        string
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	opts := &TablesOptions{}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables in the lineage graph",
		Example: `  # List all tables
  lineagekit tables

  # Only tables in one group
  lineagekit tables --group staging

  # Output as JSON
  lineagekit tables --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTables(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "Only list tables in this group")

	return cmd
}

func runTables(cmd *cobra.Command, opts *TablesOptions) error {
	proj, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}

	var tables []*graph.Table
	for _, t := range proj.Graph().Tables() {
		if opts.Group != "" && t.Group != opts.Group {
			continue
		}
		tables = append(tables, t)
	}

	if opts.OutputFormat == "json" {
		return tablesJSON(cmd.OutOrStdout(), tables)
	}
	return tablesTable(cmd.OutOrStdout(), tables)
}

type tableRow struct {
	ID          string   `json:"id"`
	Group       string   `json:"group"`
	Name        string   `json:"name"`
	Columns     int      `json:"columns"`
	DependsOn   []string `json:"depends_on"`
	Description string   `json:"description,omitempty"`
}

func tableRows(tables []*graph.Table) []tableRow {
	rows := make([]tableRow, 0, len(tables))
	for _, t := range tables {
		deps := []string{}
		for _, d := range t.Dependencies() {
			deps = append(deps, d.ID())
		}
		rows = append(rows, tableRow{
			ID:          t.ID(),
			Group:       t.Group,
			Name:        t.Name,
			Columns:     len(t.VisibleColumns()),
			DependsOn:   deps,
			Description: t.Description,
		})
	}
	return rows
}

func tablesJSON(w io.Writer, tables []*graph.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tableRows(tables))
}

func tablesTable(w io.Writer, tables []*graph.Table) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Group", "Columns", "Depends On"})
	for _, row := range tableRows(tables) {
		t.AppendRow(table.Row{row.ID, row.Group, row.Columns, strings.Join(row.DependsOn, ", ")})
	}
	t.Render()
	return nil
}
