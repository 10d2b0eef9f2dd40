package export

import "github.com/lineagekit/lineagekit/internal/graph"

// ColumnDetailJSON is one column of a table details payload with its direct
// upstream dependencies.
type ColumnDetailJSON struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	KeyType      string   `json:"key_type"`
	Dependencies []string `json:"dependencies"`
}

// TableDetailsJSON is the per-table breakdown: each visible column with its
// direct dependencies, plus the deepest source tables the table draws from.
type TableDetailsJSON struct {
	Table        string             `json:"table"`
	Description  string             `json:"description"`
	Columns      []ColumnDetailJSON `json:"columns"`
	SourceTables []string           `json:"source_tables"`
}

// TableDetails exports the column-level breakdown for a single table.
func TableDetails(g *graph.Graph, tableID string) (*TableDetailsJSON, error) {
	t, ok := g.Table(tableID)
	if !ok {
		return nil, &graph.NotFoundError{Kind: "table", ID: tableID}
	}

	out := &TableDetailsJSON{
		Table:        t.ID(),
		Description:  t.Description,
		Columns:      []ColumnDetailJSON{},
		SourceTables: t.SourceTables(),
	}

	for _, col := range t.VisibleColumns() {
		deps := []string{}
		for _, dep := range col.Dependencies() {
			if !dep.Invisible {
				deps = append(deps, dep.ID())
			}
		}
		out.Columns = append(out.Columns, ColumnDetailJSON{
			Name:         col.Name,
			Description:  col.Description,
			KeyType:      col.KeyType,
			Dependencies: deps,
		})
	}

	return out, nil
}
