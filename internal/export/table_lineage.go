package export

import (
	"sort"

	"github.com/lineagekit/lineagekit/internal/graph"
)

// EdgeJSON is a directed table-level connection.
type EdgeJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LineageGroupJSON lists the table names of one group inside a lineage view.
type LineageGroupJSON struct {
	Group  string   `json:"group"`
	Tables []string `json:"tables"`
}

// ColumnMetaJSON carries the metadata of a referenced column.
type ColumnMetaJSON struct {
	FullPath    string `json:"full_path"`
	Description string `json:"description"`
	KeyType     string `json:"key_type"`
}

// ColumnLineageJSON describes the lineage of one visible column of the target
// table. For source columns only the flag is set. For derived columns whose
// immediate predecessors coincide with their ultimate sources, only the
// source_columns field is emitted to avoid redundant output.
type ColumnLineageJSON struct {
	FullPath              string           `json:"full_path"`
	Description           string           `json:"description"`
	KeyType               string           `json:"key_type"`
	IsSourceColumn        bool             `json:"is_source_column"`
	ImmediateDependencies []ColumnMetaJSON `json:"immediate_dependencies,omitempty"`
	SourceColumns         []ColumnMetaJSON `json:"source_columns,omitempty"`
}

// TableLineageJSON is the rich per-table lineage payload: the lineage
// subgraph around the target plus column-level detail for the target itself.
type TableLineageJSON struct {
	TargetTable      string              `json:"target_table"`
	TableDescription string              `json:"table_description"`
	Groups           []LineageGroupJSON  `json:"groups"`
	Connections      []EdgeJSON          `json:"connections"`
	Columns          []ColumnLineageJSON `json:"columns_lineage"`
}

// TableLineage exports the complete lineage view for a single table.
// Column order follows declaration order; invisible columns contribute to the
// subgraph but never appear in the output.
func TableLineage(g *graph.Graph, tableID string) (*TableLineageJSON, error) {
	target, ok := g.Table(tableID)
	if !ok {
		return nil, &graph.NotFoundError{Kind: "table", ID: tableID}
	}

	tables, err := g.Lineage(tableID)
	if err != nil {
		return nil, err
	}
	included := make(map[string]bool, len(tables))
	for _, t := range tables {
		included[t.ID()] = true
	}

	out := &TableLineageJSON{
		TargetTable:      target.ID(),
		TableDescription: target.Description,
		Groups:           lineageGroups(tables),
		Connections:      inducedConnections(tables, included),
		Columns:          columnLineages(target),
	}
	return out, nil
}

func lineageGroups(tables []*graph.Table) []LineageGroupJSON {
	grouped := make(map[string][]string)
	for _, t := range tables {
		grouped[t.Group] = append(grouped[t.Group], t.Name)
	}

	out := make([]LineageGroupJSON, 0, len(grouped))
	for name, names := range grouped {
		sort.Strings(names)
		out = append(out, LineageGroupJSON{Group: name, Tables: names})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// inducedConnections lists the table edges with both endpoints in the set.
func inducedConnections(tables []*graph.Table, included map[string]bool) []EdgeJSON {
	edges := []EdgeJSON{}
	for _, t := range tables {
		for _, dep := range t.Dependencies() {
			if included[dep.ID()] {
				edges = append(edges, EdgeJSON{From: dep.ID(), To: t.ID()})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func columnLineages(target *graph.Table) []ColumnLineageJSON {
	out := []ColumnLineageJSON{}
	for _, col := range target.VisibleColumns() {
		entry := ColumnLineageJSON{
			FullPath:       col.ID(),
			Description:    col.Description,
			KeyType:        col.KeyType,
			IsSourceColumn: col.IsSource(),
		}

		if !col.IsSource() {
			immediate := columnMetas(col.Dependencies())
			sources := columnMetas(col.SourceColumns())
			if sameColumnSet(immediate, sources) {
				entry.SourceColumns = sources
			} else {
				entry.ImmediateDependencies = immediate
				entry.SourceColumns = sources
			}
		}

		out = append(out, entry)
	}
	return out
}

// columnMetas converts columns to metadata entries, filtering invisible
// columns. Input is already sorted by id.
func columnMetas(cols []*graph.Column) []ColumnMetaJSON {
	out := make([]ColumnMetaJSON, 0, len(cols))
	for _, c := range cols {
		if c.Invisible {
			continue
		}
		out = append(out, ColumnMetaJSON{
			FullPath:    c.ID(),
			Description: c.Description,
			KeyType:     c.KeyType,
		})
	}
	return out
}

func sameColumnSet(a, b []ColumnMetaJSON) bool {
	if len(a) != len(b) {
		return false
	}
	paths := make(map[string]bool, len(a))
	for _, m := range a {
		paths[m.FullPath] = true
	}
	for _, m := range b {
		if !paths[m.FullPath] {
			return false
		}
	}
	return true
}
