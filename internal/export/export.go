// Package export converts lineage graphs into the stable JSON structures
// served to the visualization frontend. All output is deterministic: groups,
// tables, dependency lists, and connections are sorted lexicographically, so
// exporting the same graph twice yields byte-identical JSON.
package export

import (
	"sort"

	"github.com/lineagekit/lineagekit/internal/graph"
)

// TableJSON is one table entry of the grouped export. Dependencies are the
// table's direct upstream sources, not the transitive closure.
type TableJSON struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
}

// GroupJSON is one group entry of the grouped export.
type GroupJSON struct {
	Group  string      `json:"group"`
	Tables []TableJSON `json:"tables"`
}

// Graph exports the whole table graph grouped by group name.
func Graph(g *graph.Graph) []GroupJSON {
	return groupTables(g.Tables(), nil)
}

// Lineage exports the lineage subgraph of the seed table: its ancestors,
// itself, and its descendants, with dependency lists restricted to tables
// inside the subgraph (the induced edges).
func Lineage(g *graph.Graph, seed string) ([]GroupJSON, error) {
	tables, err := g.Lineage(seed)
	if err != nil {
		return nil, err
	}

	included := make(map[string]bool, len(tables))
	for _, t := range tables {
		included[t.ID()] = true
	}
	return groupTables(tables, included), nil
}

// groupTables builds the grouped export from a table list. When included is
// non-nil, dependency lists are filtered to ids in the set.
func groupTables(tables []*graph.Table, included map[string]bool) []GroupJSON {
	grouped := make(map[string][]TableJSON)
	for _, t := range tables {
		deps := []string{}
		for _, dep := range t.Dependencies() {
			if included == nil || included[dep.ID()] {
				deps = append(deps, dep.ID())
			}
		}
		sort.Strings(deps)
		grouped[t.Group] = append(grouped[t.Group], TableJSON{Name: t.Name, Dependencies: deps})
	}

	out := make([]GroupJSON, 0, len(grouped))
	for name, entries := range grouped {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		out = append(out, GroupJSON{Group: name, Tables: entries})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}
