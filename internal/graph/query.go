package graph

import (
	"fmt"
	"sort"
)

// NotFoundError reports a lineage query for an id that is not present in the
// graph. The HTTP layer maps it to a 404.
type NotFoundError struct {
	Kind string // "table" or "column"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Ancestors returns all tables upstream of the given table, computed by
// reachability over the table graph. Sorted by id.
func (g *Graph) Ancestors(tableID string) ([]string, error) {
	start, ok := g.tables[tableID]
	if !ok {
		return nil, &NotFoundError{Kind: "table", ID: tableID}
	}

	visited := make(map[string]bool)
	var walk func(t *Table)
	walk = func(t *Table) {
		for id, parent := range t.deps {
			if !visited[id] {
				visited[id] = true
				walk(parent)
			}
		}
	}
	walk(start)

	return sortedKeys(visited), nil
}

// Descendants returns all tables downstream of the given table, computed by
// reachability over the table graph. Sorted by id.
func (g *Graph) Descendants(tableID string) ([]string, error) {
	start, ok := g.tables[tableID]
	if !ok {
		return nil, &NotFoundError{Kind: "table", ID: tableID}
	}

	visited := make(map[string]bool)
	var walk func(t *Table)
	walk = func(t *Table) {
		for id, child := range t.dependents {
			if !visited[id] {
				visited[id] = true
				walk(child)
			}
		}
	}
	walk(start)

	return sortedKeys(visited), nil
}

// ColumnAncestors returns the tables upstream of the given table computed
// through column-level edges: a table appears only when one of its columns
// actually feeds a column of the target, which keeps sibling source tables
// that merely share a downstream consumer out of each other's lineage. The
// target itself is excluded. Sorted by id.
func (g *Graph) ColumnAncestors(tableID string) ([]string, error) {
	target, ok := g.tables[tableID]
	if !ok {
		return nil, &NotFoundError{Kind: "table", ID: tableID}
	}

	// Shared visited set across the target's columns. The visited guard
	// makes this terminate on cycles.
	tables := make(map[string]bool)
	visited := make(map[string]bool)
	var walkUp func(c *Column)
	walkUp = func(c *Column) {
		for id, dep := range c.deps {
			if visited[id] {
				continue
			}
			visited[id] = true
			tables[dep.TableID()] = true
			walkUp(dep)
		}
	}
	for _, col := range target.Columns {
		walkUp(col)
	}

	delete(tables, tableID)
	return sortedKeys(tables), nil
}

// Lineage returns the tables of the induced lineage subgraph for the target:
// its ancestors, the target itself, and its descendants. Sorted by id.
//
// Ancestors come from the column-precise closure; descendants use table-level
// closure, which is cheaper and not subject to cross-contamination.
func (g *Graph) Lineage(tableID string) ([]*Table, error) {
	ancestors, err := g.ColumnAncestors(tableID)
	if err != nil {
		return nil, err
	}

	nodes := map[string]bool{tableID: true}
	for _, id := range ancestors {
		nodes[id] = true
	}

	// Table-level descendant closure preserves downstream visibility.
	descendants, _ := g.Descendants(tableID)
	for _, id := range descendants {
		nodes[id] = true
	}

	// Keep only ids that exist as table nodes.
	tables := make([]*Table, 0, len(nodes))
	for id := range nodes {
		if t, ok := g.tables[id]; ok {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID() < tables[j].ID() })
	return tables, nil
}

// TransitiveColumnDependencies returns the tables owning the column-level
// ancestors of one specific column. Descendants are not included; this backs
// column-granularity highlighting.
func (g *Graph) TransitiveColumnDependencies(columnID string) ([]string, error) {
	target, ok := g.columns[columnID]
	if !ok {
		return nil, &NotFoundError{Kind: "column", ID: columnID}
	}

	tables := make(map[string]bool)
	visited := make(map[string]bool)
	var walkUp func(c *Column)
	walkUp = func(c *Column) {
		for id, dep := range c.deps {
			if visited[id] {
				continue
			}
			visited[id] = true
			tables[dep.TableID()] = true
			walkUp(dep)
		}
	}
	walkUp(target)

	return sortedKeys(tables), nil
}

// SourceColumns returns the ultimate source columns this column derives from:
// the ancestor columns with no further dependencies. A column with no
// dependencies is its own source. Cycle-safe; sorted by id.
func (c *Column) SourceColumns() []*Column {
	if len(c.deps) == 0 {
		return []*Column{c}
	}

	sources := make(map[string]*Column)
	visited := make(map[string]bool)
	var walk func(col *Column)
	walk = func(col *Column) {
		if visited[col.ID()] {
			return
		}
		visited[col.ID()] = true
		if len(col.deps) == 0 {
			sources[col.ID()] = col
			return
		}
		for _, dep := range col.deps {
			walk(dep)
		}
	}
	walk(c)

	return sortedColumns(sources)
}

// SourceTables returns the tables owning the ultimate source columns of all
// of this table's columns, excluding the table itself. Sorted by id.
func (t *Table) SourceTables() []string {
	tables := make(map[string]bool)
	for _, col := range t.Columns {
		for _, src := range col.SourceColumns() {
			if src.TableID() != t.ID() {
				tables[src.TableID()] = true
			}
		}
	}
	return sortedKeys(tables)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
