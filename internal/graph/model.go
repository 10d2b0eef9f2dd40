// Package graph builds and queries the column-level data-lineage graph.
// Columns are the nodes of record; the table graph is a derived view that
// keeps a back-reference to the column graph so lineage queries can recover
// column-level precision on demand.
package graph

import "sort"

// Column is a node in the column graph, identified by its fully-qualified
// "group.table.column" id. Dependency links are kept in both directions and
// always updated as a pair.
type Column struct {
	Group       string
	Table       string
	Name        string
	Description string
	KeyType     string

	// Invisible marks synthetic columns that represent table-wide
	// dependencies. They participate in every graph algorithm but are
	// filtered from user-facing output.
	Invisible bool

	deps       map[string]*Column // direct upstream columns, keyed by id
	dependents map[string]*Column // direct downstream columns, keyed by id
}

func newColumn(group, table, name string) *Column {
	return &Column{
		Group:      group,
		Table:      table,
		Name:       name,
		deps:       make(map[string]*Column),
		dependents: make(map[string]*Column),
	}
}

// ID returns the fully-qualified column id "group.table.column".
func (c *Column) ID() string {
	return c.Group + "." + c.Table + "." + c.Name
}

// TableID returns the id of the owning table.
func (c *Column) TableID() string {
	return c.Group + "." + c.Table
}

// IsSource reports whether the column has no upstream dependencies.
func (c *Column) IsSource() bool {
	return len(c.deps) == 0
}

// Dependencies returns the direct upstream columns, sorted by id.
func (c *Column) Dependencies() []*Column {
	return sortedColumns(c.deps)
}

// Dependents returns the direct downstream columns, sorted by id.
func (c *Column) Dependents() []*Column {
	return sortedColumns(c.dependents)
}

// linkColumns records that src feeds dst, updating both adjacency sets.
func linkColumns(src, dst *Column) {
	src.dependents[dst.ID()] = dst
	dst.deps[src.ID()] = src
}

// Table is a node in the derived table graph. Its dependency sets are never
// declared directly; they are computed from column-level edges.
type Table struct {
	Group       string
	Name        string
	Description string

	// Columns in declaration order. Order is meaningful for display.
	Columns []*Column

	deps       map[string]*Table
	dependents map[string]*Table
}

func newTable(group, name string) *Table {
	return &Table{
		Group:      group,
		Name:       name,
		deps:       make(map[string]*Table),
		dependents: make(map[string]*Table),
	}
}

// ID returns the fully-qualified table id "group.table".
func (t *Table) ID() string {
	return t.Group + "." + t.Name
}

// Dependencies returns the direct upstream tables, sorted by id.
func (t *Table) Dependencies() []*Table {
	return sortedTables(t.deps)
}

// Dependents returns the direct downstream tables, sorted by id.
func (t *Table) Dependents() []*Table {
	return sortedTables(t.dependents)
}

// VisibleColumns returns the table's columns in declaration order with
// synthetic invisible columns filtered out.
func (t *Table) VisibleColumns() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Invisible {
			cols = append(cols, c)
		}
	}
	return cols
}

// Column returns the named column of this table.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (t *Table) addColumn(c *Column) {
	t.Columns = append(t.Columns, c)
}

// linkTables records that src feeds dst at the table level.
func linkTables(src, dst *Table) {
	src.dependents[dst.ID()] = dst
	dst.deps[src.ID()] = src
}

// Group holds the tables of one layer (e.g. "src", "stg", "mart"). Purely
// organizational: it affects display grouping, never graph algorithms.
type Group struct {
	Name   string
	Tables []*Table
}

func (g *Group) addTable(t *Table) {
	for _, existing := range g.Tables {
		if existing == t {
			return
		}
	}
	g.Tables = append(g.Tables, t)
}

// Graph is the aggregate of the column graph and its derived table graph.
// It is immutable after Build returns; rebuild wholesale and swap the
// reference instead of mutating in place.
type Graph struct {
	columns map[string]*Column
	tables  map[string]*Table
	groups  map[string]*Group
}

// Column returns the column with the given fully-qualified id.
func (g *Graph) Column(id string) (*Column, bool) {
	c, ok := g.columns[id]
	return c, ok
}

// Table returns the table with the given fully-qualified id.
func (g *Graph) Table(id string) (*Table, bool) {
	t, ok := g.tables[id]
	return t, ok
}

// HasTable reports whether a table id exists in the table graph.
func (g *Graph) HasTable(id string) bool {
	_, ok := g.tables[id]
	return ok
}

// Tables returns all tables sorted by id.
func (g *Graph) Tables() []*Table {
	tables := make([]*Table, 0, len(g.tables))
	for _, t := range g.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID() < tables[j].ID() })
	return tables
}

// Groups returns all groups sorted by name.
func (g *Graph) Groups() []*Group {
	groups := make([]*Group, 0, len(g.groups))
	for _, grp := range g.groups {
		groups = append(groups, grp)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// TableCount returns the number of tables in the table graph.
func (g *Graph) TableCount() int { return len(g.tables) }

// ColumnCount returns the number of columns in the column graph.
func (g *Graph) ColumnCount() int { return len(g.columns) }

// GroupCount returns the number of groups.
func (g *Graph) GroupCount() int { return len(g.groups) }

// TableEdgeCount returns the number of table-level dependency edges.
func (g *Graph) TableEdgeCount() int {
	count := 0
	for _, t := range g.tables {
		count += len(t.deps)
	}
	return count
}

func sortedColumns(m map[string]*Column) []*Column {
	cols := make([]*Column, 0, len(m))
	for _, c := range m {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].ID() < cols[j].ID() })
	return cols
}

func sortedTables(m map[string]*Table) []*Table {
	tables := make([]*Table, 0, len(m))
	for _, t := range m {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID() < tables[j].ID() })
	return tables
}
