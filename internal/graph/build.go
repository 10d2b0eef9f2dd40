package graph

import (
	"log/slog"
	"strings"

	"github.com/lineagekit/lineagekit/internal/spec"
)

// invisibleColumnPrefix names synthetic columns deterministically from the
// referenced table, so rebuilding from identical specs is idempotent.
const invisibleColumnPrefix = "__table_dep_"

// BuildOptions configures graph construction.
type BuildOptions struct {
	// Logger receives consistency warnings (dependencies on columns that were
	// never declared). Defaults to slog.Default.
	Logger *slog.Logger
}

// Build constructs the column graph and its derived table graph from an
// ordered sequence of table specifications.
func Build(specs []spec.TableSpec) (*Graph, error) {
	return BuildWithOptions(specs, BuildOptions{})
}

// BuildWithOptions constructs the graph with full configuration options.
//
// Construction runs in phases: first all declared nodes are created (columns
// may depend on columns declared later in load order), then dependency edges
// are linked, then table-level edges are derived from column edges. Cyclic
// dependencies are structurally permitted; traversal is cycle-safe downstream.
func BuildWithOptions(specs []spec.TableSpec, opts BuildOptions) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Graph{
		columns: make(map[string]*Column),
		tables:  make(map[string]*Table),
		groups:  make(map[string]*Group),
	}
	b := &builder{g: g, logger: logger}

	// Phase 1: create groups, tables, and columns. Validation rejects
	// malformed references here so they never become graph errors.
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, err
		}
		b.constructTable(&specs[i])
	}

	// Phase 2: link declared column dependencies, synthesizing stub nodes
	// for references that were never independently declared.
	for i := range specs {
		b.linkColumnDeps(&specs[i])
	}
	b.linkInvisibleDeps()

	// Phase 3: collapse column edges into table edges.
	b.deriveTableEdges()

	return g, nil
}

type builder struct {
	g      *Graph
	logger *slog.Logger

	// pending invisible-column links, resolved after all tables exist
	pendingTableDeps []tableDep
}

type tableDep struct {
	col *Column // the synthetic invisible column
	ref string  // referenced table id "group.table"
}

func (b *builder) ensureGroup(name string) *Group {
	grp, ok := b.g.groups[name]
	if !ok {
		grp = &Group{Name: name}
		b.g.groups[name] = grp
	}
	return grp
}

func (b *builder) ensureTable(group, name string) *Table {
	id := group + "." + name
	t, ok := b.g.tables[id]
	if !ok {
		t = newTable(group, name)
		b.g.tables[id] = t
		b.ensureGroup(group).addTable(t)
	}
	return t
}

func (b *builder) constructTable(s *spec.TableSpec) {
	t := b.ensureTable(s.Group, s.Table)
	if s.Description != "" {
		t.Description = s.Description
	}

	// Table-wide dependencies become one invisible column per referenced
	// table, folded into the same column-level machinery as explicit deps.
	for _, ref := range s.TableDependsOn {
		name := invisibleColumnPrefix + strings.ReplaceAll(ref, ".", "_")
		id := t.ID() + "." + name
		if _, exists := b.g.columns[id]; exists {
			continue
		}
		col := newColumn(s.Group, s.Table, name)
		col.Invisible = true
		col.Description = "table-level dependency on " + ref
		b.g.columns[id] = col
		t.addColumn(col)
		b.pendingTableDeps = append(b.pendingTableDeps, tableDep{col: col, ref: ref})
	}

	for _, cs := range s.Columns {
		id := t.ID() + "." + cs.Name
		col, exists := b.g.columns[id]
		if !exists {
			col = newColumn(s.Group, s.Table, cs.Name)
			b.g.columns[id] = col
			t.addColumn(col)
		}
		col.Description = cs.Description
		col.KeyType = cs.KeyType
	}
}

// ensureColumn returns the column for a dependency reference, creating a stub
// node (and owning table) if the reference was never independently declared.
// Declaring specs in any order is fine: declared columns already exist by the
// time edges are linked, so stubs only remain for genuinely undeclared refs.
func (b *builder) ensureColumn(ref spec.ColumnRef, dependent string) *Column {
	col, ok := b.g.columns[ref.String()]
	if ok {
		return col
	}
	b.logger.Warn("dependency references undeclared column, creating stub",
		"column", ref.String(), "dependent", dependent)
	col = newColumn(ref.Group, ref.Table, ref.Column)
	b.g.columns[ref.String()] = col
	b.ensureTable(ref.Group, ref.Table).addColumn(col)
	return col
}

func (b *builder) linkColumnDeps(s *spec.TableSpec) {
	for _, cs := range s.Columns {
		target := b.g.columns[s.ID()+"."+cs.Name]
		for _, dep := range cs.DependsOn {
			// Validated in phase 1, cannot fail here.
			ref, _ := spec.ParseColumnRef(dep)
			source := b.ensureColumn(ref, target.ID())
			linkColumns(source, target)
		}
	}
}

// linkInvisibleDeps makes every column of a referenced table feed the
// invisible column representing the table-wide dependency.
func (b *builder) linkInvisibleDeps() {
	for _, dep := range b.pendingTableDeps {
		src, ok := b.g.tables[dep.ref]
		if !ok {
			b.logger.Warn("table-level dependency references undeclared table",
				"table", dep.ref, "dependent", dep.col.TableID())
			continue
		}
		for _, col := range src.Columns {
			linkColumns(col, dep.col)
		}
	}
}

// deriveTableEdges collapses the column graph into the table graph: a table
// edge exists when any column edge crosses the table boundary. Self-loops are
// dropped and repeated column edges between the same table pair deduplicate
// through the adjacency sets.
func (b *builder) deriveTableEdges() {
	for _, col := range b.g.columns {
		target := b.g.tables[col.TableID()]
		for _, dep := range col.deps {
			source := b.g.tables[dep.TableID()]
			if source == target {
				continue
			}
			linkTables(source, target)
		}
	}
}
