package graph

import (
	"errors"
	"testing"

	"github.com/lineagekit/lineagekit/internal/spec"
)

// pipelineSpecs models a small three-layer pipeline: two raw source tables,
// a staging table that joins them, and two analytics tables that each draw
// on a different slice of the staging table.
func pipelineSpecs() []spec.TableSpec {
	return []spec.TableSpec{
		{
			Group: "src", Table: "customers",
			Columns: []spec.ColumnSpec{
				{Name: "id", KeyType: "primary"},
				{Name: "name"},
			},
		},
		{
			Group: "src", Table: "orders",
			Columns: []spec.ColumnSpec{
				{Name: "id", KeyType: "primary"},
				{Name: "customer_id", KeyType: "foreign"},
				{Name: "total"},
			},
		},
		{
			Group: "stg", Table: "enriched",
			Columns: []spec.ColumnSpec{
				{Name: "customer_name", DependsOn: []string{"src.customers.name"}},
				{Name: "order_total", DependsOn: []string{"src.orders.total"}},
			},
		},
		{
			Group: "analytics", Table: "by_customer",
			Columns: []spec.ColumnSpec{
				{Name: "name", DependsOn: []string{"stg.enriched.customer_name"}},
			},
		},
		{
			Group: "analytics", Table: "revenue",
			Columns: []spec.ColumnSpec{
				{Name: "total", DependsOn: []string{"stg.enriched.order_total"}},
			},
		},
	}
}

func mustBuild(t *testing.T, specs []spec.TableSpec) *Graph {
	t.Helper()
	g, err := Build(specs)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return g
}

func TestBuild_Counts(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	if g.GroupCount() != 3 {
		t.Errorf("expected 3 groups, got %d", g.GroupCount())
	}
	if g.TableCount() != 5 {
		t.Errorf("expected 5 tables, got %d", g.TableCount())
	}
	if g.ColumnCount() != 9 {
		t.Errorf("expected 9 columns, got %d", g.ColumnCount())
	}
	// src.customers->stg.enriched, src.orders->stg.enriched,
	// stg.enriched->analytics.by_customer, stg.enriched->analytics.revenue
	if g.TableEdgeCount() != 4 {
		t.Errorf("expected 4 table edges, got %d", g.TableEdgeCount())
	}
}

func TestBuild_DeclarationOrderIndependent(t *testing.T) {
	specs := pipelineSpecs()
	// Reverse load order: downstream tables first.
	for i, j := 0, len(specs)-1; i < j; i, j = i+1, j-1 {
		specs[i], specs[j] = specs[j], specs[i]
	}
	g := mustBuild(t, specs)

	if g.TableEdgeCount() != 4 {
		t.Errorf("expected 4 table edges, got %d", g.TableEdgeCount())
	}
	col, ok := g.Column("stg.enriched.customer_name")
	if !ok {
		t.Fatal("missing column stg.enriched.customer_name")
	}
	if len(col.Dependencies()) != 1 {
		t.Errorf("expected 1 dependency, got %d", len(col.Dependencies()))
	}
}

func TestBuild_UndeclaredRefCreatesStub(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "stg", Table: "derived",
			Columns: []spec.ColumnSpec{
				{Name: "x", DependsOn: []string{"ghost.missing.col"}},
			},
		},
	})

	stub, ok := g.Column("ghost.missing.col")
	if !ok {
		t.Fatal("expected stub column for undeclared reference")
	}
	if stub.Description != "" || stub.KeyType != "" {
		t.Error("stub column should carry no metadata")
	}
	if !g.HasTable("ghost.missing") {
		t.Error("expected stub table for undeclared reference")
	}

	ancestors, err := g.Ancestors("stg.derived")
	if err != nil {
		t.Fatalf("ancestors failed: %v", err)
	}
	if len(ancestors) != 1 || ancestors[0] != "ghost.missing" {
		t.Errorf("expected [ghost.missing], got %v", ancestors)
	}
}

func TestBuild_SameTableDependencyIsNotATableEdge(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "a", Table: "t",
			Columns: []spec.ColumnSpec{
				{Name: "base"},
				{Name: "derived", DependsOn: []string{"a.t.base"}},
			},
		},
	})

	if g.TableEdgeCount() != 0 {
		t.Errorf("intra-table dependency must not create a table edge, got %d", g.TableEdgeCount())
	}
	col, _ := g.Column("a.t.derived")
	if len(col.Dependencies()) != 1 {
		t.Errorf("column edge inside a table must survive, got %d deps", len(col.Dependencies()))
	}
}

func TestBuild_TableEdgesDeduplicate(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "src", Table: "raw",
			Columns: []spec.ColumnSpec{{Name: "a"}, {Name: "b"}},
		},
		{
			Group: "stg", Table: "wide",
			Columns: []spec.ColumnSpec{
				{Name: "x", DependsOn: []string{"src.raw.a"}},
				{Name: "y", DependsOn: []string{"src.raw.b"}},
				{Name: "z", DependsOn: []string{"src.raw.a", "src.raw.b"}},
			},
		},
	})

	if g.TableEdgeCount() != 1 {
		t.Errorf("expected a single deduplicated table edge, got %d", g.TableEdgeCount())
	}
}

func TestBuild_TableDependsOnInvisibleColumn(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "src", Table: "raw",
			Columns: []spec.ColumnSpec{{Name: "a"}, {Name: "b"}},
		},
		{
			Group: "stg", Table: "snapshot",
			TableDependsOn: []string{"src.raw"},
			Columns:        []spec.ColumnSpec{{Name: "taken_at"}},
		},
	})

	inv, ok := g.Column("stg.snapshot.__table_dep_src_raw")
	if !ok {
		t.Fatal("expected synthetic invisible column")
	}
	if !inv.Invisible {
		t.Error("synthetic column must be marked invisible")
	}
	// Every column of the referenced table feeds the invisible column.
	if len(inv.Dependencies()) != 2 {
		t.Errorf("expected 2 dependencies, got %d", len(inv.Dependencies()))
	}

	snapshot, _ := g.Table("stg.snapshot")
	if len(snapshot.VisibleColumns()) != 1 {
		t.Errorf("invisible column must not count as visible, got %d", len(snapshot.VisibleColumns()))
	}
	if len(snapshot.Columns) != 2 {
		t.Errorf("invisible column must exist on the table, got %d", len(snapshot.Columns))
	}

	// The invisible column still produces the table edge.
	ancestors, err := g.Ancestors("stg.snapshot")
	if err != nil {
		t.Fatalf("ancestors failed: %v", err)
	}
	if len(ancestors) != 1 || ancestors[0] != "src.raw" {
		t.Errorf("expected [src.raw], got %v", ancestors)
	}
}

func TestBuild_TableDependsOnUndeclaredTable(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "stg", Table: "snapshot",
			TableDependsOn: []string{"ghost.raw"},
			Columns:        []spec.ColumnSpec{{Name: "taken_at"}},
		},
	})

	// Warn and skip: no edge, no stub table.
	if g.HasTable("ghost.raw") {
		t.Error("undeclared table-level dependency must not create a stub table")
	}
	ancestors, _ := g.Ancestors("stg.snapshot")
	if len(ancestors) != 0 {
		t.Errorf("expected no ancestors, got %v", ancestors)
	}
}

func TestBuild_RebuildIsIdempotent(t *testing.T) {
	specs := []spec.TableSpec{
		{
			Group: "src", Table: "raw",
			Columns: []spec.ColumnSpec{{Name: "a"}},
		},
		{
			Group: "stg", Table: "snapshot",
			TableDependsOn: []string{"src.raw"},
			Columns:        []spec.ColumnSpec{{Name: "taken_at"}},
		},
	}

	g1 := mustBuild(t, specs)
	g2 := mustBuild(t, specs)

	if g1.ColumnCount() != g2.ColumnCount() {
		t.Errorf("column counts differ across rebuilds: %d vs %d", g1.ColumnCount(), g2.ColumnCount())
	}
	if g1.TableEdgeCount() != g2.TableEdgeCount() {
		t.Errorf("edge counts differ across rebuilds: %d vs %d", g1.TableEdgeCount(), g2.TableEdgeCount())
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	ancestors, err := g.Ancestors("analytics.revenue")
	if err != nil {
		t.Fatalf("ancestors failed: %v", err)
	}
	// Table-level closure pulls in everything upstream of stg.enriched.
	want := []string{"src.customers", "src.orders", "stg.enriched"}
	if !equalStrings(ancestors, want) {
		t.Errorf("expected %v, got %v", want, ancestors)
	}

	descendants, err := g.Descendants("src.customers")
	if err != nil {
		t.Fatalf("descendants failed: %v", err)
	}
	want = []string{"analytics.by_customer", "analytics.revenue", "stg.enriched"}
	if !equalStrings(descendants, want) {
		t.Errorf("expected %v, got %v", want, descendants)
	}
}

func TestColumnAncestors(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	// src.customers feeds a sibling column of stg.enriched but nothing that
	// reaches analytics.revenue, so it must not appear. Contrast with the
	// table-level Ancestors closure, which pulls it in.
	got, err := g.ColumnAncestors("analytics.revenue")
	if err != nil {
		t.Fatalf("column ancestors failed: %v", err)
	}
	want := []string{"src.orders", "stg.enriched"}
	if !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := g.ColumnAncestors("ghost.table"); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestColumnAncestors_ExcludesTarget(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "a", Table: "t",
			Columns: []spec.ColumnSpec{
				{Name: "base"},
				{Name: "derived", DependsOn: []string{"a.t.base"}},
			},
		},
	})

	got, err := g.ColumnAncestors("a.t")
	if err != nil {
		t.Fatalf("column ancestors failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("intra-table dependencies must not report the table as its own ancestor, got %v", got)
	}
}

func TestLineage_ColumnPrecise(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	// analytics.revenue only consumes stg.enriched.order_total, which derives
	// from src.orders. src.customers feeds a sibling column of stg.enriched
	// and must stay out of this lineage.
	tables, err := g.Lineage("analytics.revenue")
	if err != nil {
		t.Fatalf("lineage failed: %v", err)
	}

	ids := make([]string, len(tables))
	for i, tbl := range tables {
		ids[i] = tbl.ID()
	}
	want := []string{"analytics.revenue", "src.orders", "stg.enriched"}
	if !equalStrings(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestLineage_IncludesDescendants(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	tables, err := g.Lineage("src.customers")
	if err != nil {
		t.Fatalf("lineage failed: %v", err)
	}

	ids := make([]string, len(tables))
	for i, tbl := range tables {
		ids[i] = tbl.ID()
	}
	want := []string{"analytics.by_customer", "analytics.revenue", "src.customers", "stg.enriched"}
	if !equalStrings(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestLineage_CycleSafe(t *testing.T) {
	g := mustBuild(t, []spec.TableSpec{
		{
			Group: "a", Table: "t1",
			Columns: []spec.ColumnSpec{{Name: "x", DependsOn: []string{"a.t2.y"}}},
		},
		{
			Group: "a", Table: "t2",
			Columns: []spec.ColumnSpec{{Name: "y", DependsOn: []string{"a.t1.x"}}},
		},
	})

	for _, id := range []string{"a.t1", "a.t2"} {
		if _, err := g.Ancestors(id); err != nil {
			t.Errorf("ancestors of %s failed: %v", id, err)
		}
		if _, err := g.Descendants(id); err != nil {
			t.Errorf("descendants of %s failed: %v", id, err)
		}
		tables, err := g.Lineage(id)
		if err != nil {
			t.Errorf("lineage of %s failed: %v", id, err)
		}
		if len(tables) != 2 {
			t.Errorf("expected both tables in cyclic lineage of %s, got %d", id, len(tables))
		}
	}
}

func TestQueries_NotFound(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	if _, err := g.Ancestors("ghost.table"); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if _, err := g.Descendants("ghost.table"); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if _, err := g.Lineage("ghost.table"); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if _, err := g.TransitiveColumnDependencies("ghost.table.col"); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestSourceColumns(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	// A column with no dependencies is its own source.
	id, _ := g.Column("src.customers.id")
	sources := id.SourceColumns()
	if len(sources) != 1 || sources[0].ID() != "src.customers.id" {
		t.Errorf("source column should be its own source, got %v", columnIDs(sources))
	}

	// A derived column resolves through intermediate columns.
	name, _ := g.Column("analytics.by_customer.name")
	sources = name.SourceColumns()
	if len(sources) != 1 || sources[0].ID() != "src.customers.name" {
		t.Errorf("expected [src.customers.name], got %v", columnIDs(sources))
	}
}

func TestSourceTables(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	enriched, _ := g.Table("stg.enriched")
	want := []string{"src.customers", "src.orders"}
	if got := enriched.SourceTables(); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Source tables of a source table exclude itself.
	customers, _ := g.Table("src.customers")
	if got := customers.SourceTables(); len(got) != 0 {
		t.Errorf("expected no source tables, got %v", got)
	}
}

func TestTransitiveColumnDependencies(t *testing.T) {
	g := mustBuild(t, pipelineSpecs())

	tables, err := g.TransitiveColumnDependencies("analytics.revenue.total")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"src.orders", "stg.enriched"}
	if !equalStrings(tables, want) {
		t.Errorf("expected %v, got %v", want, tables)
	}
}

func isNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func columnIDs(cols []*Column) []string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID()
	}
	return ids
}
