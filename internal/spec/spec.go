// Package spec defines the declarative table specifications consumed by the
// graph builder: tables grouped into layers, columns with their upstream
// dependency references, and table-wide dependency declarations.
package spec

import (
	"fmt"
	"strings"
)

// ColumnSpec describes a single column of a table specification.
type ColumnSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	KeyType     string   `yaml:"key_type"`
	DependsOn   []string `yaml:"depends_on"` // fully-qualified group.table.column refs
}

// TableSpec describes one table: its group, columns, and any table-wide
// dependencies declared without naming individual source columns.
type TableSpec struct {
	Group          string       `yaml:"group"`
	Table          string       `yaml:"table"`
	Description    string       `yaml:"description"`
	TableDependsOn []string     `yaml:"table_depends_on"` // fully-qualified group.table refs
	Columns        []ColumnSpec `yaml:"columns"`
}

// ID returns the fully-qualified table id in "group.table" form.
func (s *TableSpec) ID() string {
	return s.Group + "." + s.Table
}

// ColumnRef is a parsed fully-qualified column reference.
type ColumnRef struct {
	Group  string
	Table  string
	Column string
}

// TableID returns the "group.table" portion of the reference.
func (r ColumnRef) TableID() string {
	return r.Group + "." + r.Table
}

// String returns the reference in "group.table.column" form.
func (r ColumnRef) String() string {
	return r.Group + "." + r.Table + "." + r.Column
}

// TableRef is a parsed fully-qualified table reference.
type TableRef struct {
	Group string
	Table string
}

// String returns the reference in "group.table" form.
func (r TableRef) String() string {
	return r.Group + "." + r.Table
}

// ParseColumnRef parses a "group.table.column" reference. The reference must
// split into exactly three non-empty dot-separated segments.
func ParseColumnRef(ref string) (ColumnRef, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ColumnRef{}, &RefError{Ref: ref, Want: "group.table.column"}
	}
	return ColumnRef{Group: parts[0], Table: parts[1], Column: parts[2]}, nil
}

// ParseTableRef parses a "group.table" reference. The reference must split
// into exactly two non-empty dot-separated segments.
func ParseTableRef(ref string) (TableRef, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TableRef{}, &RefError{Ref: ref, Want: "group.table"}
	}
	return TableRef{Group: parts[0], Table: parts[1]}, nil
}

// Validate checks a table specification for the structural requirements the
// graph builder relies on. It is called at load time so malformed references
// never reach graph construction.
func (s *TableSpec) Validate() error {
	if s.Group == "" {
		return &SpecError{Table: s.Table, Message: "missing required field \"group\""}
	}
	if s.Table == "" {
		return &SpecError{Table: s.Group, Message: "missing required field \"table\""}
	}
	for _, ref := range s.TableDependsOn {
		if _, err := ParseTableRef(ref); err != nil {
			return &SpecError{Table: s.ID(), Message: fmt.Sprintf("invalid table_depends_on entry: %v", err)}
		}
	}
	for _, col := range s.Columns {
		if col.Name == "" {
			return &SpecError{Table: s.ID(), Message: "column missing required field \"name\""}
		}
		for _, ref := range col.DependsOn {
			if _, err := ParseColumnRef(ref); err != nil {
				return &SpecError{Table: s.ID(), Message: fmt.Sprintf("column %q: invalid depends_on entry: %v", col.Name, err)}
			}
		}
	}
	return nil
}

// RefError represents a malformed dependency reference.
type RefError struct {
	Ref  string
	Want string
}

func (e *RefError) Error() string {
	return fmt.Sprintf("malformed reference %q, want %s", e.Ref, e.Want)
}

// SpecError represents an invalid table specification.
type SpecError struct {
	Table   string
	Message string
}

func (e *SpecError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("table %s: %s", e.Table, e.Message)
	}
	return e.Message
}
