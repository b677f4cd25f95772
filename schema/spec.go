// Package schema implements a declarative column/index/FK DSL
// that renders validated, dialect-aware DDL with idempotent alterations.
// The data model (ColumnSpec/TableSpec/IndexSpec/ForeignKeySpec) mirrors
// sqldef's own schema.Table/Column/Index/ForeignKey structs (schema/ast.go),
// narrowed to the closed logical-type set dialect.ColumnType already
// captures and re-targeted at a builder DSL instead of a yacc-parsed DDL
// AST.
package schema

import "github.com/imransaadullah/SimpleMDB-sub000/dialect"

// IndexKind enumerates the index kinds.
type IndexKind int

const (
	IndexPlain IndexKind = iota
	IndexUnique
	IndexFulltext
	IndexPrimary
)

// IndexColumn is one column participating in an index, with an optional
// length prefix (MySQL prefix indexes) and sort direction.
type IndexColumn struct {
	Name      string
	Length    int // 0 means "no prefix"
	Direction string // "ASC" | "DESC" | ""
}

// IndexSpec describes one index from TableSpec.
type IndexSpec struct {
	Name    string
	Kind    IndexKind
	Columns []IndexColumn
}

// ForeignKeySpec describes one foreign key from TableSpec.
type ForeignKeySpec struct {
	Name             string
	Columns          []string
	ReferencedTable  string
	ReferencedColumns []string
	OnUpdate         string // "", "CASCADE", "SET NULL", "RESTRICT", "NO ACTION"
	OnDelete         string
}

// Default is a ColumnSpec's default value: either a literal SQL value or a
// function reference (e.g. CURRENT_TIMESTAMP)
type Default struct {
	IsFunction bool
	Literal    any
	Function   string
}

// ColumnSpec is the closed logical type plus every
// modifier a ColumnBuilder can set.
type ColumnSpec struct {
	Name     string
	Type     dialect.ColumnType
	Nullable bool
	Default  *Default

	AutoIncrement bool
	Comment       string
	Charset       string
	Collation     string

	// Positional hints, ALTER-only invariant.
	First bool
	After string

	Invisible bool
	Unique    bool

	UseCurrent         bool
	UseCurrentOnUpdate bool
}

// TableSpec describes a full table: its columns, indexes, foreign keys,
// and storage options.
type TableSpec struct {
	Name        string
	Columns     []ColumnSpec // insertion order preserved
	Indexes     []IndexSpec
	ForeignKeys []ForeignKeySpec
	PrimaryKey  []string

	Engine    string // MySQL only
	Charset   string
	Collation string

	IfNotExists bool
}

// ColumnByName returns the column named name, if present.
func (t *TableSpec) ColumnByName(name string) (*ColumnSpec, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}
