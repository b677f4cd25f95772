// Package analyzer implements reflecting live schema structure
// from catalog tables (information_schema for MySQL, information_schema
// plus pg_catalog for Postgres) and topologically ordering tables by
// foreign-key dependency. Grounded in sqldef's own schema.Table/
// Column/Index/ForeignKey shapes (schema/ast.go) — reflection output here
// mirrors that structure's fields but is populated by querying the live
// catalog through driver.Conn rather than by parsing CREATE TABLE text,
// since this toolkit's schema analyzer works from a running database, not
// from SQL source.
package analyzer

import "log/slog"

// ColumnDefault represents a column's default expression. Defaults of the
// form CURRENT_TIMESTAMP are tagged IsFunction so the migration generator
// can emit them verbatim instead of as a quoted string literal.
type ColumnDefault struct {
	IsFunction bool
	Literal    string
	Function   string
}

// Column is one reflected column field list.
type Column struct {
	Name          string
	DataType      string // e.g. "varchar", "int"
	BaseType      string // dialect-neutral base, e.g. "varchar" -> "string"
	Length        int
	Precision     int
	Scale         int
	Nullable      bool
	Default       *ColumnDefault
	AutoIncrement bool
	Ordinal       int
	Comment       string
}

// IndexColumn is one column in a reflected index, with optional sub-part
// (MySQL prefix length) and direction.
type IndexColumn struct {
	Name      string
	SubPart   int
	Direction string
}

// Index is one reflected index.
type Index struct {
	Name    string
	Unique  bool
	Primary bool
	Columns []IndexColumn
}

// ForeignKey is one reflected foreign key.
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnUpdate          string
	OnDelete          string
}

// TableOptions are the reflected table-level options.
type TableOptions struct {
	Engine         string // MySQL only
	Charset        string
	Collation      string
	Comment        string
	NextAutoIncrement int64
	ApproxRowCount    int64
}

// Table is one reflected table: columns, indexes, FKs, and options.
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	ForeignKeys []ForeignKey
	Options     TableOptions
}

// TopologicalOrder orders tables: table T depends on every
// table referenced by one of its FKs (excluding self-references); the
// returned order has each table precede every table that references it.
// Cycles are tolerated, broken at an arbitrary stable point, and logged via
// logger (which may be nil to suppress logging).
func TopologicalOrder(tables []Table, logger *slog.Logger) []Table {
	deps := make(map[string][]string, len(tables))
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.ReferencedTable == t.Name {
				continue // self-reference excluded
			}
			deps[t.Name] = append(deps[t.Name], fk.ReferencedTable)
		}
	}
	return topologicalSort(tables, deps, func(t Table) string { return t.Name }, logger)
}
