// Package migration turns an analyzed schema into ordered, regeneratable
// migration artifacts Splitting logic is grounded on the
// teacher's ordered, deterministic approach to multi-file output
// (database/concurrent.go's ordered-map-over-channels pattern, adapted
// here to keep chunk assembly deterministic rather than to bound
// goroutine concurrency).
package migration

import (
	"fmt"
	"strings"
	"time"

	"github.com/imransaadullah/SimpleMDB-sub000/analyzer"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
	"github.com/imransaadullah/SimpleMDB-sub000/schema"
)

// Options controls migration generation
type Options struct {
	Split               bool
	TablesPerFile       int
	Comment             bool
	PreserveOrder       bool
	GenerateIndexes     bool
	GenerateForeignKeys bool
}

// DefaultOptions matches implied defaults: one file, no
// comment header, dependency order preserved, indexes and FKs both
// generated inline.
func DefaultOptions() Options {
	return Options{
		TablesPerFile:       0, // 0 means "no splitting, single file"
		PreserveOrder:       true,
		GenerateIndexes:     true,
		GenerateForeignKeys: true,
	}
}

// File is one generated migration artifact.
type File struct {
	Sequence int
	Up       string
	Down     string
}

// Generator builds File artifacts from reflected tables
type Generator struct {
	dialect dialect.Dialect
	logger  func(format string, args ...any)
}

func NewGenerator(d dialect.Dialect) *Generator {
	return &Generator{dialect: d}
}

// WithLogger attaches a sink for non-fatal generation warnings (e.g. a
// table whose FK references an unreflected table).
func (g *Generator) WithLogger(logf func(format string, args ...any)) *Generator {
	g.logger = logf
	return g
}

func (g *Generator) logf(format string, args ...any) {
	if g.logger != nil {
		g.logger(format, args...)
	}
}

// Generate produces one or more File artifacts for tables, ordered per
// opts.PreserveOrder (dependency order via analyzer.TopologicalOrder) and
// split per opts.Split/opts.TablesPerFile
func (g *Generator) Generate(tables []analyzer.Table, opts Options) ([]File, error) {
	ordered := tables
	if opts.PreserveOrder {
		ordered = analyzer.TopologicalOrder(tables, nil)
	}

	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t.Name] = true
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if !known[fk.ReferencedTable] {
				g.logf("migration: table %s references %s, which is not in this generation set", t.Name, fk.ReferencedTable)
			}
		}
	}

	chunkSize := opts.TablesPerFile
	if !opts.Split || chunkSize <= 0 {
		chunkSize = len(ordered)
		if chunkSize == 0 {
			chunkSize = 1
		}
	}

	var chunks [][]analyzer.Table
	for i := 0; i < len(ordered); i += chunkSize {
		end := i + chunkSize
		if end > len(ordered) {
			end = len(ordered)
		}
		chunks = append(chunks, ordered[i:end])
	}
	if len(chunks) == 0 {
		chunks = [][]analyzer.Table{{}}
	}

	files := make([]File, 0, len(chunks))
	for i, chunk := range chunks {
		up, down, err := g.renderChunk(chunk, opts)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Sequence: i, Up: up, Down: down})
	}
	return files, nil
}

// renderChunk builds the up/down SQL for one chunk of tables: up creates
// tables in order, then indexes, then (optionally, as a second pass per
// cycle-simplifying guidance) foreign keys; down drops tables
// in reverse order.
func (g *Generator) renderChunk(tables []analyzer.Table, opts Options) (string, string, error) {
	var up, down []string

	for _, t := range tables {
		stmts, err := g.createTableStatements(t, opts)
		if err != nil {
			return "", "", fmt.Errorf("migration: table %s: %w", t.Name, err)
		}
		up = append(up, stmts...)
	}

	// MySQL's CREATE TABLE already inlines FK clauses (via
	// createTableStatements's tbl.ForeignKey calls above); only
	// non-MySQL dialects need this second pass, since Postgres FKs are
	// deliberately left off the builder there and added here instead,
	// "second pass to simplify cycles" allowance.
	if opts.GenerateForeignKeys && g.dialect.Kind() != dialect.MySQL {
		for _, t := range tables {
			for _, fk := range t.ForeignKeys {
				up = append(up, foreignKeyStatement(g.dialect, t.Name, fk))
			}
		}
	}

	for i := len(tables) - 1; i >= 0; i-- {
		down = append(down, "DROP TABLE "+g.dialect.Quote(tables[i].Name))
	}

	header := ""
	if opts.Comment {
		header = "-- generated by simplemdb\n"
	}
	return header + strings.Join(up, ";\n") + ifNonEmpty(up, ";"),
		header + strings.Join(down, ";\n") + ifNonEmpty(down, ";"),
		nil
}

func ifNonEmpty(stmts []string, suffix string) string {
	if len(stmts) == 0 {
		return ""
	}
	return suffix
}

// createTableStatements builds one table's CREATE TABLE (+ indexes, and
// inline FKs when not deferred to the second pass) using the schema
// builder, translating reflected analyzer.Table fields back into
// schema.ColumnSpec/TableSpec inputs.
func (g *Generator) createTableStatements(t analyzer.Table, opts Options) ([]string, error) {
	tbl := schema.NewTable(g.dialect, t.Name)

	for _, col := range t.Columns {
		spec, err := ColumnSpecFor(col)
		if err != nil {
			return nil, err
		}
		spec.Nullable = col.Nullable
		if col.AutoIncrement {
			spec.AutoIncrement = true
		}
		if col.Default != nil {
			if col.Default.IsFunction {
				spec.Default = &schema.Default{IsFunction: true, Function: col.Default.Function}
			} else {
				spec.Default = &schema.Default{Literal: col.Default.Literal}
			}
		}
		spec.Comment = col.Comment
		tbl.Column(spec)
	}

	var pk []string
	for _, idx := range t.Indexes {
		if idx.Primary {
			for _, c := range idx.Columns {
				pk = append(pk, c.Name)
			}
		}
	}
	if len(pk) > 0 {
		tbl.PrimaryKey(pk...)
	}

	if opts.GenerateIndexes {
		for _, idx := range t.Indexes {
			if idx.Primary {
				continue
			}
			names := make([]string, len(idx.Columns))
			for i, c := range idx.Columns {
				names[i] = c.Name
			}
			if idx.Unique {
				tbl.UniqueIndex(names, idx.Name)
			} else {
				tbl.Index(names, idx.Name)
			}
		}
	}

	if !opts.GenerateForeignKeys {
		// foreign keys are omitted; renderChunk's second pass is skipped too
	} else if len(t.ForeignKeys) > 0 {
		// Inline FKs only for MySQL's single-statement CREATE TABLE;
		// Postgres already emits FKs as separate ALTER TABLE
		// statements from schema.Table.CreateTable, so adding them
		// here too would duplicate them in the second pass. Route
		// Postgres exclusively through the second pass below.
		if g.dialect.Kind() == dialect.MySQL {
			for _, fk := range t.ForeignKeys {
				tbl.ForeignKey(schema.ForeignKeySpec{
					Name:              fk.Name,
					Columns:           fk.Columns,
					ReferencedTable:   fk.ReferencedTable,
					ReferencedColumns: fk.ReferencedColumns,
					OnDelete:          fk.OnDelete,
					OnUpdate:          fk.OnUpdate,
				})
			}
		}
	}

	tbl.IfNotExists()
	return tbl.CreateTable()
}

func foreignKeyStatement(d dialect.Dialect, table string, fk analyzer.ForeignKey) string {
	local := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		local[i] = d.Quote(c)
	}
	ref := make([]string, len(fk.ReferencedColumns))
	for i, c := range fk.ReferencedColumns {
		ref[i] = d.Quote(c)
	}
	stmt := "ALTER TABLE " + d.Quote(table) + " ADD FOREIGN KEY (" + strings.Join(local, ", ") +
		") REFERENCES " + d.Quote(fk.ReferencedTable) + " (" + strings.Join(ref, ", ") + ")"
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		stmt += " ON UPDATE " + fk.OnUpdate
	}
	return stmt
}

// ColumnSpecFor maps a reflected analyzer.Column's base type back to the
// closed dialect.ColumnType set the schema builder renders from. Unknown
// base types fall back to TEXT rather than failing generation outright,
// since a migration artifact missing one column's exact type is still far
// more useful than no artifact at all.
func ColumnSpecFor(col analyzer.Column) (schema.ColumnSpec, error) {
	var ct dialect.ColumnType
	switch col.BaseType {
	case "string":
		if col.Length > 0 {
			ct = dialect.ColumnType{Kind: dialect.TypeVarchar, Length: col.Length}
		} else {
			ct = dialect.ColumnType{Kind: dialect.TypeText}
		}
	case "integer":
		switch strings.ToLower(col.DataType) {
		case "tinyint":
			ct = dialect.ColumnType{Kind: dialect.TypeTinyInt}
		case "smallint":
			ct = dialect.ColumnType{Kind: dialect.TypeSmallInt}
		case "bigint":
			ct = dialect.ColumnType{Kind: dialect.TypeBigInt}
		default:
			ct = dialect.ColumnType{Kind: dialect.TypeInt}
		}
	case "decimal":
		if strings.Contains(strings.ToLower(col.DataType), "float") {
			ct = dialect.ColumnType{Kind: dialect.TypeFloat, Precision: col.Precision}
		} else if strings.Contains(strings.ToLower(col.DataType), "double") {
			ct = dialect.ColumnType{Kind: dialect.TypeDouble, Precision: col.Precision}
		} else {
			ct = dialect.ColumnType{Kind: dialect.TypeDecimal, Precision: col.Precision, Scale: col.Scale}
		}
	case "datetime":
		switch strings.ToLower(col.DataType) {
		case "date":
			ct = dialect.ColumnType{Kind: dialect.TypeDate}
		case "time":
			ct = dialect.ColumnType{Kind: dialect.TypeTime}
		case "timestamp":
			ct = dialect.ColumnType{Kind: dialect.TypeTimestamp}
		default:
			ct = dialect.ColumnType{Kind: dialect.TypeDateTime}
		}
	case "boolean":
		ct = dialect.ColumnType{Kind: dialect.TypeBoolean}
	case "json":
		ct = dialect.ColumnType{Kind: dialect.TypeJSON}
	default:
		ct = dialect.ColumnType{Kind: dialect.TypeText}
	}
	return schema.ColumnSpec{Name: col.Name, Type: ct}, nil
}

// SequenceTimestamp returns a monotonically increasing timestamp for file
// i, offset from base by one second per file so multi-file output sorts
// stably by filename
func SequenceTimestamp(base time.Time, i int) time.Time {
	return base.Add(time.Duration(i) * time.Second)
}
