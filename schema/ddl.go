package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// CreateTable renders the accumulated definition to one or more DDL
// statements: MySQL emits a single CREATE TABLE with
// inline primary key/indexes/FKs/comments; Postgres emits a CREATE TABLE
// with the primary key as a table constraint, plus separate CREATE INDEX,
// ALTER TABLE ... ADD CONSTRAINT, and COMMENT ON COLUMN statements. After
// emission the builder resets to Empty, per the state machine.
func (t *Table) CreateTable() ([]string, error) {
	spec, err := t.validate()
	if err != nil {
		return nil, err
	}

	var stmts []string
	switch t.dialect.Kind() {
	case dialect.MySQL:
		stmt, err := renderMySQLCreateTable(t.dialect, spec)
		if err != nil {
			return nil, err
		}
		stmts = []string{stmt}
	case dialect.Postgres:
		stmts, err = renderPostgresCreateTable(t.dialect, spec)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("schema: unsupported dialect %v", t.dialect.Kind())
	}

	t.state = StateEmitted
	t.reset()
	return stmts, nil
}

func columnLine(d dialect.Dialect, col ColumnSpec, inline bool) (string, []string, error) {
	sqlType, extra, err := d.MapColumnType(col.Type)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString(d.Quote(col.Name))
	b.WriteString(" ")
	b.WriteString(sqlType)

	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}

	if d.Kind() == dialect.MySQL && col.AutoIncrement && d.AutoIncrementClause() != "" {
		b.WriteString(" ")
		b.WriteString(d.AutoIncrementClause())
	}

	switch {
	case col.UseCurrent:
		b.WriteString(" DEFAULT CURRENT_TIMESTAMP")
	case col.Default != nil && col.Default.IsFunction:
		b.WriteString(" DEFAULT " + col.Default.Function)
	case col.Default != nil:
		b.WriteString(" DEFAULT " + formatLiteral(col.Default.Literal))
	}

	if col.UseCurrentOnUpdate && d.Kind() == dialect.MySQL {
		b.WriteString(" ON UPDATE CURRENT_TIMESTAMP")
	}

	if inline && col.Charset != "" && d.Kind() == dialect.MySQL {
		b.WriteString(" CHARACTER SET " + col.Charset)
	}
	if inline && col.Collation != "" && d.Kind() == dialect.MySQL {
		b.WriteString(" COLLATE " + col.Collation)
	}

	if inline && col.Comment != "" && d.Kind() == dialect.MySQL {
		b.WriteString(" COMMENT " + quoteStringLiteral(col.Comment))
	}

	if col.Invisible && d.Kind() == dialect.MySQL {
		b.WriteString(" INVISIBLE")
	}

	return b.String(), extra, nil
}

func formatLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return quoteStringLiteral(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(t)
	}
}

func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func indexColumnList(d dialect.Dialect, cols []IndexColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		frag := d.Quote(c.Name)
		if c.Length > 0 {
			frag += "(" + strconv.Itoa(c.Length) + ")"
		}
		if c.Direction != "" {
			frag += " " + c.Direction
		}
		parts[i] = frag
	}
	return strings.Join(parts, ", ")
}

func renderMySQLCreateTable(d dialect.Dialect, spec TableSpec) (string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if spec.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.Quote(spec.Name))
	b.WriteString(" (\n")

	var lines []string
	var tableExtras []string
	for _, col := range spec.Columns {
		line, extra, err := columnLine(d, col, true)
		if err != nil {
			return "", err
		}
		lines = append(lines, "  "+line)
		tableExtras = append(tableExtras, extra...)
	}

	if len(spec.PrimaryKey) > 0 {
		cols := make([]string, len(spec.PrimaryKey))
		for i, c := range spec.PrimaryKey {
			cols[i] = d.Quote(c)
		}
		lines = append(lines, "  PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}

	for _, idx := range spec.Indexes {
		lines = append(lines, "  "+mysqlIndexClause(d, idx))
	}

	for _, fk := range spec.ForeignKeys {
		lines = append(lines, "  "+foreignKeyClause(d, fk, true))
	}

	for _, extra := range tableExtras {
		lines = append(lines, "  "+extra)
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")

	var tail []string
	if spec.Engine != "" {
		tail = append(tail, "ENGINE="+spec.Engine)
	}
	if spec.Charset != "" {
		tail = append(tail, "DEFAULT CHARSET="+spec.Charset)
	}
	if spec.Collation != "" {
		tail = append(tail, "COLLATE="+spec.Collation)
	}
	if len(tail) > 0 {
		b.WriteString(" " + strings.Join(tail, " "))
	}

	return b.String(), nil
}

func mysqlIndexClause(d dialect.Dialect, idx IndexSpec) string {
	cols := indexColumnList(d, idx.Columns)
	switch idx.Kind {
	case IndexUnique:
		return "UNIQUE KEY " + d.Quote(idx.Name) + " (" + cols + ")"
	case IndexFulltext:
		return "FULLTEXT KEY " + d.Quote(idx.Name) + " (" + cols + ")"
	default:
		return "KEY " + d.Quote(idx.Name) + " (" + cols + ")"
	}
}

func foreignKeyClause(d dialect.Dialect, fk ForeignKeySpec, named bool) string {
	var b strings.Builder
	if named && fk.Name != "" {
		b.WriteString("CONSTRAINT " + d.Quote(fk.Name) + " ")
	}
	localCols := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		localCols[i] = d.Quote(c)
	}
	refCols := make([]string, len(fk.ReferencedColumns))
	for i, c := range fk.ReferencedColumns {
		refCols[i] = d.Quote(c)
	}
	b.WriteString("FOREIGN KEY (" + strings.Join(localCols, ", ") + ") REFERENCES " +
		d.Quote(fk.ReferencedTable) + " (" + strings.Join(refCols, ", ") + ")")
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	return b.String()
}

// renderPostgresCreateTable keeps the primary key as a table constraint
// (still inline, since Postgres supports that directly), but emits
// indexes, foreign keys, and column comments as separate statements.
func renderPostgresCreateTable(d dialect.Dialect, spec TableSpec) ([]string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if spec.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.Quote(spec.Name))
	b.WriteString(" (\n")

	var lines []string
	var tableExtras []string
	for _, col := range spec.Columns {
		line, extra, err := columnLine(d, col, false)
		if err != nil {
			return nil, err
		}
		lines = append(lines, "  "+line)
		tableExtras = append(tableExtras, extra...)
	}

	if len(spec.PrimaryKey) > 0 {
		cols := make([]string, len(spec.PrimaryKey))
		for i, c := range spec.PrimaryKey {
			cols[i] = d.Quote(c)
		}
		lines = append(lines, "  PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}

	for _, extra := range tableExtras {
		lines = append(lines, "  "+extra)
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")

	stmts := []string{b.String()}

	for _, idx := range spec.Indexes {
		stmts = append(stmts, postgresCreateIndex(d, spec.Name, idx))
	}

	for _, fk := range spec.ForeignKeys {
		stmts = append(stmts, "ALTER TABLE "+d.Quote(spec.Name)+" ADD "+foreignKeyClause(d, fk, fk.Name != ""))
	}

	for _, col := range spec.Columns {
		if col.Comment != "" {
			stmts = append(stmts, "COMMENT ON COLUMN "+d.Quote(spec.Name)+"."+d.Quote(col.Name)+
				" IS "+quoteStringLiteral(col.Comment))
		}
	}

	return stmts, nil
}

func postgresCreateIndex(d dialect.Dialect, table string, idx IndexSpec) string {
	keyword := "CREATE INDEX"
	if idx.Kind == IndexUnique {
		keyword = "CREATE UNIQUE INDEX"
	}
	return keyword + " " + d.Quote(idx.Name) + " ON " + d.Quote(table) +
		" (" + indexColumnList(d, idx.Columns) + ")"
}
