package analyzer

import (
	"context"
	"database/sql"
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
)

// MySQL reflects live schema structure from information_schema. It is
// grounded in sqldef's own information_schema-driven reflection
// (database/mysql/database.go's column/index/FK queries), generalized
// from DDL-diffing into the standalone analyzer.Table model.
type MySQL struct {
	conn *driver.Conn
}

func NewMySQL(conn *driver.Conn) *MySQL { return &MySQL{conn: conn} }

func (m *MySQL) db() *sql.DB { return m.conn.DB() }

// ListTables returns every base table in the connected database.
func (m *MySQL) ListTables(ctx context.Context) ([]string, error) {
	rows, err := m.db().QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Reflect builds the full Table model for a single table.
func (m *MySQL) Reflect(ctx context.Context, table string) (Table, error) {
	t := Table{Name: table}

	cols, err := m.columns(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.Columns = cols

	idx, err := m.indexes(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.Indexes = idx

	fks, err := m.foreignKeys(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.ForeignKeys = fks

	opts, err := m.options(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.Options = opts

	return t, nil
}

func (m *MySQL) columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := m.db().QueryContext(ctx, `
		SELECT column_name, data_type, ordinal_position,
		       is_nullable, column_default, extra,
		       character_maximum_length, numeric_precision, numeric_scale,
		       column_comment
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			name, dataType, isNullable, extra, comment string
			ordinal                                     int
			def                                          sql.NullString
			charLen, numPrec, numScale                   sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &ordinal, &isNullable, &def, &extra,
			&charLen, &numPrec, &numScale, &comment); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		col := Column{
			Name:          name,
			DataType:      dataType,
			BaseType:      baseType(dataType),
			Nullable:      isNullable == "YES",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
			Ordinal:       ordinal,
			Comment:       comment,
			Length:        int(charLen.Int64),
			Precision:     int(numPrec.Int64),
			Scale:         int(numScale.Int64),
		}
		if def.Valid {
			col.Default = classifyDefault(def.String)
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

func (m *MySQL) indexes(ctx context.Context, table string) ([]Index, error) {
	rows, err := m.db().QueryContext(ctx, `
		SELECT index_name, non_unique, seq_in_index, column_name, sub_part, collation
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name, seq_in_index`, table)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*Index{}
	for rows.Next() {
		var (
			name, colName string
			nonUnique     int
			seq           int
			subPart       sql.NullInt64
			collation     sql.NullString
		)
		if err := rows.Scan(&name, &nonUnique, &seq, &colName, &subPart, &collation); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		idx, ok := byName[name]
		if !ok {
			idx = &Index{Name: name, Unique: nonUnique == 0, Primary: name == "PRIMARY"}
			byName[name] = idx
			order = append(order, name)
		}
		dir := "ASC"
		if collation.Valid && collation.String == "D" {
			dir = "DESC"
		}
		idx.Columns = append(idx.Columns, IndexColumn{Name: colName, SubPart: int(subPart.Int64), Direction: dir})
	}
	if err := rows.Err(); err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}

	out := make([]Index, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (m *MySQL) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := m.db().QueryContext(ctx, `
		SELECT k.constraint_name, k.column_name, k.referenced_table_name,
		       k.referenced_column_name, k.ordinal_position,
		       COALESCE(r.update_rule, ''), COALESCE(r.delete_rule, '')
		FROM information_schema.key_column_usage k
		LEFT JOIN information_schema.referential_constraints r
		  ON r.constraint_schema = k.table_schema AND r.constraint_name = k.constraint_name
		WHERE k.table_schema = DATABASE() AND k.table_name = ?
		  AND k.referenced_table_name IS NOT NULL
		ORDER BY k.constraint_name, k.ordinal_position`, table)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*ForeignKey{}
	for rows.Next() {
		var name, col, refTable, refCol, onUpdate, onDelete string
		var ord int
		if err := rows.Scan(&name, &col, &refTable, &refCol, &ord, &onUpdate, &onDelete); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		fk, ok := byName[name]
		if !ok {
			fk = &ForeignKey{Name: name, ReferencedTable: refTable, OnUpdate: onUpdate, OnDelete: onDelete}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, col)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}

	out := make([]ForeignKey, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (m *MySQL) options(ctx context.Context, table string) (TableOptions, error) {
	var (
		engine, charset, collation, comment sql.NullString
		autoIncrement, rows                 sql.NullInt64
	)
	row := m.db().QueryRowContext(ctx, `
		SELECT t.engine, cc.character_set_name, t.table_collation,
		       t.table_comment, t.auto_increment, t.table_rows
		FROM information_schema.tables t
		LEFT JOIN information_schema.collation_character_set_applicability cc
		  ON cc.collation_name = t.table_collation
		WHERE t.table_schema = DATABASE() AND t.table_name = ?`, table)
	if err := row.Scan(&engine, &charset, &collation, &comment, &autoIncrement, &rows); err != nil {
		return TableOptions{}, &dberrors.QueryError{Err: err}
	}
	return TableOptions{
		Engine:            engine.String,
		Charset:           charset.String,
		Collation:         collation.String,
		Comment:           comment.String,
		NextAutoIncrement: autoIncrement.Int64,
		ApproxRowCount:    rows.Int64,
	}, nil
}

// HasTable satisfies schema.Catalog.
func (m *MySQL) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	err := m.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`, table).Scan(&n)
	if err != nil {
		return false, &dberrors.QueryError{Err: err}
	}
	return n > 0, nil
}

// HasColumn satisfies schema.Catalog.
func (m *MySQL) HasColumn(ctx context.Context, table, column string) (bool, error) {
	var n int
	err := m.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, &dberrors.QueryError{Err: err}
	}
	return n > 0, nil
}

// HasIndex satisfies schema.Catalog: matches by name or by exact
// (order-insensitive) column set
func (m *MySQL) HasIndex(ctx context.Context, table, name string, columns []string) (bool, error) {
	idxs, err := m.indexes(ctx, table)
	if err != nil {
		return false, err
	}
	want := map[string]bool{}
	for _, c := range columns {
		want[c] = true
	}
	for _, idx := range idxs {
		if name != "" && idx.Name == name {
			return true, nil
		}
		if len(columns) > 0 && len(idx.Columns) == len(columns) {
			match := true
			for _, c := range idx.Columns {
				if !want[c.Name] {
					match = false
					break
				}
			}
			if match {
				return true, nil
			}
		}
	}
	return false, nil
}

// HasForeignKey satisfies schema.Catalog.
func (m *MySQL) HasForeignKey(ctx context.Context, table string, localCols []string, refTable string, refCols []string) (bool, error) {
	fks, err := m.foreignKeys(ctx, table)
	if err != nil {
		return false, err
	}
	for _, fk := range fks {
		if fk.ReferencedTable == refTable && sameSet(fk.Columns, localCols) && sameSet(fk.ReferencedColumns, refCols) {
			return true, nil
		}
	}
	return false, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := map[string]bool{}
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

func classifyDefault(raw string) *ColumnDefault {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if strings.Contains(upper, "CURRENT_TIMESTAMP") || strings.Contains(upper, "NOW()") {
		return &ColumnDefault{IsFunction: true, Function: raw}
	}
	return &ColumnDefault{Literal: raw}
}

func baseType(dataType string) string {
	switch strings.ToLower(dataType) {
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext":
		return "string"
	case "int", "tinyint", "smallint", "mediumint", "bigint":
		return "integer"
	case "decimal", "numeric", "float", "double":
		return "decimal"
	case "date", "datetime", "timestamp", "time":
		return "datetime"
	case "bool", "boolean":
		return "boolean"
	case "json", "jsonb":
		return "json"
	default:
		return strings.ToLower(dataType)
	}
}
