package analyzer

import (
	"context"
	"database/sql"
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
)

// Postgres reflects live schema structure from information_schema plus
// pg_catalog (needed for index definitions, which information_schema
// doesn't expose directly). Grounded in sqldef's own Postgres
// catalog-diffing queries (database/postgres/database.go).
type Postgres struct {
	conn *driver.Conn
}

func NewPostgres(conn *driver.Conn) *Postgres { return &Postgres{conn: conn} }

func (p *Postgres) db() *sql.DB { return p.conn.DB() }

// ListTables returns every base table in the public schema.
func (p *Postgres) ListTables(ctx context.Context) ([]string, error) {
	rows, err := p.db().QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
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
func (p *Postgres) Reflect(ctx context.Context, table string) (Table, error) {
	t := Table{Name: table}

	cols, err := p.columns(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.Columns = cols

	idx, err := p.indexes(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.Indexes = idx

	fks, err := p.foreignKeys(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.ForeignKeys = fks

	opts, err := p.options(ctx, table)
	if err != nil {
		return Table{}, err
	}
	t.Options = opts

	return t, nil
}

func (p *Postgres) columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := p.db().QueryContext(ctx, `
		SELECT column_name, data_type, ordinal_position, is_nullable, column_default,
		       COALESCE(character_maximum_length, 0), COALESCE(numeric_precision, 0),
		       COALESCE(numeric_scale, 0)
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			name, dataType, isNullable   string
			ordinal, length, prec, scale int
			def                          sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &ordinal, &isNullable, &def, &length, &prec, &scale); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		col := Column{
			Name:      name,
			DataType:  dataType,
			BaseType:  baseType(dataType),
			Nullable:  isNullable == "YES",
			Ordinal:   ordinal,
			Length:    length,
			Precision: prec,
			Scale:     scale,
		}
		if def.Valid {
			if strings.Contains(def.String, "nextval(") {
				col.AutoIncrement = true
			} else {
				col.Default = classifyDefault(def.String)
			}
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// indexes uses pg_catalog directly: information_schema has no view for
// index column lists in Postgres, so reflection falls back to pg_index /
// pg_class / pg_attribute, same as sqldef's own Postgres queries.
func (p *Postgres) indexes(ctx context.Context, table string) ([]Index, error) {
	rows, err := p.db().QueryContext(ctx, `
		SELECT ic.relname AS index_name, ix.indisunique, ix.indisprimary, a.attname, a.attnum
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1
		ORDER BY ic.relname, a.attnum`, table)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*Index{}
	for rows.Next() {
		var name string
		var unique, primary bool
		var colName string
		var attnum int
		if err := rows.Scan(&name, &unique, &primary, &colName, &attnum); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		idx, ok := byName[name]
		if !ok {
			idx = &Index{Name: name, Unique: unique, Primary: primary}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, IndexColumn{Name: colName, Direction: "ASC"})
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

func (p *Postgres) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := p.db().QueryContext(ctx, `
		SELECT c.conname, a.attname, af.attname, confrelname.relname,
		       COALESCE(ru.action, ''), COALESCE(rd.action, '')
		FROM pg_constraint c
		JOIN pg_class confrelname ON confrelname.oid = c.confrelid
		JOIN unnest(c.conkey) WITH ORDINALITY AS lk(attnum, ord) ON true
		JOIN unnest(c.confkey) WITH ORDINALITY AS rk(attnum, ord) ON rk.ord = lk.ord
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = lk.attnum
		JOIN pg_attribute af ON af.attrelid = c.confrelid AND af.attnum = rk.attnum
		LEFT JOIN LATERAL (SELECT CASE c.confupdtype
			WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL' WHEN 'r' THEN 'RESTRICT' ELSE '' END AS action) ru ON true
		LEFT JOIN LATERAL (SELECT CASE c.confdeltype
			WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL' WHEN 'r' THEN 'RESTRICT' ELSE '' END AS action) rd ON true
		WHERE c.conrelid = (SELECT oid FROM pg_class WHERE relname = $1) AND c.contype = 'f'
		ORDER BY c.conname, lk.ord`, table)
	if err != nil {
		return nil, &dberrors.QueryError{Err: err}
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*ForeignKey{}
	for rows.Next() {
		var name, localCol, refCol, refTable, onUpdate, onDelete string
		if err := rows.Scan(&name, &localCol, &refCol, &refTable, &onUpdate, &onDelete); err != nil {
			return nil, &dberrors.QueryError{Err: err}
		}
		fk, ok := byName[name]
		if !ok {
			fk = &ForeignKey{Name: name, ReferencedTable: refTable, OnUpdate: onUpdate, OnDelete: onDelete}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, localCol)
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

func (p *Postgres) options(ctx context.Context, table string) (TableOptions, error) {
	var (
		comment  sql.NullString
		rowCount sql.NullFloat64
	)
	row := p.db().QueryRowContext(ctx, `
		SELECT obj_description(c.oid), COALESCE(c.reltuples, 0)
		FROM pg_class c
		WHERE c.relname = $1`, table)
	if err := row.Scan(&comment, &rowCount); err != nil {
		return TableOptions{}, &dberrors.QueryError{Err: err}
	}
	return TableOptions{
		Comment:        comment.String,
		ApproxRowCount: int64(rowCount.Float64),
	}, nil
}

// HasTable satisfies schema.Catalog.
func (p *Postgres) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	err := p.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1`, table).Scan(&n)
	if err != nil {
		return false, &dberrors.QueryError{Err: err}
	}
	return n > 0, nil
}

// HasColumn satisfies schema.Catalog.
func (p *Postgres) HasColumn(ctx context.Context, table, column string) (bool, error) {
	var n int
	err := p.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2`, table, column).Scan(&n)
	if err != nil {
		return false, &dberrors.QueryError{Err: err}
	}
	return n > 0, nil
}

// HasIndex satisfies schema.Catalog: matches by name or exact column set.
func (p *Postgres) HasIndex(ctx context.Context, table, name string, columns []string) (bool, error) {
	idxs, err := p.indexes(ctx, table)
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
func (p *Postgres) HasForeignKey(ctx context.Context, table string, localCols []string, refTable string, refCols []string) (bool, error) {
	fks, err := p.foreignKeys(ctx, table)
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
