package schema

import (
	"context"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// Catalog is the read side of idempotent alterations: "consult
// the live catalog before acting." It is satisfied structurally by
// analyzer.MySQL/analyzer.Postgres so this package never imports analyzer
// (which itself depends on driver, not schema) — schema only needs to ask
// yes/no questions about what already exists.
type Catalog interface {
	HasTable(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	// HasIndex matches by name OR by exact column set (order-insensitive).
	HasIndex(ctx context.Context, table, name string, columns []string) (bool, error)
	// HasForeignKey matches by (table, column, referenced table, referenced
	// column).
	HasForeignKey(ctx context.Context, table string, localCols []string, refTable string, refCols []string) (bool, error)
}

// Alterer emits idempotent ALTER/CREATE statements by consulting a Catalog
// before acting.
type Alterer struct {
	dialect dialect.Dialect
	catalog Catalog
}

func NewAlterer(d dialect.Dialect, catalog Catalog) *Alterer {
	return &Alterer{dialect: d, catalog: catalog}
}

// CreateTableIfNotExists returns t's CreateTable statements only if the
// table does not already exist; otherwise it returns nil statements.
func (a *Alterer) CreateTableIfNotExists(ctx context.Context, t *Table) ([]string, error) {
	exists, err := a.catalog.HasTable(ctx, t.spec.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		t.reset()
		return nil, nil
	}
	t.IfNotExists()
	return t.CreateTable()
}

// AddColumnIfNotExists returns an ALTER TABLE ... ADD COLUMN statement only
// if the column is missing.
func (a *Alterer) AddColumnIfNotExists(ctx context.Context, table string, col ColumnSpec) (string, bool, error) {
	exists, err := a.catalog.HasColumn(ctx, table, col.Name)
	if err != nil {
		return "", false, err
	}
	if exists {
		return "", false, nil
	}
	if err := validateIdentifier(a.dialect, col.Name); err != nil {
		return "", false, err
	}
	if err := validateBounds(col); err != nil {
		return "", false, err
	}
	line, extras, err := columnLine(a.dialect, col, a.dialect.Kind() == dialect.MySQL)
	if err != nil {
		return "", false, err
	}
	stmt := "ALTER TABLE " + a.dialect.Quote(table) + " ADD COLUMN " + line
	if col.After != "" && a.dialect.Kind() == dialect.MySQL {
		stmt += " AFTER " + a.dialect.Quote(col.After)
	} else if col.First && a.dialect.Kind() == dialect.MySQL {
		stmt += " FIRST"
	}
	for _, extra := range extras {
		stmt += ", ADD " + extra
	}
	return stmt, true, nil
}

// AddIndexIfNotExists returns a CREATE INDEX (Postgres) or ALTER TABLE ...
// ADD KEY (MySQL) statement only if no matching index (by name or exact
// column set) already exists.
func (a *Alterer) AddIndexIfNotExists(ctx context.Context, table string, idx IndexSpec) (string, bool, error) {
	names := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		names[i] = c.Name
	}
	exists, err := a.catalog.HasIndex(ctx, table, idx.Name, names)
	if err != nil {
		return "", false, err
	}
	if exists {
		return "", false, nil
	}
	if a.dialect.Kind() == dialect.MySQL {
		return "ALTER TABLE " + a.dialect.Quote(table) + " ADD " + mysqlIndexClause(a.dialect, idx), true, nil
	}
	return postgresCreateIndex(a.dialect, table, idx), true, nil
}

// AddUniqueIndexIfNotExists is AddIndexIfNotExists specialized to a unique
// index named idempotent method.
func (a *Alterer) AddUniqueIndexIfNotExists(ctx context.Context, table string, name string, columns []string) (string, bool, error) {
	idx := IndexSpec{Name: name, Kind: IndexUnique, Columns: columnsOf(columns)}
	return a.AddIndexIfNotExists(ctx, table, idx)
}

// AddForeignKeyIfNotExists returns an ALTER TABLE ... ADD CONSTRAINT ...
// FOREIGN KEY statement only if no matching FK already exists, matched by
// (table, column, referenced table, referenced column)
func (a *Alterer) AddForeignKeyIfNotExists(ctx context.Context, table string, fk ForeignKeySpec) (string, bool, error) {
	exists, err := a.catalog.HasForeignKey(ctx, table, fk.Columns, fk.ReferencedTable, fk.ReferencedColumns)
	if err != nil {
		return "", false, err
	}
	if exists {
		return "", false, nil
	}
	return "ALTER TABLE " + a.dialect.Quote(table) + " ADD " + foreignKeyClause(a.dialect, fk, fk.Name != ""), true, nil
}
