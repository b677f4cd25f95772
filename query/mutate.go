package query

import (
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// Insert composes an INSERT: "INSERT INTO table (col, …)
// VALUES (?, …); data columns listed in insertion order." Multiple rows are
// supported as a convenience (one VALUES tuple per row, same column list).
type Insert struct {
	ctes    []cte
	table   string
	columns []string
	rows    [][]any
}

func NewInsert(table string, columns ...string) *Insert {
	return &Insert{table: table, columns: columns}
}

// With registers a named CTE, emitted before the INSERT
// general CTE-first binding order.
func (i *Insert) With(name string, plan Plan) *Insert {
	i.ctes = append(i.ctes, cte{name: name, plan: plan})
	return i
}

// Values appends one row of values, positionally matching the declared
// column list.
func (i *Insert) Values(values ...any) *Insert {
	i.rows = append(i.rows, values)
	return i
}

func (i *Insert) ToSQL(d dialect.Dialect) (string, error) {
	r := &render{}
	if err := i.render(r, d); err != nil {
		return "", err
	}
	return r.buf.String(), nil
}

func (i *Insert) Bindings(d dialect.Dialect) ([]any, error) {
	r := &render{}
	if err := i.render(r, d); err != nil {
		return nil, err
	}
	return r.bindings, nil
}

func (i *Insert) render(r *render, d dialect.Dialect) error {
	if i.table == "" {
		return dberrors.NewBuilderValidationError("insert: no table set")
	}
	if len(i.columns) == 0 {
		return dberrors.NewBuilderValidationError("insert: no columns set")
	}
	if len(i.rows) == 0 {
		return dberrors.NewBuilderValidationError("insert: no values rows set")
	}
	for _, row := range i.rows {
		if len(row) != len(i.columns) {
			return dberrors.NewBuilderValidationError(
				"insert: row has %d values, want %d", len(row), len(i.columns))
		}
	}

	if err := renderCTEs(r, d, i.ctes); err != nil {
		return err
	}

	r.lit("INSERT INTO " + i.table + " (" + strings.Join(i.columns, ", ") + ") VALUES ")
	for ri, row := range i.rows {
		if ri > 0 {
			r.lit(", ")
		}
		r.lit("(")
		for ci, v := range row {
			if ci > 0 {
				r.lit(", ")
			}
			r.bind(v)
		}
		r.lit(")")
	}
	return nil
}

// Update composes an UPDATE: "UPDATE table SET col = ?, …
// [WHERE …]; bindings are data values followed by WHERE bindings."
type Update struct {
	ctes  []cte
	table string
	sets  []setClause
	where []condition
}

type setClause struct {
	column string
	value  any
}

func NewUpdate(table string) *Update {
	return &Update{table: table}
}

func (u *Update) With(name string, plan Plan) *Update {
	u.ctes = append(u.ctes, cte{name: name, plan: plan})
	return u
}

func (u *Update) Set(column string, value any) *Update {
	u.sets = append(u.sets, setClause{column: column, value: value})
	return u
}

func (u *Update) Where(cond string, bindings ...any) *Update {
	u.where = append(u.where, condition{sql: cond, bindings: bindings})
	return u
}

func (u *Update) ToSQL(d dialect.Dialect) (string, error) {
	r := &render{}
	if err := u.render(r, d); err != nil {
		return "", err
	}
	return r.buf.String(), nil
}

func (u *Update) Bindings(d dialect.Dialect) ([]any, error) {
	r := &render{}
	if err := u.render(r, d); err != nil {
		return nil, err
	}
	return r.bindings, nil
}

func (u *Update) render(r *render, d dialect.Dialect) error {
	if u.table == "" {
		return dberrors.NewBuilderValidationError("update: no table set")
	}
	if len(u.sets) == 0 {
		return dberrors.NewBuilderValidationError("update: no SET clauses")
	}

	if err := renderCTEs(r, d, u.ctes); err != nil {
		return err
	}

	r.lit("UPDATE " + u.table + " SET ")
	for i, s := range u.sets {
		if i > 0 {
			r.lit(", ")
		}
		r.lit(s.column + " = ")
		r.bind(s.value)
	}

	renderConditions(r, " WHERE ", u.where)
	return nil
}

// Delete composes a DELETE: "DELETE FROM table [WHERE …]".
type Delete struct {
	ctes  []cte
	table string
	where []condition
}

func NewDelete(table string) *Delete {
	return &Delete{table: table}
}

func (d *Delete) With(name string, plan Plan) *Delete {
	d.ctes = append(d.ctes, cte{name: name, plan: plan})
	return d
}

func (d *Delete) Where(cond string, bindings ...any) *Delete {
	d.where = append(d.where, condition{sql: cond, bindings: bindings})
	return d
}

func (d *Delete) ToSQL(dl dialect.Dialect) (string, error) {
	r := &render{}
	if err := d.render(r, dl); err != nil {
		return "", err
	}
	return r.buf.String(), nil
}

func (d *Delete) Bindings(dl dialect.Dialect) ([]any, error) {
	r := &render{}
	if err := d.render(r, dl); err != nil {
		return nil, err
	}
	return r.bindings, nil
}

func (d *Delete) render(r *render, dl dialect.Dialect) error {
	if d.table == "" {
		return dberrors.NewBuilderValidationError("delete: no table set")
	}
	if err := renderCTEs(r, dl, d.ctes); err != nil {
		return err
	}
	r.lit("DELETE FROM " + d.table)
	renderConditions(r, " WHERE ", d.where)
	return nil
}
