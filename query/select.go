package query

import (
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// JoinKind enumerates the join types.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
)

func (k JoinKind) keyword() string {
	switch k {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	default:
		return "INNER JOIN"
	}
}

// Source is a SELECT's FROM target: a bare/aliased table or a subquery.
type Source interface {
	render(d dialect.Dialect) (sql string, bindings []any, err error)
}

// Table is a FROM source naming a table, optionally aliased.
type Table struct {
	Name  string
	Alias string
}

func (t Table) render(d dialect.Dialect) (string, []any, error) {
	if t.Name == "" {
		return "", nil, errNoPlan
	}
	sql := t.Name
	if t.Alias != "" {
		sql += " " + t.Alias
	}
	return sql, nil, nil
}

// Subquery is a FROM source that inlines a nested Plan in parentheses,
// aliased "Subqueries ... a subquery is rendered into the
// parent by inlining its SQL wrapped in parentheses".
type Subquery struct {
	Plan  Plan
	Alias string
}

func (s Subquery) render(d dialect.Dialect) (string, []any, error) {
	sub, err := s.Plan.ToSQL(d)
	if err != nil {
		return "", nil, err
	}
	bindings, err := s.Plan.Bindings(d)
	if err != nil {
		return "", nil, err
	}
	sql := "(" + sub + ")"
	if s.Alias != "" {
		sql += " " + s.Alias
	}
	return sql, bindings, nil
}

type join struct {
	kind   JoinKind
	target Source
	cond   condition
}

type window struct {
	name string
	def  string
}

type orderTerm struct {
	column string
	dir    string
}

type unionPart struct {
	plan Plan
	all  bool
}

// Select composes a SELECT statement/§4.C5.
type Select struct {
	ctes       []cte
	distinct   bool
	projection []projExpr
	from       Source
	joins      []join
	where      []condition
	groupBy    []string
	having     []condition
	windows    []window
	orderBy    []orderTerm
	limit      *int
	offset     *int
	union      []unionPart
}

// projExpr is one projected column/expression, optionally aliased, with its
// own bindings (e.g. an inline CASE or window expression).
type projExpr struct {
	expr     string
	alias    string
	bindings []any
}

// NewSelect starts a SELECT over the given columns (raw SQL fragments —
// callers pass "CASE ..." or "COUNT(*) OVER (...)" expressions directly via
// SelectExpr when they carry bindings).
func NewSelect(columns ...string) *Select {
	s := &Select{}
	for _, c := range columns {
		s.projection = append(s.projection, projExpr{expr: c})
	}
	return s
}

// SelectExpr adds a projected expression with an alias and its own
// bindings (used for CASE expressions and window functions).
func (s *Select) SelectExpr(expr, alias string, bindings ...any) *Select {
	s.projection = append(s.projection, projExpr{expr: expr, alias: alias, bindings: bindings})
	return s
}

func (s *Select) Distinct() *Select {
	s.distinct = true
	return s
}

// From sets the FROM source to a bare table name, optionally aliased.
func (s *Select) From(table string, alias ...string) *Select {
	t := Table{Name: table}
	if len(alias) > 0 {
		t.Alias = alias[0]
	}
	s.from = t
	return s
}

// FromSub sets the FROM source to a subquery.
func (s *Select) FromSub(plan Plan, alias string) *Select {
	s.from = Subquery{Plan: plan, Alias: alias}
	return s
}

// Join adds a join of the given kind against target, with a raw ON
// condition and its bindings.
func (s *Select) Join(kind JoinKind, target string, targetAlias string, onCondition string, bindings ...any) *Select {
	s.joins = append(s.joins, join{
		kind:   kind,
		target: Table{Name: target, Alias: targetAlias},
		cond:   condition{sql: onCondition, bindings: bindings},
	})
	return s
}

// Where appends a WHERE term (terms are AND-combined;
// disjunction is expressed by the caller inside a single condition term).
func (s *Select) Where(cond string, bindings ...any) *Select {
	s.where = append(s.where, condition{sql: cond, bindings: bindings})
	return s
}

func (s *Select) GroupBy(cols ...string) *Select {
	s.groupBy = append(s.groupBy, cols...)
	return s
}

func (s *Select) Having(cond string, bindings ...any) *Select {
	s.having = append(s.having, condition{sql: cond, bindings: bindings})
	return s
}

// Window registers a named window definition, emitted before ORDER BY.
func (s *Select) Window(name, def string) *Select {
	s.windows = append(s.windows, window{name: name, def: def})
	return s
}

func (s *Select) OrderBy(column, dir string) *Select {
	s.orderBy = append(s.orderBy, orderTerm{column: column, dir: dir})
	return s
}

func (s *Select) Limit(n int) *Select {
	s.limit = &n
	return s
}

func (s *Select) Offset(n int) *Select {
	s.offset = &n
	return s
}

// With registers a named CTE, emitted in registration order.
func (s *Select) With(name string, plan Plan) *Select {
	s.ctes = append(s.ctes, cte{name: name, plan: plan})
	return s
}

// Union appends a UNION (or UNION ALL) tail.
func (s *Select) Union(plan Plan, all bool) *Select {
	s.union = append(s.union, unionPart{plan: plan, all: all})
	return s
}

func (s *Select) ToSQL(d dialect.Dialect) (string, error) {
	r := &render{}
	if err := s.render(r, d); err != nil {
		return "", err
	}
	return r.buf.String(), nil
}

func (s *Select) Bindings(d dialect.Dialect) ([]any, error) {
	r := &render{}
	if err := s.render(r, d); err != nil {
		return nil, err
	}
	return r.bindings, nil
}

func (s *Select) render(r *render, d dialect.Dialect) error {
	if s.from == nil {
		return dberrors.NewBuilderValidationError("select: no FROM source set")
	}
	if len(s.projection) == 0 {
		return dberrors.NewBuilderValidationError("select: no projected columns")
	}

	if err := renderCTEs(r, d, s.ctes); err != nil {
		return err
	}

	r.lit("SELECT ")
	if s.distinct {
		r.lit("DISTINCT ")
	}
	for i, p := range s.projection {
		if i > 0 {
			r.lit(", ")
		}
		r.lit(p.expr)
		if p.alias != "" {
			r.lit(" AS " + p.alias)
		}
		r.bindings = append(r.bindings, p.bindings...)
	}

	fromSQL, fromBindings, err := s.from.render(d)
	if err != nil {
		return err
	}
	r.lit(" FROM ")
	r.lit(fromSQL)
	r.bindings = append(r.bindings, fromBindings...)

	for _, j := range s.joins {
		targetSQL, targetBindings, err := j.target.render(d)
		if err != nil {
			return err
		}
		r.lit(" " + j.kind.keyword() + " " + targetSQL + " ON ")
		r.lit(j.cond.sql)
		r.bindings = append(r.bindings, targetBindings...)
		r.bindings = append(r.bindings, j.cond.bindings...)
	}

	renderConditions(r, " WHERE ", s.where)

	if len(s.groupBy) > 0 {
		r.lit(" GROUP BY " + strings.Join(s.groupBy, ", "))
	}

	renderConditions(r, " HAVING ", s.having)

	if len(s.windows) > 0 {
		parts := make([]string, len(s.windows))
		for i, w := range s.windows {
			parts[i] = w.name + " AS (" + w.def + ")"
		}
		r.lit(" WINDOW " + strings.Join(parts, ", "))
	}

	if len(s.orderBy) > 0 {
		parts := make([]string, len(s.orderBy))
		for i, o := range s.orderBy {
			if o.dir != "" {
				parts[i] = o.column + " " + o.dir
			} else {
				parts[i] = o.column
			}
		}
		r.lit(" ORDER BY " + strings.Join(parts, ", "))
	}

	if clause := limitClause(d, s.limit, s.offset); clause != "" {
		r.lit(" " + clause)
	}

	for _, u := range s.union {
		sub, err := u.plan.ToSQL(d)
		if err != nil {
			return err
		}
		bindings, err := u.plan.Bindings(d)
		if err != nil {
			return err
		}
		if u.all {
			r.lit(" UNION ALL ")
		} else {
			r.lit(" UNION ")
		}
		r.lit(sub)
		r.bindings = append(r.bindings, bindings...)
	}

	return nil
}
