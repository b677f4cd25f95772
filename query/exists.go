package query

import "github.com/imransaadullah/SimpleMDB-sub000/dialect"

// Exists renders `EXISTS (subplan)` / `NOT EXISTS (subplan)` by inlining
// the subplan's SQL and appending its bindings at the current position,
// with the appropriate prefix for the negated form.
// The returned fragment and bindings are meant to be passed straight to a
// Where/Having call, e.g.:
//
//	frag, binds, _ := query.Exists(d, false, sub)
//	outer.Where(frag, binds...)
func Exists(d dialect.Dialect, negate bool, plan Plan) (string, []any, error) {
	sub, err := plan.ToSQL(d)
	if err != nil {
		return "", nil, err
	}
	bindings, err := plan.Bindings(d)
	if err != nil {
		return "", nil, err
	}
	prefix := "EXISTS"
	if negate {
		prefix = "NOT EXISTS"
	}
	return prefix + " (" + sub + ")", bindings, nil
}
