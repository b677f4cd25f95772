package query

import (
	"fmt"
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// CaseKind distinguishes the two CASE variants from /§9: "Represent
// CASE as a tagged union {Simple{col, arms}, Searched{arms}} and share
// rendering; avoid a single mutable object with an 'is searched' flag."
type CaseKind int

const (
	CaseSimple CaseKind = iota
	CaseSearched
)

// WhenClause is one arm of a CASE expression. For CaseSimple, Cond holds
// the literal value matched against the anchor column; for CaseSearched it
// holds a boolean SQL condition with its own bindings.
type WhenClause struct {
	Cond     any
	Bindings []any
	Result   any
}

// Case renders `CASE [col] WHEN … THEN … ELSE … END`
type Case struct {
	Kind    CaseKind
	Column  string
	Whens   []WhenClause
	Else    any
	HasElse bool
}

// Simple builds a CaseSimple anchored on column.
func Simple(column string) *Case {
	return &Case{Kind: CaseSimple, Column: column}
}

// Searched builds a CaseSearched with no anchor column.
func Searched() *Case {
	return &Case{Kind: CaseSearched}
}

// When adds an arm. For CaseSimple, cond is the literal value to match the
// anchor against (bound as a parameter). For CaseSearched, cond is a raw
// boolean SQL fragment and bindings are its own parameters.
func (c *Case) When(cond any, result any, bindings ...any) *Case {
	c.Whens = append(c.Whens, WhenClause{Cond: cond, Bindings: bindings, Result: result})
	return c
}

func (c *Case) SetElse(result any) *Case {
	c.Else = result
	c.HasElse = true
	return c
}

// Render produces the CASE expression's SQL fragment and the bindings it
// owns, for splicing into a projection (Select.SelectExpr) or a condition.
func (c *Case) Render(d dialect.Dialect) (string, []any, error) {
	if len(c.Whens) == 0 {
		return "", nil, dberrors.NewBuilderValidationError("case: at least one WHEN is required")
	}
	if c.Kind == CaseSimple && c.Column == "" {
		return "", nil, dberrors.NewBuilderValidationError("case: simple CASE requires an anchor column")
	}

	var b strings.Builder
	var bindings []any

	b.WriteString("CASE")
	if c.Kind == CaseSimple {
		b.WriteString(" ")
		b.WriteString(c.Column)
	}

	for _, w := range c.Whens {
		b.WriteString(" WHEN ")
		switch c.Kind {
		case CaseSimple:
			frag, bind, v := classifyCaseValue(d, w.Cond)
			b.WriteString(frag)
			if bind {
				bindings = append(bindings, v)
			}
		case CaseSearched:
			b.WriteString(fmt.Sprint(w.Cond))
			bindings = append(bindings, w.Bindings...)
		}
		b.WriteString(" THEN ")
		frag, bind, v := classifyCaseValue(d, w.Result)
		b.WriteString(frag)
		if bind {
			bindings = append(bindings, v)
		}
	}

	if c.HasElse {
		b.WriteString(" ELSE ")
		frag, bind, v := classifyCaseValue(d, c.Else)
		b.WriteString(frag)
		if bind {
			bindings = append(bindings, v)
		}
	}

	b.WriteString(" END")
	return b.String(), bindings, nil
}

// classifyCaseValue implements CASE value classification:
// "Non-literal, non-NULL, non-column-reference result values are bound as
// parameters; identifiers (recognized by the dialect quote) and function
// expressions (containing '(') pass through as raw SQL." Numeric literals
// and nil also pass through raw, since they are literal values already safe
// to inline.
func classifyCaseValue(d dialect.Dialect, v any) (fragment string, bind bool, bindValue any) {
	if v == nil {
		return "NULL", false, nil
	}
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), false, nil
	case float32, float64:
		return fmt.Sprint(t), false, nil
	case string:
		if isIdentifierOrFunctionExpr(d, t) {
			return t, false, nil
		}
		return "?", true, v
	default:
		return "?", true, v
	}
}

// isIdentifierOrFunctionExpr reports whether s looks like a column
// reference (quoted with the dialect's identifier quote) or a function call
// expression (contains an opening parenthesis)
func isIdentifierOrFunctionExpr(d dialect.Dialect, s string) bool {
	if strings.Contains(s, "(") {
		return true
	}
	quote := d.Quote("x")
	openQuote := quote[:1]
	return strings.HasPrefix(s, openQuote) && !strings.ContainsAny(s, " '")
}
