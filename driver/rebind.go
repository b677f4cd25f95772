package driver

import (
	"strconv"
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// Rebind converts a query.Plan's "?"-bound SQL text into the placeholder
// style the target dialect's driver actually requires. MySQL's driver
// accepts "?" as-is; lib/pq requires "$1", "$2", ... in textual order. This
// keeps the query builder dialect-agnostic about placeholder spelling (it
// always emits "?"). Rebind writes the "$n" markers itself; the dialect's
// Placeholder() method is not consulted here.
func Rebind(kind dialect.Kind, sqlText string) string {
	if kind != dialect.Postgres {
		return sqlText
	}
	var b strings.Builder
	b.Grow(len(sqlText) + 8)
	n := 0
	inString := false
	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
