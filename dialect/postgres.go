package dialect

import (
	"strconv"
	"strings"
	"sync"
)

type postgresDialect struct{}

// NewPostgres returns the PostgreSQL Dialect implementation.
func NewPostgres() Dialect {
	return postgresDialect{}
}

func (postgresDialect) Kind() Kind { return Postgres }

func (postgresDialect) Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder renders "$n" placeholders. The query builder always emits
// bindings in "?" order internally (see query.Plan); a Postgres-targeting
// render pass substitutes "$n" positionally, matching the driver's
// expectations (lib/pq does not understand "?" placeholders).
func (postgresDialect) Placeholder(position int) string {
	return "$" + strconv.Itoa(position)
}

func (postgresDialect) IsReserved(word string) bool {
	return postgresReservedWordSet()[strings.ToLower(word)]
}

func (postgresDialect) MaxIdentifierLength() int { return 63 }

// AutoIncrementClause is empty: Postgres expresses auto-increment through
// the SERIAL/BIGSERIAL/IDENTITY type itself, handled in MapColumnType.
func (postgresDialect) AutoIncrementClause() string { return "" }

func (d postgresDialect) MapColumnType(col ColumnType) (string, []string, error) {
	switch col.Kind {
	case TypeTinyInt, TypeSmallInt:
		if col.AutoIncrement {
			return "SMALLSERIAL", nil, nil
		}
		return unsignedCheck("SMALLINT", col.Unsigned)
	case TypeInt:
		if col.AutoIncrement {
			return "SERIAL", nil, nil
		}
		return unsignedCheck("INTEGER", col.Unsigned)
	case TypeBigInt:
		if col.AutoIncrement {
			return "BIGSERIAL", nil, nil
		}
		return unsignedCheck("BIGINT", col.Unsigned)
	case TypeVarchar:
		return "VARCHAR(" + strconv.Itoa(col.Length) + ")", nil, nil
	case TypeChar:
		return "CHAR(" + strconv.Itoa(col.Length) + ")", nil, nil
	case TypeText, TypeMediumText, TypeLongText:
		return "TEXT", nil, nil
	case TypeDecimal:
		return "DECIMAL(" + strconv.Itoa(col.Precision) + "," + strconv.Itoa(col.Scale) + ")", nil, nil
	case TypeFloat:
		return "REAL", nil, nil
	case TypeDouble:
		return "DOUBLE PRECISION", nil, nil
	case TypeBoolean:
		return "BOOLEAN", nil, nil
	case TypeDate:
		return "DATE", nil, nil
	case TypeTime:
		return withPgPrecision("TIME", col.Precision), nil, nil
	case TypeTimestamp, TypeDateTime:
		return withPgPrecision("TIMESTAMP", col.Precision), nil, nil
	case TypeJSON:
		return "JSON", nil, nil
	case TypeJSONB:
		return "JSONB", nil, nil
	case TypeUUID:
		return "UUID", nil, nil
	case TypeIPAddress:
		return "INET", nil, nil
	case TypeMACAddress:
		return "MACADDR", nil, nil
	case TypeBinary:
		return "BYTEA", nil, nil
	case TypeEnum:
		// Native Postgres enums require a CREATE TYPE statement, which
		// the schema builder does not emit. Here we fall back to a
		// CHECK-constrained VARCHAR so a single ColumnSpec is still valid
		// without a companion CREATE TYPE step.
		return "VARCHAR(255)", []string{"CHECK (VALUE IN (" + quotedList(col.EnumValues) + "))"}, nil
	case TypeSet:
		if col.ArrayOf == nil {
			return "TEXT[]", nil, nil
		}
		return "TEXT[]", nil, nil
	case TypeArray:
		if col.ArrayOf == nil {
			return "", nil, &ErrUnsupportedType{Dialect: Postgres, Kind: TypeArray}
		}
		inner, _, err := d.MapColumnType(*col.ArrayOf)
		if err != nil {
			return "", nil, err
		}
		return inner + "[]", nil, nil
	default:
		return "", nil, &ErrUnsupportedType{Dialect: Postgres, Kind: col.Kind}
	}
}

// unsignedCheck maps a MySQL-only "unsigned integer" onto a plain signed
// Postgres integer type plus a CHECK clause: "MySQL INT
// UNSIGNED has no PostgreSQL equivalent — mapped to INTEGER with CHECK on
// non-negative values".
func unsignedCheck(base string, unsigned bool) (string, []string, error) {
	if !unsigned {
		return base, nil, nil
	}
	return base, []string{"CHECK (VALUE >= 0)"}, nil
}

func withPgPrecision(base string, precision int) string {
	if precision > 0 {
		return base + "(" + strconv.Itoa(precision) + ")"
	}
	return base
}

var (
	postgresReservedWordsOnce sync.Once
	postgresReservedWords     map[string]bool
)

func postgresReservedWordSet() map[string]bool {
	postgresReservedWordsOnce.Do(func() {
		postgresReservedWords = make(map[string]bool, len(postgresReservedWordList))
		for _, w := range postgresReservedWordList {
			postgresReservedWords[w] = true
		}
	})
	return postgresReservedWords
}

var postgresReservedWordList = []string{
	"all", "analyse", "analyze", "and", "any", "array", "as", "asc",
	"asymmetric", "authorization", "binary", "both", "case", "cast",
	"check", "collate", "collation", "column", "concurrently", "constraint",
	"create", "cross", "current_catalog", "current_date", "current_role",
	"current_schema", "current_time", "current_timestamp", "current_user",
	"default", "deferrable", "desc", "distinct", "do", "else", "end",
	"except", "false", "fetch", "for", "foreign", "freeze", "from", "full",
	"grant", "group", "having", "ilike", "in", "initially", "inner",
	"intersect", "into", "is", "isnull", "join", "lateral", "leading",
	"left", "like", "limit", "localtime", "localtimestamp", "natural",
	"not", "notnull", "null", "offset", "on", "only", "or", "order",
	"outer", "overlaps", "placing", "primary", "references", "returning",
	"right", "select", "session_user", "similar", "some", "symmetric",
	"table", "tablesample", "then", "to", "trailing", "true", "union",
	"unique", "user", "using", "variadic", "verbose", "when", "where",
	"window", "with",
}
