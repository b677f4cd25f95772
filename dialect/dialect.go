// Package dialect parameterizes every other component with the
// identifier-quoting, placeholder, reserved-word, and type-mapping rules of a
// specific database engine. No other package may hard-code a quote
// character or placeholder style; they take a Dialect as a dependency
// instead (see query.Plan.ToSQL and schema.Table.CreateTable).
package dialect

import "fmt"

// Kind identifies a supported database engine.
type Kind int

const (
	MySQL Kind = iota
	Postgres
)

func (k Kind) String() string {
	switch k {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// Dialect captures everything downstream components need to know about a
// database engine's SQL surface without hard-coding it themselves.
type Dialect interface {
	Kind() Kind

	// Quote wraps an identifier in the engine's quoting character(s).
	Quote(name string) string

	// Placeholder returns the parameter marker for the nth (1-based)
	// bound value in a statement. MySQL and the default rendering both use
	// a positional "?"; a Postgres driver that requires "$n" substitution
	// can be layered on top at execute time (see driver.Rebind).
	Placeholder(position int) string

	// IsReserved reports whether word is a reserved word, case-insensitively.
	IsReserved(word string) bool

	// MaxIdentifierLength is the longest identifier the engine accepts.
	MaxIdentifierLength() int

	// AutoIncrementClause returns the column-level clause that marks a
	// column as auto-incrementing (e.g. "AUTO_INCREMENT" for MySQL). Postgres
	// has no column-level clause; auto-increment is expressed through the
	// type itself (SERIAL/BIGSERIAL), so MapColumnType handles it there and
	// this returns "".
	AutoIncrementClause() string

	// MapColumnType renders the SQL type for a column, along with any extra
	// table-level clauses the mapping requires (for example, an unsigned
	// MySQL integer mapped to a plain Postgres INTEGER needs a CHECK clause
	// to preserve the non-negative invariant).
	MapColumnType(col ColumnType) (sqlType string, extraClauses []string, err error)
}

// ColumnType is the dialect-neutral description of a column's logical type,
// consumed by MapColumnType. It mirrors the closed type set in schema.ColumnSpec
// without importing the schema package (which itself depends on dialect).
type ColumnType struct {
	Kind          TypeKind
	Unsigned      bool
	Length        int // VARCHAR/CHAR length, BINARY length
	Precision     int // DECIMAL precision, TIME/TIMESTAMP precision
	Scale         int // DECIMAL scale
	EnumValues    []string
	SetValues     []string
	ArrayOf       *ColumnType
	AutoIncrement bool
}

// TypeKind is the closed set of logical column types.
type TypeKind int

const (
	TypeTinyInt TypeKind = iota
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeVarchar
	TypeChar
	TypeText
	TypeMediumText
	TypeLongText
	TypeDecimal
	TypeFloat
	TypeDouble
	TypeBoolean
	TypeDate
	TypeTime
	TypeTimestamp
	TypeDateTime
	TypeJSON
	TypeJSONB
	TypeUUID
	TypeIPAddress
	TypeMACAddress
	TypeBinary
	TypeEnum
	TypeSet
	TypeArray
)

// ErrUnsupportedType is returned by MapColumnType when a dialect has no
// representation for a logical type at all (as opposed to a type that maps
// with caveats, like unsigned integers on Postgres).
type ErrUnsupportedType struct {
	Dialect Kind
	Kind    TypeKind
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("%s: no type mapping for logical type %d", e.Dialect, e.Kind)
}

// For returns the Dialect implementation for a Kind.
func For(kind Kind) (Dialect, error) {
	switch kind {
	case MySQL:
		return NewMySQL(), nil
	case Postgres:
		return NewPostgres(), nil
	default:
		return nil, fmt.Errorf("dialect: unknown kind %v", kind)
	}
}
