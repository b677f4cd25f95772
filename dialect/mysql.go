package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

type mysqlDialect struct{}

// NewMySQL returns the MySQL Dialect implementation.
func NewMySQL() Dialect {
	return mysqlDialect{}
}

func (mysqlDialect) Kind() Kind { return MySQL }

func (mysqlDialect) Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) Placeholder(int) string {
	return "?"
}

func (mysqlDialect) IsReserved(word string) bool {
	return mysqlReservedWordSet()[strings.ToLower(word)]
}

func (mysqlDialect) MaxIdentifierLength() int { return 64 }

func (mysqlDialect) AutoIncrementClause() string { return "AUTO_INCREMENT" }

func (d mysqlDialect) MapColumnType(col ColumnType) (string, []string, error) {
	switch col.Kind {
	case TypeTinyInt:
		return unsignedSuffix("TINYINT", col.Unsigned), nil, nil
	case TypeSmallInt:
		return unsignedSuffix("SMALLINT", col.Unsigned), nil, nil
	case TypeInt:
		return unsignedSuffix("INT", col.Unsigned), nil, nil
	case TypeBigInt:
		return unsignedSuffix("BIGINT", col.Unsigned), nil, nil
	case TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", col.Length), nil, nil
	case TypeChar:
		return fmt.Sprintf("CHAR(%d)", col.Length), nil, nil
	case TypeText:
		return "TEXT", nil, nil
	case TypeMediumText:
		return "MEDIUMTEXT", nil, nil
	case TypeLongText:
		return "LONGTEXT", nil, nil
	case TypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", col.Precision, col.Scale), nil, nil
	case TypeFloat:
		return "FLOAT", nil, nil
	case TypeDouble:
		return "DOUBLE", nil, nil
	case TypeBoolean:
		return "TINYINT(1)", nil, nil
	case TypeDate:
		return "DATE", nil, nil
	case TypeTime:
		return withPrecision("TIME", col.Precision), nil, nil
	case TypeTimestamp:
		return withPrecision("TIMESTAMP", col.Precision), nil, nil
	case TypeDateTime:
		return withPrecision("DATETIME", col.Precision), nil, nil
	case TypeJSON, TypeJSONB:
		return "JSON", nil, nil
	case TypeUUID:
		return "CHAR(36)", nil, nil
	case TypeIPAddress:
		return "VARBINARY(16)", nil, nil
	case TypeMACAddress:
		return "VARCHAR(17)", nil, nil
	case TypeBinary:
		return fmt.Sprintf("VARBINARY(%d)", col.Length), nil, nil
	case TypeEnum:
		return "ENUM(" + quotedList(col.EnumValues) + ")", nil, nil
	case TypeSet:
		return "SET(" + quotedList(col.SetValues) + ")", nil, nil
	case TypeArray:
		return "", nil, &ErrUnsupportedType{Dialect: MySQL, Kind: TypeArray}
	default:
		return "", nil, &ErrUnsupportedType{Dialect: MySQL, Kind: col.Kind}
	}
}

func unsignedSuffix(base string, unsigned bool) string {
	if unsigned {
		return base + " UNSIGNED"
	}
	return base
}

func withPrecision(base string, precision int) string {
	if precision > 0 {
		return base + "(" + strconv.Itoa(precision) + ")"
	}
	return base
}

func quotedList(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(out, ", ")
}

var (
	mysqlReservedWordsOnce sync.Once
	mysqlReservedWords     map[string]bool
)

// mysqlReservedWordSet is built lazily once and reused; callers must not
// mutate the returned map. Grounded on the shape of the common/flavor
// split in skeema/internal/tengo's reserved-word tables, collapsed into a
// single MySQL 8-compatible set since this toolkit does not distinguish
// MySQL point releases or MariaDB.
func mysqlReservedWordSet() map[string]bool {
	mysqlReservedWordsOnce.Do(func() {
		mysqlReservedWords = make(map[string]bool, len(mysqlReservedWordList))
		for _, w := range mysqlReservedWordList {
			mysqlReservedWords[w] = true
		}
	})
	return mysqlReservedWords
}

var mysqlReservedWordList = []string{
	"accessible", "add", "all", "alter", "analyze", "and", "as", "asc",
	"asensitive", "before", "between", "bigint", "binary", "blob", "both",
	"by", "call", "cascade", "case", "change", "char", "character", "check",
	"collate", "column", "condition", "constraint", "continue", "convert",
	"create", "cross", "current_date", "current_time", "current_timestamp",
	"current_user", "cursor", "database", "databases", "day_hour",
	"day_microsecond", "day_minute", "day_second", "dec", "decimal",
	"declare", "default", "delayed", "delete", "desc", "describe",
	"deterministic", "distinct", "distinctrow", "div", "double", "drop",
	"dual", "each", "else", "elseif", "enclosed", "escaped", "exists",
	"exit", "explain", "false", "fetch", "float", "float4", "float8",
	"for", "force", "foreign", "from", "fulltext", "generated", "grant",
	"group", "having", "high_priority", "hour_microsecond", "hour_minute",
	"hour_second", "if", "ignore", "in", "index", "infile", "inner",
	"inout", "insensitive", "insert", "int", "int1", "int2", "int3",
	"int4", "int8", "integer", "interval", "into", "is", "iterate", "join",
	"key", "keys", "kill", "lateral", "leading", "leave", "left", "like",
	"limit", "linear", "lines", "load", "localtime", "localtimestamp",
	"lock", "long", "longblob", "longtext", "loop", "low_priority",
	"master_ssl_verify_server_cert", "match", "maxvalue", "mediumblob",
	"mediumint", "mediumtext", "middleint", "minute_microsecond",
	"minute_second", "mod", "modifies", "natural", "not",
	"no_write_to_binlog", "null", "numeric", "on", "optimize",
	"optimizer_costs", "option", "optionally", "or", "order", "out",
	"outer", "outfile", "over", "partition", "precision", "primary",
	"procedure", "purge", "range", "read", "reads", "read_write", "real",
	"recursive", "references", "regexp", "release", "rename", "repeat",
	"replace", "require", "resignal", "restrict", "return", "revoke",
	"right", "rlike", "rows", "schema", "schemas", "second_microsecond",
	"select", "sensitive", "separator", "set", "show", "signal", "smallint",
	"spatial", "specific", "sql", "sqlexception", "sqlstate", "sqlwarning",
	"sql_big_result", "sql_calc_found_rows", "sql_small_result", "ssl",
	"starting", "stored", "straight_join", "table", "terminated", "then",
	"tinyblob", "tinyint", "tinytext", "to", "trailing", "trigger", "true",
	"undo", "union", "unique", "unlock", "unsigned", "update", "usage",
	"use", "using", "utc_date", "utc_time", "utc_timestamp", "values",
	"varbinary", "varchar", "varcharacter", "varying", "virtual", "when",
	"where", "while", "window", "with", "write", "xor", "year_month",
	"zerofill",
}
