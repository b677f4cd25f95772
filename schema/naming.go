package schema

import "fmt"

// buildConstraintName derives an auto-generated index/foreign-key name the
// way PostgreSQL itself would for an unnamed constraint: "<table>_<column>_<suffix>",
// shrunk to fit NAMEDATALEN (63 bytes, one less than the engine's internal
// limit) when the concatenation runs over.
//
// PostgreSQL's own truncation favors the table name: the column contributes
// at most 28 bytes, and only once it has been cut down to that ceiling does
// any further overflow start eating into the table name.
func buildConstraintName(tableName, columnName, suffix string) string {
	full := tableName + "_" + columnName + "_" + suffix
	overflow := len(full) - 63
	if overflow <= 0 {
		return full
	}

	const columnCeiling = 28
	columnCut, tableCut := 0, 0

	switch room := len(columnName) - columnCeiling; {
	case room > 0:
		// Column is already over its ceiling: shave it down to 28 first,
		// then push any remaining overflow onto the table name.
		columnCut = overflow
		if columnCut > room {
			tableCut = columnCut - room
			columnCut = room
		}
	default:
		tableCut = overflow
	}

	return fmt.Sprintf("%s_%s_%s",
		tableName[:len(tableName)-tableCut],
		columnName[:len(columnName)-columnCut],
		suffix)
}
