package schema

import (
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// ColumnBuilder is the per-column handle: each Table.<Type>(name)
// constructor hands back a ColumnBuilder already anchored on its own
// ColumnSpec — there is no shared "last-defined column" cursor to get out
// of sync, unlike the fluent chain sqldef's own DDL generator reconstructs
// from parsed SQL (schema/ast.go's Column). Remaining checks (bounds,
// reserved words) stay explicit validations, raised at CreateTable/Alter
// time so a chain of modifier calls can keep returning *ColumnBuilder for
// fluency.
type ColumnBuilder struct {
	table *Table
	spec  *ColumnSpec
}

func (c *ColumnBuilder) Nullable() *ColumnBuilder {
	c.spec.Nullable = true
	return c
}

func (c *ColumnBuilder) Default(literal any) *ColumnBuilder {
	c.spec.Default = &Default{Literal: literal}
	return c
}

// DefaultFunction sets a function-reference default (e.g. CURRENT_TIMESTAMP),
// rendered verbatim rather than bound as a parameter
func (c *ColumnBuilder) DefaultFunction(fn string) *ColumnBuilder {
	c.spec.Default = &Default{IsFunction: true, Function: fn}
	return c
}

func (c *ColumnBuilder) Unsigned() *ColumnBuilder {
	if !isIntegerKind(c.spec.Type.Kind) {
		c.table.fail("unsigned: %q is not an integer column", c.spec.Name)
		return c
	}
	c.spec.Type.Unsigned = true
	return c
}

func (c *ColumnBuilder) Unique() *ColumnBuilder {
	c.spec.Unique = true
	return c
}

func (c *ColumnBuilder) Comment(text string) *ColumnBuilder {
	c.spec.Comment = text
	return c
}

// After is only meaningful at ALTER time; CreateTable ignores positional
// hints since column order there is simply insertion order.
func (c *ColumnBuilder) After(column string) *ColumnBuilder {
	c.spec.After = column
	c.spec.First = false
	return c
}

func (c *ColumnBuilder) First() *ColumnBuilder {
	c.spec.First = true
	c.spec.After = ""
	return c
}

func (c *ColumnBuilder) Invisible() *ColumnBuilder {
	c.spec.Invisible = true
	return c
}

func (c *ColumnBuilder) Charset(name string) *ColumnBuilder {
	if !isCharacterKind(c.spec.Type.Kind) {
		c.table.fail("charset: %q is not a character column", c.spec.Name)
		return c
	}
	c.spec.Charset = name
	return c
}

func (c *ColumnBuilder) Collation(name string) *ColumnBuilder {
	if !isCharacterKind(c.spec.Type.Kind) {
		c.table.fail("collation: %q is not a character column", c.spec.Name)
		return c
	}
	c.spec.Collation = name
	return c
}

func (c *ColumnBuilder) AutoIncrement() *ColumnBuilder {
	if !isIntegerKind(c.spec.Type.Kind) {
		c.table.fail("autoIncrement: %q is not an integer column", c.spec.Name)
		return c
	}
	c.spec.AutoIncrement = true
	c.spec.Type.AutoIncrement = true
	return c
}

func (c *ColumnBuilder) UseCurrent() *ColumnBuilder {
	if c.spec.Type.Kind != dialect.TypeTimestamp && c.spec.Type.Kind != dialect.TypeDateTime {
		c.table.fail("useCurrent: %q is not a timestamp/datetime column", c.spec.Name)
		return c
	}
	c.spec.UseCurrent = true
	return c
}

func (c *ColumnBuilder) UseCurrentOnUpdate() *ColumnBuilder {
	if c.spec.Type.Kind != dialect.TypeTimestamp && c.spec.Type.Kind != dialect.TypeDateTime {
		c.table.fail("useCurrentOnUpdate: %q is not a timestamp/datetime column", c.spec.Name)
		return c
	}
	c.spec.UseCurrentOnUpdate = true
	return c
}

func isIntegerKind(k dialect.TypeKind) bool {
	switch k {
	case dialect.TypeTinyInt, dialect.TypeSmallInt, dialect.TypeInt, dialect.TypeBigInt:
		return true
	default:
		return false
	}
}

func isCharacterKind(k dialect.TypeKind) bool {
	switch k {
	case dialect.TypeVarchar, dialect.TypeChar, dialect.TypeText, dialect.TypeMediumText, dialect.TypeLongText, dialect.TypeEnum, dialect.TypeSet:
		return true
	default:
		return false
	}
}

// validateBounds enforces type-specific bounds, fatal on
// violation: VARCHAR length 1..65535, CHAR 1..255, DECIMAL precision 1..65
// and 0 ≤ scale ≤ precision, FLOAT 1..24, DOUBLE 1..53, TIME precision 0..6.
func validateBounds(spec ColumnSpec) error {
	t := spec.Type
	switch t.Kind {
	case dialect.TypeVarchar:
		if t.Length < 1 || t.Length > 65535 {
			return dberrors.NewBuilderValidationError("column %q: VARCHAR length %d out of range 1..65535", spec.Name, t.Length)
		}
	case dialect.TypeChar:
		if t.Length < 1 || t.Length > 255 {
			return dberrors.NewBuilderValidationError("column %q: CHAR length %d out of range 1..255", spec.Name, t.Length)
		}
	case dialect.TypeDecimal:
		if t.Precision < 1 || t.Precision > 65 {
			return dberrors.NewBuilderValidationError("column %q: DECIMAL precision %d out of range 1..65", spec.Name, t.Precision)
		}
		if t.Scale < 0 || t.Scale > t.Precision {
			return dberrors.NewBuilderValidationError("column %q: DECIMAL scale %d out of range 0..%d", spec.Name, t.Scale, t.Precision)
		}
	case dialect.TypeFloat:
		if t.Precision < 1 || t.Precision > 24 {
			return dberrors.NewBuilderValidationError("column %q: FLOAT precision %d out of range 1..24", spec.Name, t.Precision)
		}
	case dialect.TypeDouble:
		if t.Precision < 1 || t.Precision > 53 {
			return dberrors.NewBuilderValidationError("column %q: DOUBLE precision %d out of range 1..53", spec.Name, t.Precision)
		}
	case dialect.TypeTime, dialect.TypeTimestamp, dialect.TypeDateTime:
		if t.Precision < 0 || t.Precision > 6 {
			return dberrors.NewBuilderValidationError("column %q: TIME precision %d out of range 0..6", spec.Name, t.Precision)
		}
	}
	return nil
}

// validateIdentifier enforces reserved-word and length rejection
// case-insensitively and dialect-specifically
func validateIdentifier(d dialect.Dialect, name string) error {
	if name == "" {
		return dberrors.NewBuilderValidationError("identifier must not be empty")
	}
	if len(name) > d.MaxIdentifierLength() {
		return dberrors.NewBuilderValidationError(
			"identifier %q exceeds max length %d for %s", name, d.MaxIdentifierLength(), d.Kind())
	}
	if d.IsReserved(strings.ToLower(name)) {
		return dberrors.NewBuilderValidationError("identifier %q is a reserved word in %s", name, d.Kind())
	}
	return nil
}
