package schema

import (
	"strings"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// State is the table-definition state machine from :
// Empty → HasColumns → HasConstraints → Emitted.
type State int

const (
	StateEmpty State = iota
	StateHasColumns
	StateHasConstraints
	StateEmitted
)

// Table is the builder accumulating a TableSpec. A builder error at any
// step leaves the instance's *rendered output* unchanged — render calls
// fail fast — and reset() returns a fresh Empty builder
type Table struct {
	dialect dialect.Dialect
	spec    TableSpec
	state   State
	err     error
}

// NewTable starts a table definition for the given dialect.
func NewTable(d dialect.Dialect, name string) *Table {
	return &Table{dialect: d, spec: TableSpec{Name: name}, state: StateEmpty}
}

func (t *Table) fail(format string, args ...any) {
	if t.err == nil {
		t.err = dberrors.NewBuilderValidationError(format, args...)
	}
}

// addColumn registers spec, enforcing the duplicate-name and
// identifier-validity invariants shared by every typed constructor.
func (t *Table) addColumn(spec ColumnSpec) *ColumnBuilder {
	if t.err != nil {
		return &ColumnBuilder{table: t, spec: &ColumnSpec{}}
	}
	if err := validateIdentifier(t.dialect, spec.Name); err != nil {
		t.err = err
		return &ColumnBuilder{table: t, spec: &ColumnSpec{}}
	}
	if _, exists := t.spec.ColumnByName(spec.Name); exists {
		t.fail("duplicate column %q", spec.Name)
		return &ColumnBuilder{table: t, spec: &ColumnSpec{}}
	}
	t.spec.Columns = append(t.spec.Columns, spec)
	if t.state < StateHasColumns {
		t.state = StateHasColumns
	}
	return &ColumnBuilder{table: t, spec: &t.spec.Columns[len(t.spec.Columns)-1]}
}

// Column adds an arbitrary, already-constructed ColumnSpec. It exists
// alongside the typed constructors below for callers building a TableSpec
// from reflected data (migration.Generator) rather than from a literal
// schema definition.
func (t *Table) Column(spec ColumnSpec) *ColumnBuilder {
	return t.addColumn(spec)
}

func (t *Table) TinyInt(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeTinyInt}})
}

func (t *Table) SmallInt(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeSmallInt}})
}

func (t *Table) Integer(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeInt}})
}

func (t *Table) BigInt(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeBigInt}})
}

func (t *Table) Varchar(name string, length int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeVarchar, Length: length}})
}

func (t *Table) CharColumn(name string, length int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeChar, Length: length}})
}

func (t *Table) Text(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeText}})
}

func (t *Table) MediumText(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeMediumText}})
}

func (t *Table) LongText(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeLongText}})
}

func (t *Table) Decimal(name string, precision, scale int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeDecimal, Precision: precision, Scale: scale}})
}

func (t *Table) Float(name string, precision int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeFloat, Precision: precision}})
}

func (t *Table) Double(name string, precision int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeDouble, Precision: precision}})
}

func (t *Table) Boolean(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeBoolean}})
}

func (t *Table) Date(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeDate}})
}

func (t *Table) Time(name string, precision int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeTime, Precision: precision}})
}

func (t *Table) Timestamp(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeTimestamp}})
}

func (t *Table) DateTime(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeDateTime}})
}

func (t *Table) JSON(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeJSON}})
}

func (t *Table) JSONB(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeJSONB}})
}

func (t *Table) UUID(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeUUID}})
}

func (t *Table) IPAddress(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeIPAddress}})
}

func (t *Table) MACAddress(name string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeMACAddress}})
}

func (t *Table) Binary(name string, length int) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeBinary, Length: length}})
}

func (t *Table) Enum(name string, values ...string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeEnum, EnumValues: values}})
}

func (t *Table) Set(name string, values ...string) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeSet, SetValues: values}})
}

func (t *Table) Array(name string, of dialect.ColumnType) *ColumnBuilder {
	return t.addColumn(ColumnSpec{Name: name, Type: dialect.ColumnType{Kind: dialect.TypeArray, ArrayOf: &of}})
}

// PrimaryKey declares the primary key columns. Per invariant,
// primary-key columns become NOT NULL regardless of their declared
// nullable flag.
func (t *Table) PrimaryKey(columns ...string) *Table {
	if t.err != nil {
		return t
	}
	for _, col := range columns {
		spec, ok := t.spec.ColumnByName(col)
		if !ok {
			t.fail("primary key references undefined column %q", col)
			return t
		}
		spec.Nullable = false
	}
	t.spec.PrimaryKey = columns
	if t.state < StateHasConstraints {
		t.state = StateHasConstraints
	}
	return t
}

func (t *Table) addIndex(spec IndexSpec) *Table {
	if t.err != nil {
		return t
	}
	for _, ic := range spec.Columns {
		if _, ok := t.spec.ColumnByName(ic.Name); !ok {
			t.fail("index %q references undefined column %q", spec.Name, ic.Name)
			return t
		}
	}
	if spec.Name == "" && len(spec.Columns) > 0 {
		spec.Name = buildConstraintName(t.spec.Name, spec.Columns[0].Name, indexSuffix(spec.Kind))
	}
	t.spec.Indexes = append(t.spec.Indexes, spec)
	if t.state < StateHasConstraints {
		t.state = StateHasConstraints
	}
	return t
}

// indexSuffix names an auto-generated index/constraint the same way
// PostgreSQL's own default naming does (table_column_suffix), truncated
// by buildConstraintName to fit NAMEDATALEN.
func indexSuffix(kind IndexKind) string {
	switch kind {
	case IndexUnique:
		return "key"
	case IndexFulltext:
		return "fulltext"
	default:
		return "idx"
	}
}

func columnsOf(names []string) []IndexColumn {
	cols := make([]IndexColumn, len(names))
	for i, n := range names {
		cols[i] = IndexColumn{Name: n}
	}
	return cols
}

func (t *Table) Index(columns []string, name string) *Table {
	return t.addIndex(IndexSpec{Name: name, Kind: IndexPlain, Columns: columnsOf(columns)})
}

func (t *Table) UniqueIndex(columns []string, name string) *Table {
	return t.addIndex(IndexSpec{Name: name, Kind: IndexUnique, Columns: columnsOf(columns)})
}

func (t *Table) FulltextIndex(columns []string, name string) *Table {
	return t.addIndex(IndexSpec{Name: name, Kind: IndexFulltext, Columns: columnsOf(columns)})
}

// ForeignKey declares a foreign key. Per , every local column must
// already be defined.
func (t *Table) ForeignKey(fk ForeignKeySpec) *Table {
	if t.err != nil {
		return t
	}
	for _, col := range fk.Columns {
		if _, ok := t.spec.ColumnByName(col); !ok {
			t.fail("foreign key %q references undefined column %q", fk.Name, col)
			return t
		}
	}
	if fk.Name == "" && len(fk.Columns) > 0 {
		fk.Name = buildConstraintName(t.spec.Name, fk.Columns[0], "fkey")
	}
	t.spec.ForeignKeys = append(t.spec.ForeignKeys, fk)
	if t.state < StateHasConstraints {
		t.state = StateHasConstraints
	}
	return t
}

func (t *Table) IfNotExists() *Table {
	t.spec.IfNotExists = true
	return t
}

func (t *Table) Engine(name string) *Table {
	t.spec.Engine = name
	return t
}

func (t *Table) TableCharset(name string) *Table {
	t.spec.Charset = name
	return t
}

func (t *Table) TableCollation(name string) *Table {
	t.spec.Collation = name
	return t
}

// reset returns the builder to Empty state machine.
func (t *Table) reset() {
	t.spec = TableSpec{Name: t.spec.Name}
	t.state = StateEmpty
	t.err = nil
}

// validate returns the accumulated TableSpec, checking every column's
// bounds first. It does not reset the builder — callers needing Emitted
// state call CreateTable, which does.
func (t *Table) validate() (TableSpec, error) {
	if t.err != nil {
		return TableSpec{}, t.err
	}
	for _, col := range t.spec.Columns {
		if err := validateBounds(col); err != nil {
			return TableSpec{}, err
		}
	}
	return t.spec, nil
}
