package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLQuote(t *testing.T) {
	d := NewMySQL()
	assert.Equal(t, "`users`", d.Quote("users"))
	assert.Equal(t, "`a``b`", d.Quote("a`b"))
}

func TestPostgresQuote(t *testing.T) {
	d := NewPostgres()
	assert.Equal(t, `"users"`, d.Quote("users"))
	assert.Equal(t, `"a""b"`, d.Quote(`a"b`))
}

func TestReservedWordsCaseInsensitive(t *testing.T) {
	d := NewMySQL()
	assert.True(t, d.IsReserved("select"))
	assert.True(t, d.IsReserved("SELECT"))
	assert.True(t, d.IsReserved("Select"))
	assert.False(t, d.IsReserved("users"))

	pg := NewPostgres()
	assert.True(t, pg.IsReserved("TABLE"))
	assert.False(t, pg.IsReserved("users"))
}

func TestMaxIdentifierLength(t *testing.T) {
	assert.Equal(t, 64, NewMySQL().MaxIdentifierLength())
	assert.Equal(t, 63, NewPostgres().MaxIdentifierLength())
}

func TestMySQLUnsignedIntMapping(t *testing.T) {
	d := NewMySQL()
	sqlType, extra, err := d.MapColumnType(ColumnType{Kind: TypeInt, Unsigned: true})
	require.NoError(t, err)
	assert.Equal(t, "INT UNSIGNED", sqlType)
	assert.Empty(t, extra)
}

func TestPostgresUnsignedIntMapsToCheckedInteger(t *testing.T) {
	d := NewPostgres()
	sqlType, extra, err := d.MapColumnType(ColumnType{Kind: TypeInt, Unsigned: true})
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", sqlType)
	require.Len(t, extra, 1)
	assert.Contains(t, extra[0], "CHECK")
}

func TestPostgresAutoIncrementUsesSerial(t *testing.T) {
	d := NewPostgres()
	sqlType, _, err := d.MapColumnType(ColumnType{Kind: TypeBigInt, AutoIncrement: true})
	require.NoError(t, err)
	assert.Equal(t, "BIGSERIAL", sqlType)
}

func TestPlaceholderStyles(t *testing.T) {
	assert.Equal(t, "?", NewMySQL().Placeholder(3))
	assert.Equal(t, "$3", NewPostgres().Placeholder(3))
}

func TestForUnknownKind(t *testing.T) {
	_, err := For(Kind(99))
	require.Error(t, err)
}
