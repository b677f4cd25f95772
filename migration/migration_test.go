package migration

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/analyzer"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

func usersAndOrders() []analyzer.Table {
	return []analyzer.Table{
		{
			Name: "orders",
			Columns: []analyzer.Column{
				{Name: "id", DataType: "int", BaseType: "integer"},
				{Name: "user_id", DataType: "int", BaseType: "integer"},
			},
			Indexes: []analyzer.Index{
				{Name: "PRIMARY", Primary: true, Unique: true, Columns: []analyzer.IndexColumn{{Name: "id"}}},
			},
			ForeignKeys: []analyzer.ForeignKey{
				{Name: "fk_orders_user", Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
			},
		},
		{
			Name: "users",
			Columns: []analyzer.Column{
				{Name: "id", DataType: "int", BaseType: "integer"},
				{Name: "email", DataType: "varchar", BaseType: "string", Length: 150},
			},
			Indexes: []analyzer.Index{
				{Name: "PRIMARY", Primary: true, Unique: true, Columns: []analyzer.IndexColumn{{Name: "id"}}},
			},
		},
	}
}

func TestGenerateOrdersTablesBeforeReferencingTable(t *testing.T) {
	g := NewGenerator(dialect.NewMySQL())
	files, err := g.Generate(usersAndOrders(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, files, 1)

	up := files[0].Up
	usersIdx := strings.Index(up, "CREATE TABLE IF NOT EXISTS `users`")
	ordersIdx := strings.Index(up, "CREATE TABLE IF NOT EXISTS `orders`")
	require.GreaterOrEqual(t, usersIdx, 0)
	require.GreaterOrEqual(t, ordersIdx, 0)
	assert.Less(t, usersIdx, ordersIdx)
}

func TestGenerateDownDropsInReverseOrder(t *testing.T) {
	g := NewGenerator(dialect.NewMySQL())
	files, err := g.Generate(usersAndOrders(), DefaultOptions())
	require.NoError(t, err)

	down := files[0].Down
	ordersIdx := strings.Index(down, "DROP TABLE `orders`")
	usersIdx := strings.Index(down, "DROP TABLE `users`")
	require.GreaterOrEqual(t, ordersIdx, 0)
	require.GreaterOrEqual(t, usersIdx, 0)
	assert.Less(t, ordersIdx, usersIdx)
}

func TestGenerateSplitRespectsTablesPerFile(t *testing.T) {
	g := NewGenerator(dialect.NewMySQL())
	opts := DefaultOptions()
	opts.Split = true
	opts.TablesPerFile = 1
	files, err := g.Generate(usersAndOrders(), opts)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, 0, files[0].Sequence)
	assert.Equal(t, 1, files[1].Sequence)
}

func TestGenerateCommentHeaderOptIn(t *testing.T) {
	g := NewGenerator(dialect.NewMySQL())
	opts := DefaultOptions()
	opts.Comment = true
	files, err := g.Generate(usersAndOrders(), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(files[0].Up, "-- generated by simplemdb"))
}

func TestGenerateForeignKeysOmittedWhenDisabled(t *testing.T) {
	g := NewGenerator(dialect.NewMySQL())
	opts := DefaultOptions()
	opts.GenerateForeignKeys = false
	files, err := g.Generate(usersAndOrders(), opts)
	require.NoError(t, err)
	assert.NotContains(t, files[0].Up, "FOREIGN KEY")
}

func TestGenerateIndexesOmittedWhenDisabled(t *testing.T) {
	g := NewGenerator(dialect.NewMySQL())
	opts := DefaultOptions()
	opts.GenerateIndexes = false
	tables := usersAndOrders()
	tables[0].Indexes = append(tables[0].Indexes, analyzer.Index{
		Name: "orders_user_idx", Columns: []analyzer.IndexColumn{{Name: "user_id"}},
	})
	files, err := g.Generate(tables, opts)
	require.NoError(t, err)
	assert.NotContains(t, files[0].Up, "orders_user_idx")
}

func TestSequenceTimestampIncrementsBySecondPerFile(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := SequenceTimestamp(base, 0)
	second := SequenceTimestamp(base, 1)
	assert.Equal(t, int64(1), second.Unix()-first.Unix())
}
