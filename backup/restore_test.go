package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

func TestParseArtifactAttributesStatementsToCurrentTable(t *testing.T) {
	d := dialect.NewMySQL()
	payload := "CREATE TABLE `users` (`id` INT NOT NULL);\n" +
		"INSERT INTO `users` (`id`) VALUES (1), (2);\n" +
		"CREATE TABLE `orders` (`id` INT NOT NULL);\n" +
		"INSERT INTO `orders` (`id`) VALUES (9);\n"

	stmts := parseArtifact([]byte(payload), d)
	require.Len(t, stmts, 4)

	assert.Equal(t, "users", stmts[0].table)
	assert.Equal(t, "schema", stmts[0].kind)
	assert.Equal(t, "users", stmts[1].table)
	assert.Equal(t, "data", stmts[1].kind)
	assert.Equal(t, "orders", stmts[2].table)
	assert.Equal(t, "schema", stmts[2].kind)
	assert.Equal(t, "orders", stmts[3].table)
	assert.Equal(t, "data", stmts[3].kind)
}

func TestFilterStatementsHonorsTableSelectionAndExclusion(t *testing.T) {
	stmts := []parsedStatement{
		{table: "users", kind: "schema", sql: "CREATE TABLE users"},
		{table: "users", kind: "data", sql: "INSERT INTO users"},
		{table: "orders", kind: "schema", sql: "CREATE TABLE orders"},
		{table: "orders", kind: "data", sql: "INSERT INTO orders"},
	}

	out := filterStatements(stmts, RestoreOptions{Tables: []string{"users"}})
	require.Len(t, out, 2)
	assert.Equal(t, "users", out[0].table)
	assert.Equal(t, "users", out[1].table)

	out = filterStatements(stmts, RestoreOptions{ExcludeTables: []string{"orders"}})
	require.Len(t, out, 2)
	for _, s := range out {
		assert.Equal(t, "users", s.table)
	}
}

func TestFilterStatementsHonorsSkipSchemaAndSkipData(t *testing.T) {
	stmts := []parsedStatement{
		{table: "users", kind: "schema", sql: "CREATE TABLE users"},
		{table: "users", kind: "data", sql: "INSERT INTO users"},
	}

	out := filterStatements(stmts, RestoreOptions{SkipSchema: true})
	require.Len(t, out, 1)
	assert.Equal(t, "data", out[0].kind)

	out = filterStatements(stmts, RestoreOptions{SkipData: true})
	require.Len(t, out, 1)
	assert.Equal(t, "schema", out[0].kind)
}

func TestRewriteTableReferencesRenamesQuotedIdentifiers(t *testing.T) {
	d := dialect.NewMySQL()
	stmt := "INSERT INTO `users` (`id`) VALUES (1)"
	out := rewriteTableReferences(stmt, d, map[string]string{"users": "users_archive"})
	assert.Equal(t, "INSERT INTO `users_archive` (`id`) VALUES (1)", out)
}

func TestFilterInsertRowDropsNonMatchingTuplesAndRewritesStatement(t *testing.T) {
	stmt := "INSERT INTO `users` (`id`, `status`) VALUES (1, 'active'), (2, 'banned'), (3, 'active')"

	keepActive := func(row []string) bool {
		require.Len(t, row, 2)
		return row[1] == "'active'"
	}

	rewritten, keep := filterInsertRow(stmt, keepActive)
	require.True(t, keep)
	assert.Equal(t, "INSERT INTO `users` (`id`, `status`) VALUES (1, 'active'), (3, 'active')", rewritten)
}

func TestFilterInsertRowDropsStatementWhenEveryRowFiltered(t *testing.T) {
	stmt := "INSERT INTO `users` (`id`) VALUES (1), (2)"
	_, keep := filterInsertRow(stmt, func(row []string) bool { return false })
	assert.False(t, keep)
}

func TestSplitTuplesIgnoresParensInsideQuotedLiterals(t *testing.T) {
	tuples := splitTuples("(1, 'a(b)c'), (2, 'd')")
	require.Len(t, tuples, 2)
	assert.Equal(t, "(1, 'a(b)c')", tuples[0])
	assert.Equal(t, "(2, 'd')", tuples[1])
}

func TestSplitCSVRespectingQuotesIgnoresCommasInsideLiterals(t *testing.T) {
	parts := splitCSVRespectingQuotes("1, 'a, b', 3")
	require.Len(t, parts, 3)
	assert.Equal(t, "1", parts[0])
	assert.Equal(t, "'a, b'", parts[1])
	assert.Equal(t, "3", parts[2])
}

func TestRenamedTableFallsBackToSourceName(t *testing.T) {
	assert.Equal(t, "users", renamedTable("users", nil))
	assert.Equal(t, "users_v2", renamedTable("users", map[string]string{"users": "users_v2"}))
}
