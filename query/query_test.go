package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

func TestSelectRendersLiterally(t *testing.T) {
	// S3: select(["id","name"]).from("u").where("status = ?", ["active"]).
	// orderBy("id","DESC").limit(10)
	s := NewSelect("id", "name").From("u").Where("status = ?", "active").OrderBy("id", "DESC").Limit(10)

	d := dialect.NewMySQL()
	sql, err := s.ToSQL(d)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM u WHERE status = ? ORDER BY id DESC LIMIT 0, 10", sql)

	bindings, err := s.Bindings(d)
	require.NoError(t, err)
	assert.Equal(t, []any{"active"}, bindings)
}

func TestPostgresLimitUsesOffsetKeyword(t *testing.T) {
	s := NewSelect("id").From("u").Limit(5).Offset(10)
	sql, err := s.ToSQL(dialect.NewPostgres())
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM u LIMIT 5 OFFSET 10", sql)
}

func TestBindingCountMatchesPlaceholderCount(t *testing.T) {
	plans := []Plan{
		NewSelect("id").From("u").Where("a = ?", 1).Where("b = ?", 2).Having("c = ?", 3),
		NewInsert("t", "a", "b").Values(1, 2).Values(3, 4),
		NewUpdate("t").Set("a", 1).Set("b", 2).Where("id = ?", 9),
		NewDelete("t").Where("id = ?", 9),
	}
	for _, p := range plans {
		for _, d := range []dialect.Dialect{dialect.NewMySQL(), dialect.NewPostgres()} {
			sql, err := p.ToSQL(d)
			require.NoError(t, err)
			bindings, err := p.Bindings(d)
			require.NoError(t, err)
			assert.Equal(t, strings.Count(sql, "?"), len(bindings), sql)
		}
	}
}

func TestToSQLIsDeterministic(t *testing.T) {
	s := NewSelect("id", "name").From("u").Where("x = ?", 1).OrderBy("id", "ASC")
	d := dialect.NewMySQL()
	a, err := s.ToSQL(d)
	require.NoError(t, err)
	b, err := s.ToSQL(d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestInsertRendersColumnsAndMultipleRows(t *testing.T) {
	i := NewInsert("users", "id", "email").Values(1, "a@example.com").Values(2, "b@example.com")
	d := dialect.NewMySQL()
	sql, err := i.ToSQL(d)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id, email) VALUES (?, ?), (?, ?)", sql)
	bindings, err := i.Bindings(d)
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a@example.com", 2, "b@example.com"}, bindings)
}

func TestInsertRejectsMismatchedRowArity(t *testing.T) {
	i := NewInsert("users", "id", "email").Values(1)
	_, err := i.ToSQL(dialect.NewMySQL())
	require.Error(t, err)
}

func TestUpdateBindingsAreDataThenWhere(t *testing.T) {
	u := NewUpdate("users").Set("name", "bob").Set("active", true).Where("id = ?", 42)
	d := dialect.NewMySQL()
	sql, err := u.ToSQL(d)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = ?, active = ? WHERE id = ?", sql)
	bindings, err := u.Bindings(d)
	require.NoError(t, err)
	assert.Equal(t, []any{"bob", true, 42}, bindings)
}

func TestDeleteRendersWhere(t *testing.T) {
	del := NewDelete("users").Where("id = ?", 1)
	sql, err := del.ToSQL(dialect.NewMySQL())
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = ?", sql)
}

func TestCTEIsEmittedBeforeOuterStatement(t *testing.T) {
	inner := NewSelect("id").From("orders").Where("total > ?", 100)
	outer := NewSelect("id").From("recent").Where("id = ?", 1).With("recent", inner)
	d := dialect.NewMySQL()
	sql, err := outer.ToSQL(d)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "WITH "))
	assert.Contains(t, sql, "AS (SELECT id FROM orders WHERE total > ?)")

	bindings, err := outer.Bindings(d)
	require.NoError(t, err)
	// CTE binding (100) precedes the outer WHERE binding (1).
	assert.Equal(t, []any{100, 1}, bindings)
}

func TestJoinRendersKeywordAndCondition(t *testing.T) {
	s := NewSelect("u.id").From("users", "u").
		Join(LeftJoin, "orders", "o", "o.user_id = u.id AND o.status = ?", "paid")
	d := dialect.NewMySQL()
	sql, err := s.ToSQL(d)
	require.NoError(t, err)
	assert.Equal(t, "SELECT u.id FROM users u LEFT JOIN orders o ON o.user_id = u.id AND o.status = ?", sql)
}

func TestSubqueryFromSourceInlinesSQL(t *testing.T) {
	sub := NewSelect("user_id").From("orders").Where("total > ?", 50)
	outer := NewSelect("user_id").FromSub(sub, "big_orders")
	d := dialect.NewMySQL()
	sql, err := outer.ToSQL(d)
	require.NoError(t, err)
	assert.Equal(t, "SELECT user_id FROM (SELECT user_id FROM orders WHERE total > ?) big_orders", sql)
}

func TestExistsInlinesSubplanWithPrefix(t *testing.T) {
	sub := NewSelect("1").From("orders").Where("orders.user_id = users.id")
	frag, bindings, err := Exists(dialect.NewMySQL(), false, sub)
	require.NoError(t, err)
	assert.Equal(t, "EXISTS (SELECT 1 FROM orders WHERE orders.user_id = users.id)", frag)
	assert.Empty(t, bindings)

	frag, _, err = Exists(dialect.NewMySQL(), true, sub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(frag, "NOT EXISTS ("))
}

func TestSimpleCaseMatchesLiteralValues(t *testing.T) {
	c := Simple("status").
		When("active", "Active").
		When("inactive", "Inactive").
		SetElse("Unknown")
	sql, bindings, err := c.Render(dialect.NewMySQL())
	require.NoError(t, err)
	assert.Equal(t, "CASE status WHEN ? THEN ? WHEN ? THEN ? ELSE ? END", sql)
	assert.Equal(t, []any{"active", "Active", "inactive", "Inactive", "Unknown"}, bindings)
}

func TestSearchedCaseUsesConditionBindings(t *testing.T) {
	c := Searched().
		When("age < ?", "minor", 18).
		SetElse("adult")
	sql, bindings, err := c.Render(dialect.NewMySQL())
	require.NoError(t, err)
	assert.Equal(t, "CASE WHEN age < ? THEN ? ELSE ? END", sql)
	assert.Equal(t, []any{18, "minor", "adult"}, bindings)
}

func TestCaseResultPassesThroughFunctionAndColumnReferences(t *testing.T) {
	c := Searched().When("1 = 1", "NOW()")
	sql, bindings, err := c.Render(dialect.NewMySQL())
	require.NoError(t, err)
	assert.Equal(t, "CASE WHEN 1 = 1 THEN NOW() END", sql)
	assert.Empty(t, bindings)

	c2 := Searched().When("1 = 1", "`other_col`")
	sql2, bindings2, err := c2.Render(dialect.NewMySQL())
	require.NoError(t, err)
	assert.Equal(t, "CASE WHEN 1 = 1 THEN `other_col` END", sql2)
	assert.Empty(t, bindings2)
}

func TestCaseRequiresAtLeastOneWhen(t *testing.T) {
	_, _, err := Searched().Render(dialect.NewMySQL())
	require.Error(t, err)
}

func TestSelectMissingFromIsBuilderError(t *testing.T) {
	_, err := NewSelect("id").ToSQL(dialect.NewMySQL())
	require.Error(t, err)
}
