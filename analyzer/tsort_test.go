package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func indexOf(tables []Table, name string) int {
	for i, t := range tables {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func TestTopologicalOrderPlacesReferencedTableFirst(t *testing.T) {
	// orders references users; users must precede orders. Satisfies
	//: "each table precedes every table that
	// references it."
	tables := []Table{
		{Name: "orders", ForeignKeys: []ForeignKey{{ReferencedTable: "users"}}},
		{Name: "users"},
	}
	sorted := TopologicalOrder(tables, nil)
	assert.Less(t, indexOf(sorted, "users"), indexOf(sorted, "orders"))
	assert.Len(t, sorted, 2)
}

func TestTopologicalOrderHandlesDiamondDependency(t *testing.T) {
	tables := []Table{
		{Name: "d", ForeignKeys: []ForeignKey{{ReferencedTable: "b"}, {ReferencedTable: "c"}}},
		{Name: "b", ForeignKeys: []ForeignKey{{ReferencedTable: "a"}}},
		{Name: "c", ForeignKeys: []ForeignKey{{ReferencedTable: "a"}}},
		{Name: "a"},
	}
	sorted := TopologicalOrder(tables, nil)
	assert.Less(t, indexOf(sorted, "a"), indexOf(sorted, "b"))
	assert.Less(t, indexOf(sorted, "a"), indexOf(sorted, "c"))
	assert.Less(t, indexOf(sorted, "b"), indexOf(sorted, "d"))
	assert.Less(t, indexOf(sorted, "c"), indexOf(sorted, "d"))
}

func TestTopologicalOrderToleratesCycles(t *testing.T) {
	// a -> b -> a is a cycle; this must not abort the
	// sort, both tables must still appear exactly once.
	tables := []Table{
		{Name: "a", ForeignKeys: []ForeignKey{{ReferencedTable: "b"}}},
		{Name: "b", ForeignKeys: []ForeignKey{{ReferencedTable: "a"}}},
	}
	sorted := TopologicalOrder(tables, nil)
	assert.Len(t, sorted, 2)
	assert.GreaterOrEqual(t, indexOf(sorted, "a"), 0)
	assert.GreaterOrEqual(t, indexOf(sorted, "b"), 0)
}

func TestTopologicalOrderExcludesSelfReferenceFromDependencies(t *testing.T) {
	tables := []Table{
		{Name: "categories", ForeignKeys: []ForeignKey{{ReferencedTable: "categories"}}},
	}
	sorted := TopologicalOrder(tables, nil)
	assert.Len(t, sorted, 1)
	assert.Equal(t, "categories", sorted[0].Name)
}

func TestSameSetIsOrderInsensitive(t *testing.T) {
	assert.True(t, sameSet([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, sameSet([]string{"a", "b"}, []string{"a"}))
	assert.False(t, sameSet([]string{"a"}, []string{"b"}))
}

func TestClassifyDefaultRecognizesFunctionDefaults(t *testing.T) {
	d := classifyDefault("CURRENT_TIMESTAMP")
	assert.True(t, d.IsFunction)
	assert.Equal(t, "CURRENT_TIMESTAMP", d.Function)

	lit := classifyDefault("'active'")
	assert.False(t, lit.IsFunction)
	assert.Equal(t, "'active'", lit.Literal)
}

func TestBaseTypeMapsCommonMySQLTypes(t *testing.T) {
	assert.Equal(t, "string", baseType("varchar"))
	assert.Equal(t, "integer", baseType("bigint"))
	assert.Equal(t, "decimal", baseType("decimal"))
	assert.Equal(t, "datetime", baseType("timestamp"))
	assert.Equal(t, "json", baseType("json"))
}
