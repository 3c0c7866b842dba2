package collection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/grinfood/pkg/collection"
)

type dish struct {
	name  string
	count int
}

func TestMapAndFilter(t *testing.T) {
	dishes := []dish{{"borscht", 3}, {"kvas", 0}, {"varenyky", 2}}

	assert.Equal(t, []string{"borscht", "kvas", "varenyky"}, collection.Map(dishes, func(d dish) string { return d.name }))
	assert.Equal(t, []dish{{"borscht", 3}, {"varenyky", 2}}, collection.Filter(dishes, func(d dish) bool { return d.count > 0 }))

	none := collection.Filter(dishes, func(dish) bool { return false })
	assert.NotNil(t, none)
	assert.Empty(t, none)
	assert.NotNil(t, collection.Map([]dish(nil), func(d dish) int { return d.count }))
}

func TestSortByIsStableAndCopies(t *testing.T) {
	in := []dish{{"b", 1}, {"a", 2}, {"c", 1}}
	out := collection.SortBy(in, func(x, y dish) bool { return x.count > y.count })

	assert.Equal(t, []dish{{"a", 2}, {"b", 1}, {"c", 1}}, out)
	assert.Equal(t, "b", in[0].name, "input untouched")
}
