package violation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_InsertionOrderPreserved(t *testing.T) {
	m := New()
	m.Insert(5, 1.0)
	m.Insert(2, 2.0)
	m.Insert(9, 3.0)

	require.Equal(t, []int{5, 2, 9}, m.Indices())
	require.Equal(t, 3, m.Len())
}

func TestMap_ReinsertDoesNotDuplicateOrder(t *testing.T) {
	m := New()
	m.Insert(1, 1.0)
	m.Insert(1, 2.0)

	require.Equal(t, []int{1}, m.Indices())
	v, ok := m.Lookup(1)
	require.True(t, ok)
	require.Equal(t, 2.0, v)
}

func TestMap_ClearEmptiesAndPreservesReuse(t *testing.T) {
	m := New()
	m.Insert(1, 1.0)
	m.Clear()

	require.Equal(t, 0, m.Len())
	_, ok := m.Lookup(1)
	require.False(t, ok)

	m.Insert(4, 4.0)
	require.Equal(t, []int{4}, m.Indices())
}
