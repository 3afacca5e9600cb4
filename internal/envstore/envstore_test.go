package envstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvdan.cc/sh/v3/expand"
)

func TestNewFromMap_ExportsEverything(t *testing.T) {
	s := NewFromMap(map[string]string{"FOO": "bar", "BAZ": "qux"})

	v := s.Get("FOO")
	assert.True(t, v.Exported)
	assert.Equal(t, "bar", v.Str)

	snap := s.Snapshot()
	assert.Equal(t, map[string]string{"FOO": "bar", "BAZ": "qux"}, snap)
}

func TestSet_RejectsReadOnlyMutation(t *testing.T) {
	s := New()
	require.NoError(t, s.SetString("LOCKED", "1", false))
	require.NoError(t, s.SetReadOnly("LOCKED"))

	err := s.Set("LOCKED", expand.Variable{Set: true, Kind: expand.String, Str: "2"})
	require.Error(t, err)
	var roErr ErrReadOnly
	require.ErrorAs(t, err, &roErr)
	assert.Equal(t, "LOCKED", roErr.Name)

	// Value is unchanged.
	assert.Equal(t, "1", s.Get("LOCKED").Str)
}

func TestSetIndexedElement_GrowsArray(t *testing.T) {
	s := New()
	require.NoError(t, s.SetIndexedElement("arr", 0, "a"))
	require.NoError(t, s.SetIndexedElement("arr", 2, "c"))

	v := s.Get("arr")
	require.Equal(t, expand.Indexed, v.Kind)
	require.Len(t, v.List, 3)
	assert.Equal(t, []string{"a", "", "c"}, v.List)
}

func TestSetAssocElement_StoresJSPrototypeLikeKeysAsOrdinaryData(t *testing.T) {
	s := New()
	for _, key := range []string{"__proto__", "constructor", "prototype"} {
		require.NoError(t, s.SetAssocElement("m", key, "x"))
		assert.Equal(t, "x", s.Get("m").Map[key])
	}
}

func TestClone_IsIndependent(t *testing.T) {
	s := New()
	require.NoError(t, s.SetIndexedElement("arr", 0, "a"))

	clone := s.Clone()
	require.NoError(t, clone.SetIndexedElement("arr", 1, "b"))

	// Mutating the clone must not touch the original.
	assert.Len(t, s.Get("arr").List, 1)
	assert.Len(t, clone.Get("arr").List, 2)
}

func TestResolveNameRef_FollowsChain(t *testing.T) {
	s := New()
	require.NoError(t, s.SetString("real", "value", false))
	require.NoError(t, s.Set("ref1", expand.Variable{Set: true, Kind: expand.NameRef, Str: "real"}))
	require.NoError(t, s.Set("ref2", expand.Variable{Set: true, Kind: expand.NameRef, Str: "ref1"}))

	assert.Equal(t, "real", s.ResolveNameRef("ref2"))
}

func TestEach_VisitsInSortedOrder(t *testing.T) {
	s := NewFromMap(map[string]string{"C": "3", "A": "1", "B": "2"})
	var seen []string
	s.Each(func(name string, _ expand.Variable) bool {
		seen = append(seen, name)
		return true
	})
	assert.Equal(t, []string{"A", "B", "C"}, seen)
}

func TestSet_UnsetRemovesVariable(t *testing.T) {
	s := New()
	require.NoError(t, s.SetString("X", "1", false))
	require.NoError(t, s.Set("X", expand.Variable{}))

	assert.Equal(t, 0, s.Len())
}
