package collection_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stevemurr/farm-records/collection"
)

func TestSequenceGeneratorStrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &collection.SequenceGenerator{Now: func() time.Time { return fixed }}

	require.Equal(t, "1700000000000", g.NewID())
	require.Equal(t, "1700000000001", g.NewID())
	require.Equal(t, "1700000000002", g.NewID())
}

func TestSequenceGeneratorPrefix(t *testing.T) {
	g := &collection.SequenceGenerator{
		Prefix: "livestock_",
		Now:    func() time.Time { return time.UnixMilli(42) },
	}
	require.Equal(t, "livestock_42", g.NewID())
}

func TestUUIDGeneratorUnique(t *testing.T) {
	var g collection.UUIDGenerator
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := g.NewID()
		require.Len(t, id, 36)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestNewIDGenerator(t *testing.T) {
	g, err := collection.NewIDGenerator("")
	require.NoError(t, err)
	require.IsType(t, collection.UUIDGenerator{}, g)

	g, err = collection.NewIDGenerator("sequence")
	require.NoError(t, err)
	require.IsType(t, &collection.SequenceGenerator{}, g)

	_, err = collection.NewIDGenerator("snowflake")
	var unknown *collection.UnknownStrategyError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "snowflake", unknown.Strategy)
	require.True(t, strings.Contains(err.Error(), "supported"))
}
