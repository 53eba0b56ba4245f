package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevemurr/farm-records/collection"
	"github.com/stevemurr/farm-records/schema"
	"github.com/stevemurr/farm-records/seed"
	"github.com/stevemurr/farm-records/store"
)

func newAccessor() (*collection.Accessor, *store.MemoryResource) {
	res := store.NewMemoryResource()
	s := store.New(res, schema.Names())
	return collection.New(s, collection.WithSchemas(schema.Farm())), res
}

func TestSampleCoversKnownCollections(t *testing.T) {
	data, err := seed.Sample()
	require.NoError(t, err)
	for name, recs := range data {
		_, ok := schema.Lookup(name)
		require.True(t, ok, "sample collection %s is not registered", name)
		require.NotEmpty(t, recs)
	}
	require.Len(t, data["clients"], 2)
	require.Len(t, data["livestock"], 3)
	require.Equal(t, float64(500), data["financials"][0]["amount"])
}

func TestSeedEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	acc, _ := newAccessor()

	data, err := seed.Sample()
	require.NoError(t, err)
	want := 0
	for _, recs := range data {
		want += len(recs)
	}

	n, err := seed.Seed(ctx, acc)
	require.NoError(t, err)
	require.Equal(t, want, n)

	livestock, err := acc.Collection("livestock").List(ctx)
	require.NoError(t, err)
	require.Len(t, livestock, 3)
	require.Equal(t, "A-01", livestock[0]["tag"])
	for _, r := range livestock {
		id, ok := r.ID()
		require.True(t, ok)
		require.NotEmpty(t, id)
	}
}

func TestSeedSkipsPopulatedDatabase(t *testing.T) {
	ctx := context.Background()
	acc, res := newAccessor()

	_, err := acc.Collection("equipment").Create(ctx, map[string]any{"name": "Baler"})
	require.NoError(t, err)
	writes := res.Writes()

	n, err := seed.Seed(ctx, acc)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, writes, res.Writes())

	crops, err := acc.Collection("crops").List(ctx)
	require.NoError(t, err)
	require.Empty(t, crops)
}

func TestSeedTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	acc, _ := newAccessor()

	_, err := seed.Seed(ctx, acc)
	require.NoError(t, err)
	n, err := seed.Seed(ctx, acc)
	require.NoError(t, err)
	require.Zero(t, n)

	clients, err := acc.Collection("clients").List(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
}

func TestRecordsRejectsUnknownCollection(t *testing.T) {
	ctx := context.Background()
	acc, res := newAccessor()

	_, err := seed.Records(ctx, acc, map[string][]map[string]any{
		"spaceships": {{"name": "Apollo"}},
	})
	require.Error(t, err)
	require.Nil(t, res.Bytes())
}

func TestRecordsStopsOnInvalidRecord(t *testing.T) {
	ctx := context.Background()
	acc, _ := newAccessor()

	_, err := seed.Records(ctx, acc, map[string][]map[string]any{
		"inventory": {{"item_name": "Shovel"}},
	})
	require.ErrorIs(t, err, collection.ErrInvalid)
}

func TestSeedRefusesCorruptDatabase(t *testing.T) {
	ctx := context.Background()
	corrupt := []byte(`{"crops":[{"id":"1","crop":"Corn"}],`)
	res := store.NewMemoryResourceWith(corrupt)
	acc := collection.New(store.New(res, schema.Names()), collection.WithSchemas(schema.Farm()))

	n, err := seed.Seed(ctx, acc)
	require.ErrorIs(t, err, store.ErrCorrupt)
	require.Zero(t, n)
	require.Zero(t, res.Writes())
	require.Equal(t, corrupt, res.Bytes())
}
