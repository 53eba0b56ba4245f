// Package seed populates an empty farm database with sample records.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"

	"github.com/stevemurr/farm-records/collection"
)

//go:embed sample.jsonc
var sample []byte

// Sample returns the embedded sample records keyed by collection name.
func Sample() (map[string][]map[string]any, error) {
	return parse(sample)
}

func parse(data []byte) (map[string][]map[string]any, error) {
	standardized, err := hujson.Standardize(append([]byte(nil), data...))
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	var out map[string][]map[string]any
	if err := json.Unmarshal(standardized, &out); err != nil {
		return nil, fmt.Errorf("invalid sample data: %w", err)
	}
	return out, nil
}

// Seed inserts the embedded sample records when every collection is empty
// and returns how many records it created. A database holding any record is
// left alone.
func Seed(ctx context.Context, acc *collection.Accessor) (int, error) {
	data, err := Sample()
	if err != nil {
		return 0, err
	}
	return Records(ctx, acc, data)
}

// Records inserts data the same way Seed does. Collections are filled in the
// accessor's registration order; a key naming an unknown collection is an
// error and nothing is written. A document that exists but cannot be parsed
// is never treated as empty: Records returns store.ErrCorrupt and leaves it
// alone.
func Records(ctx context.Context, acc *collection.Accessor, data map[string][]map[string]any) (int, error) {
	for name := range data {
		if !acc.Has(name) {
			return 0, fmt.Errorf("seed: unknown collection %q", name)
		}
	}

	db, err := acc.Verify(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	for _, name := range acc.Names() {
		if len(db.Collection(name)) > 0 {
			return 0, nil
		}
	}

	created := 0
	for _, name := range acc.Names() {
		c := acc.Collection(name)
		for _, rec := range data[name] {
			if _, err := c.Create(ctx, rec); err != nil {
				return created, fmt.Errorf("seed %s: %w", name, err)
			}
			created++
		}
	}
	return created, nil
}
