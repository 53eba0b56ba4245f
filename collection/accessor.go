// Package collection provides list, get, create, update and delete over the
// named collections of a store.Store. Every collection shares the same five
// operations; they differ only by name and schema.
package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/stevemurr/farm-records/schema"
	"github.com/stevemurr/farm-records/store"
)

// ErrInvalid marks a record rejected by its collection's schema. The wrapped
// chain also carries the schema.Errors with per-field details.
var ErrInvalid = errors.New("invalid record")

// Accessor hands out Collections bound to one Store.
type Accessor struct {
	store   *store.Store
	ids     IDGenerator
	schemas map[string]map[string]any
	metrics *Metrics
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(a *Accessor) { a.ids = g }
}

// WithSchemas attaches a schema to each listed collection.
func WithSchemas(cols []schema.Collection) Option {
	return func(a *Accessor) {
		for _, c := range cols {
			if c.Schema != nil {
				a.schemas[c.Name] = c.Schema
			}
		}
	}
}

// WithMetrics counts operations.
func WithMetrics(m *Metrics) Option {
	return func(a *Accessor) { a.metrics = m }
}

func New(s *store.Store, opts ...Option) *Accessor {
	a := &Accessor{
		store:   s,
		ids:     UUIDGenerator{},
		schemas: map[string]map[string]any{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Names returns the collections the underlying Store recognizes.
func (a *Accessor) Names() []string {
	return a.store.Collections()
}

// Has reports whether name is a recognized collection.
func (a *Accessor) Has(name string) bool {
	return a.store.Recognizes(name)
}

// Collection returns the accessor for name. Asking for a collection the Store
// does not recognize is a programming error and panics; check Has first when
// the name comes from user input.
func (a *Accessor) Collection(name string) *Collection {
	if !a.Has(name) {
		panic(fmt.Sprintf("collection: unknown collection %q", name))
	}
	return &Collection{a: a, name: name, schema: a.schemas[name]}
}

// Snapshot returns a private copy of the whole Database.
func (a *Accessor) Snapshot(ctx context.Context) (*store.Database, error) {
	return a.store.Load(ctx)
}

// Verify is Snapshot without the corrupt-document fallback: unreadable
// content is reported as store.ErrCorrupt instead of an empty view.
func (a *Accessor) Verify(ctx context.Context) (*store.Database, error) {
	return a.store.LoadStrict(ctx)
}

// Collection runs the CRUD operations for one named collection.
type Collection struct {
	a      *Accessor
	name   string
	schema map[string]any
}

func (c *Collection) Name() string {
	return c.name
}

// List returns every record in insertion order.
func (c *Collection) List(ctx context.Context) ([]store.Record, error) {
	db, err := c.a.store.Load(ctx)
	c.a.metrics.observe(c.name, "list", err)
	if err != nil {
		return nil, err
	}
	return db.Collection(c.name), nil
}

// Get returns the first record whose id equals id. Only string ids match.
func (c *Collection) Get(ctx context.Context, id string) (store.Record, bool, error) {
	db, err := c.a.store.Load(ctx)
	c.a.metrics.observe(c.name, "get", err)
	if err != nil {
		return nil, false, err
	}
	recs := db.Collection(c.name)
	if i := indexOf(recs, id); i >= 0 {
		return recs[i], true, nil
	}
	return nil, false, nil
}

// Create stores fields as a new record under a freshly minted id. An "id" in
// fields is ignored. The caller's map is not modified. The returned record
// holds the values as stored, so it equals what Get later returns.
func (c *Collection) Create(ctx context.Context, fields map[string]any) (store.Record, error) {
	rec := make(store.Record, len(fields)+1)
	for k, v := range fields {
		if k != store.IDField {
			rec[k] = v
		}
	}
	rec, err := c.normalize(rec)
	if err != nil {
		c.a.metrics.observe(c.name, "create", err)
		return nil, err
	}
	rec[store.IDField] = c.a.ids.NewID()

	if err := c.validate(rec); err != nil {
		c.a.metrics.observe(c.name, "create", err)
		return nil, err
	}

	err = c.a.store.Update(ctx, func(db *store.Database) (bool, error) {
		db.SetCollection(c.name, append(db.Collection(c.name), rec))
		return true, nil
	})
	c.a.metrics.observe(c.name, "create", err)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Update shallow-merges patch onto the record with id: patch keys win and
// untouched fields survive. The id itself never changes. It reports false
// when no record matches, in which case nothing is written.
func (c *Collection) Update(ctx context.Context, id string, patch map[string]any) (store.Record, bool, error) {
	p, err := c.normalize(patch)
	if err != nil {
		c.a.metrics.observe(c.name, "update", err)
		return nil, false, err
	}
	var updated store.Record
	err = c.a.store.Update(ctx, func(db *store.Database) (bool, error) {
		recs := db.Collection(c.name)
		i := indexOf(recs, id)
		if i < 0 {
			return false, nil
		}
		merged := recs[i]
		for k, v := range p {
			if k != store.IDField {
				merged[k] = v
			}
		}
		if err := c.validate(merged); err != nil {
			return false, err
		}
		recs[i] = merged
		updated = merged.Clone()
		return true, nil
	})
	c.a.metrics.observe(c.name, "update", err)
	if err != nil {
		return nil, false, err
	}
	return updated, updated != nil, nil
}

// Delete removes the first record with id and reports whether one was
// removed. Nothing is written when no record matches.
func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := c.a.store.Update(ctx, func(db *store.Database) (bool, error) {
		recs := db.Collection(c.name)
		i := indexOf(recs, id)
		if i < 0 {
			return false, nil
		}
		db.SetCollection(c.name, slices.Delete(recs, i, i+1))
		removed = true
		return true, nil
	})
	c.a.metrics.observe(c.name, "delete", err)
	if err != nil {
		return false, err
	}
	return removed, nil
}

// normalize deep-copies fields into the shape they take once persisted.
// Values with no JSON form are rejected as invalid.
func (c *Collection) normalize(fields map[string]any) (store.Record, error) {
	rec, err := store.Record(fields).Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, c.name, err)
	}
	if rec == nil {
		rec = store.Record{}
	}
	return rec, nil
}

func (c *Collection) validate(rec store.Record) error {
	if c.schema == nil {
		return nil
	}
	if err := schema.Validate(c.schema, rec); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, c.name, err)
	}
	return nil
}

func indexOf(recs []store.Record, id string) int {
	for i, r := range recs {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}
