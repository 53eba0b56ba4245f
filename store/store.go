// Package store owns the farm Database document and the resource it is
// persisted to.
//
// A Store reads and writes the whole Database at once through a Resource
// (JSON file, SQLite row, Postgres row, S3 object or memory) and keeps the
// last loaded snapshot in a Cache until the next successful write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrNotExist is returned by a Resource when nothing has been persisted yet.
	ErrNotExist = errors.New("store: resource does not exist")

	// ErrCorrupt is returned by LoadStrict, and by Load in strict mode, when
	// the persisted document cannot be parsed.
	ErrCorrupt = errors.New("store: persisted document is corrupt")
)

// Resource is the backing location of the serialized Database. It is the only
// code that touches the disk or the network.
type Resource interface {
	// Read returns the persisted document. It returns an error matching
	// ErrNotExist when nothing has been written yet.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the persisted document. A subsequent Read observes
	// either the previous document or data, never a mix.
	Write(ctx context.Context, data []byte) error

	// String names the resource for logs.
	String() string
}

// Store loads and saves the Database through a Resource.
//
// All resource access is serialized on one mutex, so a read-modify-write done
// through Update never loses a concurrent update made through this Store.
type Store struct {
	mu      sync.Mutex
	res     Resource
	cache   *Cache
	names   []string
	strict  bool
	log     zerolog.Logger
	metrics *Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithCache injects the snapshot cache. Stores sharing a Cache must share the
// Resource too.
func WithCache(c *Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithStrictLoad makes Load fail with ErrCorrupt instead of degrading to an
// empty Database when the persisted document cannot be parsed.
func WithStrictLoad(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithMetrics records load and save counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns a Store over res that recognizes the given collection names.
func New(res Resource, collections []string, opts ...Option) *Store {
	s := &Store{
		res:   res,
		names: append([]string(nil), collections...),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache()
	}
	return s
}

// Collections returns the recognized collection names in registration order.
func (s *Store) Collections() []string {
	return append([]string(nil), s.names...)
}

// Recognizes reports whether name is one of the Store's collections.
func (s *Store) Recognizes(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// Load returns the current Database. The returned value is a private copy
// that the caller may mutate freely.
func (s *Store) Load(ctx context.Context) (*Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.load(ctx, s.strict)
	if err != nil {
		return nil, err
	}
	return db.Clone(), nil
}

// LoadStrict is Load with strict mode forced on: a document that cannot be
// parsed yields ErrCorrupt regardless of WithStrictLoad.
func (s *Store) LoadStrict(ctx context.Context) (*Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return db.Clone(), nil
}

// Save persists db in full and invalidates the cache. A failed write leaves
// the cache untouched.
func (s *Store) Save(ctx context.Context, db *Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, db)
}

// Update runs fn against a private copy of the current Database while holding
// the Store lock and saves the copy when fn reports a change. Errors from fn
// are returned as-is and nothing is written.
func (s *Store) Update(ctx context.Context, fn func(db *Database) (changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.load(ctx, s.strict)
	if err != nil {
		return err
	}
	db = db.Clone()
	changed, err := fn(db)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(ctx, db)
}

// load returns the cached snapshot or reads it from the resource. The result
// may be the cached instance and must not be mutated. Corrupt documents are
// never cached, so a cache hit is always well formed.
func (s *Store) load(ctx context.Context, strict bool) (*Database, error) {
	if db, ok := s.cache.Get(); ok {
		s.metrics.load(loadCache)
		return db, nil
	}

	data, err := s.res.Read(ctx)
	if errors.Is(err, ErrNotExist) {
		db := NewDatabase(s.names)
		if err := s.save(ctx, db); err != nil {
			return nil, err
		}
		s.log.Info().Str("resource", s.res.String()).Msg("created empty farm database")
		s.cache.Set(db)
		s.metrics.load(loadCreated)
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.res, err)
	}

	db, err := decodeDatabase(data, s.names)
	if err != nil {
		s.metrics.load(loadCorrupt)
		if strict {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.res, err)
		}
		s.log.Error().Err(err).Str("resource", s.res.String()).
			Msg("failed to parse farm database, serving empty collections")
		return NewDatabase(s.names), nil
	}
	s.cache.Set(db)
	s.metrics.load(loadResource)
	return db, nil
}

func (s *Store) save(ctx context.Context, db *Database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		s.metrics.save(false)
		return fmt.Errorf("store: encode database: %w", err)
	}
	if err := s.res.Write(ctx, data); err != nil {
		s.metrics.save(false)
		return fmt.Errorf("store: write %s: %w", s.res, err)
	}
	s.cache.Invalidate()
	s.metrics.save(true)
	return nil
}
