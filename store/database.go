package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IDField is the distinguished key every Record is addressed by.
const IDField = "id"

// Record is one entity instance: an open field mapping plus an "id".
type Record map[string]any

// ID returns the record's id when it is a string.
func (r Record) ID() (string, bool) {
	id, ok := r[IDField].(string)
	return id, ok
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Database is the full set of collections, the unit of load and save.
//
// Keys present in the persisted document that are not recognized collections
// are kept in Extra and written back verbatim.
type Database struct {
	Collections map[string][]Record
	Extra       map[string]json.RawMessage
}

// NewDatabase returns a Database with every name mapped to an empty collection.
func NewDatabase(names []string) *Database {
	db := &Database{Collections: make(map[string][]Record, len(names))}
	for _, n := range names {
		db.Collections[n] = []Record{}
	}
	return db
}

// Collection returns the records of name in insertion order.
func (db *Database) Collection(name string) []Record {
	return db.Collections[name]
}

// SetCollection replaces the records of name.
func (db *Database) SetCollection(name string, records []Record) {
	if records == nil {
		records = []Record{}
	}
	db.Collections[name] = records
}

// Clone returns a deep copy of db.
func (db *Database) Clone() *Database {
	out := &Database{Collections: make(map[string][]Record, len(db.Collections))}
	for name, recs := range db.Collections {
		cp := make([]Record, len(recs))
		for i, r := range recs {
			cp[i] = r.Clone()
		}
		out.Collections[name] = cp
	}
	if len(db.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(db.Extra))
		for k, v := range db.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// MarshalJSON writes one object keyed by collection name.
func (db *Database) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(db.Collections)+len(db.Extra))
	for k, v := range db.Extra {
		doc[k] = v
	}
	for name, recs := range db.Collections {
		if recs == nil {
			recs = []Record{}
		}
		doc[name] = recs
	}
	return json.Marshal(doc)
}

// decodeDatabase parses a persisted document and normalizes it so every name
// is present. A recognized key whose value is not an array becomes an empty
// collection; array elements that are not objects are skipped.
func decodeDatabase(data []byte, names []string) (*Database, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode database: %w", err)
	}

	db := NewDatabase(names)
	for _, name := range names {
		msg, ok := raw[name]
		if !ok {
			continue
		}
		delete(raw, name)
		var items []any
		if err := unmarshalNumbers(msg, &items); err != nil {
			continue
		}
		recs := make([]Record, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				recs = append(recs, Record(m))
			}
		}
		db.Collections[name] = recs
	}
	if len(raw) > 0 {
		db.Extra = make(map[string]json.RawMessage, len(raw))
		for k, v := range raw {
			var buf bytes.Buffer
			if err := json.Compact(&buf, v); err != nil {
				return nil, fmt.Errorf("decode database: key %q: %w", k, err)
			}
			db.Extra[k] = buf.Bytes()
		}
	}
	return db, nil
}

// unmarshalNumbers decodes like json.Unmarshal but keeps numbers as
// json.Number so integers beyond 2^53 survive a load and save.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// Normalize returns r as it reads back after a save: nested values become
// map[string]any, []any and json.Number.
func (r Record) Normalize() (Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out Record
	if err := unmarshalNumbers(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Record:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
