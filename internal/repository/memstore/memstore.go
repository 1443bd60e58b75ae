// Package memstore provides an in-memory implementation of the document
// store interface. It backs the service tests and keeps their assertions
// independent of a running MongoDB.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
)

// Store keeps documents as BSON bytes keyed by collection and id. Documents
// round-trip through bson marshalling so the same struct tags apply as with
// the real store.
type Store struct {
	mu     sync.RWMutex
	data   map[string]map[string]bson.Raw
	order  map[string][]string
	events mongodb.EventSink
	failOn map[string]error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		data:   map[string]map[string]bson.Raw{},
		order:  map[string][]string{},
		failOn: map[string]error{},
	}
}

// SetEventSink mirrors the real store's change publication hook.
func (s *Store) SetEventSink(sink mongodb.EventSink) {
	s.events = sink
}

// FailWith makes the named operation ("add", "update", "get", "query") on
// the collection return err, for fault-injection tests.
func (s *Store) FailWith(collection, op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[collection+":"+op] = err
}

func (s *Store) failure(collection, op string) error {
	return s.failOn[collection+":"+op]
}

// Insert adds a document under a generated id.
func (s *Store) Insert(ctx context.Context, collection string, doc any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure(collection, "add"); err != nil {
		return "", err
	}

	id := primitive.NewObjectID().Hex()
	raw, err := encodeWithID(doc, id)
	if err != nil {
		return "", err
	}

	if s.data[collection] == nil {
		s.data[collection] = map[string]bson.Raw{}
	}
	s.data[collection][id] = raw
	s.order[collection] = append(s.order[collection], id)

	s.publish(ctx, collection, "add", id)
	return id, nil
}

// Get fetches one document by id.
func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure(collection, "get"); err != nil {
		return err
	}

	raw, ok := s.data[collection][id]
	if !ok {
		return mongodb.ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

// Set upserts the full document under the given id.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure(collection, "update"); err != nil {
		return err
	}

	raw, err := encodeWithID(doc, id)
	if err != nil {
		return err
	}
	if s.data[collection] == nil {
		s.data[collection] = map[string]bson.Raw{}
	}
	if _, exists := s.data[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.data[collection][id] = raw

	s.publish(ctx, collection, "update", id)
	return nil
}

// Update merge-patches fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure(collection, "update"); err != nil {
		return err
	}

	raw, ok := s.data[collection][id]
	if !ok {
		return mongodb.ErrNotFound
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range fields {
		m[k] = v
	}
	updated, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	s.data[collection][id] = updated

	s.publish(ctx, collection, "update", id)
	return nil
}

// Query fetches all matching documents, in insertion order, into out
// (a pointer to a slice).
func (s *Store) Query(ctx context.Context, collection string, filter bson.M, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure(collection, "query"); err != nil {
		return err
	}

	slice := reflect.ValueOf(out).Elem()
	elemType := slice.Type().Elem()

	for _, id := range s.order[collection] {
		raw, ok := s.data[collection][id]
		if !ok {
			continue
		}
		match, err := matches(raw, filter)
		if err != nil {
			return err
		}
		if !match {
			continue
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}

// QueryOne fetches the first matching document.
func (s *Store) QueryOne(ctx context.Context, collection string, filter bson.M, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure(collection, "query"); err != nil {
		return err
	}

	for _, id := range s.order[collection] {
		raw, ok := s.data[collection][id]
		if !ok {
			continue
		}
		match, err := matches(raw, filter)
		if err != nil {
			return err
		}
		if match {
			return bson.Unmarshal(raw, out)
		}
	}
	return mongodb.ErrNotFound
}

// WithTransaction snapshots the store, runs fn, and rolls the snapshot back
// if fn fails, mimicking multi-document transaction semantics. Change
// events raised inside fn are buffered and published only on commit, like
// the real store does.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snapData := make(map[string]map[string]bson.Raw, len(s.data))
	for coll, docs := range s.data {
		cp := make(map[string]bson.Raw, len(docs))
		for id, raw := range docs {
			cp[id] = raw
		}
		snapData[coll] = cp
	}
	snapOrder := make(map[string][]string, len(s.order))
	for coll, ids := range s.order {
		snapOrder[coll] = append([]string(nil), ids...)
	}
	s.mu.Unlock()

	txCtx, buffer := mongodb.WithEventBuffer(ctx)
	if err := fn(txCtx); err != nil {
		s.mu.Lock()
		s.data = snapData
		s.order = snapOrder
		s.mu.Unlock()
		return err
	}
	buffer.Flush(s.events)
	return nil
}

func (s *Store) publish(ctx context.Context, collection, op, id string) {
	if s.events == nil {
		return
	}
	if buf, ok := mongodb.EventBufferFrom(ctx); ok {
		buf.Add(collection, op, id)
		return
	}
	s.events.DocumentChanged(collection, op, id)
}

// Count reports how many documents a collection holds (test helper).
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection])
}

func encodeWithID(doc any, id string) (bson.Raw, error) {
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["_id"] = id
	return bson.Marshal(m)
}

func matches(raw bson.Raw, filter bson.M) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return false, err
	}
	for key, want := range filter {
		got, ok := m[key]
		if ops, isOps := want.(bson.M); isOps {
			if !ok {
				return false, nil
			}
			for op, bound := range ops {
				pass, err := compare(op, got, bound)
				if err != nil {
					return false, err
				}
				if !pass {
					return false, nil
				}
			}
			continue
		}
		if !ok || !equal(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func compare(op string, got, bound any) (bool, error) {
	gt, gok := asTime(got)
	bt, bok := asTime(bound)
	if gok && bok {
		switch op {
		case "$gte":
			return !gt.Before(bt), nil
		case "$lte":
			return !gt.After(bt), nil
		case "$gt":
			return gt.After(bt), nil
		case "$lt":
			return gt.Before(bt), nil
		}
	}
	gf, gok := asFloat(got)
	bf, bok := asFloat(bound)
	if gok && bok {
		switch op {
		case "$gte":
			return gf >= bf, nil
		case "$lte":
			return gf <= bf, nil
		case "$gt":
			return gf > bf, nil
		case "$lt":
			return gf < bf, nil
		}
	}
	return false, fmt.Errorf("memstore: unsupported operator %s for %T/%T", op, got, bound)
}

func equal(got, want any) bool {
	if gs, ok := asString(got); ok {
		if ws, ok := asString(want); ok {
			return gs == ws
		}
	}
	if gf, ok := asFloat(got); ok {
		if wf, ok := asFloat(want); ok {
			return gf == wf
		}
	}
	if gb, ok := got.(bool); ok {
		if wb, ok := want.(bool); ok {
			return gb == wb
		}
	}
	if gt, ok := asTime(got); ok {
		if wt, ok := asTime(want); ok {
			return gt.Equal(wt)
		}
	}
	return reflect.DeepEqual(got, want)
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}
