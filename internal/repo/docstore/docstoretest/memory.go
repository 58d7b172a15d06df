// Package docstoretest provides an in-memory docstore.Store for tests.
package docstoretest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
)

// Store keeps documents per collection and records every query it serves.
// Revisions count writes, starting at "1".
type Store struct {
	mu      sync.Mutex
	colls   map[string]map[string]docstore.Document
	revs    map[string]map[string]int
	Queries []docstore.Query
	// FindErr, UpsertErr and PingErr, when set, are returned instead of
	// touching the data.
	FindErr   error
	UpsertErr func(collection, id string) error
	PingErr   error
	DBs       []string
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		colls: map[string]map[string]docstore.Document{},
		revs:  map[string]map[string]int{},
	}
}

// Put stores doc under its "_id" without revision checks.
func (s *Store) Put(collection string, docs ...docstore.Document) {
	for _, doc := range docs {
		id, _ := doc["_id"].(string)
		if _, err := s.Upsert(context.Background(), collection, id, doc); err != nil {
			panic(err)
		}
	}
}

// Get returns a copy of the stored document.
func (s *Store) Get(collection, id string) (docstore.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.colls[collection][id]
	if !ok {
		return nil, false
	}
	return clone(doc), true
}

func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.colls[collection])
}

func (s *Store) Find(_ context.Context, collection string, q docstore.Query) (*docstore.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, q)
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	docs := []docstore.Document{}
	for _, doc := range s.colls[collection] {
		if matches(doc, q.Selector) {
			docs = append(docs, clone(doc))
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return fmt.Sprint(docs[i]["_id"]) < fmt.Sprint(docs[j]["_id"])
	})
	for i := len(q.Sort) - 1; i >= 0; i-- {
		field := q.Sort[i]
		sort.SliceStable(docs, func(a, b int) bool {
			x, y := fmt.Sprint(docs[a][field.Field]), fmt.Sprint(docs[b][field.Field])
			if field.Direction == docstore.Desc {
				return x > y
			}
			return x < y
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return &docstore.ResultSet{Docs: docs}, nil
}

func (s *Store) Upsert(_ context.Context, collection, id string, doc docstore.Document, opts ...docstore.UpsertOption) (*docstore.WriteResult, error) {
	if s.UpsertErr != nil {
		if err := s.UpsertErr(collection, id); err != nil {
			return nil, err
		}
	}
	rev := docstore.ApplyUpsertOptions(opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.colls[collection] == nil {
		s.colls[collection] = map[string]docstore.Document{}
		s.revs[collection] = map[string]int{}
	}
	current, exists := s.revs[collection][id]
	if rev != "" && (!exists || strconv.Itoa(current) != rev) {
		return nil, &docstore.WriteError{Status: 409, Body: `{"error":"conflict","reason":"Document update conflict."}`}
	}

	stored := clone(doc)
	stored["_id"] = id
	current++
	stored["_rev"] = strconv.Itoa(current)
	s.colls[collection][id] = stored
	s.revs[collection][id] = current

	status := 201
	if exists {
		status = 200
	}
	return &docstore.WriteResult{ID: id, Revision: strconv.Itoa(current), Status: status}, nil
}

func (s *Store) Revision(_ context.Context, collection, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.revs[collection][id]
	if !ok {
		return "", docstore.ErrNotFound
	}
	return strconv.Itoa(rev), nil
}

func (s *Store) Ping(context.Context) ([]string, error) {
	if s.PingErr != nil {
		return nil, s.PingErr
	}
	return s.DBs, nil
}

func matches(doc docstore.Document, selector map[string]docstore.Predicate) bool {
	for field, p := range selector {
		v, ok := doc[field]
		if !ok {
			return false
		}
		switch p.Op {
		case docstore.OpEq:
			if fmt.Sprint(v) != fmt.Sprint(p.Value) {
				return false
			}
		case docstore.OpContains:
			if !contains(v, p.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func contains(list, want any) bool {
	switch items := list.(type) {
	case []string:
		for _, item := range items {
			if item == fmt.Sprint(want) {
				return true
			}
		}
	case []any:
		for _, item := range items {
			if fmt.Sprint(item) == fmt.Sprint(want) {
				return true
			}
		}
	}
	return false
}

func clone(doc docstore.Document) docstore.Document {
	out := make(docstore.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
