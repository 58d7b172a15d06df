package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
	"github.com/segmentio/ksuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// keep the store in sync with the docstore contract
var _ docstore.Store = (*store)(nil)

const (
	revField     = "_rev"
	conflictBody = `{"error":"conflict","reason":"Document update conflict."}`
)

// store keeps documents keyed by their "_id" and stamps every write with a
// fresh "_rev" so conditional writes behave like Cloudant's.
type store struct {
	db *DB
}

func NewStore(db *DB) docstore.Store {
	return &store{db: db}
}

func (s *store) coll(name string) *mongo.Collection {
	return s.db.Database.Collection(name)
}

func (s *store) Find(ctx context.Context, collection string, q docstore.Query) (*docstore.ResultSet, error) {
	filter, err := toFilter(q.Selector)
	if err != nil {
		return nil, &docstore.QueryError{Status: http.StatusBadRequest, Body: err.Error()}
	}

	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(toSort(q.Sort))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.coll(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	docs := []docstore.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	return &docstore.ResultSet{Docs: docs}, nil
}

func (s *store) Upsert(ctx context.Context, collection, id string, doc docstore.Document, opts ...docstore.UpsertOption) (*docstore.WriteResult, error) {
	newRev := ksuid.New().String()
	replacement := make(bson.M, len(doc)+2)
	for k, v := range doc {
		replacement[k] = toBSONValue(v)
	}
	replacement["_id"] = id
	replacement[revField] = newRev

	filter := bson.M{"_id": id}
	replaceOpts := options.Replace().SetUpsert(true)
	if rev := docstore.ApplyUpsertOptions(opts...); rev != "" {
		filter[revField] = rev
		replaceOpts.SetUpsert(false)
	}

	res, err := s.coll(collection).ReplaceOne(ctx, filter, replacement, replaceOpts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &docstore.WriteError{Status: http.StatusConflict, Body: conflictBody}
		}
		return nil, fmt.Errorf("replace one: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return nil, &docstore.WriteError{Status: http.StatusConflict, Body: conflictBody}
	}

	status := http.StatusCreated
	if res.UpsertedCount == 0 {
		status = http.StatusOK
	}
	return &docstore.WriteResult{ID: id, Revision: newRev, Status: status}, nil
}

func (s *store) Revision(ctx context.Context, collection, id string) (string, error) {
	var doc struct {
		Rev string `bson:"_rev"`
	}
	opts := options.FindOne().SetProjection(bson.M{revField: 1})
	err := s.coll(collection).FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", docstore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find one: %w", err)
	}
	return doc.Rev, nil
}

func (s *store) Ping(ctx context.Context) ([]string, error) {
	names, err := s.db.Client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return names, nil
}

// toBSONValue turns decoded JSON numbers into BSON numbers; json.Number
// would otherwise be stored as a string.
func toBSONValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(bson.M, len(val))
		for k, item := range val {
			out[k] = toBSONValue(item)
		}
		return out
	case []any:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = toBSONValue(item)
		}
		return out
	}
	return v
}

func toFilter(selector map[string]docstore.Predicate) (bson.M, error) {
	filter := make(bson.M, len(selector))
	for field, p := range selector {
		switch p.Op {
		case docstore.OpEq:
			filter[field] = bson.M{"$eq": p.Value}
		case docstore.OpContains:
			filter[field] = bson.M{"$elemMatch": bson.M{"$eq": p.Value}}
		default:
			return nil, fmt.Errorf("unsupported operator %q on %s", p.Op, field)
		}
	}
	return filter, nil
}

func toSort(fields []docstore.SortField) bson.D {
	sort := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Direction == docstore.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}
