package store

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/metacheck/pkg/finding"
)

// DefaultMongoDatabase is used when the URI names no database.
const DefaultMongoDatabase = "metacheck"

// Collection names.
const (
	bundlesCollection   = "bundles"
	summariesCollection = "summaries"
)

// MongoStore keeps the latest bundle per repository and every run summary
// in MongoDB. Documents keep their JSON field names.
type MongoStore struct {
	client    *mongo.Client
	bundles   *mongo.Collection
	summaries *mongo.Collection
}

// NewMongoStore connects to uri and verifies the connection. The database
// is taken from the URI path, e.g. mongodb://localhost:27017/metacheck.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	if err := requireDSN(KindMongo, uri); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, storeErr(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, storeErr(err, "ping mongodb")
	}

	db := client.Database(mongoDatabase(uri))
	return &MongoStore{
		client:    client,
		bundles:   db.Collection(bundlesCollection),
		summaries: db.Collection(summariesCollection),
	}, nil
}

func mongoDatabase(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}

// toDocument converts v to a BSON document through its JSON encoding, so
// the stored field names match the JSON output.
func toDocument(v any) (bson.M, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveBundle replaces the stored bundle of repoID.
func (s *MongoStore) SaveBundle(ctx context.Context, repoID string, b *finding.Bundle) error {
	doc, err := toDocument(b)
	if err != nil {
		return storeErr(err, "encode bundle for %s", repoID)
	}
	_, err = s.bundles.ReplaceOne(ctx,
		bson.M{"_id": repoID},
		bson.M{"_id": repoID, "bundle": doc, "updated_at": time.Now().UTC()},
		options.Replace().SetUpsert(true))
	if err != nil {
		return storeErr(err, "save bundle for %s", repoID)
	}
	return nil
}

// SaveSummary inserts the summary of a run.
func (s *MongoStore) SaveSummary(ctx context.Context, runID string, summary any) error {
	doc, err := toDocument(summary)
	if err != nil {
		return storeErr(err, "encode summary of run %s", runID)
	}
	_, err = s.summaries.ReplaceOne(ctx,
		bson.M{"_id": runID},
		bson.M{"_id": runID, "summary": doc, "created_at": time.Now().UTC()},
		options.Replace().SetUpsert(true))
	if err != nil {
		return storeErr(err, "save summary of run %s", runID)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
