package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase = "decisionforest"
	mongoCollection      = "class_forests"
)

// MongoStore keeps documents in the class_forests collection, one per name.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return NewMongoStoreFromDatabase(client.Database(database)), nil
}

// NewMongoStoreFromDatabase wraps an already connected database. Close
// disconnects its client.
func NewMongoStoreFromDatabase(database *mongo.Database) *MongoStore {
	return &MongoStore{client: database.Client(), database: database}
}

func (s *MongoStore) Save(ctx context.Context, doc *Document) error {
	if err := checkName(doc.Name); err != nil {
		return err
	}
	_, err := s.database.Collection(mongoCollection).ReplaceOne(ctx, bson.D{{Key: "name", Value: doc.Name}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving %q: %w", doc.Name, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (*Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	result := s.database.Collection(mongoCollection).FindOne(ctx, bson.D{{Key: "name", Value: name}})
	if errors.Is(result.Err(), mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("loading %q: %w", name, result.Err())
	}
	var doc Document
	if err := result.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", name, err)
	}
	return &doc, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// mongoDatabase is the database named in the path of a connection string.
func mongoDatabase(u *url.URL) string {
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db
	}
	return defaultMongoDatabase
}
