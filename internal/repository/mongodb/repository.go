package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Store defines the document persistence operations used by the services.
type Store interface {
	Insert(ctx context.Context, collection string, doc any) (string, error)
	Get(ctx context.Context, collection, id string, out any) error
	Set(ctx context.Context, collection, id string, doc any) error
	Update(ctx context.Context, collection, id string, fields bson.M) error
	Query(ctx context.Context, collection string, filter bson.M, out any) error
	QueryOne(ctx context.Context, collection string, filter bson.M, out any) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventSink receives a notification for every committed write so live
// subscriptions can observe the change.
type EventSink interface {
	DocumentChanged(collection, op, id string)
}

// DocumentStore implements Store on top of MongoDB. Collection names are
// prefixed with the deployment AppID.
type DocumentStore struct {
	client *mongo.Client
	dbName string
	appID  string
	events EventSink
}

// NewDocumentStore connects to MongoDB and verifies the connection.
func NewDocumentStore(ctx context.Context, uri, dbName, appID string) (*DocumentStore, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &DocumentStore{
		client: client,
		dbName: dbName,
		appID:  appID,
	}, nil
}

// SetEventSink installs the sink notified after each write. Passing nil
// disables change publication.
func (s *DocumentStore) SetEventSink(sink EventSink) {
	s.events = sink
}

// Insert adds a document with a server-generated id and returns the id.
func (s *DocumentStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	res, err := s.collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}

	id := ""
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		id = oid.Hex()
	} else {
		id = fmt.Sprintf("%v", res.InsertedID)
	}

	s.publish(ctx, collection, "add", id)
	return id, nil
}

// Get fetches one document by id into out.
func (s *DocumentStore) Get(ctx context.Context, collection, id string, out any) error {
	err := s.collection(collection).FindOne(ctx, idFilter(id)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return nil
}

// Set writes the full document under the given id, creating it when absent.
// The provided doc must not carry a conflicting _id.
func (s *DocumentStore) Set(ctx context.Context, collection, id string, doc any) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection(collection).ReplaceOne(ctx, idFilter(id), doc, opts); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	s.publish(ctx, collection, "update", id)
	return nil
}

// Update merge-patches the given fields into the document.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	res, err := s.collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	s.publish(ctx, collection, "update", id)
	return nil
}

// Query fetches every document matching the filter into out (a pointer to
// a slice).
func (s *DocumentStore) Query(ctx context.Context, collection string, filter bson.M, out any) error {
	cursor, err := s.collection(collection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s results: %w", collection, err)
	}
	return nil
}

// QueryOne fetches the first document matching the filter into out.
func (s *DocumentStore) QueryOne(ctx context.Context, collection string, filter bson.M, out any) error {
	err := s.collection(collection).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query one %s: %w", collection, err)
	}
	return nil
}

// WithTransaction runs fn inside a multi-document transaction so that a
// single logical business event spanning several documents commits or
// aborts as one. Change events produced inside fn are buffered and only
// published once the transaction has committed; aborted or retried
// attempts publish nothing.
func (s *DocumentStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	var buffer *EventBuffer
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		// The session travels as a context value, so wrapping keeps it.
		txCtx, buf := WithEventBuffer(sc)
		buffer = buf
		return nil, fn(txCtx)
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	buffer.Flush(s.events)
	return nil
}

// Client exposes the underlying connection for adapters that need more
// than the document interface, like the GridFS photo store.
func (s *DocumentStore) Client() *mongo.Client {
	return s.client
}

// Close closes the MongoDB connection.
func (s *DocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *DocumentStore) collection(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.appID + "_" + name)
}

func (s *DocumentStore) publish(ctx context.Context, collection, op, id string) {
	if s.events == nil {
		return
	}
	if buf, ok := EventBufferFrom(ctx); ok {
		buf.Add(collection, op, id)
		return
	}
	s.events.DocumentChanged(collection, op, id)
}

// idFilter matches the document id whether it was stored as an ObjectID
// or as a plain string.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}
