package logsink

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Document is the shape stored in the log collection, one per entry.
type Document struct {
	Timestamp time.Time `bson:"timestamp"`
	Level     string    `bson:"level"`
	Message   string    `bson:"message"`
	Meta      Record    `bson:"meta"`
	Label     string    `bson:"label"`
	Hostname  string    `bson:"hostname,omitempty"`
}

// NewDocument converts an entry into its stored form.
func NewDocument(e Entry, hostname string) Document {
	return Document{
		Timestamp: e.Timestamp.UTC(),
		Level:     string(e.Level),
		Message:   e.Meta.Error,
		Meta:      e.Meta,
		Label:     e.Label,
		Hostname:  hostname,
	}
}

// MongoDestination inserts entries into a MongoDB collection.
type MongoDestination struct {
	client     *mongo.Client
	collection *mongo.Collection
	hostname   string
}

// ConnectMongo connects to uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoDestination, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to log store: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging log store: %w", err)
	}

	hostname, _ := os.Hostname()

	return &MongoDestination{
		client:     client,
		collection: client.Database(database).Collection(collection),
		hostname:   hostname,
	}, nil
}

func (d *MongoDestination) Name() string { return "mongodb" }

func (d *MongoDestination) Write(ctx context.Context, e Entry) error {
	if _, err := d.collection.InsertOne(ctx, NewDocument(e, d.hostname)); err != nil {
		return fmt.Errorf("inserting log document: %w", err)
	}
	return nil
}

// Ping checks the log store is reachable. Used by the health endpoint.
func (d *MongoDestination) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *MongoDestination) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
