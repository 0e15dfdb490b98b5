package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audit actions
const (
	AuditOrderCreated        = "order.created"
	AuditOrderStatusChanged  = "order.status_changed"
	AuditOrderSettled        = "order.settled"
	AuditReceiptSubmitted    = "order.receipt_submitted"
	AuditPaymentVerified     = "order.payment_verified"
	AuditRequestStatus       = "custom_request.status_changed"
	AuditRequestMockupAdded  = "custom_request.mockup_added"
	AuditProductDeleted      = "product.deleted"
	AuditProductAvailability = "product.availability_changed"
)

// AuditEntry is one recorded state change
type AuditEntry struct {
	Entity    string                 `bson:"entity" json:"entity"`
	EntityID  string                 `bson:"entity_id" json:"entity_id"`
	Action    string                 `bson:"action" json:"action"`
	Actor     string                 `bson:"actor" json:"actor"`
	From      string                 `bson:"from,omitempty" json:"from,omitempty"`
	To        string                 `bson:"to,omitempty" json:"to,omitempty"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// AuditLog records status changes of orders, requests and products
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	History(ctx context.Context, entity, entityID string, limit int64) ([]AuditEntry, error)
}

// MongoAuditLog stores audit entries in a MongoDB collection
type MongoAuditLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoAuditLog connects to MongoDB and verifies the connection
func NewMongoAuditLog(ctx context.Context, uri, database, collection string) (*MongoAuditLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoAuditLog{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Record inserts an entry, stamping it when CreatedAt is zero
func (m *MongoAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := m.collection.InsertOne(ctx, entry)
	return err
}

// History returns the latest entries for one entity, newest first
func (m *MongoAuditLog) History(ctx context.Context, entity, entityID string, limit int64) ([]AuditEntry, error) {
	filter := bson.M{"entity": entity, "entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []AuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close disconnects the client
func (m *MongoAuditLog) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// MemoryAuditLog keeps entries in memory. It backs the API when no MongoDB
// is configured and is used by tests.
type MemoryAuditLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

// NewMemoryAuditLog creates an empty in-memory audit log
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

// Record appends an entry
func (m *MemoryAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return nil
}

// History returns the latest entries for one entity, newest first
func (m *MemoryAuditLog) History(ctx context.Context, entity, entityID string, limit int64) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.Entity != entity || e.EntityID != entityID {
			continue
		}
		out = append(out, e)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// Entries returns a copy of everything recorded
func (m *MemoryAuditLog) Entries() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]AuditEntry(nil), m.entries...)
}
