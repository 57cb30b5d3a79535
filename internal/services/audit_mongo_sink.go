package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/boutledger/escrowsettle/internal/models"
)

// AuditMongoSink best-effort mirrors every audit row written to Postgres
// into a Mongo collection for downstream analytics. Postgres remains the
// durable source of truth: a mirror failure never fails the caller.
type AuditMongoSink struct {
	collection *mongo.Collection
}

// NewAuditMongoSink connects to mongoURL and returns a sink writing into
// database.audit_log_mirror. Returns an error only on connection failure;
// callers that can't run Mongo locally should treat a nil sink as "no
// mirroring configured" rather than failing startup.
func NewAuditMongoSink(mongoURL, database string) (*AuditMongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Printf("Successfully connected to MongoDB audit mirror at %s", mongoURL)
	return &AuditMongoSink{collection: client.Database(database).Collection("audit_log_mirror")}, nil
}

// Mirror writes entry to the mirror collection. Errors are logged, not
// returned: the audit service already committed the row to Postgres.
func (s *AuditMongoSink) Mirror(entry *models.AuditLog) {
	if s == nil || s.collection == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var actor string
	if entry.ActorUserID != nil {
		actor = entry.ActorUserID.String()
	}
	doc := map[string]any{
		"id":            entry.ID.String(),
		"actor_user_id": actor,
		"action":        entry.Action,
		"entity_type":   entry.EntityType,
		"entity_id":     entry.EntityID.String(),
		"outcome":       string(entry.Outcome),
		"details":       entry.Details,
		"created_at":    entry.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		log.Printf("audit mongo mirror insert failed for %s: %v", entry.ID, err)
	}
}
