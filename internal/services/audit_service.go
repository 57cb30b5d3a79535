package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
)

// AuditService appends one row per mutating attempt and optionally mirrors
// it into Mongo for analytics. The Postgres write always happens inside the
// caller's transaction; the Mongo mirror happens after commit and never
// affects the caller's result.
type AuditService struct {
	repo  repository.AuditRepository
	mongo *AuditMongoSink
}

// NewAuditService constructs an AuditService. mongo may be nil, meaning no
// mirror is configured.
func NewAuditService(repo repository.AuditRepository, mongo *AuditMongoSink) *AuditService {
	return &AuditService{repo: repo, mongo: mongo}
}

// Record appends entry within tx. Call MirrorAfterCommit once the caller's
// transaction has committed.
func (s *AuditService) Record(tx *sql.Tx, actorUserID *uuid.UUID, action, entityType string, entityID uuid.UUID, outcome models.AuditOutcome, details string) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Outcome:     outcome,
		Details:     details,
	}
	if err := s.repo.Append(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// MirrorAfterCommit writes entry to the Mongo mirror, if configured. Must
// only be called after the owning transaction has committed successfully.
func (s *AuditService) MirrorAfterCommit(entry *models.AuditLog) {
	if entry == nil {
		return
	}
	s.mongo.Mirror(entry)
}

// RecordTracked behaves like Record but also appends the written entry to
// trail, if non-nil, so the caller can mirror every row an operation wrote
// once its enclosing transaction has committed.
func (s *AuditService) RecordTracked(tx *sql.Tx, trail *[]*models.AuditLog, actorUserID *uuid.UUID, action, entityType string, entityID uuid.UUID, outcome models.AuditOutcome, details string) (*models.AuditLog, error) {
	entry, err := s.Record(tx, actorUserID, action, entityType, entityID, outcome, details)
	if err != nil {
		return nil, err
	}
	if trail != nil {
		*trail = append(*trail, entry)
	}
	return entry, nil
}

// MirrorTrail mirrors every entry in trail. Must only be called after the
// enclosing transaction has committed successfully.
func (s *AuditService) MirrorTrail(trail []*models.AuditLog) {
	for _, entry := range trail {
		s.MirrorAfterCommit(entry)
	}
}

// ListByEntity returns the audit trail for a single entity, most recent first.
func (s *AuditService) ListByEntity(entityType string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByEntity(entityType, entityID, limit, offset)
}
