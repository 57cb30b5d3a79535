package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository constructs a Postgres-backed AuditRepository.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(tx *sql.Tx, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	_, err := tx.Exec(
		`INSERT INTO audit_log (id, actor_user_id, action, entity_type, entity_id, outcome, details, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.ID, entry.ActorUserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.Outcome, entry.Details, entry.CreatedAt,
	)
	return err
}

func (r *auditRepository) ListByEntity(entityType string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	rows, err := r.db.Query(
		`SELECT id, actor_user_id, action, entity_type, entity_id, outcome, details, created_at
		 FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		entityType, entityID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AuditLog
	for rows.Next() {
		var a models.AuditLog
		if err := rows.Scan(&a.ID, &a.ActorUserID, &a.Action, &a.EntityType, &a.EntityID, &a.Outcome, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
