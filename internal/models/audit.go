package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditOutcome classifies the result of a mutating attempt.
type AuditOutcome string

const (
	OutcomeSuccess  AuditOutcome = "success"
	OutcomeRejected AuditOutcome = "rejected"
	OutcomePending  AuditOutcome = "pending"
	OutcomeObserved AuditOutcome = "observed"
	OutcomeUnknown  AuditOutcome = "unknown"
)

// AuditLog is an append-only record of every state-changing attempt.
type AuditLog struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	ActorUserID  *uuid.UUID   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action       string       `db:"action" json:"action"`
	EntityType   string       `db:"entity_type" json:"entity_type"`
	EntityID     uuid.UUID    `db:"entity_id" json:"entity_id"`
	Outcome      AuditOutcome `db:"outcome" json:"outcome"`
	Details      string       `db:"details" json:"details,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
