package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

// UserRepository persists User accounts.
type UserRepository interface {
	Create(tx *sql.Tx, u *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id uuid.UUID) (*models.User, error)
}

// FighterProfileRepository persists informational fighter metadata.
type FighterProfileRepository interface {
	Upsert(tx *sql.Tx, p *models.FighterProfile) error
	GetByUserID(id uuid.UUID) (*models.FighterProfile, error)
}

// RefreshTokenRepository persists and revokes session refresh tokens.
type RefreshTokenRepository interface {
	Create(tx *sql.Tx, t *models.RefreshToken) error
	GetByTokenHash(hash string) (*models.RefreshToken, error)
	Revoke(tx *sql.Tx, id uuid.UUID) error
}

// BoutRepository persists Bout aggregates.
type BoutRepository interface {
	Create(tx *sql.Tx, b *models.Bout) error
	GetByID(tx *sql.Tx, id uuid.UUID) (*models.Bout, error)
	GetByIDNoTx(id uuid.UUID) (*models.Bout, error)
	UpdateStatus(tx *sql.Tx, id uuid.UUID, status models.BoutStatus) error
	SetWinner(tx *sql.Tx, id uuid.UUID, winner models.BoutWinner) error
}

// EscrowRepository persists Escrow aggregates.
type EscrowRepository interface {
	CreateBatch(tx *sql.Tx, escrows []*models.Escrow) error
	GetByBoutID(tx *sql.Tx, boutID uuid.UUID) ([]*models.Escrow, error)
	GetByBoutIDNoTx(boutID uuid.UUID) ([]*models.Escrow, error)
	GetByBoutAndKind(tx *sql.Tx, boutID uuid.UUID, kind models.EscrowKind) (*models.Escrow, error)
	Update(tx *sql.Tx, e *models.Escrow) error
}

// AuditRepository appends and queries audit log rows.
type AuditRepository interface {
	Append(tx *sql.Tx, entry *models.AuditLog) error
	ListByEntity(entityType string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}
