package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

type refreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(tx *sql.Tx, t *models.RefreshToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now().UTC()
	_, err := tx.Exec(
		`INSERT INTO auth_refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.RevokedAt, t.CreatedAt,
	)
	return err
}

func (r *refreshTokenRepository) GetByTokenHash(hash string) (*models.RefreshToken, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		 FROM auth_refresh_tokens WHERE token_hash = $1`, hash,
	)
	var t models.RefreshToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *refreshTokenRepository) Revoke(tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.Exec(
		`UPDATE auth_refresh_tokens SET revoked_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	return err
}
