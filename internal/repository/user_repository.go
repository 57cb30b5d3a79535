package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a Postgres-backed UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(tx *sql.Tx, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := tx.Exec(
		`INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, role, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	)
	return scanUser(row)
}

func (r *userRepository) GetByID(id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, role, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
