package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

type fighterProfileRepository struct {
	db *sql.DB
}

func NewFighterProfileRepository(db *sql.DB) FighterProfileRepository {
	return &fighterProfileRepository{db: db}
}

func (r *fighterProfileRepository) Upsert(tx *sql.Tx, p *models.FighterProfile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := tx.Exec(
		`INSERT INTO fighter_profiles (user_id, display_name, weight_class, record, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   weight_class = EXCLUDED.weight_class,
		   record = EXCLUDED.record`,
		p.UserID, p.DisplayName, p.WeightClass, p.Record, p.CreatedAt,
	)
	return err
}

func (r *fighterProfileRepository) GetByUserID(id uuid.UUID) (*models.FighterProfile, error) {
	row := r.db.QueryRow(
		`SELECT user_id, display_name, weight_class, record, created_at
		 FROM fighter_profiles WHERE user_id = $1`, id,
	)
	var p models.FighterProfile
	if err := row.Scan(&p.UserID, &p.DisplayName, &p.WeightClass, &p.Record, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
