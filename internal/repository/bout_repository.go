package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

type boutRepository struct {
	db *sql.DB
}

// NewBoutRepository constructs a Postgres-backed BoutRepository.
func NewBoutRepository(db *sql.DB) BoutRepository {
	return &boutRepository{db: db}
}

const boutColumns = `id, promoter_user_id, fighter_a_user_id, fighter_b_user_id,
	event_datetime_utc, finish_after_utc, cancel_after_utc,
	show_a_drops, show_b_drops, bonus_a_drops, bonus_b_drops,
	status, winner, created_at, updated_at`

func (r *boutRepository) Create(tx *sql.Tx, b *models.Bout) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := tx.Exec(
		`INSERT INTO bouts (`+boutColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		b.ID, b.PromoterUserID, b.FighterAUserID, b.FighterBUserID,
		b.EventDatetimeUTC, b.FinishAfterUTC, b.CancelAfterUTC,
		b.ShowA, b.ShowB, b.BonusA, b.BonusB,
		b.Status, b.Winner, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (r *boutRepository) GetByID(tx *sql.Tx, id uuid.UUID) (*models.Bout, error) {
	row := tx.QueryRow(`SELECT `+boutColumns+` FROM bouts WHERE id = $1 FOR UPDATE`, id)
	return scanBout(row)
}

func (r *boutRepository) GetByIDNoTx(id uuid.UUID) (*models.Bout, error) {
	row := r.db.QueryRow(`SELECT `+boutColumns+` FROM bouts WHERE id = $1`, id)
	return scanBout(row)
}

func (r *boutRepository) UpdateStatus(tx *sql.Tx, id uuid.UUID, status models.BoutStatus) error {
	_, err := tx.Exec(
		`UPDATE bouts SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	return err
}

func (r *boutRepository) SetWinner(tx *sql.Tx, id uuid.UUID, winner models.BoutWinner) error {
	_, err := tx.Exec(
		`UPDATE bouts SET winner = $2, updated_at = $3 WHERE id = $1`,
		id, winner, time.Now().UTC(),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBout(row rowScanner) (*models.Bout, error) {
	var b models.Bout
	if err := row.Scan(
		&b.ID, &b.PromoterUserID, &b.FighterAUserID, &b.FighterBUserID,
		&b.EventDatetimeUTC, &b.FinishAfterUTC, &b.CancelAfterUTC,
		&b.ShowA, &b.ShowB, &b.BonusA, &b.BonusB,
		&b.Status, &b.Winner, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
