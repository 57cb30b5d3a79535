package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
)

type escrowRepository struct {
	db *sql.DB
}

// NewEscrowRepository constructs a Postgres-backed EscrowRepository.
func NewEscrowRepository(db *sql.DB) EscrowRepository {
	return &escrowRepository{db: db}
}

const escrowColumns = `id, bout_id, kind, status, owner_address, destination_address,
	amount_drops, finish_after_ripple, cancel_after_ripple, condition_hex,
	encrypted_preimage_hex, offer_sequence, create_tx_hash, close_tx_hash,
	failure_code, failure_reason, created_at, updated_at`

// CreateBatch inserts all escrows for a bout in a single transaction,
// mirroring the teacher's BatchCreateSmartCheques tx.BeginTx/defer-rollback
// pattern: every escrow for a bout is planned atomically or not at all.
func (r *escrowRepository) CreateBatch(tx *sql.Tx, escrows []*models.Escrow) error {
	stmt, err := tx.Prepare(`INSERT INTO escrows (` + escrowColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range escrows {
		e.CreatedAt = now
		e.UpdatedAt = now
		if _, err := stmt.Exec(
			e.ID, e.BoutID, e.Kind, e.Status, e.OwnerAddress, e.DestinationAddress,
			e.AmountDrops, e.FinishAfterRipple, e.CancelAfterRipple, e.ConditionHex,
			e.EncryptedPreimageHex, e.OfferSequence, e.CreateTxHash, e.CloseTxHash,
			e.FailureCode, e.FailureReason, e.CreatedAt, e.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *escrowRepository) GetByBoutID(tx *sql.Tx, boutID uuid.UUID) ([]*models.Escrow, error) {
	rows, err := tx.Query(`SELECT `+escrowColumns+` FROM escrows WHERE bout_id = $1 ORDER BY kind FOR UPDATE`, boutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscrows(rows)
}

func (r *escrowRepository) GetByBoutIDNoTx(boutID uuid.UUID) ([]*models.Escrow, error) {
	rows, err := r.db.Query(`SELECT `+escrowColumns+` FROM escrows WHERE bout_id = $1 ORDER BY kind`, boutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscrows(rows)
}

func (r *escrowRepository) GetByBoutAndKind(tx *sql.Tx, boutID uuid.UUID, kind models.EscrowKind) (*models.Escrow, error) {
	row := tx.QueryRow(`SELECT `+escrowColumns+` FROM escrows WHERE bout_id = $1 AND kind = $2 FOR UPDATE`, boutID, kind)
	return scanEscrow(row)
}

func (r *escrowRepository) Update(tx *sql.Tx, e *models.Escrow) error {
	e.UpdatedAt = time.Now().UTC()
	_, err := tx.Exec(
		`UPDATE escrows SET status=$2, offer_sequence=$3, create_tx_hash=$4, close_tx_hash=$5,
		 failure_code=$6, failure_reason=$7, updated_at=$8 WHERE id = $1`,
		e.ID, e.Status, e.OfferSequence, e.CreateTxHash, e.CloseTxHash,
		e.FailureCode, e.FailureReason, e.UpdatedAt,
	)
	return err
}

func scanEscrow(row rowScanner) (*models.Escrow, error) {
	var e models.Escrow
	if err := row.Scan(
		&e.ID, &e.BoutID, &e.Kind, &e.Status, &e.OwnerAddress, &e.DestinationAddress,
		&e.AmountDrops, &e.FinishAfterRipple, &e.CancelAfterRipple, &e.ConditionHex,
		&e.EncryptedPreimageHex, &e.OfferSequence, &e.CreateTxHash, &e.CloseTxHash,
		&e.FailureCode, &e.FailureReason, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEscrows(rows *sql.Rows) ([]*models.Escrow, error) {
	var out []*models.Escrow
	for rows.Next() {
		e, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
