package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutledger/escrowsettle/internal/models"
)

func TestEscrowRepository_CreateBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEscrowRepository(db)
	boutID := uuid.New()
	escrows := []*models.Escrow{
		{ID: uuid.New(), BoutID: boutID, Kind: models.KindShowA, Status: models.EscrowPlanned, OwnerAddress: "rOwner", DestinationAddress: "rDestA", AmountDrops: 1_000_000, FinishAfterRipple: 1000},
		{ID: uuid.New(), BoutID: boutID, Kind: models.KindShowB, Status: models.EscrowPlanned, OwnerAddress: "rOwner", DestinationAddress: "rDestB", AmountDrops: 1_000_000, FinishAfterRipple: 1000},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO escrows`)
	for _, e := range escrows {
		prep.ExpectExec().
			WithArgs(
				e.ID, e.BoutID, e.Kind, e.Status, e.OwnerAddress, e.DestinationAddress,
				e.AmountDrops, e.FinishAfterRipple, e.CancelAfterRipple, e.ConditionHex,
				e.EncryptedPreimageHex, e.OfferSequence, e.CreateTxHash, e.CloseTxHash,
				e.FailureCode, e.FailureReason, sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.CreateBatch(tx, escrows))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_GetByBoutAndKind_LocksForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEscrowRepository(db)
	boutID := uuid.New()
	escrowID := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "bout_id", "kind", "status", "owner_address", "destination_address",
		"amount_drops", "finish_after_ripple", "cancel_after_ripple", "condition_hex",
		"encrypted_preimage_hex", "offer_sequence", "create_tx_hash", "close_tx_hash",
		"failure_code", "failure_reason", "created_at", "updated_at",
	}).AddRow(
		escrowID, boutID, models.KindShowA, models.EscrowPlanned, "rOwner", "rDest",
		1_000_000, 1000, nil, nil,
		nil, nil, nil, nil,
		nil, nil, now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM escrows WHERE bout_id = \$1 AND kind = \$2 FOR UPDATE`).
		WithArgs(boutID, models.KindShowA).
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	got, err := repo.GetByBoutAndKind(tx, boutID, models.KindShowA)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, escrowID, got.ID)
	assert.Equal(t, models.EscrowPlanned, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscrowRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEscrowRepository(db)
	seq := int64(7)
	e := &models.Escrow{ID: uuid.New(), Status: models.EscrowCreated, OfferSequence: &seq}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE escrows SET status`).
		WithArgs(e.ID, e.Status, e.OfferSequence, e.CreateTxHash, e.CloseTxHash, e.FailureCode, e.FailureReason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.Update(tx, e))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
