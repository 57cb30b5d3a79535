package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/internal/signing"
)

// fakeBoutRepository and fakeEscrowRepository are in-memory stand-ins for
// the Postgres-backed repositories, letting the service tests exercise
// state-machine logic without a live database connection.
type fakeBoutRepository struct {
	bouts map[uuid.UUID]*models.Bout
}

func newFakeBoutRepository() *fakeBoutRepository {
	return &fakeBoutRepository{bouts: map[uuid.UUID]*models.Bout{}}
}

func (f *fakeBoutRepository) Create(_ *sql.Tx, b *models.Bout) error {
	f.bouts[b.ID] = b
	return nil
}

func (f *fakeBoutRepository) GetByID(_ *sql.Tx, id uuid.UUID) (*models.Bout, error) {
	return f.GetByIDNoTx(id)
}

func (f *fakeBoutRepository) GetByIDNoTx(id uuid.UUID) (*models.Bout, error) {
	b, ok := f.bouts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *b
	return &copy, nil
}

func (f *fakeBoutRepository) UpdateStatus(_ *sql.Tx, id uuid.UUID, status models.BoutStatus) error {
	b, ok := f.bouts[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	return nil
}

func (f *fakeBoutRepository) SetWinner(_ *sql.Tx, id uuid.UUID, winner models.BoutWinner) error {
	b, ok := f.bouts[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Winner = winner
	return nil
}

type fakeEscrowRepository struct {
	escrows map[uuid.UUID]*models.Escrow
}

func newFakeEscrowRepository() *fakeEscrowRepository {
	return &fakeEscrowRepository{escrows: map[uuid.UUID]*models.Escrow{}}
}

func (f *fakeEscrowRepository) CreateBatch(_ *sql.Tx, escrows []*models.Escrow) error {
	for _, e := range escrows {
		f.escrows[e.ID] = e
	}
	return nil
}

func (f *fakeEscrowRepository) GetByBoutID(_ *sql.Tx, boutID uuid.UUID) ([]*models.Escrow, error) {
	return f.GetByBoutIDNoTx(boutID)
}

func (f *fakeEscrowRepository) GetByBoutIDNoTx(boutID uuid.UUID) ([]*models.Escrow, error) {
	var out []*models.Escrow
	for _, e := range f.escrows {
		if e.BoutID == boutID {
			copy := *e
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeEscrowRepository) GetByBoutAndKind(_ *sql.Tx, boutID uuid.UUID, kind models.EscrowKind) (*models.Escrow, error) {
	for _, e := range f.escrows {
		if e.BoutID == boutID && e.Kind == kind {
			copy := *e
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEscrowRepository) Update(_ *sql.Tx, e *models.Escrow) error {
	if _, ok := f.escrows[e.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *e
	f.escrows[e.ID] = &copy
	return nil
}

var _ repository.BoutRepository = (*fakeBoutRepository)(nil)
var _ repository.EscrowRepository = (*fakeEscrowRepository)(nil)

type fakeAuditRepository struct {
	entries []*models.AuditLog
}

func (f *fakeAuditRepository) Append(_ *sql.Tx, entry *models.AuditLog) error {
	entry.ID = uuid.New()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepository) ListByEntity(entityType string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, e := range f.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ repository.AuditRepository = (*fakeAuditRepository)(nil)

func newFullEscrow(boutID uuid.UUID, kind models.EscrowKind) *models.Escrow {
	return &models.Escrow{
		ID:                 uuid.New(),
		BoutID:             boutID,
		Kind:               kind,
		Status:             models.EscrowPlanned,
		OwnerAddress:       "rOwner",
		DestinationAddress: "rDest",
		AmountDrops:        1_000_000,
		FinishAfterRipple:  1000,
	}
}

func setupEscrowService(t *testing.T) (*EscrowService, *fakeBoutRepository, *fakeEscrowRepository, *fakeAuditRepository, uuid.UUID) {
	t.Helper()
	bouts := newFakeBoutRepository()
	escrows := newFakeEscrowRepository()
	auditRepo := &fakeAuditRepository{}
	audit := NewAuditService(auditRepo, nil)
	signer := signing.NewAdapter(signing.ModeStub, "", "", "", time.Second)

	boutID := uuid.New()
	bouts.bouts[boutID] = &models.Bout{ID: boutID, Status: models.BoutDraft}
	for _, k := range models.AllKinds {
		e := newFullEscrow(boutID, k)
		escrows.escrows[e.ID] = e
	}

	svc := NewEscrowService(bouts, escrows, audit, signer)
	return svc, bouts, escrows, auditRepo, boutID
}

func TestEscrowService_Prepare_ReturnsAllFourViews(t *testing.T) {
	svc, _, _, _, boutID := setupEscrowService(t)

	resp, err := svc.Prepare(boutID)
	require.NoError(t, err)
	assert.Equal(t, boutID, resp.BoutID)
	assert.Len(t, resp.Escrows, 4)
	for _, v := range resp.Escrows {
		assert.NotNil(t, v.SignRequest)
		assert.Equal(t, "EscrowCreate", v.UnsignedTx["TransactionType"])
	}
}

func TestEscrowService_Prepare_RejectsUnknownBout(t *testing.T) {
	svc, _, _, _, _ := setupEscrowService(t)
	_, err := svc.Prepare(uuid.New())
	assert.Equal(t, ErrBoutNotFound, err)
}

func TestEscrowService_Confirm_SuccessDoesNotPromoteBoutUntilAllFour(t *testing.T) {
	svc, _, escrowRepo, auditRepo, boutID := setupEscrowService(t)

	var target *models.Escrow
	for _, e := range escrowRepo.escrows {
		if e.BoutID == boutID && e.Kind == models.KindShowA {
			target = e
		}
	}
	require.NotNil(t, target)

	req := &EscrowConfirmRequest{
		EscrowKind:         models.KindShowA,
		Validated:          true,
		EngineResult:       "tesSUCCESS",
		OwnerAddress:       target.OwnerAddress,
		DestinationAddress: target.DestinationAddress,
		AmountDrops:        target.AmountDrops,
		FinishAfterRipple:  target.FinishAfterRipple,
		OfferSequence:      7,
	}

	var trail []*models.AuditLog
	resp, appErr := svc.Confirm(nil, boutID, nil, req, &trail)
	require.Nil(t, appErr)
	assert.Equal(t, models.EscrowCreated, resp.EscrowStatus)
	assert.Equal(t, models.BoutDraft, resp.BoutStatus)
	assert.Len(t, trail, 1)
	assert.Len(t, auditRepo.entries, 1)
	assert.Equal(t, models.OutcomeSuccess, auditRepo.entries[0].Outcome)
}

func TestEscrowService_Confirm_PromotesBoutWhenAllFourCreated(t *testing.T) {
	svc, bouts, escrowRepo, _, boutID := setupEscrowService(t)

	for _, kind := range models.AllKinds {
		var target *models.Escrow
		for _, e := range escrowRepo.escrows {
			if e.BoutID == boutID && e.Kind == kind {
				target = e
			}
		}
		require.NotNil(t, target)

		req := &EscrowConfirmRequest{
			EscrowKind:         kind,
			Validated:          true,
			EngineResult:       "tesSUCCESS",
			OwnerAddress:       target.OwnerAddress,
			DestinationAddress: target.DestinationAddress,
			AmountDrops:        target.AmountDrops,
			FinishAfterRipple:  target.FinishAfterRipple,
			OfferSequence:      1,
		}
		var trail []*models.AuditLog
		_, appErr := svc.Confirm(nil, boutID, nil, req, &trail)
		require.Nil(t, appErr)
	}

	assert.Equal(t, models.BoutEscrowsCreated, bouts.bouts[boutID].Status)
}

func TestEscrowService_Confirm_RejectsMismatchedAmount(t *testing.T) {
	svc, _, escrowRepo, auditRepo, boutID := setupEscrowService(t)

	var target *models.Escrow
	for _, e := range escrowRepo.escrows {
		if e.BoutID == boutID && e.Kind == models.KindShowB {
			target = e
		}
	}
	require.NotNil(t, target)

	req := &EscrowConfirmRequest{
		EscrowKind:         models.KindShowB,
		Validated:          true,
		EngineResult:       "tesSUCCESS",
		OwnerAddress:       target.OwnerAddress,
		DestinationAddress: target.DestinationAddress,
		AmountDrops:        target.AmountDrops + 1,
		FinishAfterRipple:  target.FinishAfterRipple,
		OfferSequence:      1,
	}

	var trail []*models.AuditLog
	_, appErr := svc.Confirm(nil, boutID, nil, req, &trail)
	require.NotNil(t, appErr)
	assert.Equal(t, 422, appErr.HTTPStatusCode())
	assert.Len(t, auditRepo.entries, 1)
	assert.Equal(t, models.OutcomeRejected, auditRepo.entries[0].Outcome)

	updated, err := escrowRepo.GetByBoutAndKind(nil, boutID, models.KindShowB)
	require.NoError(t, err)
	require.NotNil(t, updated.FailureCode)
	assert.Equal(t, "invalid_confirmation", *updated.FailureCode)
}

func TestEscrowService_Confirm_RejectsWhenBoutNotDraft(t *testing.T) {
	svc, bouts, _, _, boutID := setupEscrowService(t)
	bouts.bouts[boutID].Status = models.BoutEscrowsCreated

	var trail []*models.AuditLog
	_, appErr := svc.Confirm(nil, boutID, nil, &EscrowConfirmRequest{EscrowKind: models.KindShowA}, &trail)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.HTTPStatusCode())
}
