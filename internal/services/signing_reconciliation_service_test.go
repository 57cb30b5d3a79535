package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/signing"
)

func setupSigningReconciliation(t *testing.T) (*SigningReconciliationService, *fakeEscrowRepository, *fakeAuditRepository, uuid.UUID) {
	t.Helper()
	escrows := newFakeEscrowRepository()
	auditRepo := &fakeAuditRepository{}
	audit := NewAuditService(auditRepo, nil)
	signer := signing.NewAdapter(signing.ModeStub, "", "", "", time.Second)

	boutID := uuid.New()
	e := newFullEscrow(boutID, models.KindShowA)
	escrows.escrows[e.ID] = e

	return NewSigningReconciliationService(escrows, audit, signer), escrows, auditRepo, boutID
}

func TestSigningReconciliation_ObservedDeclined_StampsFailure(t *testing.T) {
	svc, escrows, auditRepo, boutID := setupSigningReconciliation(t)

	var trail []*models.AuditLog
	resp, appErr := svc.Reconcile(nil, boutID, nil, &SigningReconcileRequest{
		EscrowKind:     models.KindShowA,
		PayloadID:      "pl-1",
		ObservedStatus: "DECLINED",
	}, &trail)
	require.Nil(t, appErr)
	assert.Equal(t, signing.StatusDeclined, resp.Status)

	updated, err := escrows.GetByBoutAndKind(nil, boutID, models.KindShowA)
	require.NoError(t, err)
	require.NotNil(t, updated.FailureCode)
	assert.Equal(t, "signing_declined", *updated.FailureCode)
	assert.Len(t, auditRepo.entries, 1)
	assert.Equal(t, models.OutcomeRejected, auditRepo.entries[0].Outcome)
}

func TestSigningReconciliation_ObservedSigned_ClearsPriorFailure(t *testing.T) {
	svc, escrows, _, boutID := setupSigningReconciliation(t)

	target, err := escrows.GetByBoutAndKind(nil, boutID, models.KindShowA)
	require.NoError(t, err)
	target.StampFailure("signing_declined", "payload_id=pl-0;status=DECLINED;tx_hash=")
	require.NoError(t, escrows.Update(nil, target))

	var trail []*models.AuditLog
	resp, appErr := svc.Reconcile(nil, boutID, nil, &SigningReconcileRequest{
		EscrowKind:     models.KindShowA,
		PayloadID:      "pl-1",
		ObservedStatus: "SIGNED",
	}, &trail)
	require.Nil(t, appErr)
	assert.Equal(t, signing.StatusSigned, resp.Status)

	updated, err := escrows.GetByBoutAndKind(nil, boutID, models.KindShowA)
	require.NoError(t, err)
	assert.Nil(t, updated.FailureCode)
}

func TestSigningReconciliation_NoOverride_QueriesStubAdapter(t *testing.T) {
	svc, _, _, boutID := setupSigningReconciliation(t)

	var trail []*models.AuditLog
	resp, appErr := svc.Reconcile(nil, boutID, nil, &SigningReconcileRequest{
		EscrowKind: models.KindShowA,
		PayloadID:  "pl-1",
	}, &trail)
	require.Nil(t, appErr)
	assert.Equal(t, signing.StatusOpen, resp.Status)
}

func TestSigningReconciliation_UnknownEscrow_Returns404(t *testing.T) {
	svc, _, _, _ := setupSigningReconciliation(t)

	var trail []*models.AuditLog
	_, appErr := svc.Reconcile(nil, uuid.New(), nil, &SigningReconcileRequest{
		EscrowKind: models.KindShowA,
		PayloadID:  "pl-1",
	}, &trail)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.HTTPStatusCode())
}
