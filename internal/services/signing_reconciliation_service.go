package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/internal/signing"
)

var ErrReconcileEscrowNotFound = errors.New("escrow_not_found")

// SigningReconcileRequest is the body of both signing/reconcile endpoints.
// ObservedStatus/ObservedTxHash let a caller report a status it already
// knows (e.g. from a client-side wallet event) without a live FetchStatus
// round-trip; when absent the adapter is queried directly.
type SigningReconcileRequest struct {
	EscrowKind     models.EscrowKind `json:"escrow_kind"`
	PayloadID      string            `json:"payload_id"`
	ObservedStatus string            `json:"observed_status,omitempty"`
	ObservedTxHash string            `json:"observed_tx_hash,omitempty"`
}

// SigningReconcileResponse reports the reconciled payload status; the
// escrow's ledger state is never changed by this path.
type SigningReconcileResponse struct {
	EscrowID     uuid.UUID           `json:"escrow_id"`
	EscrowKind   models.EscrowKind   `json:"escrow_kind"`
	EscrowStatus models.EscrowStatus `json:"escrow_status"`
	PayloadID    string              `json:"payload_id"`
	Status       signing.PayloadStatus `json:"status"`
}

// SigningReconciliationService observes remote sign-payload status and
// sets/clears the escrow's signing failure marker. It never advances the
// bout/escrow state machines.
type SigningReconciliationService struct {
	escrows repository.EscrowRepository
	audit   *AuditService
	signer  *signing.Adapter
}

func NewSigningReconciliationService(escrows repository.EscrowRepository, audit *AuditService, signer *signing.Adapter) *SigningReconciliationService {
	return &SigningReconciliationService{escrows: escrows, audit: audit, signer: signer}
}

// Reconcile fetches (or accepts an override of) a sign-request's status and
// updates the escrow's failure marker accordingly.
func (s *SigningReconciliationService) Reconcile(tx *sql.Tx, boutID uuid.UUID, actorUserID *uuid.UUID, req *SigningReconcileRequest, trail *[]*models.AuditLog) (*SigningReconcileResponse, *models.AppError) {
	escrow, err := s.escrows.GetByBoutAndKind(tx, boutID, req.EscrowKind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewDomainError(404, "escrow_not_found", "escrow not found", err)
		}
		return nil, models.NewDomainError(500, "", "failed to load escrow", err)
	}

	var status signing.PayloadStatus
	var txHash string
	if req.ObservedStatus != "" {
		status = signing.ParseStatus(req.ObservedStatus)
		txHash = req.ObservedTxHash
	} else {
		result, err := s.signer.FetchStatus(req.PayloadID)
		if err != nil {
			return nil, models.NewDomainError(502, "xaman_api_unreachable", "failed to reach signing service", err)
		}
		status = result.Status
		txHash = result.TxHash
	}

	outcome := models.OutcomeObserved
	hadFailure := escrow.FailureCode != nil

	switch status {
	case signing.StatusDeclined:
		escrow.StampFailure("signing_declined", reconcileReason(req.PayloadID, status, txHash))
		outcome = models.OutcomeRejected
	case signing.StatusExpired:
		escrow.StampFailure("signing_expired", reconcileReason(req.PayloadID, status, txHash))
		outcome = models.OutcomeRejected
	case signing.StatusSigned:
		if hadFailure {
			escrow.ClearFailure()
			outcome = models.OutcomeObserved
		}
	case signing.StatusOpen:
		outcome = models.OutcomePending
	default:
		outcome = models.OutcomeUnknown
	}

	if err := s.escrows.Update(tx, escrow); err != nil {
		return nil, models.NewDomainError(500, "", "failed to update escrow", err)
	}
	if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "signing.reconcile", "escrow", escrow.ID, outcome, reconcileReason(req.PayloadID, status, txHash)); err != nil {
		return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
	}

	return &SigningReconcileResponse{
		EscrowID:     escrow.ID,
		EscrowKind:   escrow.Kind,
		EscrowStatus: escrow.Status,
		PayloadID:    req.PayloadID,
		Status:       status,
	}, nil
}

func reconcileReason(payloadID string, status signing.PayloadStatus, txHash string) string {
	return fmt.Sprintf("payload_id=%s;status=%s;tx_hash=%s", payloadID, status, txHash)
}
