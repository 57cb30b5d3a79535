package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/ledgervalidate"
	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/internal/signing"
	"github.com/boutledger/escrowsettle/internal/taxonomy"
	"github.com/boutledger/escrowsettle/pkg/xrpl"
)

var (
	ErrBoutNotFound              = errors.New("bout_not_found")
	ErrEscrowNotFound            = errors.New("escrow_not_found")
	ErrEscrowKindSetIncomplete   = errors.New("escrow_kind_set_incomplete")
	ErrBoutNotPreparableEscrows  = errors.New("bout_not_preparable_for_escrow_create")
	ErrEscrowNotPreparable       = errors.New("escrow_not_preparable_for_escrow_create")
	ErrBoutNotInDraftState       = errors.New("bout_not_in_draft_state")
	ErrEscrowNotPlanned          = errors.New("escrow_not_planned")
)

// EscrowPrepareView is one escrow's unsigned transaction plus its signing
// request, returned by Prepare without mutating anything.
type EscrowPrepareView struct {
	EscrowID  uuid.UUID           `json:"escrow_id"`
	Kind      models.EscrowKind   `json:"escrow_kind"`
	UnsignedTx map[string]any     `json:"unsigned_tx"`
	SignRequest *signing.SignRequest `json:"xaman_sign_request"`
}

// PrepareEscrowsResponse is the response body for POST /bouts/{id}/escrows/prepare.
type PrepareEscrowsResponse struct {
	BoutID  uuid.UUID            `json:"bout_id"`
	Escrows []*EscrowPrepareView `json:"escrows"`
}

// EscrowConfirmRequest is the observed ledger confirmation a client submits
// after the owner's wallet signs and submits an EscrowCreate.
type EscrowConfirmRequest struct {
	EscrowKind         models.EscrowKind `json:"escrow_kind"`
	Validated          bool              `json:"validated"`
	EngineResult       string            `json:"engine_result"`
	TransactionType    string            `json:"transaction_type"`
	OwnerAddress       string            `json:"owner_address"`
	DestinationAddress string            `json:"destination_address"`
	AmountDrops        int64             `json:"amount_drops"`
	FinishAfterRipple  int64             `json:"finish_after_ripple"`
	CancelAfterRipple  *int64            `json:"cancel_after_ripple,omitempty"`
	ConditionHex       string            `json:"condition_hex,omitempty"`
	OfferSequence      int64             `json:"offer_sequence"`
	TxHash             string            `json:"tx_hash,omitempty"`
}

// EscrowConfirmResponse is the response body for POST /bouts/{id}/escrows/confirm.
type EscrowConfirmResponse struct {
	BoutID       uuid.UUID           `json:"bout_id"`
	EscrowID     uuid.UUID           `json:"escrow_id"`
	EscrowKind   models.EscrowKind   `json:"escrow_kind"`
	EscrowStatus models.EscrowStatus `json:"escrow_status"`
	BoutStatus   models.BoutStatus   `json:"bout_status"`
}

// EscrowService implements the prepare/confirm half of the escrow lifecycle.
type EscrowService struct {
	bouts   repository.BoutRepository
	escrows repository.EscrowRepository
	audit   *AuditService
	signer  *signing.Adapter
}

func NewEscrowService(bouts repository.BoutRepository, escrows repository.EscrowRepository, audit *AuditService, signer *signing.Adapter) *EscrowService {
	return &EscrowService{bouts: bouts, escrows: escrows, audit: audit, signer: signer}
}

// Prepare emits the unsigned EscrowCreate payload and a sign-request for
// every escrow of a bout still eligible for creation. It performs no writes.
func (s *EscrowService) Prepare(boutID uuid.UUID) (*PrepareEscrowsResponse, error) {
	bout, err := s.bouts.GetByIDNoTx(boutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoutNotFound
		}
		return nil, err
	}
	if bout.Status != models.BoutDraft && bout.Status != models.BoutEscrowsCreated {
		return nil, ErrBoutNotPreparableEscrows
	}

	escrows, err := s.escrows.GetByBoutIDNoTx(boutID)
	if err != nil {
		return nil, err
	}
	if err := assertFullKindSet(escrows); err != nil {
		return nil, err
	}

	views := make([]*EscrowPrepareView, 0, len(escrows))
	for _, e := range escrows {
		if e.Status != models.EscrowPlanned && e.Status != models.EscrowCreated {
			return nil, ErrEscrowNotPreparable
		}
		tx, err := xrpl.BuildEscrowCreate(e)
		if err != nil {
			return nil, err
		}
		signReq, err := s.signer.CreateSignRequest(e.ID.String(), tx)
		if err != nil {
			return nil, err
		}
		views = append(views, &EscrowPrepareView{EscrowID: e.ID, Kind: e.Kind, UnsignedTx: tx, SignRequest: signReq})
	}

	return &PrepareEscrowsResponse{BoutID: boutID, Escrows: views}, nil
}

// Confirm validates an observed EscrowCreate ledger confirmation and, on
// success, advances the targeted escrow to CREATED; if every escrow of the
// bout is now CREATED, the bout advances to ESCROWS_CREATED. Runs entirely
// within tx, which the caller commits or rolls back.
func (s *EscrowService) Confirm(tx *sql.Tx, boutID uuid.UUID, actorUserID *uuid.UUID, req *EscrowConfirmRequest, trail *[]*models.AuditLog) (*EscrowConfirmResponse, *models.AppError) {
	bout, err := s.bouts.GetByID(tx, boutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewDomainError(404, "bout_not_found", "bout not found", err)
		}
		return nil, models.NewDomainError(500, "", "failed to load bout", err)
	}
	if bout.Status != models.BoutDraft {
		return nil, models.NewDomainError(409, "bout_not_in_draft_state", "bout is not in draft state", ErrBoutNotInDraftState)
	}

	escrow, err := s.escrows.GetByBoutAndKind(tx, boutID, req.EscrowKind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewDomainError(404, "escrow_not_found", "escrow not found", err)
		}
		return nil, models.NewDomainError(500, "", "failed to load escrow", err)
	}
	if escrow.Status != models.EscrowPlanned {
		return nil, models.NewDomainError(409, "escrow_not_planned", "escrow is not in planned state", ErrEscrowNotPlanned)
	}

	obs := &ledgervalidate.Observed{
		Validated:          req.Validated,
		EngineResult:       req.EngineResult,
		TransactionType:    req.TransactionType,
		OwnerAddress:       req.OwnerAddress,
		DestinationAddress: req.DestinationAddress,
		AmountDrops:        req.AmountDrops,
		FinishAfterRipple:  req.FinishAfterRipple,
		CancelAfterRipple:  req.CancelAfterRipple,
		ConditionHex:       req.ConditionHex,
		TxHash:             req.TxHash,
	}

	if valErr := ledgervalidate.ValidateCreate(escrow, obs); valErr != nil {
		code := taxonomy.Classify(valErr, req.Validated, req.EngineResult)
		reason := taxonomy.Reason(valErr, req.Validated, req.EngineResult)
		escrow.StampFailure(code, reason)
		if err := s.escrows.Update(tx, escrow); err != nil {
			return nil, models.NewDomainError(500, "", "failed to stamp escrow failure", err)
		}
		if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "escrow.confirm", "escrow", escrow.ID, models.OutcomeRejected, reason); err != nil {
			return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
		}
		return nil, models.NewDomainError(422, code, "ledger confirmation failed validation", valErr)
	}

	escrow.Status = models.EscrowCreated
	seq := req.OfferSequence
	escrow.OfferSequence = &seq
	if req.TxHash != "" {
		hash := req.TxHash
		escrow.CreateTxHash = &hash
	}
	escrow.ClearFailure()
	if err := s.escrows.Update(tx, escrow); err != nil {
		return nil, models.NewDomainError(500, "", "failed to update escrow", err)
	}
	if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "escrow.confirm", "escrow", escrow.ID, models.OutcomeSuccess, "escrow create confirmed"); err != nil {
		return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
	}

	boutStatus := bout.Status
	allEscrows, err := s.escrows.GetByBoutID(tx, boutID)
	if err != nil {
		return nil, models.NewDomainError(500, "", "failed to reload escrows", err)
	}
	if allCreated(allEscrows) {
		if err := transitionBoutStatus(tx, s.bouts, boutID, bout.Status, models.BoutEscrowsCreated); err != nil {
			return nil, models.NewDomainError(500, "", "failed to promote bout", err)
		}
		boutStatus = models.BoutEscrowsCreated
		if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "bout.escrows_created", "bout", boutID, models.OutcomeSuccess, "all four escrows created"); err != nil {
			return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
		}
	}

	return &EscrowConfirmResponse{
		BoutID:       boutID,
		EscrowID:     escrow.ID,
		EscrowKind:   escrow.Kind,
		EscrowStatus: escrow.Status,
		BoutStatus:   boutStatus,
	}, nil
}

func assertFullKindSet(escrows []*models.Escrow) error {
	if len(escrows) != len(models.AllKinds) {
		return ErrEscrowKindSetIncomplete
	}
	seen := make(map[models.EscrowKind]bool, len(escrows))
	for _, e := range escrows {
		seen[e.Kind] = true
	}
	for _, k := range models.AllKinds {
		if !seen[k] {
			return ErrEscrowKindSetIncomplete
		}
	}
	return nil
}

func allCreated(escrows []*models.Escrow) bool {
	for _, e := range escrows {
		if e.Status != models.EscrowCreated {
			return false
		}
	}
	return true
}
