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
	ErrBoutNotResultEntered       = errors.New("bout_not_in_escrows_created_state")
	ErrWinnerNotSet               = errors.New("bout_winner_not_set")
	ErrWinnerBonusFulfillmentGone = errors.New("winner_bonus_fulfillment_missing")
	ErrEscrowNotPreparableForPayout = errors.New("escrow_not_preparable_for_payout")
	ErrEscrowNotCreated           = errors.New("escrow_not_created")
	ErrBoutNotResultOrPayouts     = errors.New("bout_not_preparable_for_payout")
)

// payoutAction is what confirming a given escrow, for a given winner, does.
type payoutAction struct {
	action             ledgervalidate.Action
	expectedFulfillment string
}

// PayoutPlanView is one escrow's planned payout action plus its unsigned
// transaction and sign-request. An already-terminal escrow gets a view with
// Skipped set and no transaction or sign-request.
type PayoutPlanView struct {
	EscrowID    uuid.UUID            `json:"escrow_id"`
	Kind        models.EscrowKind    `json:"escrow_kind"`
	Action      string               `json:"action"`
	UnsignedTx  map[string]any       `json:"unsigned_tx,omitempty"`
	SignRequest *signing.SignRequest `json:"xaman_sign_request,omitempty"`
	Skipped     bool                 `json:"skipped,omitempty"`
}

// PreparePayoutsResponse is the response body for POST /bouts/{id}/payouts/prepare.
type PreparePayoutsResponse struct {
	BoutID     uuid.UUID         `json:"bout_id"`
	BoutStatus models.BoutStatus `json:"bout_status"`
	Escrows    []*PayoutPlanView `json:"escrows"`
}

// PayoutConfirmRequest is the observed EscrowFinish/EscrowCancel confirmation.
type PayoutConfirmRequest struct {
	EscrowKind         models.EscrowKind `json:"escrow_kind"`
	Validated          bool              `json:"validated"`
	EngineResult       string            `json:"engine_result"`
	TransactionType    string            `json:"transaction_type"`
	OwnerAddress       string            `json:"owner_address"`
	OfferSequence      int64             `json:"offer_sequence"`
	CloseTimeRipple    int64             `json:"close_time_ripple"`
	FulfillmentHex     string            `json:"fulfillment_hex,omitempty"`
	TxHash             string            `json:"tx_hash,omitempty"`
}

// PayoutConfirmResponse is the response body for POST /bouts/{id}/payouts/confirm.
type PayoutConfirmResponse struct {
	BoutID       uuid.UUID           `json:"bout_id"`
	EscrowID     uuid.UUID           `json:"escrow_id"`
	EscrowKind   models.EscrowKind   `json:"escrow_kind"`
	EscrowStatus models.EscrowStatus `json:"escrow_status"`
	BoutStatus   models.BoutStatus   `json:"bout_status"`
}

// PayoutService implements result-entry, payout planning/confirmation, and
// the bout-closure predicate.
type PayoutService struct {
	bouts   repository.BoutRepository
	escrows repository.EscrowRepository
	audit   *AuditService
	signer  *signing.Adapter
}

func NewPayoutService(bouts repository.BoutRepository, escrows repository.EscrowRepository, audit *AuditService, signer *signing.Adapter) *PayoutService {
	return &PayoutService{bouts: bouts, escrows: escrows, audit: audit, signer: signer}
}

// EnterResult records the winner and advances the bout from ESCROWS_CREATED
// to RESULT_ENTERED.
func (s *PayoutService) EnterResult(tx *sql.Tx, boutID uuid.UUID, actorUserID *uuid.UUID, winner models.BoutWinner, trail *[]*models.AuditLog) (*models.Bout, *models.AppError) {
	bout, err := s.bouts.GetByID(tx, boutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewDomainError(404, "bout_not_found", "bout not found", err)
		}
		return nil, models.NewDomainError(500, "", "failed to load bout", err)
	}
	if bout.Status != models.BoutEscrowsCreated {
		return nil, models.NewDomainError(409, "bout_not_in_escrows_created_state", "bout is not ready for a result", ErrBoutNotResultEntered)
	}
	if winner != models.WinnerA && winner != models.WinnerB {
		return nil, models.NewDomainError(400, "invalid_winner", "winner must be A or B", ErrWinnerNotSet)
	}

	if err := s.bouts.SetWinner(tx, boutID, winner); err != nil {
		return nil, models.NewDomainError(500, "", "failed to set winner", err)
	}
	if err := transitionBoutStatus(tx, s.bouts, boutID, bout.Status, models.BoutResultEntered); err != nil {
		return nil, models.NewDomainError(500, "", "failed to advance bout status", err)
	}
	if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "bout.result_entered", "bout", boutID, models.OutcomeSuccess, "winner recorded"); err != nil {
		return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
	}

	bout.Winner = winner
	bout.Status = models.BoutResultEntered
	return bout, nil
}

// resolveAction derives the payout action plan: SHOW_A finish, SHOW_B
// finish, winner_bonus finish-with-fulfillment, loser_bonus cancel.
func resolveAction(winner models.BoutWinner, kind models.EscrowKind, preimageHex *string) (payoutAction, error) {
	switch kind {
	case models.KindShowA, models.KindShowB:
		return payoutAction{action: ledgervalidate.ActionFinish}, nil
	case models.KindBonusA:
		if winner == models.WinnerA {
			if preimageHex == nil || *preimageHex == "" {
				return payoutAction{}, ErrWinnerBonusFulfillmentGone
			}
			return payoutAction{action: ledgervalidate.ActionFinish, expectedFulfillment: *preimageHex}, nil
		}
		return payoutAction{action: ledgervalidate.ActionCancel}, nil
	case models.KindBonusB:
		if winner == models.WinnerB {
			if preimageHex == nil || *preimageHex == "" {
				return payoutAction{}, ErrWinnerBonusFulfillmentGone
			}
			return payoutAction{action: ledgervalidate.ActionFinish, expectedFulfillment: *preimageHex}, nil
		}
		return payoutAction{action: ledgervalidate.ActionCancel}, nil
	default:
		return payoutAction{}, ErrEscrowNotPreparableForPayout
	}
}

// PreparePayouts emits unsigned payloads for every still-CREATED escrow per
// the deterministic plan; already-terminal escrows consistent with the plan
// are silently skipped.
func (s *PayoutService) PreparePayouts(boutID uuid.UUID) (*PreparePayoutsResponse, error) {
	bout, err := s.bouts.GetByIDNoTx(boutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoutNotFound
		}
		return nil, err
	}
	if bout.Status != models.BoutResultEntered && bout.Status != models.BoutPayoutsInProgress {
		return nil, ErrBoutNotResultOrPayouts
	}
	if bout.Winner != models.WinnerA && bout.Winner != models.WinnerB {
		return nil, ErrWinnerNotSet
	}

	escrows, err := s.escrows.GetByBoutIDNoTx(boutID)
	if err != nil {
		return nil, err
	}
	if err := assertFullKindSet(escrows); err != nil {
		return nil, err
	}

	views := make([]*PayoutPlanView, 0, len(escrows))
	for _, e := range escrows {
		plan, err := resolveAction(bout.Winner, e.Kind, e.EncryptedPreimageHex)
		if err != nil {
			return nil, err
		}

		switch e.Status {
		case models.EscrowCreated:
			var tx map[string]any
			switch plan.action {
			case ledgervalidate.ActionFinish:
				tx, err = xrpl.BuildEscrowFinish(e, plan.expectedFulfillment)
			case ledgervalidate.ActionCancel:
				tx, err = xrpl.BuildEscrowCancel(e)
			}
			if err != nil {
				return nil, err
			}
			signReq, err := s.signer.CreateSignRequest(e.ID.String(), tx)
			if err != nil {
				return nil, err
			}
			views = append(views, &PayoutPlanView{EscrowID: e.ID, Kind: e.Kind, Action: string(plan.action), UnsignedTx: tx, SignRequest: signReq})
		case models.EscrowFinished:
			if plan.action != ledgervalidate.ActionFinish {
				return nil, ErrEscrowNotPreparableForPayout
			}
			views = append(views, &PayoutPlanView{EscrowID: e.ID, Kind: e.Kind, Action: string(plan.action), Skipped: true})
		case models.EscrowCancelled:
			if plan.action != ledgervalidate.ActionCancel {
				return nil, ErrEscrowNotPreparableForPayout
			}
			views = append(views, &PayoutPlanView{EscrowID: e.ID, Kind: e.Kind, Action: string(plan.action), Skipped: true})
		default:
			return nil, ErrEscrowNotPreparableForPayout
		}
	}

	return &PreparePayoutsResponse{BoutID: boutID, BoutStatus: bout.Status, Escrows: views}, nil
}

// ConfirmPayout validates an observed EscrowFinish/EscrowCancel confirmation
// and, on success, advances the escrow to its terminal state, advances the
// bout to PAYOUTS_IN_PROGRESS if this is its first confirmed payout, and
// closes the bout once the closure predicate is satisfied.
func (s *PayoutService) ConfirmPayout(tx *sql.Tx, boutID uuid.UUID, actorUserID *uuid.UUID, req *PayoutConfirmRequest, trail *[]*models.AuditLog) (*PayoutConfirmResponse, *models.AppError) {
	bout, err := s.bouts.GetByID(tx, boutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewDomainError(404, "bout_not_found", "bout not found", err)
		}
		return nil, models.NewDomainError(500, "", "failed to load bout", err)
	}
	if bout.Status != models.BoutResultEntered && bout.Status != models.BoutPayoutsInProgress {
		return nil, models.NewDomainError(409, "bout_not_preparable_for_payout", "bout is not accepting payout confirmations", ErrBoutNotResultOrPayouts)
	}
	if bout.Winner != models.WinnerA && bout.Winner != models.WinnerB {
		return nil, models.NewDomainError(409, "bout_winner_not_set", "bout has no winner recorded", ErrWinnerNotSet)
	}

	escrow, err := s.escrows.GetByBoutAndKind(tx, boutID, req.EscrowKind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewDomainError(404, "escrow_not_found", "escrow not found", err)
		}
		return nil, models.NewDomainError(500, "", "failed to load escrow", err)
	}
	if escrow.Status != models.EscrowCreated {
		return nil, models.NewDomainError(409, "escrow_not_created", "escrow is not in created state", ErrEscrowNotCreated)
	}

	plan, planErr := resolveAction(bout.Winner, escrow.Kind, escrow.EncryptedPreimageHex)
	if planErr != nil {
		return nil, models.NewDomainError(409, "winner_bonus_fulfillment_missing", "winner bonus fulfillment is missing", planErr)
	}

	obs := &ledgervalidate.Observed{
		Validated:       req.Validated,
		EngineResult:    req.EngineResult,
		TransactionType: req.TransactionType,
		OwnerAddress:    req.OwnerAddress,
		OfferSequence:   req.OfferSequence,
		CloseTimeRipple: req.CloseTimeRipple,
		FulfillmentHex:  req.FulfillmentHex,
		TxHash:          req.TxHash,
	}

	if valErr := ledgervalidate.ValidatePayout(escrow, obs, plan.action, plan.expectedFulfillment); valErr != nil {
		code := taxonomy.Classify(valErr, req.Validated, req.EngineResult)
		reason := taxonomy.Reason(valErr, req.Validated, req.EngineResult)
		escrow.StampFailure(code, reason)
		if err := s.escrows.Update(tx, escrow); err != nil {
			return nil, models.NewDomainError(500, "", "failed to stamp escrow failure", err)
		}
		if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "payout.confirm", "escrow", escrow.ID, models.OutcomeRejected, reason); err != nil {
			return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
		}
		return nil, models.NewDomainError(422, code, "ledger confirmation failed validation", valErr)
	}

	if plan.action == ledgervalidate.ActionFinish {
		escrow.Status = models.EscrowFinished
	} else {
		escrow.Status = models.EscrowCancelled
	}
	if req.TxHash != "" {
		hash := req.TxHash
		escrow.CloseTxHash = &hash
	}
	escrow.ClearFailure()
	if err := s.escrows.Update(tx, escrow); err != nil {
		return nil, models.NewDomainError(500, "", "failed to update escrow", err)
	}
	if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "payout.confirm", "escrow", escrow.ID, models.OutcomeSuccess, "payout confirmed"); err != nil {
		return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
	}

	boutStatus := bout.Status
	if bout.Status == models.BoutResultEntered {
		if err := transitionBoutStatus(tx, s.bouts, boutID, bout.Status, models.BoutPayoutsInProgress); err != nil {
			return nil, models.NewDomainError(500, "", "failed to advance bout status", err)
		}
		boutStatus = models.BoutPayoutsInProgress
	}

	allEscrows, err := s.escrows.GetByBoutID(tx, boutID)
	if err != nil {
		return nil, models.NewDomainError(500, "", "failed to reload escrows", err)
	}
	if closurePredicateSatisfied(allEscrows, bout.Winner) {
		if err := transitionBoutStatus(tx, s.bouts, boutID, boutStatus, models.BoutClosed); err != nil {
			return nil, models.NewDomainError(500, "", "failed to close bout", err)
		}
		boutStatus = models.BoutClosed
		if _, err := s.audit.RecordTracked(tx, trail, actorUserID, "bout.closed", "bout", boutID, models.OutcomeSuccess, "show purses and winner bonus finished"); err != nil {
			return nil, models.NewDomainError(500, "", "failed to write audit entry", err)
		}
	}

	return &PayoutConfirmResponse{
		BoutID:       boutID,
		EscrowID:     escrow.ID,
		EscrowKind:   escrow.Kind,
		EscrowStatus: escrow.Status,
		BoutStatus:   boutStatus,
	}, nil
}

// closurePredicateSatisfied reports whether show_a, show_b, and the winner's
// bonus are all FINISHED. The loser bonus never gates closure.
func closurePredicateSatisfied(escrows []*models.Escrow, winner models.BoutWinner) bool {
	winnerBonusKind := models.KindBonusA
	if winner == models.WinnerB {
		winnerBonusKind = models.KindBonusB
	}
	for _, e := range escrows {
		switch e.Kind {
		case models.KindShowA, models.KindShowB:
			if e.Status != models.EscrowFinished {
				return false
			}
		case winnerBonusKind:
			if e.Status != models.EscrowFinished {
				return false
			}
		}
	}
	return true
}
