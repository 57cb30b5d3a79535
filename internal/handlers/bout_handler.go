package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/idempotency"
	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/internal/services"
)

// BoutHandler serves the bout/escrow/payout HTTP surface.
type BoutHandler struct {
	db          *sql.DB
	bouts       repository.BoutRepository
	escrows     repository.EscrowRepository
	planner     *services.BoutPlanner
	escrowSvc   *services.EscrowService
	payoutSvc   *services.PayoutService
	reconcile   *services.SigningReconciliationService
	idempotency *idempotency.Store
	audit       *services.AuditService
}

func NewBoutHandler(
	db *sql.DB,
	bouts repository.BoutRepository,
	escrows repository.EscrowRepository,
	planner *services.BoutPlanner,
	escrowSvc *services.EscrowService,
	payoutSvc *services.PayoutService,
	reconcile *services.SigningReconciliationService,
	idempotencyStore *idempotency.Store,
	audit *services.AuditService,
) *BoutHandler {
	return &BoutHandler{
		db: db, bouts: bouts, escrows: escrows,
		planner: planner, escrowSvc: escrowSvc, payoutSvc: payoutSvc,
		reconcile: reconcile, idempotency: idempotencyStore, audit: audit,
	}
}

// createBoutRequest is the POST /bouts request body.
type createBoutRequest struct {
	FighterAUserID             uuid.UUID `json:"fighter_a_user_id" binding:"required"`
	FighterBUserID             uuid.UUID `json:"fighter_b_user_id" binding:"required"`
	EventDatetimeUTC           time.Time `json:"event_datetime_utc" binding:"required"`
	OwnerAddress               string    `json:"owner_address" binding:"required"`
	FighterADestinationAddress string    `json:"fighter_a_destination_address" binding:"required"`
	FighterBDestinationAddress string    `json:"fighter_b_destination_address" binding:"required"`
	ShowADrops                 int64     `json:"show_a_drops"`
	ShowBDrops                 int64     `json:"show_b_drops"`
	BonusADrops                int64     `json:"bonus_a_drops"`
	BonusBDrops                int64     `json:"bonus_b_drops"`
}

// CreateBout handles POST /bouts.
func (h *BoutHandler) CreateBout(c *gin.Context) {
	var req createBoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid request payload", err))
		return
	}

	promoterID, ok := c.Get("user_id")
	if !ok {
		_ = c.Error(models.NewAppError(http.StatusUnauthorized, "unauthorized", nil))
		return
	}
	promoterUUID, _ := promoterID.(uuid.UUID)

	var trail []*models.AuditLog
	bout, escrows, err := h.planner.Plan(&services.CreateBoutRequest{
		PromoterUserID:             promoterUUID,
		FighterAUserID:             req.FighterAUserID,
		FighterBUserID:             req.FighterBUserID,
		EventDatetimeUTC:           req.EventDatetimeUTC.UTC(),
		OwnerAddress:               req.OwnerAddress,
		FighterADestinationAddress: req.FighterADestinationAddress,
		FighterBDestinationAddress: req.FighterBDestinationAddress,
		ShowADrops:                 req.ShowADrops,
		ShowBDrops:                 req.ShowBDrops,
		BonusADrops:                req.BonusADrops,
		BonusBDrops:                req.BonusBDrops,
	}, &trail)
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "failed to plan bout", err))
		return
	}
	h.audit.MirrorTrail(trail)

	kinds := make([]gin.H, 0, len(escrows))
	for _, e := range escrows {
		kinds = append(kinds, gin.H{"escrow_id": e.ID, "escrow_kind": e.Kind})
	}
	c.JSON(http.StatusCreated, gin.H{"bout_id": bout.ID, "status": bout.Status, "escrows": kinds})
}

// GetBout handles GET /bouts/{id}.
func (h *BoutHandler) GetBout(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	bout, err := h.bouts.GetByIDNoTx(boutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = c.Error(models.NewAppError(http.StatusNotFound, "bout not found", err))
			return
		}
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to load bout", err))
		return
	}
	escrows, err := h.escrows.GetByBoutIDNoTx(boutID)
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to load escrows", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"bout": bout, "escrows": escrows})
}

// PrepareEscrows handles POST /bouts/{id}/escrows/prepare.
func (h *BoutHandler) PrepareEscrows(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	resp, err := h.escrowSvc.Prepare(boutID)
	if err != nil {
		_ = c.Error(classifyServiceErr(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmEscrow handles POST /bouts/{id}/escrows/confirm.
func (h *BoutHandler) ConfirmEscrow(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	var req services.EscrowConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid request payload", err))
		return
	}
	actorUserID := actorFromContext(c)

	runIdempotent(c, h.db, h.idempotency, h.audit, "escrows.confirm:"+boutID.String(), &req, func(tx *sql.Tx, trail *[]*models.AuditLog) (any, int, *models.AppError) {
		resp, appErr := h.escrowSvc.Confirm(tx, boutID, actorUserID, &req, trail)
		if appErr != nil {
			return nil, appErr.HTTPStatusCode(), appErr
		}
		return resp, http.StatusOK, nil
	})
}

// ReconcileEscrowSigning handles POST /bouts/{id}/escrows/signing/reconcile.
func (h *BoutHandler) ReconcileEscrowSigning(c *gin.Context) {
	h.reconcileSigning(c)
}

// ReconcilePayoutSigning handles POST /bouts/{id}/payouts/signing/reconcile.
func (h *BoutHandler) ReconcilePayoutSigning(c *gin.Context) {
	h.reconcileSigning(c)
}

func (h *BoutHandler) reconcileSigning(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	var req services.SigningReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid request payload", err))
		return
	}
	actorUserID := actorFromContext(c)

	tx, err := h.db.Begin()
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to begin transaction", err))
		return
	}
	var trail []*models.AuditLog
	resp, appErr := h.reconcile.Reconcile(tx, boutID, actorUserID, &req, &trail)
	if appErr != nil {
		_ = tx.Rollback()
		_ = c.Error(appErr)
		return
	}
	if err := tx.Commit(); err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err))
		return
	}
	h.audit.MirrorTrail(trail)
	c.JSON(http.StatusOK, resp)
}

// EnterResult handles POST /bouts/{id}/result.
func (h *BoutHandler) EnterResult(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	var req struct {
		Winner models.BoutWinner `json:"winner" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid request payload", err))
		return
	}
	actorUserID := actorFromContext(c)

	tx, err := h.db.Begin()
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to begin transaction", err))
		return
	}
	var trail []*models.AuditLog
	bout, appErr := h.payoutSvc.EnterResult(tx, boutID, actorUserID, req.Winner, &trail)
	if appErr != nil {
		_ = tx.Rollback()
		_ = c.Error(appErr)
		return
	}
	if err := tx.Commit(); err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err))
		return
	}
	h.audit.MirrorTrail(trail)
	c.JSON(http.StatusOK, gin.H{"bout_id": bout.ID, "bout_status": bout.Status, "winner": bout.Winner})
}

// PreparePayouts handles POST /bouts/{id}/payouts/prepare.
func (h *BoutHandler) PreparePayouts(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	resp, err := h.payoutSvc.PreparePayouts(boutID)
	if err != nil {
		_ = c.Error(classifyServiceErr(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPayout handles POST /bouts/{id}/payouts/confirm.
func (h *BoutHandler) ConfirmPayout(c *gin.Context) {
	boutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid bout id", err))
		return
	}
	var req services.PayoutConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "invalid request payload", err))
		return
	}
	actorUserID := actorFromContext(c)

	runIdempotent(c, h.db, h.idempotency, h.audit, "payouts.confirm:"+boutID.String(), &req, func(tx *sql.Tx, trail *[]*models.AuditLog) (any, int, *models.AppError) {
		resp, appErr := h.payoutSvc.ConfirmPayout(tx, boutID, actorUserID, &req, trail)
		if appErr != nil {
			return nil, appErr.HTTPStatusCode(), appErr
		}
		return resp, http.StatusOK, nil
	})
}

func actorFromContext(c *gin.Context) *uuid.UUID {
	raw, ok := c.Get("user_id")
	if !ok {
		return nil
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

// classifyServiceErr maps the sentinel errors returned by the read-only
// prepare paths to their HTTP status; these never touch the idempotency
// store since they perform no mutation.
func classifyServiceErr(err error) *models.AppError {
	switch err {
	case services.ErrBoutNotFound, services.ErrEscrowNotFound:
		return models.NewAppError(http.StatusNotFound, "not found", err)
	case services.ErrBoutNotPreparableEscrows, services.ErrEscrowNotPreparable,
		services.ErrEscrowKindSetIncomplete, services.ErrBoutNotResultOrPayouts,
		services.ErrWinnerNotSet, services.ErrWinnerBonusFulfillmentGone,
		services.ErrEscrowNotPreparableForPayout:
		return models.NewAppError(http.StatusConflict, "bout or escrow state does not permit this operation", err)
	default:
		return models.NewAppError(http.StatusInternalServerError, "internal error", err)
	}
}
