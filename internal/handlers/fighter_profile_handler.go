package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
)

// FighterProfileHandler manages the informational fighter profiles
// referenced (but never gated on) by bout creation.
type FighterProfileHandler struct {
	db       *sql.DB
	profiles repository.FighterProfileRepository
}

func NewFighterProfileHandler(db *sql.DB, profiles repository.FighterProfileRepository) *FighterProfileHandler {
	return &FighterProfileHandler{db: db, profiles: profiles}
}

type upsertFighterProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	WeightClass string `json:"weight_class" binding:"required"`
	Record      string `json:"record"`
}

// UpsertOwnProfile creates or updates the caller's own fighter profile.
func (h *FighterProfileHandler) UpsertOwnProfile(c *gin.Context) {
	var req upsertFighterProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "Invalid request payload", err))
		return
	}

	userID, ok := c.MustGet("user_id").(uuid.UUID)
	if !ok {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "Invalid user context", nil))
		return
	}

	profile := &models.FighterProfile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		WeightClass: req.WeightClass,
		Record:      req.Record,
	}

	tx, err := h.db.Begin()
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "Failed to start transaction", err))
		return
	}
	defer func() { _ = tx.Rollback() }()

	if err := h.profiles.Upsert(tx, profile); err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "Failed to save fighter profile", err))
		return
	}
	if err := tx.Commit(); err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "Failed to commit fighter profile", err))
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetProfile returns the fighter profile for a given user id.
func (h *FighterProfileHandler) GetProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "Invalid user id", err))
		return
	}

	profile, err := h.profiles.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = c.Error(models.NewAppError(http.StatusNotFound, "Fighter profile not found", err))
			return
		}
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "Failed to load fighter profile", err))
		return
	}

	c.JSON(http.StatusOK, profile)
}
