package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boutledger/escrowsettle/internal/idempotency"
	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/services"
)

// mutationFunc performs one state-changing operation within tx and returns
// the response body to persist plus the HTTP status it maps to. It appends
// every audit row it writes to trail so the caller can mirror them to the
// Mongo audit sink once the transaction has actually committed. A non-nil
// appErr with status >= 500 marks the attempt as not safely replayable: the
// transaction rolls back and nothing is recorded under the idempotency key,
// so a client retry re-enters the mutation path cleanly. Every other
// outcome (success or a classified 4xx/422 business failure) is recorded
// and committed, per spec's "commit persists the failure too" rule.
type mutationFunc func(tx *sql.Tx, trail *[]*models.AuditLog) (body any, status int, appErr *models.AppError)

// runIdempotent implements the scoped idempotency protocol around fn: look
// up any existing record for (scope, key); replay on a matching request
// hash, reject on a mismatched one, otherwise execute fn inside a fresh
// transaction and record the outcome before committing.
func runIdempotent(c *gin.Context, db *sql.DB, store *idempotency.Store, audit *services.AuditService, scope string, reqBody any, fn mutationFunc) {
	key := c.GetString("idempotency_key")
	if key == "" {
		_ = c.Error(models.NewAppError(http.StatusBadRequest, "Idempotency-Key header is required", nil))
		return
	}

	hash, err := idempotency.HashRequest(reqBody)
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to hash request", err))
		return
	}

	existing, err := store.Lookup(scope, key)
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to look up idempotency key", err))
		return
	}
	if existing != nil {
		if existing.RequestHash != hash {
			_ = c.Error(models.NewDomainError(http.StatusConflict, "idempotency_key_reused_with_different_payload",
				"idempotency key was reused with a different request payload", idempotency.ErrKeyReusedWithDifferentPayload))
			return
		}
		c.Data(existing.ResponseCode, "application/json", existing.ResponseBody)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to begin transaction", err))
		return
	}

	var trail []*models.AuditLog
	body, status, appErr := fn(tx, &trail)
	if appErr != nil && appErr.HTTPStatusCode() >= http.StatusInternalServerError {
		_ = tx.Rollback()
		_ = c.Error(appErr)
		return
	}

	var responseBody []byte
	if appErr != nil {
		responseBody, err = json.Marshal(gin.H{
			"error":       appErr.Message,
			"error_code":  appErr.DomainCode,
			"details":     appErr.Error(),
		})
	} else {
		responseBody, err = json.Marshal(body)
	}
	if err != nil {
		_ = tx.Rollback()
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to marshal response", err))
		return
	}

	if err := store.Record(tx, scope, key, hash, status, responseBody); err != nil {
		_ = tx.Rollback()
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to record idempotency key", err))
		return
	}
	if err := tx.Commit(); err != nil {
		_ = c.Error(models.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err))
		return
	}
	audit.MirrorTrail(trail)

	c.Data(status, "application/json", responseBody)
}
