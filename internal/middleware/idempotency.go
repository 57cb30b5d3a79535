package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boutledger/escrowsettle/internal/models"
)

// IdempotencyKeyHeader is the request header carrying the caller's
// idempotency token for mutating confirm endpoints.
const IdempotencyKeyHeader = "Idempotency-Key"

// RequireIdempotencyKey aborts with 400 if the request has no Idempotency-Key
// header, and otherwise stashes it in context for the handler to use. The
// handler, not this middleware, owns the lookup/record/replay protocol —
// this layer only enforces the header's presence at the transport boundary.
func RequireIdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			_ = c.Error(models.NewAppError(http.StatusBadRequest, "Idempotency-Key header is required", nil))
			c.Abort()
			return
		}
		c.Set("idempotency_key", key)
		c.Next()
	}
}
