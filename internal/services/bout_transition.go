package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
)

// ErrIllegalBoutTransition guards against advancing a bout along an edge
// models.CanTransition does not recognize. The preceding service-level
// status checks already rule this out on every call site; this is the
// single point that would actually reject it if one of them regressed.
var ErrIllegalBoutTransition = models.NewDomainError(500, "bout_illegal_transition", "illegal bout state transition", nil)

// transitionBoutStatus advances a bout from its current status to `to`,
// refusing any edge models.CanTransition doesn't recognize before writing.
func transitionBoutStatus(tx *sql.Tx, bouts repository.BoutRepository, boutID uuid.UUID, from, to models.BoutStatus) error {
	if !models.CanTransition(from, to) {
		return ErrIllegalBoutTransition
	}
	return bouts.UpdateStatus(tx, boutID, to)
}
