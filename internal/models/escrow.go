package models

import (
	"time"

	"github.com/google/uuid"
)

// EscrowKind identifies one of the four escrows a bout funds. Exactly one
// of each kind exists per non-draft bout.
type EscrowKind string

const (
	KindShowA   EscrowKind = "SHOW_A"
	KindShowB   EscrowKind = "SHOW_B"
	KindBonusA  EscrowKind = "BONUS_A"
	KindBonusB  EscrowKind = "BONUS_B"
)

// IsBonus reports whether the kind is one of the two bonus purses, which
// carry a crypto-condition and a CancelAfter.
func (k EscrowKind) IsBonus() bool {
	return k == KindBonusA || k == KindBonusB
}

// EscrowStatus is the escrow state machine's tagged union.
type EscrowStatus string

const (
	EscrowPlanned   EscrowStatus = "PLANNED"
	EscrowCreated   EscrowStatus = "CREATED"
	EscrowFinished  EscrowStatus = "FINISHED"
	EscrowCancelled EscrowStatus = "CANCELLED"
	EscrowFailed    EscrowStatus = "FAILED"
)

// Escrow is one of a bout's four planned/created XRPL conditional escrows.
type Escrow struct {
	ID                   uuid.UUID    `db:"id" json:"id"`
	BoutID               uuid.UUID    `db:"bout_id" json:"bout_id"`
	Kind                 EscrowKind   `db:"kind" json:"kind"`
	Status               EscrowStatus `db:"status" json:"status"`
	OwnerAddress         string       `db:"owner_address" json:"owner_address"`
	DestinationAddress   string       `db:"destination_address" json:"destination_address"`
	AmountDrops          int64        `db:"amount_drops" json:"amount_drops"`
	FinishAfterRipple    int64        `db:"finish_after_ripple" json:"finish_after_ripple"`
	CancelAfterRipple    *int64       `db:"cancel_after_ripple" json:"cancel_after_ripple,omitempty"`
	ConditionHex         *string      `db:"condition_hex" json:"condition_hex,omitempty"`
	EncryptedPreimageHex *string      `db:"encrypted_preimage_hex" json:"-"`
	OfferSequence        *int64       `db:"offer_sequence" json:"offer_sequence,omitempty"`
	CreateTxHash         *string      `db:"create_tx_hash" json:"create_tx_hash,omitempty"`
	CloseTxHash          *string      `db:"close_tx_hash" json:"close_tx_hash,omitempty"`
	FailureCode          *string      `db:"failure_code" json:"failure_code,omitempty"`
	FailureReason        *string      `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updated_at"`
}

// AllKinds is the fixed set every non-draft bout must have exactly one of.
var AllKinds = []EscrowKind{KindShowA, KindShowB, KindBonusA, KindBonusB}

// ClearFailure resets the escrow's failure markers, used when a mutation
// succeeds or a reconciliation observes a clean signed state.
func (e *Escrow) ClearFailure() {
	e.FailureCode = nil
	e.FailureReason = nil
}

// StampFailure records a classified failure without mutating Status.
func (e *Escrow) StampFailure(code, reason string) {
	e.FailureCode = &code
	e.FailureReason = &reason
}
