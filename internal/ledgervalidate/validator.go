// Package ledgervalidate implements the pure invariant-checking predicate
// that accepts or rejects an observed XRPL ledger confirmation against the
// plan recorded for an escrow. It has no side effects and performs no I/O.
package ledgervalidate

import (
	"errors"
	"strings"

	"github.com/boutledger/escrowsettle/internal/condition"
	"github.com/boutledger/escrowsettle/internal/models"
)

// Action is the expected payout action a confirmation is validated against.
type Action string

const (
	ActionCreate Action = "create"
	ActionFinish Action = "finish"
	ActionCancel Action = "cancel"
)

// Observed is the ledger-reported transaction the validator checks against
// the escrow's recorded plan.
type Observed struct {
	Validated          bool
	EngineResult        string
	TransactionType     string
	OwnerAddress        string
	DestinationAddress  string
	AmountDrops         int64
	FinishAfterRipple   int64
	CancelAfterRipple   *int64
	ConditionHex        string
	OfferSequence       int64
	CloseTimeRipple     int64
	FulfillmentHex      string
	TxHash              string
}

var (
	ErrTxNotValidated          = errors.New("ledger_tx_not_validated")
	ErrTxNotSuccess            = errors.New("ledger_tx_not_success")
	ErrOwnerMismatch           = errors.New("ledger_owner_address_mismatch")
	ErrDestinationMismatch     = errors.New("ledger_destination_address_mismatch")
	ErrAmountMismatch          = errors.New("ledger_amount_mismatch")
	ErrFinishAfterMismatch     = errors.New("ledger_finish_after_mismatch")
	ErrCancelAfterMismatch     = errors.New("ledger_cancel_after_mismatch")
	ErrConditionMismatch       = errors.New("ledger_condition_mismatch")
	ErrOfferSequenceMismatch   = errors.New("ledger_offer_sequence_mismatch")
	ErrUnexpectedTxType        = errors.New("ledger_unexpected_transaction_type")
	ErrFinishBeforeAllowed     = errors.New("ledger_finish_before_allowed")
	ErrFulfillmentMismatch     = errors.New("ledger_fulfillment_mismatch")
	ErrUnexpectedFulfillment   = errors.New("ledger_unexpected_fulfillment")
	ErrCancelAfterMissing      = errors.New("ledger_cancel_after_missing")
	ErrCancelBeforeAllowed     = errors.New("ledger_cancel_before_allowed")
)

// ValidateCreate validates an EscrowCreate confirmation against the escrow's
// recorded plan, in the order spec.md §4.5 lists.
func ValidateCreate(e *models.Escrow, obs *Observed) error {
	if !obs.Validated {
		return ErrTxNotValidated
	}
	if !strings.EqualFold(obs.EngineResult, "tesSUCCESS") {
		return ErrTxNotSuccess
	}
	if obs.OwnerAddress != e.OwnerAddress {
		return ErrOwnerMismatch
	}
	if obs.DestinationAddress != e.DestinationAddress {
		return ErrDestinationMismatch
	}
	if obs.AmountDrops != e.AmountDrops {
		return ErrAmountMismatch
	}
	if obs.FinishAfterRipple != e.FinishAfterRipple {
		return ErrFinishAfterMismatch
	}
	if !int64PtrEqual(obs.CancelAfterRipple, e.CancelAfterRipple) {
		return ErrCancelAfterMismatch
	}
	wantCondition := ""
	if e.ConditionHex != nil {
		wantCondition = *e.ConditionHex
	}
	gotCondition, err := condition.NormalizeHex(obs.ConditionHex)
	if err != nil {
		return ErrConditionMismatch
	}
	wantNormalized, err := condition.NormalizeHex(wantCondition)
	if err != nil {
		return ErrConditionMismatch
	}
	if gotCondition != wantNormalized {
		return ErrConditionMismatch
	}
	return nil
}

// ValidatePayout validates an EscrowFinish/EscrowCancel confirmation.
// expectedFulfillmentHex is non-empty only for the winner-bonus finish.
func ValidatePayout(e *models.Escrow, obs *Observed, action Action, expectedFulfillmentHex string) error {
	if !obs.Validated {
		return ErrTxNotValidated
	}
	if !strings.EqualFold(obs.EngineResult, "tesSUCCESS") {
		return ErrTxNotSuccess
	}
	if obs.OwnerAddress != e.OwnerAddress {
		return ErrOwnerMismatch
	}
	if e.OfferSequence == nil || obs.OfferSequence != *e.OfferSequence {
		return ErrOfferSequenceMismatch
	}

	switch action {
	case ActionFinish:
		if obs.TransactionType != "EscrowFinish" {
			return ErrUnexpectedTxType
		}
		if obs.CloseTimeRipple < e.FinishAfterRipple {
			return ErrFinishBeforeAllowed
		}
		gotFulfillment, err := condition.NormalizeHex(obs.FulfillmentHex)
		if err != nil {
			return ErrFulfillmentMismatch
		}
		wantFulfillment, err := condition.NormalizeHex(expectedFulfillmentHex)
		if err != nil {
			return ErrFulfillmentMismatch
		}
		if wantFulfillment != "" {
			if gotFulfillment != wantFulfillment {
				return ErrFulfillmentMismatch
			}
		} else if gotFulfillment != "" {
			return ErrUnexpectedFulfillment
		}
		return nil
	case ActionCancel:
		if obs.TransactionType != "EscrowCancel" {
			return ErrUnexpectedTxType
		}
		if e.CancelAfterRipple == nil {
			return ErrCancelAfterMissing
		}
		if obs.CloseTimeRipple < *e.CancelAfterRipple {
			return ErrCancelBeforeAllowed
		}
		if obs.FulfillmentHex != "" {
			return ErrUnexpectedFulfillment
		}
		return nil
	default:
		return ErrUnexpectedTxType
	}
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
