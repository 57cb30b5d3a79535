package ledgervalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boutledger/escrowsettle/internal/models"
)

func baseEscrow() *models.Escrow {
	cond := "AAAA"
	cancelAfter := int64(2000)
	return &models.Escrow{
		OwnerAddress:       "rOwner",
		DestinationAddress: "rDest",
		AmountDrops:        1_000_000,
		FinishAfterRipple:  1000,
		CancelAfterRipple:  &cancelAfter,
		ConditionHex:       &cond,
	}
}

func baseObservedCreate() *Observed {
	cancelAfter := int64(2000)
	return &Observed{
		Validated:          true,
		EngineResult:       "tesSUCCESS",
		OwnerAddress:       "rOwner",
		DestinationAddress: "rDest",
		AmountDrops:        1_000_000,
		FinishAfterRipple:  1000,
		CancelAfterRipple:  &cancelAfter,
		ConditionHex:       "AAAA",
	}
}

func TestValidateCreate_Success(t *testing.T) {
	err := ValidateCreate(baseEscrow(), baseObservedCreate())
	assert.NoError(t, err)
}

func TestValidateCreate_NotValidated(t *testing.T) {
	obs := baseObservedCreate()
	obs.Validated = false
	assert.Equal(t, ErrTxNotValidated, ValidateCreate(baseEscrow(), obs))
}

func TestValidateCreate_NotSuccess(t *testing.T) {
	obs := baseObservedCreate()
	obs.EngineResult = "tecNO_DST"
	assert.Equal(t, ErrTxNotSuccess, ValidateCreate(baseEscrow(), obs))
}

func TestValidateCreate_OwnerMismatch(t *testing.T) {
	obs := baseObservedCreate()
	obs.OwnerAddress = "rSomeoneElse"
	assert.Equal(t, ErrOwnerMismatch, ValidateCreate(baseEscrow(), obs))
}

func TestValidateCreate_AmountMismatch(t *testing.T) {
	obs := baseObservedCreate()
	obs.AmountDrops = 2_000_000
	assert.Equal(t, ErrAmountMismatch, ValidateCreate(baseEscrow(), obs))
}

func TestValidateCreate_ConditionMismatch(t *testing.T) {
	obs := baseObservedCreate()
	obs.ConditionHex = "BBBB"
	assert.Equal(t, ErrConditionMismatch, ValidateCreate(baseEscrow(), obs))
}

func TestValidateCreate_CancelAfterMismatch(t *testing.T) {
	obs := baseObservedCreate()
	other := int64(9999)
	obs.CancelAfterRipple = &other
	assert.Equal(t, ErrCancelAfterMismatch, ValidateCreate(baseEscrow(), obs))
}

func baseObservedFinish(offerSeq int64) *Observed {
	return &Observed{
		Validated:       true,
		EngineResult:    "tesSUCCESS",
		TransactionType: "EscrowFinish",
		OwnerAddress:    "rOwner",
		OfferSequence:   offerSeq,
		CloseTimeRipple: 1500,
	}
}

func TestValidatePayout_FinishSuccess_NoFulfillmentRequired(t *testing.T) {
	e := baseEscrow()
	seq := int64(42)
	e.OfferSequence = &seq

	obs := baseObservedFinish(42)
	err := ValidatePayout(e, obs, ActionFinish, "")
	assert.NoError(t, err)
}

func TestValidatePayout_FinishRequiresMatchingFulfillment(t *testing.T) {
	e := baseEscrow()
	seq := int64(42)
	e.OfferSequence = &seq

	obs := baseObservedFinish(42)
	obs.FulfillmentHex = "CAFE"
	err := ValidatePayout(e, obs, ActionFinish, "CAFE")
	assert.NoError(t, err)

	err = ValidatePayout(e, obs, ActionFinish, "BEEF")
	assert.Equal(t, ErrFulfillmentMismatch, err)
}

func TestValidatePayout_FinishRejectsUnexpectedFulfillment(t *testing.T) {
	e := baseEscrow()
	seq := int64(42)
	e.OfferSequence = &seq

	obs := baseObservedFinish(42)
	obs.FulfillmentHex = "CAFE"
	err := ValidatePayout(e, obs, ActionFinish, "")
	assert.Equal(t, ErrUnexpectedFulfillment, err)
}

func TestValidatePayout_FinishBeforeAllowed(t *testing.T) {
	e := baseEscrow()
	e.FinishAfterRipple = 2000
	seq := int64(42)
	e.OfferSequence = &seq

	obs := baseObservedFinish(42)
	err := ValidatePayout(e, obs, ActionFinish, "")
	assert.Equal(t, ErrFinishBeforeAllowed, err)
}

func TestValidatePayout_OfferSequenceMismatch(t *testing.T) {
	e := baseEscrow()
	seq := int64(42)
	e.OfferSequence = &seq

	obs := baseObservedFinish(43)
	err := ValidatePayout(e, obs, ActionFinish, "")
	assert.Equal(t, ErrOfferSequenceMismatch, err)
}

func TestValidatePayout_Cancel(t *testing.T) {
	e := baseEscrow()
	seq := int64(42)
	e.OfferSequence = &seq

	obs := &Observed{
		Validated:       true,
		EngineResult:    "tesSUCCESS",
		TransactionType: "EscrowCancel",
		OwnerAddress:    "rOwner",
		OfferSequence:   42,
		CloseTimeRipple: 3000,
	}
	assert.NoError(t, ValidatePayout(e, obs, ActionCancel, ""))

	obs.CloseTimeRipple = 1000
	assert.Equal(t, ErrCancelBeforeAllowed, ValidatePayout(e, obs, ActionCancel, ""))
}

func TestValidatePayout_CancelAfterMissing(t *testing.T) {
	e := baseEscrow()
	e.CancelAfterRipple = nil
	seq := int64(42)
	e.OfferSequence = &seq

	obs := &Observed{
		Validated:       true,
		EngineResult:    "tesSUCCESS",
		TransactionType: "EscrowCancel",
		OwnerAddress:    "rOwner",
		OfferSequence:   42,
		CloseTimeRipple: 3000,
	}
	assert.Equal(t, ErrCancelAfterMissing, ValidatePayout(e, obs, ActionCancel, ""))
}
