package xrpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutledger/escrowsettle/internal/models"
)

func TestValidateAddress(t *testing.T) {
	assert.True(t, ValidateAddress("rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH"))
	assert.False(t, ValidateAddress("not-an-address"))
	assert.False(t, ValidateAddress(""))
}

func TestBuildEscrowCreate_WithCondition(t *testing.T) {
	cancelAfter := int64(2000)
	cond := "abcd"
	e := &models.Escrow{
		OwnerAddress:       "rOwner",
		DestinationAddress: "rDest",
		AmountDrops:        1_500_000,
		FinishAfterRipple:  1000,
		CancelAfterRipple:  &cancelAfter,
		ConditionHex:       &cond,
	}

	tx, err := BuildEscrowCreate(e)
	require.NoError(t, err)
	assert.Equal(t, "EscrowCreate", tx["TransactionType"])
	assert.Equal(t, "rOwner", tx["Account"])
	assert.Equal(t, "rDest", tx["Destination"])
	assert.Equal(t, "1500000", tx["Amount"])
	assert.Equal(t, int64(1000), tx["FinishAfter"])
	assert.Equal(t, int64(2000), tx["CancelAfter"])
	assert.Equal(t, "ABCD", tx["Condition"])
}

func TestBuildEscrowCreate_WithoutCondition(t *testing.T) {
	e := &models.Escrow{
		OwnerAddress:       "rOwner",
		DestinationAddress: "rDest",
		AmountDrops:        1_000_000,
		FinishAfterRipple:  1000,
	}

	tx, err := BuildEscrowCreate(e)
	require.NoError(t, err)
	_, hasCondition := tx["Condition"]
	assert.False(t, hasCondition)
	_, hasCancelAfter := tx["CancelAfter"]
	assert.False(t, hasCancelAfter)
}

func TestBuildEscrowFinish_RequiresOfferSequence(t *testing.T) {
	e := &models.Escrow{OwnerAddress: "rOwner"}
	_, err := BuildEscrowFinish(e, "")
	assert.Equal(t, ErrOfferSequenceMissing, err)
}

func TestBuildEscrowFinish_WithFulfillment(t *testing.T) {
	seq := int64(7)
	e := &models.Escrow{OwnerAddress: "rOwner", OfferSequence: &seq}

	tx, err := BuildEscrowFinish(e, "cafe")
	require.NoError(t, err)
	assert.Equal(t, "EscrowFinish", tx["TransactionType"])
	assert.Equal(t, int64(7), tx["OfferSequence"])
	assert.Equal(t, "CAFE", tx["Fulfillment"])
}

func TestBuildEscrowCancel_RequiresOfferSequence(t *testing.T) {
	e := &models.Escrow{OwnerAddress: "rOwner"}
	_, err := BuildEscrowCancel(e)
	assert.Equal(t, ErrOfferSequenceMissing, err)
}

func TestBuildEscrowCancel(t *testing.T) {
	seq := int64(9)
	e := &models.Escrow{OwnerAddress: "rOwner", OfferSequence: &seq}

	tx, err := BuildEscrowCancel(e)
	require.NoError(t, err)
	assert.Equal(t, "EscrowCancel", tx["TransactionType"])
	assert.Equal(t, int64(9), tx["OfferSequence"])
}
