package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscrowKind_IsBonus(t *testing.T) {
	assert.False(t, KindShowA.IsBonus())
	assert.False(t, KindShowB.IsBonus())
	assert.True(t, KindBonusA.IsBonus())
	assert.True(t, KindBonusB.IsBonus())
}

func TestEscrow_StampAndClearFailure(t *testing.T) {
	e := &Escrow{}
	e.StampFailure("signing_declined", "payload_id=abc;status=declined")
	assert.NotNil(t, e.FailureCode)
	assert.Equal(t, "signing_declined", *e.FailureCode)
	assert.NotNil(t, e.FailureReason)

	e.ClearFailure()
	assert.Nil(t, e.FailureCode)
	assert.Nil(t, e.FailureReason)
}
