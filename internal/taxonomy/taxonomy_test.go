package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boutledger/escrowsettle/internal/ledgervalidate"
)

func TestClassify_Declined(t *testing.T) {
	assert.Equal(t, SigningDeclined, Classify(nil, true, "user_declined"))
	assert.Equal(t, SigningDeclined, Classify(nil, true, "XAMAN_DECLINED"))
}

func TestClassify_Timeout(t *testing.T) {
	assert.Equal(t, ConfirmationTimeout, Classify(nil, false, "timed_out"))
	assert.Equal(t, ConfirmationTimeout, Classify(nil, false, "ledger_timeout"))
}

func TestClassify_TecTem(t *testing.T) {
	assert.Equal(t, LedgerTecTem, Classify(ledgervalidate.ErrTxNotSuccess, true, "tecNO_DST"))
	assert.Equal(t, LedgerTecTem, Classify(ledgervalidate.ErrTxNotSuccess, true, "temBAD_AMOUNT"))
}

func TestClassify_NotSuccessOtherwise(t *testing.T) {
	assert.Equal(t, LedgerNotSuccess, Classify(ledgervalidate.ErrTxNotSuccess, true, "telFAILED_PROCESSING"))
}

func TestClassify_NotValidated(t *testing.T) {
	assert.Equal(t, ConfirmationTimeout, Classify(ledgervalidate.ErrTxNotValidated, false, ""))
	assert.Equal(t, LedgerNotValidated, Classify(ledgervalidate.ErrTxNotValidated, true, ""))
}

func TestClassify_InvalidConfirmationFallback(t *testing.T) {
	assert.Equal(t, InvalidConfirmation, Classify(ledgervalidate.ErrOwnerMismatch, true, "tesSUCCESS"))
}

func TestReason_FormatsFields(t *testing.T) {
	got := Reason(ledgervalidate.ErrAmountMismatch, true, " tesSUCCESS ")
	assert.Equal(t, "validation_error=ledger_amount_mismatch;validated=true;engine_result=tesSUCCESS", got)

	got = Reason(nil, false, "")
	assert.Equal(t, "validation_error=nil;validated=false;engine_result=", got)
}
