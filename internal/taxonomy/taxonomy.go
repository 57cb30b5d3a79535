// Package taxonomy classifies validator errors and XRPL engine_result
// strings into the small set of stable, user-facing failure codes the rest
// of the system persists and surfaces to clients.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/boutledger/escrowsettle/internal/ledgervalidate"
)

const (
	SigningDeclined     = "signing_declined"
	ConfirmationTimeout = "confirmation_timeout"
	LedgerTecTem        = "ledger_tec_tem"
	LedgerNotSuccess    = "ledger_not_success"
	LedgerNotValidated  = "ledger_not_validated"
	InvalidConfirmation = "invalid_confirmation"
	SigningExpired      = "signing_expired"
)

var declinedResults = map[string]bool{
	"declined":        true,
	"user_declined":   true,
	"xaman_declined":  true,
	"cancelled":       true,
	"canceled":        true,
}

var timeoutResults = map[string]bool{
	"timeout":             true,
	"timed_out":           true,
	"confirmation_timeout": true,
	"ledger_timeout":      true,
	"tx_timeout":          true,
}

// Classify maps a validator error plus the raw (validated, engine_result)
// observation into one of the stable failure codes.
func Classify(validationErr error, validated bool, engineResult string) string {
	normalizedResult := strings.ToLower(strings.TrimSpace(engineResult))

	if declinedResults[normalizedResult] || strings.Contains(normalizedResult, "declined") {
		return SigningDeclined
	}
	if timeoutResults[normalizedResult] || strings.Contains(normalizedResult, "timeout") {
		return ConfirmationTimeout
	}

	switch validationErr {
	case ledgervalidate.ErrTxNotSuccess:
		if strings.HasPrefix(normalizedResult, "tec") || strings.HasPrefix(normalizedResult, "tem") {
			return LedgerTecTem
		}
		return LedgerNotSuccess
	case ledgervalidate.ErrTxNotValidated:
		if !validated {
			return ConfirmationTimeout
		}
		return LedgerNotValidated
	}

	return InvalidConfirmation
}

// Reason formats the machine-parseable failure reason string persisted
// alongside the classified code.
func Reason(validationErr error, validated bool, engineResult string) string {
	code := "nil"
	if validationErr != nil {
		code = validationErr.Error()
	}
	return fmt.Sprintf("validation_error=%s;validated=%t;engine_result=%s", code, validated, strings.TrimSpace(engineResult))
}
