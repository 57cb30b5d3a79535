// Package xrpl assembles unsigned XRPL transaction payloads. It never
// submits, signs, or connects to a node — those are explicit non-goals.
// EscrowFinish/EscrowCancel are assembled through Peersyst/xrpl-go's own
// transaction types and Flatten(), the same construction the teacher's
// enhanced client uses before handing a transaction to a wallet for
// signing; only the signing/submission half is out of scope here.
package xrpl

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/Peersyst/xrpl-go/xrpl/transaction"
	"github.com/Peersyst/xrpl-go/xrpl/transaction/types"

	"github.com/boutledger/escrowsettle/internal/condition"
	"github.com/boutledger/escrowsettle/internal/models"
)

var addressPattern = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,33}$`)

// ValidateAddress reports whether address is a syntactically valid XRPL
// classic address. Mirrors the teacher's own Client.ValidateAddress, which
// checks the same way rather than reaching into xrpl-go for it.
func ValidateAddress(address string) bool {
	return addressPattern.MatchString(address)
}

var (
	ErrOfferSequenceMissing = errors.New("escrow_offer_sequence_missing")
)

// BuildEscrowCreate assembles the unsigned EscrowCreate payload for an
// escrow still in PLANNED state. Field names are bit-exact XRPL vocabulary.
// Assembled by hand rather than through xrpl-go's transaction types: the
// teacher's own CreateEscrow path (enhanced_client.go) never constructs an
// EscrowCreate via that library either — it defers to a bespoke
// TransactionSigner instead, so there is no grounded field mapping to
// reuse here, unlike EscrowFinish/EscrowCancel below.
func BuildEscrowCreate(e *models.Escrow) (map[string]any, error) {
	tx := map[string]any{
		"TransactionType": "EscrowCreate",
		"Account":         e.OwnerAddress,
		"Destination":     e.DestinationAddress,
		"Amount":          strconv.FormatInt(e.AmountDrops, 10),
		"FinishAfter":     e.FinishAfterRipple,
	}
	if e.CancelAfterRipple != nil {
		tx["CancelAfter"] = *e.CancelAfterRipple
	}
	if e.ConditionHex != nil && *e.ConditionHex != "" {
		normalized, err := condition.NormalizeHex(*e.ConditionHex)
		if err != nil {
			return nil, err
		}
		if normalized != "" {
			tx["Condition"] = normalized
		}
	}
	return tx, nil
}

// BuildEscrowFinish assembles the unsigned EscrowFinish payload. fulfillment
// may be empty for a non-bonus escrow or a still-not-disclosed losing bonus.
func BuildEscrowFinish(e *models.Escrow, fulfillmentHex string) (map[string]any, error) {
	if e.OfferSequence == nil {
		return nil, ErrOfferSequenceMissing
	}
	normalized, err := condition.NormalizeHex(fulfillmentHex)
	if err != nil {
		return nil, err
	}

	escrowFinish := &transaction.EscrowFinish{
		BaseTx: transaction.BaseTx{
			Account: types.Address(e.OwnerAddress),
		},
		Owner:         types.Address(e.OwnerAddress),
		OfferSequence: uint32(*e.OfferSequence),
	}
	if normalized != "" {
		escrowFinish.Fulfillment = normalized
	}

	tx := escrowFinish.Flatten()
	tx["TransactionType"] = "EscrowFinish"
	tx["Account"] = string(escrowFinish.Account)
	tx["Owner"] = string(escrowFinish.Owner)
	tx["OfferSequence"] = *e.OfferSequence
	if normalized == "" {
		delete(tx, "Fulfillment")
	} else {
		tx["Fulfillment"] = normalized
	}
	return tx, nil
}

// BuildEscrowCancel assembles the unsigned EscrowCancel payload.
func BuildEscrowCancel(e *models.Escrow) (map[string]any, error) {
	if e.OfferSequence == nil {
		return nil, ErrOfferSequenceMissing
	}

	escrowCancel := &transaction.EscrowCancel{
		BaseTx: transaction.BaseTx{
			Account: types.Address(e.OwnerAddress),
		},
		Owner:         types.Address(e.OwnerAddress),
		OfferSequence: uint32(*e.OfferSequence),
	}

	tx := escrowCancel.Flatten()
	tx["TransactionType"] = "EscrowCancel"
	tx["Account"] = string(escrowCancel.Account)
	tx["Owner"] = string(escrowCancel.Owner)
	tx["OfferSequence"] = *e.OfferSequence
	return tx, nil
}
