package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/condition"
	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/moneytime"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/pkg/xrpl"
)

var (
	ErrFightersMustDiffer = errors.New("fighter_a_and_fighter_b_must_differ")
	ErrNegativeAmount     = errors.New("purse_amount_must_be_non_negative")
	ErrInvalidXRPLAddress = errors.New("invalid_xrpl_address")
)

// CreateBoutRequest is the input to planning a new bout and its four escrows.
type CreateBoutRequest struct {
	PromoterUserID             uuid.UUID
	FighterAUserID             uuid.UUID
	FighterBUserID             uuid.UUID
	EventDatetimeUTC           time.Time
	OwnerAddress               string
	FighterADestinationAddress string
	FighterBDestinationAddress string
	ShowADrops                 int64
	ShowBDrops                 int64
	BonusADrops                int64
	BonusBDrops                int64
}

// BoutPlanner materializes a draft bout together with its four planned
// escrows and, for the two bonus purses, a fresh preimage/condition pair.
type BoutPlanner struct {
	db      *sql.DB
	bouts   repository.BoutRepository
	escrows repository.EscrowRepository
	audit   *AuditService
}

func NewBoutPlanner(db *sql.DB, bouts repository.BoutRepository, escrows repository.EscrowRepository, audit *AuditService) *BoutPlanner {
	return &BoutPlanner{db: db, bouts: bouts, escrows: escrows, audit: audit}
}

// Plan validates req, computes the shared finish/cancel instants, and
// persists the bout plus its four PLANNED escrows in one transaction.
func (p *BoutPlanner) Plan(req *CreateBoutRequest, trail *[]*models.AuditLog) (*models.Bout, []*models.Escrow, error) {
	if req.FighterAUserID == req.FighterBUserID {
		return nil, nil, ErrFightersMustDiffer
	}
	if req.ShowADrops < 0 || req.ShowBDrops < 0 || req.BonusADrops < 0 || req.BonusBDrops < 0 {
		return nil, nil, ErrNegativeAmount
	}
	if err := moneytime.RequireUTC(req.EventDatetimeUTC); err != nil {
		return nil, nil, err
	}
	if !xrpl.ValidateAddress(req.OwnerAddress) || !xrpl.ValidateAddress(req.FighterADestinationAddress) || !xrpl.ValidateAddress(req.FighterBDestinationAddress) {
		return nil, nil, ErrInvalidXRPLAddress
	}

	finishAfterUTC := moneytime.FinishAfter(req.EventDatetimeUTC)
	cancelAfterUTC := moneytime.BonusCancelAfter(req.EventDatetimeUTC)
	finishAfterRipple, err := moneytime.ToRippleEpoch(finishAfterUTC)
	if err != nil {
		return nil, nil, err
	}
	cancelAfterRipple, err := moneytime.ToRippleEpoch(cancelAfterUTC)
	if err != nil {
		return nil, nil, err
	}

	bout := &models.Bout{
		ID:               uuid.New(),
		PromoterUserID:   req.PromoterUserID,
		FighterAUserID:   req.FighterAUserID,
		FighterBUserID:   req.FighterBUserID,
		EventDatetimeUTC: req.EventDatetimeUTC,
		FinishAfterUTC:   finishAfterUTC,
		CancelAfterUTC:   cancelAfterUTC,
		ShowA:            req.ShowADrops,
		ShowB:            req.ShowBDrops,
		BonusA:           req.BonusADrops,
		BonusB:           req.BonusBDrops,
		Status:           models.BoutDraft,
		Winner:           models.WinnerNone,
	}

	escrows := make([]*models.Escrow, 0, 4)
	plans := []struct {
		kind        models.EscrowKind
		destination string
		amount      int64
	}{
		{models.KindShowA, req.FighterADestinationAddress, req.ShowADrops},
		{models.KindShowB, req.FighterBDestinationAddress, req.ShowBDrops},
		{models.KindBonusA, req.FighterADestinationAddress, req.BonusADrops},
		{models.KindBonusB, req.FighterBDestinationAddress, req.BonusBDrops},
	}
	for _, pl := range plans {
		e := &models.Escrow{
			ID:                 uuid.New(),
			BoutID:             bout.ID,
			Kind:               pl.kind,
			Status:             models.EscrowPlanned,
			OwnerAddress:       req.OwnerAddress,
			DestinationAddress: pl.destination,
			AmountDrops:        pl.amount,
			FinishAfterRipple:  finishAfterRipple,
		}
		if pl.kind.IsBonus() {
			preimage, err := condition.GeneratePreimage()
			if err != nil {
				return nil, nil, err
			}
			cond, err := condition.MakeCondition(preimage)
			if err != nil {
				return nil, nil, err
			}
			ca := cancelAfterRipple
			e.CancelAfterRipple = &ca
			e.ConditionHex = &cond
			e.EncryptedPreimageHex = &preimage
		}
		escrows = append(escrows, e)
	}

	tx, err := p.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := p.bouts.Create(tx, bout); err != nil {
		return nil, nil, err
	}
	if err := p.escrows.CreateBatch(tx, escrows); err != nil {
		return nil, nil, err
	}
	if _, err := p.audit.RecordTracked(tx, trail, &req.PromoterUserID, "bout.create", "bout", bout.ID, models.OutcomeSuccess, "bout planned with four escrows"); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	return bout, escrows, nil
}
