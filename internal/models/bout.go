package models

import (
	"time"

	"github.com/google/uuid"
)

// BoutStatus is the bout state machine's tagged union.
type BoutStatus string

const (
	BoutDraft               BoutStatus = "DRAFT"
	BoutEscrowsCreated      BoutStatus = "ESCROWS_CREATED"
	BoutResultEntered       BoutStatus = "RESULT_ENTERED"
	BoutPayoutsInProgress   BoutStatus = "PAYOUTS_IN_PROGRESS"
	BoutClosed              BoutStatus = "CLOSED"
)

// BoutWinner identifies which fighter won, or that no result has been
// entered yet.
type BoutWinner string

const (
	WinnerNone BoutWinner = ""
	WinnerA    BoutWinner = "A"
	WinnerB    BoutWinner = "B"
)

// Bout is a single fight whose purses are settled via four XRPL escrows.
type Bout struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PromoterUserID   uuid.UUID  `db:"promoter_user_id" json:"promoter_user_id"`
	FighterAUserID   uuid.UUID  `db:"fighter_a_user_id" json:"fighter_a_user_id"`
	FighterBUserID   uuid.UUID  `db:"fighter_b_user_id" json:"fighter_b_user_id"`
	EventDatetimeUTC time.Time  `db:"event_datetime_utc" json:"event_datetime_utc"`
	FinishAfterUTC   time.Time  `db:"finish_after_utc" json:"finish_after_utc"`
	CancelAfterUTC   time.Time  `db:"cancel_after_utc" json:"cancel_after_utc"`
	ShowA            int64      `db:"show_a_drops" json:"show_a_drops"`
	ShowB            int64      `db:"show_b_drops" json:"show_b_drops"`
	BonusA           int64      `db:"bonus_a_drops" json:"bonus_a_drops"`
	BonusB           int64      `db:"bonus_b_drops" json:"bonus_b_drops"`
	Status           BoutStatus `db:"status" json:"status"`
	Winner           BoutWinner `db:"winner" json:"winner"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// boutTransitions enumerates every legal (from, to) edge. No other
// transition is permitted; illegal combinations fail at the call site.
var boutTransitions = map[BoutStatus]BoutStatus{
	BoutDraft:             BoutEscrowsCreated,
	BoutEscrowsCreated:    BoutResultEntered,
	BoutResultEntered:     BoutPayoutsInProgress,
	BoutPayoutsInProgress: BoutClosed,
}

// CanTransition reports whether (from -> to) is a legal bout edge.
func CanTransition(from, to BoutStatus) bool {
	return boutTransitions[from] == to
}
