// Package moneytime implements drop arithmetic and Ripple-epoch conversion,
// the two primitives every other package in this module builds on.
package moneytime

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// RippleEpochOffset is the number of seconds between the Unix epoch and the
// Ripple epoch (2000-01-01T00:00:00Z).
const RippleEpochOffset int64 = 946_684_800

const dropsPerXRP = 1_000_000

var (
	ErrNegativeDrops        = errors.New("drops_must_be_non_negative")
	ErrFractionalDrops      = errors.New("xrp_amount_does_not_convert_to_whole_drops")
	ErrDropsOverflow        = errors.New("drops_exceed_int64_range")
	ErrDatetimeNotTZAware   = errors.New("datetime_must_be_timezone_aware")
	ErrNegativeRippleSecond = errors.New("ripple_time_must_be_non_negative")
)

// XRPToDrops converts a decimal XRP amount, given as a base-10 string (e.g.
// "12.5" or "12.500000"), to an integer drop count. The conversion must be
// exact: any amount finer than 10^-6 XRP is rejected rather than rounded.
func XRPToDrops(xrp string) (int64, error) {
	neg := strings.HasPrefix(xrp, "-")
	if neg {
		return 0, ErrNegativeDrops
	}
	whole, frac, hasFrac := strings.Cut(xrp, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 6 {
		trailing := frac[6:]
		if strings.Trim(trailing, "0") != "" {
			return 0, ErrFractionalDrops
		}
		frac = frac[:6]
	}
	frac = frac + strings.Repeat("0", 6-len(frac))
	if !hasFrac {
		frac = "000000"
	}
	wholeN, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrFractionalDrops
	}
	fracN, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrFractionalDrops
	}
	if wholeN > (math.MaxInt64-fracN)/dropsPerXRP {
		return 0, ErrDropsOverflow
	}
	return wholeN*dropsPerXRP + fracN, nil
}

// DropsToXRP converts an integer drop count back to a decimal XRP string.
func DropsToXRP(drops int64) (string, error) {
	if drops < 0 {
		return "", ErrNegativeDrops
	}
	whole := drops / dropsPerXRP
	frac := drops % dropsPerXRP
	return strconv.FormatInt(whole, 10) + "." + pad6(frac), nil
}

func pad6(n int64) string {
	s := strconv.FormatInt(n, 10)
	return strings.Repeat("0", 6-len(s)) + s
}

// ToRippleEpoch converts a UTC instant to Ripple-epoch seconds. The input
// must carry a UTC location; naive/local times are rejected per spec.
func ToRippleEpoch(t time.Time) (int64, error) {
	if t.Location() != time.UTC {
		return 0, ErrDatetimeNotTZAware
	}
	sec := t.Unix() - RippleEpochOffset
	if sec < 0 {
		return 0, ErrNegativeRippleSecond
	}
	return sec, nil
}

// FromRippleEpoch converts Ripple-epoch seconds to a UTC time.Time.
func FromRippleEpoch(rippleSeconds int64) (time.Time, error) {
	if rippleSeconds < 0 {
		return time.Time{}, ErrNegativeRippleSecond
	}
	return time.Unix(rippleSeconds+RippleEpochOffset, 0).UTC(), nil
}

// FinishAfter computes the show-purse finish-after instant: event + 2h.
func FinishAfter(eventUTC time.Time) time.Time {
	return eventUTC.Add(2 * time.Hour)
}

// BonusCancelAfter computes the bonus-purse cancel-after instant: event + 7d.
func BonusCancelAfter(eventUTC time.Time) time.Time {
	return eventUTC.Add(7 * 24 * time.Hour)
}

// RequireUTC rejects any time.Time not carrying the UTC location, matching
// invariant 6: all stored timestamps are timezone-aware UTC.
func RequireUTC(t time.Time) error {
	if t.Location() != time.UTC {
		return ErrDatetimeNotTZAware
	}
	return nil
}
