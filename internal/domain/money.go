package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Credits is the platform's internal balance unit stored as integer cents.
// All ledger arithmetic is done on Credits; floats never touch balances.
type Credits int64

// MaxCredits is the largest amount ParseCredits accepts: one billion units.
// Prices and grants stay far enough below the int64 range that a booking
// total (price times at most MaxBookingSeats) cannot overflow.
const MaxCredits Credits = 1_000_000_000_00

// CreditsFromCents builds a Credits value from minor units.
func CreditsFromCents(cents int64) Credits { return Credits(cents) }

// Cents returns the value in minor units.
func (c Credits) Cents() int64 { return int64(c) }

// Times multiplies a per-seat price by a seat count.
func (c Credits) Times(n int) Credits { return c * Credits(n) }

// Percent returns p percent of c, truncated toward zero. Whole hundreds are
// scaled before the remainder so c*p never has to fit in an int64.
func (c Credits) Percent(p int64) Credits {
	pp := Credits(p)
	return c/100*pp + c%100*pp/100
}

// String renders c with exactly two fractional digits, e.g. "45.50".
func (c Credits) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseCredits parses a decimal amount with at most two fractional digits and
// a magnitude of at most MaxCredits.
// "45.5", "45.50", "45" and "-3.25" are accepted; "1.234" and "abc" are not.
func ParseCredits(s string) (Credits, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" || (hasDot && frac == "") || len(frac) > 2 {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	if len(frac) == 1 {
		frac += "0"
	}
	if frac == "" {
		frac = "00"
	}

	units, err := strconv.ParseUint(whole, 10, 62)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	cents, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	if units > uint64(MaxCredits/100) {
		return 0, fmt.Errorf("%w: amount %q exceeds %s", ErrValidation, s, MaxCredits)
	}

	v := Credits(units*100 + cents)
	if v > MaxCredits {
		return 0, fmt.Errorf("%w: amount %q exceeds %s", ErrValidation, s, MaxCredits)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// MarshalJSON renders Credits as a JSON number with two decimals.
func (c Credits) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts either a JSON number (45.5) or a string ("45.50").
func (c *Credits) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := ParseCredits(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
