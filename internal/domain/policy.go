package domain

import "fmt"

// SeatPolicy decides what accepting and rejecting a pending booking does to
// the trip's seat count.
//
//   - SeatPolicyHold: seats are taken once, at creation. Accept leaves them
//     alone; reject gives them back.
//   - SeatPolicyLegacy: accept takes the seats a second time and reject leaves
//     the seat count untouched.
type SeatPolicy string

const (
	SeatPolicyHold   SeatPolicy = "hold"
	SeatPolicyLegacy SeatPolicy = "legacy"
)

// ParseSeatPolicy returns the policy named by s.
func ParseSeatPolicy(s string) (SeatPolicy, error) {
	switch SeatPolicy(s) {
	case SeatPolicyHold, SeatPolicyLegacy:
		return SeatPolicy(s), nil
	}
	return "", fmt.Errorf("unknown seat policy %q (want hold or legacy)", s)
}

// SeatsOnAccept is how many seats accepting a booking of n seats takes.
func (p SeatPolicy) SeatsOnAccept(n int) int {
	if p == SeatPolicyLegacy {
		return n
	}
	return 0
}

// SeatsOnReject is how many seats rejecting a booking of n seats gives back.
func (p SeatPolicy) SeatsOnReject(n int) int {
	if p == SeatPolicyLegacy {
		return 0
	}
	return n
}
