package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Role is a capability tag carried by a user.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

func (r Role) bit() Roles {
	switch r {
	case RolePassenger:
		return 1 << 0
	case RoleDriver:
		return 1 << 1
	case RoleAdmin:
		return 1 << 2
	}
	return 0
}

var allRoles = []Role{RolePassenger, RoleDriver, RoleAdmin}

// Roles is a set of Role tags. Authorization checks are membership tests.
type Roles uint8

// NewRoles builds a set from the given tags.
func NewRoles(rs ...Role) Roles {
	var out Roles
	for _, r := range rs {
		out |= r.bit()
	}
	return out
}

// ParseRoles builds a set from raw strings, rejecting unknown tags.
func ParseRoles(raw []string) (Roles, error) {
	var out Roles
	for _, s := range raw {
		b := Role(s).bit()
		if b == 0 {
			return 0, fmt.Errorf("%w: unknown role %q", ErrValidation, s)
		}
		out |= b
	}
	return out, nil
}

// Has reports whether r is in the set.
func (rs Roles) Has(r Role) bool {
	bit := r.bit()
	return bit != 0 && rs&bit != 0
}

// Strings returns the tags in a stable, sorted order.
func (rs Roles) Strings() []string {
	out := make([]string, 0, len(allRoles))
	for _, r := range allRoles {
		if rs.Has(r) {
			out = append(out, string(r))
		}
	}
	sort.Strings(out)
	return out
}

func (rs Roles) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.Strings())
}

func (rs *Roles) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRoles(raw)
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}

// User is a marketplace account. Credits are mutated only by the booking
// ledger and by admin grants.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Roles     Roles
	Credits   Credits
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated caller of a request, as resolved by the
// identity middleware. It is trusted as-is.
type Principal struct {
	UserID uuid.UUID
	Roles  Roles
}

// Can reports whether the principal carries role r. Admins pass every check.
func (p Principal) Can(r Role) bool {
	return p.Roles.Has(r) || p.Roles.Has(RoleAdmin)
}
