package model

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of user roles known to the API. The value is
// stored in the users table and carried in the JWT "role" claim. A typed
// constant set replaces ad hoc string comparison so that a misspelled
// role ("NTC" vs "ntc") fails loudly at the parse boundary instead of
// silently denying or granting access.
type Role string

const (
	RoleAdmin    Role = "admin"     // full administrative access
	RoleNTC      Role = "ntc"       // transport commission: manages routes and buses
	RoleBusOwner Role = "bus-owner" // schedules trips for owned buses
	RoleCommuter Role = "commuter"  // books and cancels seats
)

// ErrUnknownRole is returned by ParseRole for any string outside the set.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps a wire or database string onto a Role. Input is trimmed
// and lower-cased before matching; anything not in the closed set is
// rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleNTC, RoleBusOwner, RoleCommuter:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string { return string(r) }
