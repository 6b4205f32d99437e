package domain

import (
	"fmt"
	"strings"
)

// NotFound is shown when a lookup succeeded but yielded no usable name.
const NotFound = "Not Found"

// IdentityStatus records how an Identity was resolved.
type IdentityStatus string

const (
	IdentityFound    IdentityStatus = "found"
	IdentityTrustee  IdentityStatus = "trustee"
	IdentityNotFound IdentityStatus = "not_found"
	IdentityError    IdentityStatus = "error"
)

// Identity is the display name resolved for an activator, or a marker
// explaining why there is none.
type Identity struct {
	Name       string         `json:"name,omitempty"`
	Status     IdentityStatus `json:"status"`
	StatusCode int            `json:"status_code,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// ResolveIdentity picks a display name from a callsign record:
//  1. first and last name, when both are present
//  2. the trustee, for club and special-event calls held in trust
//  3. otherwise NotFound
func ResolveIdentity(first, last, trustee string) Identity {
	first, last, trustee = strings.TrimSpace(first), strings.TrimSpace(last), strings.TrimSpace(trustee)
	switch {
	case first != "" && last != "":
		return Identity{Name: first + " " + last, Status: IdentityFound}
	case trustee != "":
		return Identity{Name: trustee, Status: IdentityTrustee}
	default:
		return Identity{Status: IdentityNotFound}
	}
}

// LookupFailure records a lookup rejected with a non-success HTTP status.
func LookupFailure(statusCode int, reason string) Identity {
	return Identity{Status: IdentityError, StatusCode: statusCode, Reason: reason}
}

func (i Identity) String() string {
	switch i.Status {
	case IdentityFound, IdentityTrustee:
		return i.Name
	case IdentityError:
		return fmt.Sprintf("ERROR: %d: %s", i.StatusCode, i.Reason)
	default:
		return NotFound
	}
}
