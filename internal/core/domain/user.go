package domain

import "time"

// Role is the access level stored on a user profile.
type Role string

const (
	RoleUser   Role = "user"
	RoleTester Role = "tester"
	RoleAdmin  Role = "admin"
)

// ParseRole decodes a role string coming from storage or external input.
// Anything unrecognised (including the empty string) falls back to the
// least-privileged role rather than failing open.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleTester:
		return RoleTester
	default:
		return RoleUser
	}
}

// Plan is the subscription tier of a user profile.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Profile is the per-user document held in the profile store. The primary
// key is the identity provider's stable user id.
type Profile struct {
	UserID               string    `json:"userId"`
	Email                string    `json:"email,omitempty"`
	Role                 Role      `json:"role"`
	Plan                 Plan      `json:"plan"`
	Credits              int64     `json:"credits"`
	Banned               bool      `json:"banned,omitempty"`
	StripeCheckoutID     string    `json:"stripeCheckoutId,omitempty"`
	StripeCustomerID     string    `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	LastLoginAt          time.Time `json:"lastLoginAt"`
	LastActivityAt       time.Time `json:"lastActivity,omitempty"`
}

// HasRole reports whether the profile's role is one of the given roles.
func (p *Profile) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Identity is the verified caller identity produced by the credential verifier.
type Identity struct {
	UserID string
	Email  string
}
