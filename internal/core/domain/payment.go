package domain

// EventCheckoutCompleted is the only webhook event type that triggers an
// entitlement upgrade. All other types are acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutEvent is a signature-verified payment-provider webhook event,
// reduced to the fields the entitlement upgrader consumes.
type CheckoutEvent struct {
	Type           string
	CheckoutID     string // idempotence key: one upgrade per checkout session
	CustomerID     string
	SubscriptionID string
	UserID         string // application user id carried in session metadata
}

// UpgradeOutcome is the terminal result of applying a checkout event.
type UpgradeOutcome string

const (
	// OutcomeApplied means the profile was upgraded and credits granted.
	OutcomeApplied UpgradeOutcome = "applied"
	// OutcomeAlreadyApplied means this checkout reference was seen before;
	// no mutation happened (webhook redelivery).
	OutcomeAlreadyApplied UpgradeOutcome = "already-applied"
	// OutcomeIgnored means the event type is not acted upon.
	OutcomeIgnored UpgradeOutcome = "ignored"
)
