package subscription

import "time"

// WebhookOutcome is what the reconciler did with a provider notification.
type WebhookOutcome string

const (
	WebhookOutcomeApplied          WebhookOutcome = "applied"
	WebhookOutcomeRecorded         WebhookOutcome = "recorded"
	WebhookOutcomeIgnored          WebhookOutcome = "ignored"
	WebhookOutcomeAlreadyProcessed WebhookOutcome = "already_processed"
	WebhookOutcomeFailed           WebhookOutcome = "failed"
)

// WebhookEvent archives a raw provider notification together with its outcome.
// Events cannot be re-derived without the original payload, so every delivery is kept.
type WebhookEvent struct {
	ID           uint
	ProviderID   string
	Topic        string
	Action       string
	ResourceID   string
	Payload      []byte
	Outcome      WebhookOutcome
	ErrorMessage string
	ReceivedAt   time.Time
}
