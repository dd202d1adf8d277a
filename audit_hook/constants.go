package audithook

// Action constants for audit events.
const (
	// Session actions
	ActionSessionCreated    = "session.created"
	ActionParticipantJoined = "participant.joined"
	ActionParticipantLeft   = "participant.left"
	ActionQuestionAdded     = "question.added"
	ActionQuestionLimitHit  = "question.limit_reached"
	ActionResponseRecorded  = "response.recorded"

	// Matching actions
	ActionMatchesComputed = "matches.computed"

	// Billing actions
	ActionCreditsRecorded   = "credits.recorded"
	ActionGrantCreated      = "grant.created"
	ActionPurchaseCompleted = "purchase.completed"
	ActionPurchaseDenied    = "purchase.denied"
)

// Resource constants for audit events.
const (
	ResourceSession     = "session"
	ResourceParticipant = "participant"
	ResourceQuestion    = "question"
	ResourceResponse    = "response"
	ResourceMatch       = "match"
	ResourceCredit      = "credit"
	ResourceGrant       = "grant"
)

// Category constants for audit events.
const (
	CategorySession = "session"
	CategoryAccess  = "access"
	CategoryBilling = "billing"
)

// Severity levels for audit events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
