// Package observability provides a metrics extension for the debate engine
// that records lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/plugin"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnSessionCreated       = (*MetricsExtension)(nil)
	_ plugin.OnParticipantJoined    = (*MetricsExtension)(nil)
	_ plugin.OnParticipantLeft      = (*MetricsExtension)(nil)
	_ plugin.OnQuestionAdded        = (*MetricsExtension)(nil)
	_ plugin.OnQuestionLimitReached = (*MetricsExtension)(nil)
	_ plugin.OnResponseRecorded     = (*MetricsExtension)(nil)
	_ plugin.OnMatchesComputed      = (*MetricsExtension)(nil)
	_ plugin.OnCreditsRecorded      = (*MetricsExtension)(nil)
	_ plugin.OnGrantCreated         = (*MetricsExtension)(nil)
	_ plugin.OnPurchaseCompleted    = (*MetricsExtension)(nil)
	_ plugin.OnPurchaseDenied       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to track session and billing metrics.
type MetricsExtension struct {
	// Session metrics
	SessionsCreated     Counter
	ParticipantsJoined  Counter
	ParticipantsLeft    Counter
	QuestionsAdded      Counter
	QuestionLimitHits   Counter
	ResponsesRecorded   Counter
	QuestionTimerLength Histogram

	// Matching metrics
	MatchLookups     Counter
	MatchCacheHits   Counter
	MatchCacheMisses Counter
	MatchesReturned  Histogram

	// Billing metrics
	CreditsAdded      Counter
	CreditsSpent      Counter
	GrantsCreated     Counter
	PurchasesCharged  Counter
	PurchasesVerified Counter
	PurchasesDenied   Counter
	PurchaseAmount    Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		// Session metrics
		SessionsCreated:     factory.Counter("debate.session.created"),
		ParticipantsJoined:  factory.Counter("debate.participant.joined"),
		ParticipantsLeft:    factory.Counter("debate.participant.left"),
		QuestionsAdded:      factory.Counter("debate.question.added"),
		QuestionLimitHits:   factory.Counter("debate.question.limit_reached"),
		ResponsesRecorded:   factory.Counter("debate.response.recorded"),
		QuestionTimerLength: factory.Histogram("debate.question.timer_seconds"),

		// Matching metrics
		MatchLookups:     factory.Counter("debate.matches.lookups"),
		MatchCacheHits:   factory.Counter("debate.matches.cache.hits"),
		MatchCacheMisses: factory.Counter("debate.matches.cache.misses"),
		MatchesReturned:  factory.Histogram("debate.matches.returned"),

		// Billing metrics
		CreditsAdded:      factory.Counter("debate.credits.added"),
		CreditsSpent:      factory.Counter("debate.credits.spent"),
		GrantsCreated:     factory.Counter("debate.grant.created"),
		PurchasesCharged:  factory.Counter("debate.purchase.charged"),
		PurchasesVerified: factory.Counter("debate.purchase.verified"),
		PurchasesDenied:   factory.Counter("debate.purchase.denied"),
		PurchaseAmount:    factory.Histogram("debate.purchase.amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionCreated implements plugin.OnSessionCreated.
func (m *MetricsExtension) OnSessionCreated(_ context.Context, _ *session.Session) error {
	m.SessionsCreated.Inc()
	return nil
}

// OnParticipantJoined implements plugin.OnParticipantJoined.
func (m *MetricsExtension) OnParticipantJoined(_ context.Context, _ string, _ *session.Participant) error {
	m.ParticipantsJoined.Inc()
	return nil
}

// OnParticipantLeft implements plugin.OnParticipantLeft.
func (m *MetricsExtension) OnParticipantLeft(_ context.Context, _, _ string) error {
	m.ParticipantsLeft.Inc()
	return nil
}

// OnQuestionAdded implements plugin.OnQuestionAdded.
func (m *MetricsExtension) OnQuestionAdded(_ context.Context, _ string, q *session.Question) error {
	m.QuestionsAdded.Inc()
	m.QuestionTimerLength.Observe(float64(q.TimerSeconds))
	return nil
}

// OnQuestionLimitReached implements plugin.OnQuestionLimitReached.
func (m *MetricsExtension) OnQuestionLimitReached(_ context.Context, _ string, _, _ int) error {
	m.QuestionLimitHits.Inc()
	return nil
}

// OnResponseRecorded implements plugin.OnResponseRecorded.
func (m *MetricsExtension) OnResponseRecorded(_ context.Context, _ *session.Response) error {
	m.ResponsesRecorded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Matching hooks
// ──────────────────────────────────────────────────

// OnMatchesComputed implements plugin.OnMatchesComputed.
func (m *MetricsExtension) OnMatchesComputed(_ context.Context, _ match.Key, _ match.Tier, count int, cached bool) error {
	m.MatchLookups.Inc()
	if cached {
		m.MatchCacheHits.Inc()
	} else {
		m.MatchCacheMisses.Inc()
	}
	m.MatchesReturned.Observe(float64(count))
	return nil
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnCreditsRecorded implements plugin.OnCreditsRecorded.
func (m *MetricsExtension) OnCreditsRecorded(_ context.Context, e *credit.Entry) error {
	if e.IsDebit() {
		m.CreditsSpent.Add(float64(-e.Amount))
	} else {
		m.CreditsAdded.Add(float64(e.Amount))
	}
	return nil
}

// OnGrantCreated implements plugin.OnGrantCreated.
func (m *MetricsExtension) OnGrantCreated(_ context.Context, _ *entitlement.Grant) error {
	m.GrantsCreated.Inc()
	return nil
}

// OnPurchaseCompleted implements plugin.OnPurchaseCompleted.
func (m *MetricsExtension) OnPurchaseCompleted(_ context.Context, _, _ string, _ entitlement.Feature, charged types.Credits) error {
	if charged > 0 {
		m.PurchasesCharged.Inc()
		m.PurchaseAmount.Observe(float64(charged))
	} else {
		m.PurchasesVerified.Inc()
	}
	return nil
}

// OnPurchaseDenied implements plugin.OnPurchaseDenied.
func (m *MetricsExtension) OnPurchaseDenied(_ context.Context, _, _ string, _ entitlement.Feature, _, _ types.Credits) error {
	m.PurchasesDenied.Inc()
	return nil
}
