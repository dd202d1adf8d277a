// Package audithook bridges debate lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit store. Callers inject a RecorderFunc adapter, or the
// bundled SlogRecorder, at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/match"
	"github.com/xraph/debate/plugin"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnSessionCreated       = (*Extension)(nil)
	_ plugin.OnParticipantJoined    = (*Extension)(nil)
	_ plugin.OnParticipantLeft      = (*Extension)(nil)
	_ plugin.OnQuestionAdded        = (*Extension)(nil)
	_ plugin.OnQuestionLimitReached = (*Extension)(nil)
	_ plugin.OnResponseRecorded     = (*Extension)(nil)
	_ plugin.OnMatchesComputed      = (*Extension)(nil)
	_ plugin.OnCreditsRecorded      = (*Extension)(nil)
	_ plugin.OnGrantCreated         = (*Extension)(nil)
	_ plugin.OnPurchaseCompleted    = (*Extension)(nil)
	_ plugin.OnPurchaseDenied       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder writes every audit event as one structured log line.
func SlogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		level := slog.LevelInfo
		if evt.Severity == SeverityWarning {
			level = slog.LevelWarn
		}
		logger.LogAttrs(ctx, level, "audit",
			slog.String("action", evt.Action),
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("category", evt.Category),
			slog.String("outcome", evt.Outcome),
			slog.String("reason", evt.Reason),
			slog.Any("metadata", evt.Metadata),
		)
		return nil
	})
}

// Extension bridges debate lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionCreated implements plugin.OnSessionCreated.
func (e *Extension) OnSessionCreated(ctx context.Context, s *session.Session) error {
	return e.record(ctx, ActionSessionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSession, s.ID.String(), CategorySession, "",
		"owner_id", s.OwnerID,
		"expires_at", s.ExpiresAt,
	)
}

// OnParticipantJoined implements plugin.OnParticipantJoined.
func (e *Extension) OnParticipantJoined(ctx context.Context, sessionID string, p *session.Participant) error {
	return e.record(ctx, ActionParticipantJoined, SeverityInfo, OutcomeSuccess,
		ResourceParticipant, p.ID, CategorySession, "",
		"session_id", sessionID,
		"is_owner", p.IsOwner,
	)
}

// OnParticipantLeft implements plugin.OnParticipantLeft.
func (e *Extension) OnParticipantLeft(ctx context.Context, sessionID, participantID string) error {
	return e.record(ctx, ActionParticipantLeft, SeverityInfo, OutcomeSuccess,
		ResourceParticipant, participantID, CategorySession, "",
		"session_id", sessionID,
	)
}

// OnQuestionAdded implements plugin.OnQuestionAdded.
func (e *Extension) OnQuestionAdded(ctx context.Context, sessionID string, q *session.Question) error {
	return e.record(ctx, ActionQuestionAdded, SeverityInfo, OutcomeSuccess,
		ResourceQuestion, q.ID, CategorySession, "",
		"session_id", sessionID,
		"timer_seconds", q.TimerSeconds,
	)
}

// OnQuestionLimitReached implements plugin.OnQuestionLimitReached.
func (e *Extension) OnQuestionLimitReached(ctx context.Context, sessionID string, current, limit int) error {
	return e.record(ctx, ActionQuestionLimitHit, SeverityWarning, OutcomeFailure,
		ResourceSession, sessionID, CategoryAccess, "question limit reached",
		"current", current,
		"limit", limit,
	)
}

// OnResponseRecorded implements plugin.OnResponseRecorded.
func (e *Extension) OnResponseRecorded(ctx context.Context, r *session.Response) error {
	return e.record(ctx, ActionResponseRecorded, SeverityInfo, OutcomeSuccess,
		ResourceResponse, r.ID, CategorySession, "",
		"session_id", r.SessionID,
		"participant_id", r.ParticipantID,
		"question_id", r.QuestionID,
	)
}

// ──────────────────────────────────────────────────
// Matching hooks
// ──────────────────────────────────────────────────

// OnMatchesComputed implements plugin.OnMatchesComputed.
func (e *Extension) OnMatchesComputed(ctx context.Context, key match.Key, tier match.Tier, count int, cached bool) error {
	return e.record(ctx, ActionMatchesComputed, SeverityInfo, OutcomeSuccess,
		ResourceMatch, key.ParticipantID, CategoryAccess, "",
		"session_id", key.SessionID,
		"tier", string(tier),
		"count", count,
		"cached", cached,
	)
}

// ──────────────────────────────────────────────────
// Billing hooks
// ──────────────────────────────────────────────────

// OnCreditsRecorded implements plugin.OnCreditsRecorded.
func (e *Extension) OnCreditsRecorded(ctx context.Context, entry *credit.Entry) error {
	return e.record(ctx, ActionCreditsRecorded, SeverityInfo, OutcomeSuccess,
		ResourceCredit, entry.ID.String(), CategoryBilling, "",
		"participant_id", entry.ParticipantID,
		"amount", int64(entry.Amount),
		"reason", string(entry.Reason),
	)
}

// OnGrantCreated implements plugin.OnGrantCreated.
func (e *Extension) OnGrantCreated(ctx context.Context, g *entitlement.Grant) error {
	return e.record(ctx, ActionGrantCreated, SeverityInfo, OutcomeSuccess,
		ResourceGrant, g.ID.String(), CategoryAccess, "",
		"participant_id", g.ParticipantID,
		"resource_id", g.ResourceID,
		"feature", string(g.Feature),
	)
}

// OnPurchaseCompleted implements plugin.OnPurchaseCompleted.
func (e *Extension) OnPurchaseCompleted(ctx context.Context, participantID, resourceID string, f entitlement.Feature, charged types.Credits) error {
	return e.record(ctx, ActionPurchaseCompleted, SeverityInfo, OutcomeSuccess,
		ResourceGrant, resourceID, CategoryBilling, "",
		"participant_id", participantID,
		"feature", string(f),
		"charged", int64(charged),
	)
}

// OnPurchaseDenied implements plugin.OnPurchaseDenied.
func (e *Extension) OnPurchaseDenied(ctx context.Context, participantID, resourceID string, f entitlement.Feature, required, current types.Credits) error {
	return e.record(ctx, ActionPurchaseDenied, SeverityWarning, OutcomeFailure,
		ResourceGrant, resourceID, CategoryBilling, "insufficient balance",
		"participant_id", participantID,
		"feature", string(f),
		"required", int64(required),
		"current", int64(current),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	reason string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
