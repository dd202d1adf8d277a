package audithook_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/xraph/debate"
	audithook "github.com/xraph/debate/audit_hook"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/store/memory"
)

type collector struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (c *collector) Record(_ context.Context, evt *audithook.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *collector) find(action string) *audithook.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, evt := range c.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(t *testing.T, ext *audithook.Extension) *debate.Engine {
	t.Helper()
	e := debate.New(memory.New(), debate.WithLogger(quiet), debate.WithPlugin(ext))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func TestEngineEventsReachRecorder(t *testing.T) {
	ctx := context.Background()
	rec := &collector{}
	e := newEngine(t, audithook.New(rec, audithook.WithLogger(quiet)))

	s, err := e.CreateSession(ctx, "owner", "Olive")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sid := s.ID.String()

	if _, err := e.Purchase(ctx, "owner", sid, entitlement.FeatureMatchTop3); err == nil {
		t.Fatal("expected insufficient balance")
	}
	if _, err := e.Credit(ctx, "owner", 5, credit.ReasonBonus); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := e.Purchase(ctx, "owner", sid, entitlement.FeatureMatchTop3); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	created := rec.find(audithook.ActionSessionCreated)
	if created == nil || created.ResourceID != sid || created.Metadata["owner_id"] != "owner" {
		t.Fatalf("session.created = %+v", created)
	}

	denied := rec.find(audithook.ActionPurchaseDenied)
	if denied == nil {
		t.Fatal("missing purchase.denied")
	}
	if denied.Outcome != audithook.OutcomeFailure || denied.Severity != audithook.SeverityWarning {
		t.Errorf("denied outcome/severity = %s/%s", denied.Outcome, denied.Severity)
	}
	if denied.Metadata["required"] != int64(2) || denied.Metadata["current"] != int64(0) {
		t.Errorf("denied metadata = %v", denied.Metadata)
	}

	for _, action := range []string{
		audithook.ActionCreditsRecorded,
		audithook.ActionGrantCreated,
		audithook.ActionPurchaseCompleted,
	} {
		if rec.find(action) == nil {
			t.Errorf("missing %s", action)
		}
	}
}

func TestEnabledAndDisabledActions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opt     audithook.Option
		want    string
		notWant string
	}{
		{
			name:    "enabled only",
			opt:     audithook.WithEnabledActions(audithook.ActionCreditsRecorded),
			want:    audithook.ActionCreditsRecorded,
			notWant: audithook.ActionSessionCreated,
		},
		{
			name:    "disabled",
			opt:     audithook.WithDisabledActions(audithook.ActionCreditsRecorded),
			want:    audithook.ActionSessionCreated,
			notWant: audithook.ActionCreditsRecorded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &collector{}
			e := newEngine(t, audithook.New(rec, audithook.WithLogger(quiet), tt.opt))

			if _, err := e.CreateSession(ctx, "owner", ""); err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, err := e.Credit(ctx, "owner", 1, credit.ReasonBonus); err != nil {
				t.Fatalf("credit: %v", err)
			}

			if rec.find(tt.want) == nil {
				t.Errorf("missing %s", tt.want)
			}
			if rec.find(tt.notWant) != nil {
				t.Errorf("unexpected %s", tt.notWant)
			}
		})
	}
}

func TestRecorderFailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	ext := audithook.New(failing, audithook.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	if err := ext.OnParticipantLeft(context.Background(), "quiz_1", "p1"); err != nil {
		t.Fatalf("hook returned %v", err)
	}
	if !strings.Contains(buf.String(), "backend down") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestSlogRecorder(t *testing.T) {
	var buf bytes.Buffer
	ext := audithook.New(audithook.SlogRecorder(slog.New(slog.NewJSONHandler(&buf, nil))))

	if err := ext.OnQuestionLimitReached(context.Background(), "quiz_1", 3, 3); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"action":"question.limit_reached"`, `"reason":"question limit reached"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}
