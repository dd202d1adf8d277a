package debate_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/debate"
	"github.com/xraph/debate/session"
	"github.com/xraph/debate/store/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newEngine(t *testing.T, opts ...debate.Option) (*debate.Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	st := memory.New(memory.WithClock(clock.Now))
	base := []debate.Option{
		debate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		debate.WithClock(clock.Now),
	}
	e := debate.New(st, append(base, opts...)...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e, clock
}

// newSession creates a session owned by "owner" and joins the given
// participants.
func newSession(t *testing.T, e *debate.Engine, participants ...string) *session.Session {
	t.Helper()
	ctx := context.Background()
	s, err := e.CreateSession(ctx, "owner", "Olive")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, pid := range participants {
		if s, err = e.JoinSession(ctx, s.ID.String(), pid, pid); err != nil {
			t.Fatalf("join %s: %v", pid, err)
		}
	}
	return s
}

func publish(t *testing.T, e *debate.Engine, sessionID string, prompt string) session.Question {
	t.Helper()
	res, err := e.PublishQuestion(context.Background(), sessionID, "owner", debate.QuestionDraft{
		Prompt:  prompt,
		Options: []string{"yes", "no"},
	})
	if err != nil {
		t.Fatalf("publish %q: %v", prompt, err)
	}
	return res.Question
}

func answer(t *testing.T, e *debate.Engine, sessionID, participantID, questionID, option string) {
	t.Helper()
	_, err := e.RecordResponse(context.Background(), sessionID, session.Response{
		ParticipantID: participantID,
		QuestionID:    questionID,
		OptionChosen:  option,
	})
	if err != nil {
		t.Fatalf("answer %s/%s: %v", participantID, questionID, err)
	}
}
