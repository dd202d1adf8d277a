package debate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/debate"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/match"
)

// matchSession builds a session where, from the owner's point of view,
// alice agrees 100%, bob 50% and carol 0%. dave never answers.
func matchSession(t *testing.T, e *debate.Engine) string {
	t.Helper()
	s := newSession(t, e, "alice", "bob", "carol", "dave")
	sid := s.ID.String()

	q1 := publish(t, e, sid, "Mountains or sea?")
	q2 := publish(t, e, sid, "Books or films?")

	answers := map[string][2]string{
		"owner": {"yes", "yes"},
		"alice": {"yes", "yes"},
		"bob":   {"yes", "no"},
		"carol": {"no", "no"},
	}
	for pid, a := range answers {
		answer(t, e, sid, pid, q1.ID, a[0])
		answer(t, e, sid, pid, q2.ID, a[1])
	}
	return sid
}

func TestMatchesFor(t *testing.T) {
	e, _ := newEngine(t)
	sid := matchSession(t, e)

	ranked, cached, err := e.MatchesFor(context.Background(), sid, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first lookup should compute")
	}

	want := []struct {
		id  string
		pct float64
	}{{"alice", 100}, {"bob", 50}, {"carol", 0}}
	if len(ranked) != len(want) {
		t.Fatalf("ranked = %+v", ranked)
	}
	for i, w := range want {
		if ranked[i].ParticipantID != w.id || ranked[i].Percentage != w.pct {
			t.Errorf("rank %d = %+v, want %s %.0f", i, ranked[i], w.id, w.pct)
		}
	}
}

func TestMatchCacheInvalidation(t *testing.T) {
	e, clock := newEngine(t)
	ctx := context.Background()
	sid := matchSession(t, e)

	if _, cached, _ := e.MatchesFor(ctx, sid, "owner"); cached {
		t.Fatal("first lookup should compute")
	}
	if _, cached, _ := e.MatchesFor(ctx, sid, "owner"); !cached {
		t.Fatal("second lookup should hit the cache")
	}

	publish(t, e, sid, "Summer or winter?")
	if _, cached, _ := e.MatchesFor(ctx, sid, "owner"); cached {
		t.Error("a new question should invalidate the cache")
	}
	if _, cached, _ := e.MatchesFor(ctx, sid, "owner"); !cached {
		t.Error("recomputed ranking should be cached again")
	}

	clock.Advance(debate.DefaultMatchCacheTTL)
	if _, cached, _ := e.MatchesFor(ctx, sid, "owner"); cached {
		t.Error("entry past its TTL should miss")
	}
}

func TestMatchCacheCustomTTL(t *testing.T) {
	e, clock := newEngine(t, debate.WithMatchCacheTTL(time.Minute))
	ctx := context.Background()
	sid := matchSession(t, e)

	_, _, _ = e.MatchesFor(ctx, sid, "alice")
	clock.Advance(59 * time.Second)
	if _, cached, _ := e.MatchesFor(ctx, sid, "alice"); !cached {
		t.Error("entry inside its TTL should hit")
	}
	clock.Advance(time.Second)
	if _, cached, _ := e.MatchesFor(ctx, sid, "alice"); cached {
		t.Error("entry at its TTL should miss")
	}
}

func TestRevealMatches(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	sid := matchSession(t, e)

	preview, err := e.RevealMatches(ctx, sid, "owner", match.TierPreview)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.Cost != 0 || len(preview.Matches) != 0 {
		t.Errorf("preview of three matches = %+v, want empty and free", preview)
	}

	_, err = e.RevealMatches(ctx, sid, "owner", match.TierTop3)
	ib, ok := debate.AsInsufficientBalance(err)
	if !ok || ib.Required != 2 || ib.Current != 0 {
		t.Fatalf("top3 without credits: got %v", err)
	}

	if _, err := e.Credit(ctx, "owner", 10, credit.ReasonPurchase); err != nil {
		t.Fatal(err)
	}
	top, err := e.RevealMatches(ctx, sid, "owner", match.TierTop3)
	if err != nil {
		t.Fatal(err)
	}
	if top.Cost != 2 || len(top.Matches) != 3 || top.Matches[0].ParticipantID != "alice" {
		t.Errorf("top3 = %+v", top)
	}

	again, err := e.RevealMatches(ctx, sid, "owner", match.TierTop3)
	if err != nil {
		t.Fatal(err)
	}
	if again.Cost != 0 {
		t.Errorf("second reveal cost %d, want 0", again.Cost)
	}

	if balance, _ := e.Balance(ctx, "owner"); balance != 8 {
		t.Errorf("balance = %d, want 8", balance)
	}

	if _, err := e.RevealMatches(ctx, sid, "owner", "GOLD"); !errors.Is(err, debate.ErrUnknownTier) {
		t.Errorf("unknown tier: got %v", err)
	}
	if _, err := e.RevealMatches(ctx, sid, "ghost", match.TierPreview); !errors.Is(err, debate.ErrParticipantNotFound) {
		t.Errorf("unknown participant: got %v", err)
	}
}

func TestMatchesByTierSkipsEntitlements(t *testing.T) {
	e, _ := newEngine(t)
	sid := matchSession(t, e)

	all, err := e.MatchesByTier(context.Background(), sid, "bob", match.TierAll)
	if err != nil {
		t.Fatal(err)
	}
	// bob agrees 50% with everyone; ties order by id.
	if len(all) != 3 {
		t.Fatalf("bob's ranking = %+v", all)
	}
	if all[0].ParticipantID != "alice" || all[1].ParticipantID != "carol" || all[2].ParticipantID != "owner" {
		t.Errorf("bob's ranking = %+v", all)
	}
}
