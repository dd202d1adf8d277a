package debate_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/debate"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/types"
)

const resource = "session:quiz_test"

func TestPurchaseOrVerifyIsIdempotent(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	if _, err := e.Credit(ctx, "alice", 10, credit.ReasonPurchase); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		feature     entitlement.Feature
		cost        types.Credits
		wantCharged bool
		wantBalance types.Credits
	}{
		{entitlement.FeatureMatchAll, 5, true, 5},
		{entitlement.FeatureMatchTop3, 2, false, 5},
		{entitlement.FeatureMatchAll, 5, false, 5},
		{entitlement.FeatureMatchPreview, 0, false, 5},
	}

	for _, step := range steps {
		res, err := e.PurchaseOrVerify(ctx, "alice", resource, step.feature, step.cost)
		if err != nil {
			t.Fatalf("%s: %v", step.feature, err)
		}
		if !res.Granted || res.Charged != step.wantCharged || res.Balance != step.wantBalance {
			t.Errorf("%s: got %+v, want charged=%v balance=%d", step.feature, res, step.wantCharged, step.wantBalance)
		}
	}

	history, err := e.History(ctx, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want credit + one debit", len(history))
	}
	if history[0].Amount != -5 || history[0].Reason != credit.ReasonMatchAll {
		t.Errorf("latest entry = %+v", history[0])
	}
}

func TestPurchaseOrVerifyBalanceBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		balance     types.Credits
		cost        types.Credits
		wantErr     bool
		wantBalance types.Credits
	}{
		{"exact balance", 2, 2, false, 0},
		{"one short", 1, 2, true, 1},
		{"empty wallet", 0, 5, true, 0},
		{"free feature", 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t)
			ctx := context.Background()
			if tt.balance > 0 {
				if _, err := e.Credit(ctx, "bob", tt.balance, credit.ReasonBonus); err != nil {
					t.Fatal(err)
				}
			}

			_, err := e.PurchaseOrVerify(ctx, "bob", resource, entitlement.FeatureMatchTop3, tt.cost)
			if tt.wantErr {
				ib, ok := debate.AsInsufficientBalance(err)
				if !ok {
					t.Fatalf("got %v, want *InsufficientBalanceError", err)
				}
				if ib.Required != tt.cost || ib.Current != tt.balance || ib.Feature != "MATCH_TOP3" {
					t.Errorf("error detail = %+v", ib)
				}
				if !errors.Is(err, debate.ErrInsufficientBalance) {
					t.Error("error should match ErrInsufficientBalance")
				}
				has, _ := e.HasAccess(ctx, "bob", resource, entitlement.FeatureMatchTop3)
				if has {
					t.Error("failed purchase must not grant access")
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			balance, _ := e.Balance(ctx, "bob")
			if balance != tt.wantBalance {
				t.Errorf("balance = %d, want %d", balance, tt.wantBalance)
			}
		})
	}
}

func TestPurchaseOrVerifyValidation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	if _, err := e.PurchaseOrVerify(ctx, "alice", resource, "MATCH_EVERYTHING", 1); !errors.Is(err, debate.ErrUnknownFeature) {
		t.Errorf("unknown feature: got %v", err)
	}
	if _, err := e.PurchaseOrVerify(ctx, "", resource, entitlement.FeatureMatchAll, 1); !debate.IsValidation(err) {
		t.Errorf("empty participant: got %v", err)
	}
	if _, err := e.PurchaseOrVerify(ctx, "alice", resource, entitlement.FeatureMatchAll, -1); !debate.IsValidation(err) {
		t.Errorf("negative cost: got %v", err)
	}
}

func TestConcurrentPurchasesChargeOnce(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	if _, err := e.Credit(ctx, "alice", 5, credit.ReasonPurchase); err != nil {
		t.Fatal(err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		charged int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.PurchaseOrVerify(ctx, "alice", resource, entitlement.FeatureMatchAll, 5)
			if err != nil {
				t.Errorf("purchase: %v", err)
				return
			}
			if res.Charged {
				mu.Lock()
				charged++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if charged != 1 {
		t.Errorf("charged %d times, want 1", charged)
	}
	if balance, _ := e.Balance(ctx, "alice"); balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestConcurrentDifferentFeaturesNeverOverdraw(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	if _, err := e.Credit(ctx, "alice", 5, credit.ReasonPurchase); err != nil {
		t.Fatal(err)
	}

	features := []entitlement.Feature{entitlement.FeatureMatchAll, entitlement.FeatureQuestionLimit10}
	errs := make([]error, len(features))
	var wg sync.WaitGroup
	for i, f := range features {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.PurchaseOrVerify(ctx, "alice", resource, f, 5)
		}()
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			if !errors.Is(err, debate.ErrInsufficientBalance) {
				t.Fatalf("unexpected error: %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want exactly one", failures)
	}
	if balance, _ := e.Balance(ctx, "alice"); balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestPurchaseUsesConfiguredPrice(t *testing.T) {
	e, _ := newEngine(t, debate.WithPrices(map[entitlement.Feature]types.Credits{
		entitlement.FeatureMatchTop3: 7,
	}))
	ctx := context.Background()

	if got := e.Price(entitlement.FeatureMatchAll); got != 5 {
		t.Errorf("default MATCH_ALL price = %d, want 5", got)
	}
	s := newSession(t, e, "alice")
	if _, err := e.Credit(ctx, "alice", 7, credit.ReasonPurchase); err != nil {
		t.Fatal(err)
	}
	res, err := e.Purchase(ctx, "alice", s.ID.String(), entitlement.FeatureMatchTop3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cost != 7 || res.Balance != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestPurchaseChecksRosterAndOwner(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	s := newSession(t, e, "alice")
	sid := s.ID.String()
	for _, pid := range []string{"owner", "alice", "mallory"} {
		if _, err := e.Credit(ctx, pid, 10, credit.ReasonPurchase); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		pid     string
		session string
		feature entitlement.Feature
		want    error
	}{
		{"non-owner question limit", "alice", sid, entitlement.FeatureQuestionLimit10, debate.ErrNotOwner},
		{"stranger question limit", "mallory", sid, entitlement.FeatureQuestionLimit10, debate.ErrParticipantNotFound},
		{"stranger match tier", "mallory", sid, entitlement.FeatureMatchAll, debate.ErrParticipantNotFound},
		{"missing session", "alice", "quiz_missing", entitlement.FeatureMatchAll, debate.ErrSessionNotFound},
		{"empty participant", "", sid, entitlement.FeatureMatchAll, debate.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Purchase(ctx, tt.pid, tt.session, tt.feature); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	for _, pid := range []string{"alice", "mallory"} {
		if balance, _ := e.Balance(ctx, pid); balance != 10 {
			t.Errorf("%s balance = %d, want 10", pid, balance)
		}
	}

	if res, err := e.Purchase(ctx, "owner", sid, entitlement.FeatureQuestionLimit10); err != nil || !res.Charged {
		t.Errorf("owner purchase = %+v, %v", res, err)
	}
	if res, err := e.Purchase(ctx, "alice", sid, entitlement.FeatureMatchAll); err != nil || !res.Charged {
		t.Errorf("member purchase = %+v, %v", res, err)
	}
}

func TestReasonFor(t *testing.T) {
	tests := map[entitlement.Feature]credit.Reason{
		entitlement.FeatureMatchTop3:       credit.ReasonMatchTop3,
		entitlement.FeatureMatchAll:        credit.ReasonMatchAll,
		entitlement.FeatureQuestionLimit10: credit.ReasonQuestionLimit,
		entitlement.FeatureMatchPreview:    credit.ReasonFeature,
	}
	for f, want := range tests {
		if got := debate.ReasonFor(f); got != want {
			t.Errorf("ReasonFor(%s) = %s, want %s", f, got, want)
		}
	}
}
