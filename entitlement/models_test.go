package entitlement_test

import (
	"testing"

	"github.com/xraph/debate/entitlement"
)

func TestIncludes(t *testing.T) {
	tests := []struct {
		granted   entitlement.Feature
		requested entitlement.Feature
		want      bool
	}{
		{entitlement.FeatureMatchAll, entitlement.FeatureMatchAll, true},
		{entitlement.FeatureMatchAll, entitlement.FeatureMatchTop3, true},
		{entitlement.FeatureMatchAll, entitlement.FeatureMatchPreview, true},
		{entitlement.FeatureMatchAll, entitlement.FeatureQuestionLimit10, false},
		{entitlement.FeatureMatchTop3, entitlement.FeatureMatchAll, false},
		{entitlement.FeatureMatchTop3, entitlement.FeatureMatchPreview, true},
		{entitlement.FeatureMatchPreview, entitlement.FeatureMatchTop3, false},
		{entitlement.FeatureQuestionLimit10, entitlement.FeatureQuestionLimit10, true},
		{entitlement.FeatureQuestionLimit10, entitlement.FeatureMatchPreview, false},
		{entitlement.Feature("BOGUS"), entitlement.FeatureMatchPreview, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.granted)+"/"+string(tt.requested), func(t *testing.T) {
			if got := tt.granted.Includes(tt.requested); got != tt.want {
				t.Errorf("Includes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	for _, f := range entitlement.Features() {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if entitlement.Feature("MATCH_SOME").Valid() {
		t.Error("unknown feature reported valid")
	}
}

func TestSessionResource(t *testing.T) {
	r := entitlement.SessionResource("quiz_123")
	if r != "session:quiz_123" {
		t.Fatalf("SessionResource = %q", r)
	}
	sid, ok := entitlement.SessionFromResource(r)
	if !ok || sid != "quiz_123" {
		t.Errorf("SessionFromResource = %q, %v", sid, ok)
	}
	if _, ok := entitlement.SessionFromResource("user:1"); ok {
		t.Error("expected non-session resource to be rejected")
	}
}

func TestUnlocks(t *testing.T) {
	got := entitlement.FeatureMatchAll.Unlocks()
	if len(got) != 3 {
		t.Errorf("MATCH_ALL unlocks %v, want 3 features", got)
	}
	if entitlement.Feature("BOGUS").Unlocks() != nil {
		t.Error("unknown feature should unlock nothing")
	}
}
