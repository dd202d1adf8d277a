package extension

import (
	"testing"
	"time"

	"github.com/xraph/debate/entitlement"
)

func TestParsePrices(t *testing.T) {
	prices, err := parsePrices(map[string]int64{"match_top3": 4, " MATCH_ALL ": 9})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if prices[entitlement.FeatureMatchTop3] != 4 || prices[entitlement.FeatureMatchAll] != 9 {
		t.Errorf("prices = %v", prices)
	}

	if _, err := parsePrices(map[string]int64{"GOLD": 1}); err == nil {
		t.Error("expected unknown feature error")
	}
	if _, err := parsePrices(map[string]int64{"MATCH_ALL": -1}); err == nil {
		t.Error("expected negative price error")
	}
}

func TestMergeConfigurations(t *testing.T) {
	e := New()
	yaml := Config{MatchCacheTTL: time.Minute, Prices: map[string]int64{"MATCH_ALL": 7}}
	prog := Config{
		DisableRouter:   true,
		MatchCacheTTL:   time.Hour,
		SessionLifetime: 24 * time.Hour,
		Prices:          map[string]int64{"MATCH_ALL": 1, "MATCH_TOP3": 1},
	}

	got := e.mergeConfigurations(yaml, prog)
	if !got.DisableRouter {
		t.Error("programmatic DisableRouter lost")
	}
	if got.MatchCacheTTL != time.Minute {
		t.Errorf("MatchCacheTTL = %v, want file value", got.MatchCacheTTL)
	}
	if got.SessionLifetime != 24*time.Hour {
		t.Errorf("SessionLifetime = %v", got.SessionLifetime)
	}
	if got.PluginTimeout != DefaultConfig().PluginTimeout {
		t.Errorf("PluginTimeout = %v, want default", got.PluginTimeout)
	}
	if got.Prices["MATCH_ALL"] != 7 || got.Prices["MATCH_TOP3"] != 1 {
		t.Errorf("Prices = %v", got.Prices)
	}
}

func TestBuildEngineOpts(t *testing.T) {
	e := New(WithPrice("MATCH_ALL", 3), WithMatchCacheTTL(time.Minute))
	opts, err := e.buildEngineOpts()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(opts) != 2 {
		t.Errorf("len(opts) = %d, want 2", len(opts))
	}

	bad := New(WithPrice("GOLD", 1))
	if _, err := bad.buildEngineOpts(); err == nil {
		t.Error("expected error for unknown feature price")
	}
}
