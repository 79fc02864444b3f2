package leaderboard

import (
	"strings"
	"testing"
)

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"reports", "Upvotes", " verifications ", "offers", "resolutions", ""} {
		if _, err := ParseMetric(s); err != nil {
			t.Errorf("ParseMetric(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseMetric("karma"); err == nil {
		t.Error("unknown metric should be rejected")
	}
}

func TestRank_SingleMetric(t *testing.T) {
	entries := []Entry{
		{Identity: "+23276000001", Upvotes: 2},
		{Identity: "+23276000002", Upvotes: 9},
		{Identity: "+23276000003", Upvotes: 5},
	}
	Rank(entries, MetricUpvotes)

	if entries[0].Identity != "+23276000002" || entries[0].Rank != 1 {
		t.Errorf("expected the heaviest upvoter first, got %+v", entries[0])
	}
	if entries[2].Identity != "+23276000001" || entries[2].Rank != 3 {
		t.Errorf("unexpected last entry %+v", entries[2])
	}
}

func TestRank_CompositeOrdering(t *testing.T) {
	// Composite: reports first, then offers, then upvotes.
	entries := []Entry{
		{Identity: "upvoter", Upvotes: 50},
		{Identity: "volunteer", Reports: 2, Offers: 8},
		{Identity: "reporter", Reports: 5},
		{Identity: "also-two-reports", Reports: 2, Offers: 1, Upvotes: 30},
	}
	Rank(entries, MetricComposite)

	want := []string{"reporter", "volunteer", "also-two-reports", "upvoter"}
	for i, id := range want {
		if entries[i].Identity != id {
			t.Errorf("position %d: expected %s, got %s", i, id, entries[i].Identity)
		}
	}
}

func TestRank_DeterministicTies(t *testing.T) {
	entries := []Entry{
		{Identity: "b", Reports: 1},
		{Identity: "a", Reports: 1},
	}
	Rank(entries, MetricReports)
	if entries[0].Identity != "a" {
		t.Error("equal entries should order by identity for stable output")
	}
}

func TestMaskIdentity(t *testing.T) {
	got := MaskIdentity("+23276100200")
	if got != "+2327*****00" {
		t.Errorf("unexpected mask %q", got)
	}
	if strings.Contains(got, "6100200"[0:5]) {
		t.Errorf("mask leaks subscriber digits: %q", got)
	}
	if MaskIdentity("short") != "***" {
		t.Error("short identities should be fully redacted")
	}
}
