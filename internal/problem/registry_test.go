package problem

import "testing"

func TestCanTransition_ForwardOnly(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusReported, StatusInReview},
		{StatusReported, StatusInProgress},
		{StatusReported, StatusResolved},
		{StatusInReview, StatusInProgress},
		{StatusInReview, StatusResolved},
		{StatusInProgress, StatusResolved},
		{StatusReported, StatusRejected},
		{StatusInReview, StatusRejected},
		{StatusInProgress, StatusRejected},
	}
	for _, c := range allowed {
		if !CanTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be allowed", c.from, c.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusInReview, StatusReported},
		{StatusInProgress, StatusReported},
		{StatusInProgress, StatusInReview},
		{StatusResolved, StatusReported},
		{StatusResolved, StatusInProgress},
		{StatusResolved, StatusRejected},
		{StatusRejected, StatusReported},
		{StatusRejected, StatusResolved},
		{StatusReported, StatusReported},
		{StatusReported, Status("BOGUS")},
		{Status("BOGUS"), StatusResolved},
	}
	for _, c := range denied {
		if CanTransition(c.from, c.to) {
			t.Errorf("%s -> %s must be denied", c.from, c.to)
		}
	}
}

func TestMaskLog(t *testing.T) {
	if got := maskLog("+23276100200"); got != "+232…" {
		t.Errorf("unexpected mask %q", got)
	}
	if got := maskLog("ab"); got != "ab" {
		t.Errorf("short identities pass through, got %q", got)
	}
}
