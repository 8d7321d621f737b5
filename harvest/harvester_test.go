package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/use-agent/qharvest/models"
)

// fakeNav scripts what is visible after each growth action. rounds[i] holds
// every item visible after the (i+1)-th Grow; past the script's end the last
// round repeats, which models a page that stopped loading.
type fakeNav struct {
	rounds [][]Item
	grows  int
	navErr error
}

func (n *fakeNav) Grow(ctx context.Context) error {
	n.grows++
	return n.navErr
}

func (n *fakeNav) Settle(ctx context.Context) error { return nil }

func (n *fakeNav) Items(ctx context.Context) ([]Item, error) {
	if len(n.rounds) == 0 {
		return nil, nil
	}
	idx := n.grows - 1
	if idx >= len(n.rounds) {
		idx = len(n.rounds) - 1
	}
	return n.rounds[idx], nil
}

type fakeSession struct{ auth bool }

func (s fakeSession) Authenticated() bool { return s.auth }

// qItem builds an item that resolves against testSpecs.
func qItem(href string, answered bool) fakeItem {
	reads := map[Rule]string{
		{Selector: "a", Attr: "href"}: href,
		{Selector: "a"}:               "title of " + href,
	}
	exists := map[string]bool{}
	if answered {
		exists[".answer"] = true
		reads[Rule{Selector: ".views"}] = "5 views"
		reads[Rule{Selector: ".likes"}] = "2"
	} else {
		reads[Rule{Selector: ".follow-label"}] = "Follow"
		reads[Rule{Selector: ".follow-count"}] = "7"
	}
	return fakeItem{reads: reads, exists: exists}
}

func testHarvester() *Harvester {
	h := New()
	h.Specs = testSpecs()
	return h
}

func TestRun_TargetReachedInFirstRound(t *testing.T) {
	nav := &fakeNav{rounds: [][]Item{{
		qItem("/q1", false),
		qItem("/q2", false),
		qItem("/q3", false),
		qItem("/a1", true),
		qItem("/a2", true),
	}}}

	report, err := testHarvester().Run(context.Background(), nav, nil, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Reason != models.StopTarget {
		t.Errorf("Reason = %q, want %q", report.Reason, models.StopTarget)
	}
	if len(report.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(report.Records))
	}
	if nav.grows != 1 {
		t.Errorf("grow actions = %d, want exactly 1 (no scroll past the target)", nav.grows)
	}
	for i, rec := range report.Records {
		if rec.Seq != i+1 {
			t.Errorf("record %d has Seq %d, want %d", i, rec.Seq, i+1)
		}
	}
}

func TestRun_StagnationAfterExactlyFiveEmptyRounds(t *testing.T) {
	nav := &fakeNav{} // never produces any items

	report, err := testHarvester().Run(context.Background(), nav, nil, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Reason != models.StopStagnation {
		t.Errorf("Reason = %q, want %q", report.Reason, models.StopStagnation)
	}
	if nav.grows != 5 {
		t.Errorf("grow actions = %d, want exactly 5", nav.grows)
	}
	if len(report.Records) != 0 {
		t.Errorf("got %d records, want 0", len(report.Records))
	}
	if report.Rounds != 5 {
		t.Errorf("Rounds = %d, want 5", report.Rounds)
	}
}

func TestRun_PositiveDeltaResetsStagnationCounter(t *testing.T) {
	one := []Item{qItem("/q1", false)}
	two := []Item{qItem("/q1", false), qItem("/q2", false)}
	nav := &fakeNav{rounds: [][]Item{
		one, one, one, one, one, // round 1 grows, rounds 2-5 stagnant
		two, // round 6 grows again: counter resets
	}}

	report, err := testHarvester().Run(context.Background(), nav, nil, 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Rounds 7-11 repeat the last script entry with no delta, so the
	// counter only reaches the threshold five rounds after the reset.
	if nav.grows != 11 {
		t.Errorf("grow actions = %d, want 11", nav.grows)
	}
	if len(report.Records) != 2 {
		t.Errorf("got %d records, want 2", len(report.Records))
	}
}

func TestRun_DuplicateURLAcrossRoundsIsDropped(t *testing.T) {
	first := qItem("/q1", false)
	nav := &fakeNav{rounds: [][]Item{
		{first},
		// The re-render exposes /q1 again as a "new" item alongside a
		// genuinely new one.
		{first, qItem("/q1", false), qItem("/q2", true)},
	}}

	report, err := testHarvester().Run(context.Background(), nav, nil, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(report.Records))
	}
	urls := map[string]bool{}
	for i, rec := range report.Records {
		if urls[rec.URL] {
			t.Errorf("duplicate URL %q in output", rec.URL)
		}
		urls[rec.URL] = true
		if rec.Seq != i+1 {
			t.Errorf("Seq sequence has a gap: record %d has Seq %d", i, rec.Seq)
		}
	}
}

func TestRun_ItemsWithoutURLAreSkippedAndCounted(t *testing.T) {
	noLink := fakeItem{reads: map[Rule]string{{Selector: "a"}: "orphaned title"}}
	nav := &fakeNav{rounds: [][]Item{{
		qItem("/q1", false),
		noLink,
		qItem("/q2", true),
	}}}

	report, err := testHarvester().Run(context.Background(), nav, nil, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if len(report.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(report.Records))
	}
	if report.Records[1].Seq != 2 {
		t.Errorf("skipped item left a gap: second record has Seq %d", report.Records[1].Seq)
	}
}

func TestRun_CancellationReturnsPartialResult(t *testing.T) {
	nav := &fakeNav{rounds: [][]Item{{qItem("/q1", false)}}}
	h := testHarvester()

	ctx, cancel := context.WithCancel(context.Background())
	cancelAfterFirstRound := func(models.RoundEvent) { cancel() }
	h.Progress = cancelAfterFirstRound

	report, err := h.Run(ctx, nav, nil, 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Reason != models.StopCanceled {
		t.Errorf("Reason = %q, want %q", report.Reason, models.StopCanceled)
	}
	if len(report.Records) != 1 {
		t.Errorf("accumulated records discarded on cancel: got %d, want 1", len(report.Records))
	}
	if nav.grows != 1 {
		t.Errorf("grow actions after cancel = %d, want 1", nav.grows)
	}
}

func TestRun_SessionRequired(t *testing.T) {
	h := testHarvester()
	h.RequireAuth = true
	nav := &fakeNav{rounds: [][]Item{{qItem("/q1", false)}}}

	for _, sess := range []Session{nil, fakeSession{auth: false}} {
		_, err := h.Run(context.Background(), nav, sess, 1)
		if err == nil {
			t.Fatal("Run should fail for an unauthenticated session")
		}
		var herr *models.HarvestError
		if !errors.As(err, &herr) || herr.Code != models.ErrCodeSessionRequired {
			t.Errorf("error = %v, want code %s", err, models.ErrCodeSessionRequired)
		}
		if nav.grows != 0 {
			t.Errorf("scrolling started before the session check: %d grows", nav.grows)
		}
	}

	if _, err := h.Run(context.Background(), nav, fakeSession{auth: true}, 1); err != nil {
		t.Errorf("Run with authenticated session: %v", err)
	}
}

func TestRun_NavigationFaultIsFatal(t *testing.T) {
	nav := &fakeNav{navErr: fmt.Errorf("page crashed")}

	report, err := testHarvester().Run(context.Background(), nav, nil, 5)
	if err == nil {
		t.Fatal("Run should propagate a navigation fault")
	}
	if report != nil {
		t.Error("a fatal fault must not return a report implied to be complete")
	}
	var herr *models.HarvestError
	if !errors.As(err, &herr) || herr.Code != models.ErrCodeNavigation {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeNavigation)
	}
}

func TestRun_InvalidTarget(t *testing.T) {
	nav := &fakeNav{}
	for _, target := range []int{0, -3} {
		if _, err := testHarvester().Run(context.Background(), nav, nil, target); err == nil {
			t.Errorf("Run with target %d should fail", target)
		}
	}
}

func TestRun_ProgressEvents(t *testing.T) {
	nav := &fakeNav{rounds: [][]Item{
		{qItem("/q1", false)},
		{qItem("/q1", false), qItem("/q2", false)},
	}}
	h := testHarvester()

	var events []models.RoundEvent
	h.Progress = func(ev models.RoundEvent) { events = append(events, ev) }

	if _, err := h.Run(context.Background(), nav, nil, 2); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d progress events, want 2", len(events))
	}
	if events[0].Round != 1 || events[0].NewItems != 1 || events[0].TotalAccepted != 1 {
		t.Errorf("event 1 = %+v", events[0])
	}
	if events[1].Round != 2 || events[1].NewItems != 1 || events[1].TotalAccepted != 2 {
		t.Errorf("event 2 = %+v", events[1])
	}
}
