package harvest

import (
	"context"
	"log/slog"

	"github.com/use-agent/qharvest/models"
)

// Defaults for the termination predicate, matching the tool's long-standing
// behavior: give up after five scroll rounds in a row with no new items, and
// never scroll more than fifty times total.
const (
	DefaultStagnationThreshold = 5
	DefaultMaxRounds           = 50
)

// Harvester composes the scroll controller, classifier, field extractor, and
// deduplicator into one pass over an infinite-scroll list.
//
// One navigation context is driven serially: growth, settle wait, and
// extraction never overlap, because the rendered DOM is a single shared
// mutable resource. Parallel harvests each need their own Harvester and
// NavContext; nothing here is shared.
type Harvester struct {
	Specs  Specs
	Origin string

	StagnationThreshold int
	MaxRounds           int

	// RequireAuth refuses to start against an unauthenticated session.
	RequireAuth bool

	// Progress, when non-nil, receives one event per scroll round.
	// Absence of a subscriber does not alter behavior.
	Progress func(models.RoundEvent)
}

// New returns a Harvester configured for Quora search results.
func New() *Harvester {
	return &Harvester{
		Specs:               DefaultSpecs(),
		Origin:              DefaultOrigin,
		StagnationThreshold: DefaultStagnationThreshold,
		MaxRounds:           DefaultMaxRounds,
	}
}

// Run harvests up to target records from nav.
//
// Each round, only the items newly visible since the prior round are
// processed: classify, extract, admit by URL, number sequentially from 1.
// The loop stops successfully once target records are accepted, on
// stagnation (possibly with fewer records: a partial success, not an error),
// or on cancellation, which is checked at round boundaries only so no
// half-classified record is ever produced. Navigation faults are fatal and
// propagate immediately; retry policy belongs to the caller.
//
// sess may be nil when RequireAuth is false.
func (h *Harvester) Run(ctx context.Context, nav NavContext, sess Session, target int) (*models.Report, error) {
	if target <= 0 {
		return nil, models.NewHarvestError(
			models.ErrCodeInvalidInput, "target count must be positive", nil)
	}
	if h.RequireAuth && (sess == nil || !sess.Authenticated()) {
		return nil, models.NewHarvestError(
			models.ErrCodeSessionRequired, "harvest requires an authenticated session", nil)
	}

	threshold := h.StagnationThreshold
	if threshold <= 0 {
		threshold = DefaultStagnationThreshold
	}
	maxRounds := h.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	extractor := Extractor{Specs: h.Specs, Origin: h.Origin}
	dedupe := NewDeduplicator()
	sc := &scrollController{nav: nav}
	report := &models.Report{}

	for sc.round < maxRounds {
		select {
		case <-ctx.Done():
			report.Reason = models.StopCanceled
			slog.Info("harvest canceled",
				"rounds", report.Rounds, "accepted", len(report.Records))
			return report, nil
		default:
		}

		res, err := sc.advance(ctx)
		if err != nil {
			return nil, err
		}
		report.Rounds = sc.round

		for _, it := range res.newItems() {
			rec, ok := extractor.Extract(it)
			if !ok {
				// No resolvable URL: the item has no identity.
				report.Skipped++
				continue
			}
			if !dedupe.Admit(rec.URL) {
				continue
			}
			rec.Seq = len(report.Records) + 1
			report.Records = append(report.Records, rec)
			if len(report.Records) >= target {
				break
			}
		}

		newCount := len(res.newItems())
		slog.Debug("scroll round complete",
			"round", sc.round,
			"newItems", newCount,
			"accepted", len(report.Records),
			"stagnantRounds", sc.stagnantRounds,
		)
		if h.Progress != nil {
			h.Progress(models.RoundEvent{
				Round:         sc.round,
				NewItems:      newCount,
				TotalAccepted: len(report.Records),
			})
		}

		if len(report.Records) >= target {
			report.Reason = models.StopTarget
			return report, nil
		}
		if sc.stagnantRounds >= threshold {
			report.Reason = models.StopStagnation
			return report, nil
		}
	}

	// Round cap reached without the target: same partial-success outcome
	// as stagnation.
	report.Reason = models.StopStagnation
	return report, nil
}
