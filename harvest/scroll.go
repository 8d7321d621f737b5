package harvest

import (
	"context"

	"github.com/use-agent/qharvest/models"
)

// roundResult is what one scroll round produced: the fresh handles for every
// currently visible item, the index where this round's new items start, and
// whether the round was stagnant (zero newly visible items).
type roundResult struct {
	items    []Item
	newStart int
	stagnant bool
}

func (r roundResult) newItems() []Item {
	if r.newStart >= len(r.items) {
		return nil
	}
	return r.items[r.newStart:]
}

// scrollController drives incremental page growth and measures the
// item-count delta per round. It owns the scroll state (loaded count,
// stagnation counter, round index); the orchestrator owns the termination
// decision.
type scrollController struct {
	nav            NavContext
	loaded         int
	stagnantRounds int
	round          int
}

// advance runs one round: grow, bounded settle wait, fresh item re-query,
// delta measurement. Item handles from previous rounds are never reused;
// they go stale after scrolling.
func (s *scrollController) advance(ctx context.Context) (roundResult, error) {
	s.round++

	if err := s.nav.Grow(ctx); err != nil {
		return roundResult{}, models.NewHarvestError(
			models.ErrCodeNavigation, "page growth action failed", err)
	}
	if err := s.nav.Settle(ctx); err != nil {
		return roundResult{}, models.NewHarvestError(
			models.ErrCodeNavigation, "settle wait failed", err)
	}

	items, err := s.nav.Items(ctx)
	if err != nil {
		return roundResult{}, models.NewHarvestError(
			models.ErrCodeNavigation, "visible item query failed", err)
	}

	res := roundResult{items: items, newStart: s.loaded}
	if len(items) > s.loaded {
		// Any positive delta resets the stagnation counter.
		s.stagnantRounds = 0
		s.loaded = len(items)
	} else {
		// A shrunken count is a re-render quirk; treat it as stagnant
		// and keep the high-water mark so old items are not reprocessed.
		s.stagnantRounds++
		res.stagnant = true
	}
	return res, nil
}
