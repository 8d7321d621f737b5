package harvest

import (
	"strings"

	"github.com/use-agent/qharvest/models"
)

// emptyFieldDefault substitutes for every textual field that resolved empty.
const emptyFieldDefault = "0"

// Extractor classifies one item and pulls its typed fields through the
// locator chains.
type Extractor struct {
	Specs  Specs
	Origin string
}

// Classify decides which shape an item belongs to. The answered-indicator
// chain is checked first and wins: when a transitional render shows signals
// of both shapes, the presence of an answer body is taken at face value and
// the row is Answered. An item is Unanswered only when every indicator rule
// misses.
func (e Extractor) Classify(it Item) models.RecordKind {
	if e.Specs.Answered.Present(it) {
		return models.KindAnswered
	}
	return models.KindUnanswered
}

// Extract builds a Record (minus Seq, assigned by the orchestrator) from one
// item. The second return is false when the item has no resolvable URL: such
// an item cannot be deduplicated or reported, so it is skipped rather than
// defaulted. Every other field degrades to "0" instead of aborting.
func (e Extractor) Extract(it Item) (models.Record, bool) {
	link := CanonicalURL(e.Origin, e.Specs.Link.Extract(it))
	if link == "" {
		return models.Record{}, false
	}

	rec := models.Record{
		Title: orDefault(e.Specs.Title.Extract(it)),
		URL:   link,
		Kind:  e.Classify(it),
	}

	switch rec.Kind {
	case models.KindAnswered:
		rec.Answered = &models.AnsweredFields{
			ViewsRaw: orDefault(e.Specs.Views.Extract(it)),
			LikesRaw: orDefault(e.Specs.Likes.Extract(it)),
		}
	case models.KindUnanswered:
		rec.Unanswered = &models.UnansweredFields{
			FollowLabel: orDefault(e.Specs.FollowLabel.Extract(it)),
			FollowCount: orDefault(e.Specs.FollowCount.Extract(it)),
		}
	}

	return rec, true
}

// CanonicalURL resolves a possibly relative href against the site origin.
// Returns "" for empty input.
func CanonicalURL(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(origin, "/") + href
	}
	return href
}

func orDefault(s string) string {
	if s == "" {
		return emptyFieldDefault
	}
	return s
}
