package models

// RecordKind tags the two shapes a harvested list entry can take.
type RecordKind string

const (
	// KindUnanswered marks a question with no responses yet; such entries
	// expose a follow button instead of view/like counters.
	KindUnanswered RecordKind = "unanswered"

	// KindAnswered marks an entry that carries an answer body with view
	// and like counters.
	KindAnswered RecordKind = "answered"
)

// UnansweredFields is the shape-specific payload of an unanswered entry.
// Both fields hold raw source text and are "0" when the page rendered
// nothing readable.
type UnansweredFields struct {
	FollowLabel string `json:"follow_label"`
	FollowCount string `json:"follow_count"`
}

// AnsweredFields is the shape-specific payload of an answered entry.
// Counters keep the source formatting verbatim ("1.2K views" styles vary
// too much for lossless parsing); "0" when empty.
type AnsweredFields struct {
	ViewsRaw string `json:"views"`
	LikesRaw string `json:"likes"`
}

// Record is one harvested list entry. Exactly one of Unanswered/Answered is
// non-nil, matching Kind; consumers switch on Kind and must handle both.
type Record struct {
	// Seq is 1-based and strictly increasing with no gaps, regardless of
	// how many raw items were skipped or deduplicated along the way.
	Seq int `json:"seq"`

	Title string `json:"title"`

	// URL is the absolute canonical link and the record's identity:
	// unique within a completed harvest.
	URL string `json:"url"`

	Kind       RecordKind        `json:"kind"`
	Unanswered *UnansweredFields `json:"unanswered,omitempty"`
	Answered   *AnsweredFields   `json:"answered,omitempty"`

	// Content is the post body, filled only when enrichment ran.
	Content string `json:"content,omitempty"`
}

// StopReason explains why a harvest stopped producing records.
type StopReason string

const (
	// StopTarget: the requested record count was reached.
	StopTarget StopReason = "target_reached"

	// StopStagnation: scrolling stopped revealing new items before the
	// target was reached. Partial success, not a failure.
	StopStagnation StopReason = "stagnation"

	// StopCanceled: the caller canceled; accumulated records are kept.
	StopCanceled StopReason = "canceled"
)

// Report is the harvest's sole output surface: the ordered record sequence
// plus how and why it ended.
type Report struct {
	Records []Record   `json:"records"`
	Skipped int        `json:"skipped"`
	Rounds  int        `json:"rounds"`
	Reason  StopReason `json:"reason"`
}

// RoundEvent is emitted to the optional progress observer after each scroll
// round.
type RoundEvent struct {
	Round         int `json:"round"`
	NewItems      int `json:"new_items"`
	TotalAccepted int `json:"total_accepted"`
}
