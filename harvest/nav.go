// Package harvest implements scroll-driven incremental harvesting of result
// records from an infinite-scroll list: it grows the visible item set round
// by round, classifies each newly visible item into one of two record shapes,
// extracts fields through ordered fallback locator chains, deduplicates by
// URL identity, and stops on a target count or on load stagnation.
//
// The package never touches a browser directly; it drives a NavContext, so
// the same loop runs against a live Rod page, a static goquery document, or
// a test fake.
package harvest

import "context"

// Item is an opaque handle to one rendered list entry. Handles are tied to a
// single render snapshot: they are valid for the current round only and must
// be re-resolved via NavContext.Items after every growth action.
type Item interface {
	// Read resolves the rule against this item and returns its text, or
	// the attribute value when the rule names one. Any failure (missing
	// element, detached node, protocol error) reads as "".
	Read(r Rule) string

	// Exists reports whether the selector matches anything under this
	// item. Existence, not content.
	Exists(selector string) bool
}

// NavContext is the narrow surface the harvester consumes from whatever is
// rendering the list. Implementations live outside this package.
type NavContext interface {
	// Grow triggers page growth (scroll-to-bottom or equivalent).
	Grow(ctx context.Context) error

	// Settle blocks until new content has likely rendered or a bounded
	// interval elapses, whichever is first. A timeout is a normal outcome
	// and returns nil; only context cancellation or a broken context
	// returns an error.
	Settle(ctx context.Context) error

	// Items returns fresh handles for every currently visible list entry,
	// in document order.
	Items(ctx context.Context) ([]Item, error)
}

// Session is the capability token the harvester checks before scrolling.
// The core never inspects session internals.
type Session interface {
	Authenticated() bool
}
