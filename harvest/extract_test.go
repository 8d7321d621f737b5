package harvest

import (
	"testing"

	"github.com/use-agent/qharvest/models"
)

// testSpecs is a minimal spec set for extraction tests; chains exercise the
// same shapes as the real ones without the full selector detail.
func testSpecs() Specs {
	return Specs{
		Link:        FieldSpec{Name: "url", Rules: []Rule{{Selector: "a", Attr: "href"}}},
		Title:       FieldSpec{Name: "title", Rules: []Rule{{Selector: "a"}}},
		Answered:    FieldSpec{Name: "answered", Rules: []Rule{{Selector: ".answer"}}},
		FollowLabel: FieldSpec{Name: "follow_label", Rules: []Rule{{Selector: ".follow-label"}}},
		FollowCount: FieldSpec{Name: "follow_count", Rules: []Rule{{Selector: ".follow-count"}}},
		Views:       FieldSpec{Name: "views", Rules: []Rule{{Selector: ".views"}}},
		Likes:       FieldSpec{Name: "likes", Rules: []Rule{{Selector: ".likes"}}},
	}
}

func TestExtractor_UnansweredShape(t *testing.T) {
	e := Extractor{Specs: testSpecs(), Origin: "https://www.quora.com"}
	it := fakeItem{reads: map[Rule]string{
		{Selector: "a", Attr: "href"}: "/What-is-Go",
		{Selector: "a"}:               "What is Go?",
		{Selector: ".follow-label"}:   "Follow",
		{Selector: ".follow-count"}:   "12",
	}}

	rec, ok := e.Extract(it)
	if !ok {
		t.Fatal("Extract returned ok=false for an item with a URL")
	}
	if rec.Kind != models.KindUnanswered {
		t.Fatalf("Kind = %q, want %q", rec.Kind, models.KindUnanswered)
	}
	if rec.URL != "https://www.quora.com/What-is-Go" {
		t.Errorf("URL = %q, relative link not canonicalized", rec.URL)
	}
	if rec.Unanswered == nil || rec.Answered != nil {
		t.Fatal("unanswered record must carry exactly the unanswered payload")
	}
	if rec.Unanswered.FollowLabel != "Follow" || rec.Unanswered.FollowCount != "12" {
		t.Errorf("follow fields = %+v", rec.Unanswered)
	}
}

func TestExtractor_AnsweredShapePreservesRawText(t *testing.T) {
	e := Extractor{Specs: testSpecs(), Origin: "https://www.quora.com"}
	it := fakeItem{
		reads: map[Rule]string{
			{Selector: "a", Attr: "href"}: "https://www.quora.com/What-is-Go/answer/Someone",
			{Selector: "a"}:               "What is Go?",
			{Selector: ".views"}:          "1.2K views",
			{Selector: ".likes"}:          "34",
		},
		exists: map[string]bool{".answer": true},
	}

	rec, ok := e.Extract(it)
	if !ok {
		t.Fatal("Extract returned ok=false")
	}
	if rec.Kind != models.KindAnswered {
		t.Fatalf("Kind = %q, want %q", rec.Kind, models.KindAnswered)
	}
	if rec.Answered == nil || rec.Unanswered != nil {
		t.Fatal("answered record must carry exactly the answered payload")
	}
	// Raw source text passes through untouched: no numeric parsing.
	if rec.Answered.ViewsRaw != "1.2K views" {
		t.Errorf("ViewsRaw = %q, want raw source text", rec.Answered.ViewsRaw)
	}
	if rec.Answered.LikesRaw != "34" {
		t.Errorf("LikesRaw = %q", rec.Answered.LikesRaw)
	}
}

func TestExtractor_EmptyFieldsDefaultToZero(t *testing.T) {
	e := Extractor{Specs: testSpecs(), Origin: "https://www.quora.com"}
	it := fakeItem{reads: map[Rule]string{
		{Selector: "a", Attr: "href"}: "/q",
	}}

	rec, ok := e.Extract(it)
	if !ok {
		t.Fatal("Extract returned ok=false")
	}
	if rec.Title != "0" {
		t.Errorf("empty title = %q, want %q", rec.Title, "0")
	}
	if rec.Unanswered.FollowLabel != "0" || rec.Unanswered.FollowCount != "0" {
		t.Errorf("empty follow fields = %+v, want both %q", rec.Unanswered, "0")
	}
}

func TestExtractor_MissingURLSkipsItem(t *testing.T) {
	e := Extractor{Specs: testSpecs(), Origin: "https://www.quora.com"}
	it := fakeItem{reads: map[Rule]string{
		{Selector: "a"}: "a title with no link",
	}}

	if _, ok := e.Extract(it); ok {
		t.Error("Extract should report ok=false when no URL resolves")
	}
}

func TestExtractor_AmbiguousItemClassifiesAnswered(t *testing.T) {
	// A transitional render can show both the answer body and a follow
	// button; the answered indicator wins by fixed priority.
	e := Extractor{Specs: testSpecs(), Origin: "https://www.quora.com"}
	it := fakeItem{
		reads: map[Rule]string{
			{Selector: "a", Attr: "href"}: "/q",
			{Selector: ".follow-label"}:   "Follow",
		},
		exists: map[string]bool{".answer": true},
	}

	if got := e.Classify(it); got != models.KindAnswered {
		t.Errorf("Classify = %q, want %q on ambiguous markup", got, models.KindAnswered)
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		href   string
		want   string
	}{
		{"relative", "https://www.quora.com", "/What-is-Go", "https://www.quora.com/What-is-Go"},
		{"absolute passes through", "https://www.quora.com", "https://example.com/x", "https://example.com/x"},
		{"origin trailing slash", "https://www.quora.com/", "/q", "https://www.quora.com/q"},
		{"empty", "https://www.quora.com", "", ""},
		{"whitespace only", "https://www.quora.com", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalURL(tt.origin, tt.href); got != tt.want {
				t.Errorf("CanonicalURL(%q, %q) = %q, want %q", tt.origin, tt.href, got, tt.want)
			}
		})
	}
}
