package harvest

// DefaultOrigin resolves relative result links into absolute URLs.
const DefaultOrigin = "https://www.quora.com"

// DefaultItemSelector matches one result row in the Quora search list.
// The search page renders rows as direct children of the second column
// under #mainContent.
const DefaultItemSelector = "#mainContent > div > div > div:nth-child(2) > div"

// Specs bundles the locator chains for every field the harvester reads.
// Quora serves two row layouts: question rows wrap the link in a double
// span ("span > span > a") and carry a follow button in the action bar;
// answer rows use a bare "span > a" link and carry view/like counters.
// Each chain lists the primary hook first and a looser fallback after it.
type Specs struct {
	// Link and Title are present on both shapes.
	Link  FieldSpec
	Title FieldSpec

	// Answered decides the shape: any match means the row carries an
	// answer body.
	Answered FieldSpec

	// Unanswered-shape fields.
	FollowLabel FieldSpec
	FollowCount FieldSpec

	// Answered-shape fields.
	Views FieldSpec
	Likes FieldSpec
}

// DefaultSpecs returns the locator chains for Quora search results.
func DefaultSpecs() Specs {
	return Specs{
		Link: FieldSpec{Name: "url", Rules: []Rule{
			{Selector: "span > span > a", Attr: "href"},
			{Selector: "span > a", Attr: "href"},
			{Selector: "a[href*='/answer/'], a[href]", Attr: "href"},
		}},
		Title: FieldSpec{Name: "title", Rules: []Rule{
			{Selector: "span > span > a"},
			{Selector: "span > a"},
		}},
		Answered: FieldSpec{Name: "answered", Rules: []Rule{
			{Selector: "div.spacing_log_answer_content"},
			{Selector: ".puppeteer_test_answer_content"},
		}},
		FollowLabel: FieldSpec{Name: "follow_label", Rules: []Rule{
			{Selector: ".qu-zIndex--action_bar button .puppeteer_test_button_text"},
			{Selector: ".puppeteer_test_question_component_base button .puppeteer_test_button_text"},
		}},
		FollowCount: FieldSpec{Name: "follow_count", Rules: []Rule{
			{Selector: ".qu-zIndex--action_bar button div > div:nth-child(3)"},
			{Selector: ".puppeteer_test_question_component_base button div > div:nth-child(3)"},
		}},
		Views: FieldSpec{Name: "views", Rules: []Rule{
			{Selector: ".qu-passColorToLinks span > span:nth-child(2)"},
		}},
		Likes: FieldSpec{Name: "likes", Rules: []Rule{
			{Selector: ".qu-passColorToLinks span > span:nth-child(4) div"},
			{Selector: ".qu-passColorToLinks span > span:nth-child(4)"},
		}},
	}
}
