package harvest

import "strings"

// Rule is one extraction step: read the given attribute (or the visible text
// when Attr is empty) of the first descendant matching Selector. Rules are
// pure data so chains can be exercised against static fixtures without a
// browser.
type Rule struct {
	Selector string
	Attr     string
}

// FieldSpec is an ordered fallback chain for one field. Pages render with
// alternate structures, so a miss on one rule is a normal outcome, not an
// error: the first rule yielding non-empty trimmed text wins, and an
// exhausted chain yields "".
type FieldSpec struct {
	Name  string
	Rules []Rule
}

// Extract runs the chain against one item. Read-only against the page.
func (s FieldSpec) Extract(it Item) string {
	for _, r := range s.Rules {
		if text := strings.TrimSpace(it.Read(r)); text != "" {
			return text
		}
	}
	return ""
}

// Present reports whether any rule's selector matches under the item.
// Used for shape classification, where presence matters and content does not.
func (s FieldSpec) Present(it Item) bool {
	for _, r := range s.Rules {
		if it.Exists(r.Selector) {
			return true
		}
	}
	return false
}
