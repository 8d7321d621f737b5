package content

import (
	"bytes"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minBodyLength is the minimum plain-text length for extracted content to be
// considered the actual post body rather than boilerplate.
const minBodyLength = 50

// answerSelectors is the fallback chain used when readability cannot find
// the body: the Quora answer container first, then progressively looser
// content hooks.
var answerSelectors = []string{
	"div.q-relative.spacing_log_answer_content",
	"div[data-testid='answer_content']",
	"div.spacing_log_answer_content",
	"div[class*='answer']",
	"div.q-text",
	"div[class*='content']",
}

// ExtractBody locates the post body inside a rendered page and returns its
// HTML. Readability runs first; when it fails or comes back too short, the
// selector chain takes over. An empty return means no body was found, which
// the enricher treats as a recoverable gap, not an error.
func ExtractBody(rawHTML, sourceURL string) string {
	if parsed, err := nurl.Parse(sourceURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
		if err == nil && len(strings.TrimSpace(article.TextContent)) >= minBodyLength {
			return article.Content
		}
	}
	slog.Debug("readability missed the post body, trying selector chain", "url", sourceURL)
	return bySelectorChain(rawHTML)
}

// bySelectorChain returns the outer HTML of the first selector match whose
// text is long enough to be a real body.
func bySelectorChain(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	for _, selector := range answerSelectors {
		sel, err := cascadia.Parse(selector)
		if err != nil {
			continue
		}
		for _, node := range cascadia.QueryAll(doc, sel) {
			var buf bytes.Buffer
			if err := html.Render(&buf, node); err != nil {
				continue
			}
			if len(strings.TrimSpace(nodeText(node))) >= minBodyLength {
				return buf.String()
			}
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// visibleText strips tags and script/style/noscript content from a raw page,
// for the needs-browser heuristic and for plain-text output.
func visibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(buf.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
