package content

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// newMarkdownConverter creates a reusable, goroutine-safe converter:
// the base plugin strips script/style/head noise, commonmark renders
// standard markdown.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// toMarkdown converts body HTML to markdown, resolving relative links
// against the post's domain.
func toMarkdown(conv *converter.Converter, bodyHTML, domain string) (string, error) {
	return conv.ConvertString(bodyHTML, converter.WithDomain(domain))
}
