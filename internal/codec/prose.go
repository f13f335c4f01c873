package codec

// prose.go converts Markdown and HTML into each other directly, keeping
// headings, emphasis, links, code and tables that the record-oriented
// codecs would reduce to plain values.

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"

	"github.com/JonMunkholm/formatbridge/internal/format"
)

// HasProsePath reports whether source and target are converted as documents
// rather than through the data tree.
func HasProsePath(source, target format.ID) bool {
	return (source == format.Markdown && target == format.HTML) ||
		(source == format.HTML && target == format.Markdown)
}

// Transcode converts prose between Markdown and HTML.
func Transcode(source, target format.ID, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyInput
	}

	switch {
	case source == format.Markdown && target == format.HTML:
		return MarkdownToHTML(input), nil
	case source == format.HTML && target == format.Markdown:
		return HTMLToMarkdown(input)
	default:
		return "", fmt.Errorf("no prose conversion from %s to %s", source, target)
	}
}

// MarkdownToHTML renders GitHub-flavored Markdown as sanitized HTML.
func MarkdownToHTML(input string) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	out := markdown.ToHTML([]byte(input), newMarkdownParser(), renderer)
	return SanitizeHTML(string(out))
}

// HTMLToMarkdown converts sanitized HTML into GitHub-flavored Markdown.
func HTMLToMarkdown(input string) (string, error) {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())

	out, err := conv.ConvertString(SanitizeHTML(input))
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}
