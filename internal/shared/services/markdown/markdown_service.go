// Package markdown renders user supplied text. Study notes are markdown shown
// as HTML in the report view; short free-text fields are stored as plain text.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

type MarkdownService interface {
	// ToHTMLSanitized converts markdown to HTML safe to embed in a page.
	ToHTMLSanitized(markdown string) (string, error)
	// PlainText strips every tag and trims the result to maxLen runes (0 = no limit).
	PlainText(text string, maxLen int) string
}

type markdownServiceImpl struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewMarkdownService() MarkdownService {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)

	return &markdownServiceImpl{
		md:     md,
		policy: bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *markdownServiceImpl) ToHTMLSanitized(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return s.policy.Sanitize(buf.String()), nil
}

func (s *markdownServiceImpl) PlainText(text string, maxLen int) string {
	// StrictPolicy escapes entities, store the literal text instead.
	clean := strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(text)))
	if maxLen > 0 {
		runes := []rune(clean)
		if len(runes) > maxLen {
			clean = string(runes[:maxLen])
		}
	}
	return clean
}
