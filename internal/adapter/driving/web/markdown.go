package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	descriptionRenderer  goldmark.Markdown
	descriptionSanitizer *bluemonday.Policy
)

func init() {
	// Onshape descriptions are typed in a plain textarea, so single newlines
	// are kept as line breaks.
	descriptionRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
	)

	// The page is shown inside an Onshape tab iframe; external links must
	// leave it.
	descriptionSanitizer = bluemonday.UGCPolicy()
	descriptionSanitizer.AddTargetBlankToFullyQualifiedLinks(true)
}

// RenderMarkdown converts a document description to sanitized HTML.
// Returns empty string for empty or whitespace-only input.
func RenderMarkdown(src string) string {
	if len(bytes.TrimSpace([]byte(src))) == 0 {
		return ""
	}

	var buf bytes.Buffer
	if err := descriptionRenderer.Convert([]byte(src), &buf); err != nil {
		return descriptionSanitizer.Sanitize(src)
	}

	return descriptionSanitizer.Sanitize(buf.String())
}
