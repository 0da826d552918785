package mail

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// reportTemplate is the static wrapper every report email is sent in
const reportTemplate = `
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    %s
  </body>
</html>
`

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// MarkdownToHTML converts a markdown document into an HTML fragment.
// Raw HTML embedded in the markdown is dropped.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderReport converts markdown into the full HTML email document
func RenderReport(src string) (string, error) {
	fragment, err := MarkdownToHTML(src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(reportTemplate, fragment), nil
}
