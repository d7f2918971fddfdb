package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
)

// HTML converts a rendered Markdown document to a standalone HTML page.
// Raw HTML in the Markdown (from a video title, say) is not passed
// through; goldmark drops it unless configured otherwise.
func HTML(title, md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; font-size: 15px; line-height: 1.6; max-width: 48em; margin: 2em auto;">
%s
</body></html>
`, html.EscapeString(title), buf.String()), nil
}
