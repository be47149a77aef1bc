package ai

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// RenderHTML converts one review section (the model often answers in light
// Markdown) into HTML for the report view.
func RenderHTML(section string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(section), &buf); err != nil {
		return "", fmt.Errorf("render section: %w", err)
	}
	return buf.String(), nil
}
