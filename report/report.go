// Package report renders Markdown research reports for presentation.
package report

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// RenderHTML converts Markdown to sanitized HTML.
func RenderHTML(md string) []byte {
	// A parser cannot be reused between documents.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.Render(doc, renderer)

	return bluemonday.UGCPolicy().SanitizeBytes(out)
}

// Title returns the text of the first level-one heading in md, or fallback
// when there is none.
func Title(md, fallback string) string {
	for line := range strings.Lines(md) {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			if t := strings.TrimSpace(rest); t != "" {
				return t
			}
		}
	}
	return fallback
}

var documentTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; max-width: 800px; margin: 2em auto; }
h1 { color: #333; font-size: 24px; }
h2 { color: #444; font-size: 20px; }
h3 { color: #555; font-size: 16px; }
p { line-height: 1.5; }
code, pre { background-color: #f4f4f4; padding: 2px 4px; }
pre { padding: 8px; overflow-x: auto; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Document renders md as a standalone, styled HTML page suitable for saving
// or printing. The page title is taken from the report's first heading,
// falling back to topic.
func Document(topic, md string) ([]byte, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: Title(md, topic),
		Body:  template.HTML(RenderHTML(md)), // #nosec G203 -- sanitized by RenderHTML
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
