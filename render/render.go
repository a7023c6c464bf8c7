// Package render turns generated Markdown into HTML fragments.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"wikibuilder/wiki"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown converts a Markdown fragment to HTML. Raw HTML in the input is
// omitted by goldmark's default renderer.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Section is a parsed section with its body rendered to HTML.
type Section struct {
	Level   int           `json:"level"`
	Heading string        `json:"heading"`
	Anchor  string        `json:"anchor"`
	Content string        `json:"content"`
	HTML    template.HTML `json:"html"`
}

// Sections renders each section body; empty bodies stay empty.
func Sections(sections []wiki.Section) ([]Section, error) {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		body := strings.TrimSpace(s.Content)
		var html string
		if body != "" {
			var err error
			html, err = Markdown(body)
			if err != nil {
				return nil, fmt.Errorf("render section %q: %w", s.Heading, err)
			}
		}
		out = append(out, Section{
			Level:   s.Level,
			Heading: s.Heading,
			Anchor:  s.Anchor,
			Content: s.Content,
			HTML:    template.HTML(html),
		})
	}
	return out, nil
}

// Page is everything needed to display one generated article.
type Page struct {
	Topic     string
	Thumbnail string
	TOC       []wiki.TOCEntry
	Sections  []Section
	Elapsed   string
}

var pageTmpl = template.Must(template.New("article").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Topic}}</title></head>
<body>
<nav class="toc">
<div class="toc-heading">Table of Contents</div>
{{- range .TOC}}
<div class="toc-item"{{if eq .Level 3}} style="margin-left:1em"{{end}}><a href="#{{.Anchor}}">{{.Heading}}</a></div>
{{- else}}
<div class="toc-item"><em>No sections</em></div>
{{- end}}
</nav>
<main>
{{- range $i, $s := .Sections}}
{{- if and (eq $i 0) $.Thumbnail}}
<img class="thumbnail" src="{{$.Thumbnail}}" alt="{{$.Topic}}">
{{- end}}
{{- if eq $s.Level 1}}
<h1 id="{{$s.Anchor}}">{{$s.Heading}}</h1>
{{- else if eq $s.Level 2}}
<h2 id="{{$s.Anchor}}">{{$s.Heading}}</h2>
{{- else}}
<h3 id="{{$s.Anchor}}">{{$s.Heading}}</h3>
{{- end}}
{{$s.HTML}}
{{- end}}
</main>
{{- if .Elapsed}}
<footer>Generated in {{.Elapsed}}</footer>
{{- end}}
</body>
</html>
`))

// Article renders a full HTML page with a table of contents and anchored
// headings for the parsed sections.
func Article(p Page) (string, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
