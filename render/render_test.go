package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibuilder/wiki"
)

func TestMarkdown(t *testing.T) {
	html, err := Markdown("Some **bold** text\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<table>")
}

func TestSections(t *testing.T) {
	sections := wiki.Parse("# Rome\n\n## History\n\n---\n_Further information: Kings_\n\nFounded *753 BC*.\n\n## Empty\n")
	out, err := Sections(sections)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Empty(t, string(out[0].HTML))
	assert.Contains(t, string(out[1].HTML), "<hr>")
	assert.Contains(t, string(out[1].HTML), "<em>753 BC</em>")
	assert.Equal(t, "history", out[1].Anchor)
	assert.Empty(t, string(out[2].HTML))
}

func TestArticle(t *testing.T) {
	sections := wiki.Parse("# Rome\nIntro.\n## History\nText.\n### Kings\nMore.\n")
	rendered, err := Sections(sections)
	require.NoError(t, err)

	page, err := Article(Page{
		Topic:     "Rome",
		Thumbnail: "https://upload.example/rome.jpg",
		TOC:       wiki.TableOfContents(sections),
		Sections:  rendered,
		Elapsed:   "1.5s",
	})
	require.NoError(t, err)

	assert.Contains(t, page, `<h1 id="rome">Rome</h1>`)
	assert.Contains(t, page, `<h3 id="kings">Kings</h3>`)
	assert.Contains(t, page, `<a href="#history">History</a>`)
	assert.Contains(t, page, `style="margin-left:1em"><a href="#kings">`)
	assert.Equal(t, 1, strings.Count(page, `class="thumbnail"`))
	assert.Contains(t, page, "Generated in 1.5s")
}

func TestArticleEscapesHeadings(t *testing.T) {
	sections := wiki.Parse("# <script>alert(1)</script>\n")
	rendered, err := Sections(sections)
	require.NoError(t, err)

	page, err := Article(Page{Topic: "x", TOC: wiki.TableOfContents(sections), Sections: rendered})
	require.NoError(t, err)
	assert.NotContains(t, page, "<script>")
}
