package wiki

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited unit of an article. Content holds every
// line up to the next heading, each terminated by a newline.
type Section struct {
	Level   int    `json:"level"`
	Heading string `json:"heading"`
	Anchor  string `json:"anchor"`
	Content string `json:"content"`
}

// TOCEntry is the table-of-contents view of a Section.
type TOCEntry struct {
	Level   int    `json:"level"`
	Heading string `json:"heading"`
	Anchor  string `json:"anchor"`
}

// Only H1-H3 are headings; deeper levels stay body text.
var headingRe = regexp.MustCompile(`^(#{1,3})\s+(.*)$`)

var slugRe = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Parse splits Markdown into sections in document order. Lines before the
// first heading are dropped. It never fails; input without headings yields
// an empty result.
func Parse(markdown string) []Section {
	var (
		sections []Section
		current  *Section
	)
	for line := range strings.Lines(markdown) {
		line = strings.TrimRight(line, "\r\n")
		if level, heading, ok := parseHeading(line); ok {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &Section{Level: level, Heading: heading, Anchor: Slug(heading)}
			continue
		}
		if current != nil {
			current.Content += line + "\n"
		}
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

func parseHeading(line string) (int, string, bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	heading := strings.TrimSpace(m[2])
	if heading == "" {
		return 0, "", false
	}
	return len(m[1]), heading, true
}

// Slug lower-cases heading and collapses every run of whitespace or non-word
// characters into one hyphen. Identical headings produce identical slugs.
func Slug(heading string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(heading), "-")
	return strings.Trim(s, "-")
}

// TableOfContents projects sections to their (level, heading, anchor) view.
func TableOfContents(sections []Section) []TOCEntry {
	toc := make([]TOCEntry, 0, len(sections))
	for _, s := range sections {
		toc = append(toc, TOCEntry{Level: s.Level, Heading: s.Heading, Anchor: s.Anchor})
	}
	return toc
}
