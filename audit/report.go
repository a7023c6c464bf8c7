package audit

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

var reportHeaders = []struct {
	label string
	tag   string
	color string
	icon  string
}{
	{"OVERALL SCORE:", "h2", "#4CAF50", "🎯"},
	{"CATEGORY SCORES:", "h3", "#2196F3", "📊"},
	{"KEY FINDINGS:", "h3", "#FF9800", "🔍"},
	{"TOP RECOMMENDATIONS:", "h3", "#9C27B0", "💡"},
}

// FormatHTML turns the plain-text report into a styled HTML block. Model
// output is escaped first so only the markup added here is live.
func FormatHTML(analysis string) string {
	if strings.TrimSpace(analysis) == "" {
		return "No analysis available."
	}

	out := html.EscapeString(analysis)
	out = strings.ReplaceAll(out, "\n\n", "<br><br>")
	out = strings.ReplaceAll(out, "\n", "<br>")
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	for _, h := range reportHeaders {
		styled := fmt.Sprintf(`<%s style="color: %s;">%s %s</%s>`, h.tag, h.color, h.icon, h.label, h.tag)
		out = strings.ReplaceAll(out, h.label, styled)
	}

	return `<div style="font-family: Arial, sans-serif; line-height: 1.6; padding: 20px; background: #121212; color: #F5F5F5; border-radius: 10px;">` +
		out + `</div>`
}
