package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM is an offline stand-in for local runs. It answers by role and keeps
// the formatter output inside the article heading grammar.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	topic := quotedTopic(prompt.User)
	var sb strings.Builder
	switch {
	case strings.HasPrefix(prompt.System, "Role: "+RoleExtractor.Name):
		sb.WriteString(fmt.Sprintf("Facts about %s:\n", topic))
		sb.WriteString(fmt.Sprintf("- %s has a documented origin and history.\n", topic))
		sb.WriteString(fmt.Sprintf("- %s has notable features and a measurable impact.\n", topic))
	case strings.HasPrefix(prompt.System, "Role: "+RoleSummarizer.Name):
		sb.WriteString(fmt.Sprintf("Overview: %s in brief.\n\n", topic))
		sb.WriteString("Background: where it came from.\n\n")
		sb.WriteString("History: how it developed.\n\n")
		sb.WriteString("Impact: why it matters.\n")
	case strings.HasPrefix(prompt.System, "Role: "+RoleFormatter.Name):
		sb.WriteString(fmt.Sprintf("# %s\n\n", topic))
		sb.WriteString(fmt.Sprintf("%s is the subject of this generated article.\n\n", topic))
		sb.WriteString("## Background\n\n---\nWhere it came from.\n\n")
		sb.WriteString("## History\n\n---\n_Further information: Early developments_\n\n")
		sb.WriteString("### Early Developments\n\nHow it developed.\n\n")
		sb.WriteString("## Impact\n\n---\nWhy it matters.\n")
	case strings.HasPrefix(prompt.System, "Role: "+RoleAuditor.Name):
		sb.WriteString("OVERALL SCORE: 70/100\n\n")
		sb.WriteString("CATEGORY SCORES:\n• SEO: 70/100\n• Accessibility: 70/100\n• Performance: 70/100\n\n")
		sb.WriteString("KEY FINDINGS:\n• Mock finding\n\n")
		sb.WriteString("TOP RECOMMENDATIONS:\n🔴 HIGH PRIORITY: none\n")
	default:
		sb.WriteString(prompt.User)
	}
	return sb.String(), nil
}

func quotedTopic(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	start := strings.IndexByte(line, '\'')
	end := strings.LastIndexByte(line, '\'')
	if start < 0 || end <= start {
		return "Untitled"
	}
	return line[start+1 : end]
}
