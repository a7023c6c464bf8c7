package generator

import (
	"fmt"
	"strings"
)

// Prompt is the message set sent to the LLM.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message carries optional prior turns.
type Message struct {
	Role    string
	Content string
}

func systemFor(role Role) string {
	var sb strings.Builder
	sb.WriteString("Role: ")
	sb.WriteString(role.Name)
	sb.WriteString("\nGoal: ")
	sb.WriteString(role.Goal)
	sb.WriteString("\n\n")
	sb.WriteString(role.Backstory)
	return sb.String()
}

// BuildExtractionPrompt asks the extractor to condense search snippets.
func BuildExtractionPrompt(topic, snippets string) Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Research the topic '%s'.\n\n", topic))
	sb.WriteString("Extract comprehensive information including:\n")
	sb.WriteString("- Historical background and origins\n")
	sb.WriteString("- Key events, dates and milestones\n")
	sb.WriteString("- Important figures and their roles\n")
	sb.WriteString("- Current status and developments\n")
	sb.WriteString("- Significant facts and statistics\n")
	sb.WriteString("- Cultural, social or scientific impact\n\n")
	if strings.TrimSpace(snippets) == "" {
		sb.WriteString("No search results are available; use well-established knowledge only.\n")
	} else {
		sb.WriteString("Search results:\n\n")
		sb.WriteString(snippets)
		sb.WriteString("\n")
	}
	return Prompt{System: systemFor(RoleExtractor), User: sb.String()}
}

// BuildSummaryPrompt feeds the full extraction output to the summarizer.
func BuildSummaryPrompt(topic, raw string) Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Take the extracted data about '%s' and organize it into a structured summary.\n\n", topic))
	sb.WriteString("Use these sections:\n")
	sb.WriteString("- Introduction/Overview\n")
	sb.WriteString("- Background/Origins\n")
	sb.WriteString("- Historical Development\n")
	sb.WriteString("- Key Features/Characteristics\n")
	sb.WriteString("- Impact and Significance\n")
	sb.WriteString("- Current Status/Modern Developments\n\n")
	sb.WriteString("For each section give 2-3 key points with specific dates, figures and context.\n\n")
	sb.WriteString("Extracted data:\n\n")
	sb.WriteString(raw)
	return Prompt{System: systemFor(RoleSummarizer), User: sb.String()}
}

// BuildFormattingPrompt feeds the full structured summary to the formatter.
func BuildFormattingPrompt(topic, structured string) Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Transform the organized summary into a complete Wikipedia-style article about '%s'.\n\n", topic))
	sb.WriteString("Requirements:\n")
	sb.WriteString(fmt.Sprintf("- Start with `# %s` as the only top-level heading.\n", topic))
	sb.WriteString("- Follow with an opening paragraph giving a definition and overview.\n")
	sb.WriteString("- Use `##` for main sections (Background, History, Features, Impact, ...) and `###` for subsections.\n")
	sb.WriteString("- Neutral encyclopedic tone, 2-4 substantial paragraphs per section, at least 800 words.\n")
	sb.WriteString("- Return ONLY the article Markdown. No meta-commentary.\n\n")
	sb.WriteString("Organized summary:\n\n")
	sb.WriteString(structured)
	return Prompt{System: systemFor(RoleFormatter), User: sb.String()}
}

// BuildAuditPrompt asks for a graded report over the scraped site signals.
func BuildAuditPrompt(siteData string) Prompt {
	var sb strings.Builder
	sb.WriteString("Analyze this website data and produce a structured report.\n\n")
	sb.WriteString(siteData)
	sb.WriteString("\n\nFormat:\n\n")
	sb.WriteString("OVERALL SCORE: [score]/100\n\n")
	sb.WriteString("CATEGORY SCORES:\n")
	sb.WriteString("• SEO: [score]/100\n")
	sb.WriteString("• Accessibility: [score]/100\n")
	sb.WriteString("• Performance: [score]/100\n\n")
	sb.WriteString("KEY FINDINGS:\n")
	sb.WriteString("• [finding 1]\n• [finding 2]\n• [finding 3]\n\n")
	sb.WriteString("TOP RECOMMENDATIONS:\n")
	sb.WriteString("🔴 HIGH PRIORITY: ...\n")
	sb.WriteString("🟡 MEDIUM PRIORITY: ...\n")
	sb.WriteString("🔵 LOW PRIORITY: ...\n")
	return Prompt{System: systemFor(RoleAuditor), User: sb.String()}
}
