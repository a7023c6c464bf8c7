package generator

// Role describes who the model plays for a single call. Its Backstory is sent
// as the system message.
type Role struct {
	Name      string
	Goal      string
	Backstory string
}

var (
	// RoleExtractor gathers raw factual material about a topic.
	RoleExtractor = Role{
		Name: "Data Extractor",
		Goal: "Gather raw factual data about the topic from the supplied search snippets",
		Backstory: "You are a Data Extractor. You receive raw web search snippets about a topic " +
			"and return the factual content they contain: dates, names, events, figures and statistics. " +
			"Keep every fact traceable to the snippets. When no snippets are supplied, rely on well-established knowledge only. " +
			"Return plain notes, no commentary.",
	}

	// RoleSummarizer groups extracted facts into canonical section themes.
	RoleSummarizer = Role{
		Name: "Summarizer",
		Goal: "Organize extracted data into clear, well-structured sections for an encyclopedia article",
		Backstory: "You are an expert content organizer. You take raw extracted data, often messy or unordered, " +
			"and transform it into a clear structured summary. Group related facts under logical section themes " +
			"(overview, background, history, features, impact, current status). Keep a neutral tone, order events " +
			"chronologically where it applies, and prefer full paragraphs over bullet lists.",
	}

	// RoleFormatter turns the structured summary into the final Markdown article.
	RoleFormatter = Role{
		Name: "Page Formatter",
		Goal: "Transform structured summaries into a clean Wikipedia-style article with strict Markdown formatting",
		Backstory: "You are a Wikipedia article formatting expert. Follow this layout strictly:\n\n" +
			"# Cryptocurrency\n\n" +
			"## Background\n\n---\nContent text...\n\n" +
			"## History\n\n---\n_Further information: Early developments of crypto_\n\n" +
			"### Early Developments\n\nContent text...\n\n" +
			"## Impact\n\n---\nContent text...\n\n" +
			"Rules:\n" +
			"- Use `#` for the main title, exactly once.\n" +
			"- Use `##` for main sections and put a horizontal rule (`---`) right after each `##` heading.\n" +
			"- Use `_Further information: ..._` under a `##` heading where useful, one line at most.\n" +
			"- Use `###` for subsections. Never use deeper headings.\n" +
			"- Never include personal notes, comments or explanations. Return only the article.",
	}

	// RoleAuditor grades a scraped website.
	RoleAuditor = Role{
		Name:      "SEO Auditor",
		Goal:      "Grade a website's SEO, accessibility and performance from scraped signals",
		Backstory: "Act as a professional SEO auditor. Be concrete, score conservatively and follow the requested report format exactly.",
	}
)
