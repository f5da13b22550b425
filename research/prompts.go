package research

import (
	"fmt"
	"strings"
)

const plannerInstruction = "You are a research planner. Break down the user's topic into 3 distinct, " +
	"search-optimized queries. Return ONLY the 3 queries, one per line. " +
	"Do not include numbering or bullet points."

// summaryPrompt asks for a summary of the scraped documents for one query.
func summaryPrompt(query, documents string) string {
	return fmt.Sprintf("You are a research assistant. Analyze the following scraped text for the query: '%s'. "+
		"Provide a concise, fact-heavy summary of the key information found. "+
		"Ignore irrelevant navigation or boilerplate text.\n\n%s", query, documents)
}

// reportPrompt asks for the final Markdown report.
func reportPrompt(topic string, summaries []string) string {
	return fmt.Sprintf("You are a professional technical writer. The user asked for a report on: '%s'.\n"+
		"Below are the summaries from the research phase:\n\n%s\n\n"+
		"Write a comprehensive, well-structured Markdown report based ONLY on the above findings. "+
		"Include a Title, Introduction, Key Findings (structured appropriately), and Conclusion.",
		topic, strings.Join(summaries, SummarySeparator))
}

// SummarySeparator joins summaries in the writer prompt.
const SummarySeparator = "\n\n---\n\n"

// Placeholder is the summary recorded when nothing could be scraped for a query.
func Placeholder(query string) string {
	return "No detailed information could be scraped for the query: " + query
}
