package analysis

import "fmt"

const systemPrompt = "You are a helpful assistant that outputs strict JSON."

const userPromptTemplate = `Analyze the following help center article.

Title: %s

Content:
%s

Return a JSON object with exactly these keys:
1. "gap": a list of strings describing information that is missing, unclear, or outdated.
2. "suggestions": a list of objects, each with "topic" and "description", proposing new articles that would fill the gaps.
3. "topics_covered": a single comma-separated string of the main topics the article covers, such as "Topic 1, Topic 2".
4. "content_type": one of "How-to Guide", "FAQ", "Troubleshooting", "Reference", "Other".

Respond with the JSON object only.`

// DefaultMaxContentChars caps the article body sent to the provider.
const DefaultMaxContentChars = 15000

func buildUserPrompt(title, content string) string {
	return fmt.Sprintf(userPromptTemplate, title, content)
}

// truncateRunes cuts s to at most limit characters. A non-positive limit
// disables truncation.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
