package llm

import "strings"

// InputMarker precedes the user's description in the summary prompt.
const InputMarker = "Input description:"

// SummarySystemPrompt frames the model for connection summaries.
const SummarySystemPrompt = "You are an assistant that helps users organize and structure information about people they've met. " +
	"Your summaries are clear, well-formatted, and extract all relevant details while maintaining a professional tone."

const summaryInstructions = `Based on the following description about a person someone met, generate a structured summary
with clear section headings and organized information. Include:

1. Name: [Full name if mentioned, otherwise "Unknown"]
2. Physical Description: [Any details about appearance]
3. Meeting Context: [Where and when they met, followed by a "Location:" line and a "Date:" line]
4. Personality Traits: [Notable characteristics of the person]
5. Conversation Summary: [Brief overview of what was discussed]
6. Interests & Goals: [Interests, career goals and hobbies as "- " bullet points]
7. Key Talking Points: [Main topics discussed]
8. Follow-up Items: [Any planned next steps or follow-ups]

Only include information that is directly stated or strongly implied in the description.
If information for a section is not available, write "Not provided" rather than making assumptions.
`

// BuildSummaryPrompt returns the user prompt for summarizing input.
func BuildSummaryPrompt(input string) string {
	var sb strings.Builder
	sb.WriteString(summaryInstructions)
	sb.WriteString("\n")
	sb.WriteString(InputMarker)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(input))
	return sb.String()
}
