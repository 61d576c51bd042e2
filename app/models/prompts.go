package models

import (
	"fmt"
	"strings"
)

const AnswerSystemPrompt = `
You are an assistant that answers questions about an uploaded document.

RULES:
- Answer ONLY from the context excerpts provided in the user message.
- If the context does not contain the answer, say explicitly that the
  document does not contain that information. Do not guess.
- Be concise and factual; no filler, no extra commentary.
- Do not mention the words "context" or "excerpt" in your answer.
`

// BuildAnswerMessages assembles the grounded prompt for one chat turn.
func BuildAnswerMessages(question string, contexts []string) []Message {
	var sb strings.Builder
	sb.WriteString("Context excerpts from the document:\n")
	for i, c := range contexts {
		fmt.Fprintf(&sb, "\n[%d] %s\n", i+1, c)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)

	return []Message{
		{Role: "system", Content: AnswerSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
}
