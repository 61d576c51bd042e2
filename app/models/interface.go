package models

import "context"

type Interface interface {
	EmbedTexts(ctx context.Context, inputs []string) ([][]float32, error)
	EmbedText(ctx context.Context, input string) ([]float32, error)
	StreamChat(ctx context.Context, messages []Message) (<-chan Delta, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta is one increment of a streamed completion. The stream channel
// closes after the final delta; a delta with Err set is always the last
// one and means the answer was aborted, not completed.
type Delta struct {
	Content string
	Err     error
}
