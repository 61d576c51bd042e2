package rag

import (
	"fmt"
	"strings"
)

// Segment is one bounded slice of document text, the unit of retrieval.
type Segment struct {
	Text        string
	StartOffset int
}

// Chunker splits text into overlapping fixed-size segments. Cuts prefer
// paragraph and sentence boundaries near the window end and fall back
// to hard rune cuts. Same input always yields the same segments.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got size=%d overlap=%d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Chunk(text string) []Segment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []Segment{{Text: text, StartOffset: 0}}
	}

	var segments []Segment
	start := 0
	for {
		end := start + c.size
		if end >= len(runes) {
			segments = append(segments, Segment{Text: string(runes[start:]), StartOffset: start})
			break
		}
		end = c.snapToBoundary(runes, start, end)
		segments = append(segments, Segment{Text: string(runes[start:end]), StartOffset: start})
		start = end - c.overlap
	}
	return segments
}

// snapToBoundary moves the cut point back to the nearest paragraph or
// sentence break inside the last quarter of the window. The cut never
// retreats past start+overlap, which keeps the stride positive.
func (c *Chunker) snapToBoundary(runes []rune, start, end int) int {
	floor := start + c.size*3/4
	if min := start + c.overlap + 1; floor < min {
		floor = min
	}
	window := string(runes[floor:end])

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return floor + len([]rune(window[:i+2]))
	}
	if i := lastSentenceEnd(window); i >= 0 {
		return floor + i + 1
	}
	return end
}

func lastSentenceEnd(window string) int {
	runes := []rune(window)
	for i := len(runes) - 1; i > 0; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			switch runes[i-1] {
			case '.', '!', '?':
				return i
			}
		}
	}
	return -1
}
