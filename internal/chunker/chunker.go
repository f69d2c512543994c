// Package chunker splits extracted document text into bounded, overlapping
// windows for independent embedding and retrieval. Windows are measured in
// whitespace-delimited tokens so the output is deterministic and independent
// of any model-specific tokenizer.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultChunkSize is the default window length in tokens.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default overlap between consecutive windows in tokens.
const DefaultChunkOverlap = 120

// ErrInvalidConfig is returned by New when the chunking parameters cannot
// produce a terminating, non-empty windowing.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Chunker produces ordered, overlapping token windows from a text string.
// It holds no mutable state and is safe for concurrent use.
type Chunker struct {
	// size is the target window length in tokens.
	size int

	// overlap is the number of tokens shared between consecutive windows.
	overlap int
}

// New constructs a Chunker. size must be positive and overlap must be
// non-negative and strictly smaller than size; anything else fails with
// ErrInvalidConfig before any text is processed.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d: %w", size, ErrInvalidConfig)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must be non-negative, got %d: %w", overlap, ErrInvalidConfig)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than size %d: %w", overlap, size, ErrInvalidConfig)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into ordered windows of at most size tokens, each sharing
// overlap tokens with its predecessor. Whitespace-only input yields no chunks;
// input shorter than one window yields exactly one chunk holding the full
// trimmed text. The same input always produces the same output.
func (c *Chunker) Chunk(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(tokens)+step-1)/step)

	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}

	return chunks
}
