package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// filler returns n whitespace-delimited tokens ("w0 w1 w2 ...").
func filler(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "w%d", i)
	}
	return sb.String()
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -10, overlap: 0},
		{name: "negative overlap", size: 100, overlap: -1},
		{name: "overlap equals size", size: 100, overlap: 100},
		{name: "overlap exceeds size", size: 100, overlap: 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.size, tt.overlap); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestChunk_ShortInputSingleChunk(t *testing.T) {
	t.Parallel()
	c, err := New(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	chunks := c.Chunk("  drip irrigation saves water  ")
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "drip irrigation saves water" {
		t.Errorf("chunk[0] = %q, want trimmed full text", chunks[0])
	}
}

func TestChunk_EmptyAndWhitespaceOnly(t *testing.T) {
	t.Parallel()
	c, err := New(10, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, input := range []string{"", "   ", "\n\t \n"} {
		if got := c.Chunk(input); len(got) != 0 {
			t.Errorf("Chunk(%q) = %d chunks, want 0", input, len(got))
		}
	}
}

func TestChunk_CountMatchesWindowFormula(t *testing.T) {
	t.Parallel()
	// 2000 tokens at size 800 / overlap 120 → ceil((2000-120)/680) = 3 windows.
	c, err := New(800, 120)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	chunks := c.Chunk(filler(2000))
	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
}

func TestChunk_OverlapCoversInputWithoutGaps(t *testing.T) {
	t.Parallel()
	const size, overlap, n = 50, 10, 237
	c, err := New(size, overlap)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	chunks := c.Chunk(filler(n))

	// Dropping the first overlap tokens of every chunk after the first and
	// concatenating must reproduce the token stream exactly — no gaps, no
	// reordering.
	var rebuilt []string
	for i, ch := range chunks {
		tokens := strings.Fields(ch)
		if i > 0 {
			tokens = tokens[overlap:]
		}
		rebuilt = append(rebuilt, tokens...)
	}
	if len(rebuilt) != n {
		t.Fatalf("rebuilt %d tokens, want %d", len(rebuilt), n)
	}
	for i, tok := range rebuilt {
		if want := fmt.Sprintf("w%d", i); tok != want {
			t.Fatalf("token %d = %q, want %q", i, tok, want)
		}
	}

	// Consecutive chunks share exactly the declared overlap.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		tail := prev[len(prev)-overlap:]
		head := cur[:overlap]
		for j := range tail {
			if tail[j] != head[j] {
				t.Fatalf("chunk %d overlap token %d: %q != %q", i, j, tail[j], head[j])
			}
		}
	}
}

func TestChunk_Deterministic(t *testing.T) {
	t.Parallel()
	c, err := New(30, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	input := filler(500)
	a := c.Chunk(input)
	b := c.Chunk(input)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestChunk_ZeroOverlapAllowed(t *testing.T) {
	t.Parallel()
	c, err := New(100, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	chunks := c.Chunk(filler(250))
	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
}
