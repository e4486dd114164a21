package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 4) // 40 chars
	opts := Options{MaxTokens: 4, OverlapTokens: 1, CharsPerToken: 2}
	chunks := ChunkText(text, opts)
	if len(chunks) != 7 {
		t.Fatalf("expected 7 chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if c.Text != text[c.Start:c.End] {
			t.Fatalf("chunk %d text does not match its span", i)
		}
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		if overlap := prev.End - c.Start; overlap != 2 {
			t.Errorf("chunks %d/%d overlap by %d, want 2", i-1, i, overlap)
		}
	}
	if chunks[0].Start != 0 || chunks[len(chunks)-1].End != len(text) {
		t.Fatalf("chunks do not cover the text: first start %d, last end %d", chunks[0].Start, chunks[len(chunks)-1].End)
	}
}

func TestChunkTextCoverage(t *testing.T) {
	opts := Options{MaxTokens: 3, OverlapTokens: 1, CharsPerToken: 1}
	for n := 1; n <= 30; n++ {
		text := strings.Repeat("x", n)
		chunks := ChunkText(text, opts)
		if len(chunks) == 0 {
			t.Fatalf("n=%d: expected chunks for non-empty text", n)
		}
		if chunks[0].Start != 0 {
			t.Fatalf("n=%d: first chunk starts at %d", n, chunks[0].Start)
		}
		if last := chunks[len(chunks)-1]; last.End != n {
			t.Fatalf("n=%d: last chunk ends at %d", n, last.End)
		}
		for i := 1; i < len(chunks); i++ {
			if chunks[i].Start > chunks[i-1].End {
				t.Fatalf("n=%d: gap between chunk %d and %d", n, i-1, i)
			}
		}
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	chunks := ChunkText("", DefaultOptions())
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestChunkTextSingleChunkWhenTextFits(t *testing.T) {
	text := "He said damn it, then shot the gun."
	chunks := ChunkText(text, Options{MaxTokens: 100, OverlapTokens: 10, CharsPerToken: 4})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk to span the whole text, got %q", chunks[0].Text)
	}
	if chunks[0].PageStart != 1 || chunks[0].PageEnd != 1 {
		t.Errorf("expected page 1-1, got %d-%d", chunks[0].PageStart, chunks[0].PageEnd)
	}
	if chunks[0].TokenCount != 9 { // ceil(35/4)
		t.Errorf("expected 9 tokens, got %d", chunks[0].TokenCount)
	}
}

func TestChunkTextPageEstimates(t *testing.T) {
	text := strings.Repeat("a", 7000)
	chunks := ChunkText(text, Options{MaxTokens: 1000, OverlapTokens: 0, CharsPerToken: 4})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].PageStart != 1 || chunks[0].PageEnd != 2 {
		t.Errorf("chunk 0 pages = %d-%d, want 1-2", chunks[0].PageStart, chunks[0].PageEnd)
	}
	if chunks[1].PageStart != 2 || chunks[1].PageEnd != 3 {
		t.Errorf("chunk 1 pages = %d-%d, want 2-3", chunks[1].PageStart, chunks[1].PageEnd)
	}
	if chunks[1].TokenCount != 750 {
		t.Errorf("chunk 1 tokens = %d, want 750", chunks[1].TokenCount)
	}
}

func TestChunkTextMultibyte(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 50)
	chunks := ChunkText(text, Options{MaxTokens: 5, OverlapTokens: 1, CharsPerToken: 3})
	for _, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Fatalf("chunk %d is not valid UTF-8", c.Index)
		}
	}
}

func TestChunkTextOverlapLargerThanWindow(t *testing.T) {
	text := strings.Repeat("z", 100)
	chunks := ChunkText(text, Options{MaxTokens: 2, OverlapTokens: 5, CharsPerToken: 5})
	if len(chunks) != 10 {
		t.Fatalf("expected 10 non-overlapping chunks, got %d", len(chunks))
	}
}

func TestChunkTextDefaults(t *testing.T) {
	text := strings.Repeat("test ", 20000) // 100k chars
	chunks := ChunkText(text, Options{})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks with default options, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if chunk.TokenCount > DefaultMaxTokens {
			t.Errorf("chunk exceeded default max tokens (%d): got %d", DefaultMaxTokens, chunk.TokenCount)
		}
	}
}

func TestEstimatePage(t *testing.T) {
	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{1, 1},
		{3000, 1},
		{3001, 2},
		{9000, 3},
	}
	for _, tt := range tests {
		if got := EstimatePage(tt.offset); got != tt.want {
			t.Errorf("EstimatePage(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}
