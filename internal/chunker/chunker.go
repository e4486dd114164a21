package chunker

// Options controls how text is chunked.
type Options struct {
	MaxTokens     int
	OverlapTokens int
	// CharsPerToken approximates the tokenizer; there is no real tokenizer behind it.
	CharsPerToken int
}

const (
	DefaultMaxTokens     = 10000
	DefaultOverlapTokens = 1000
	DefaultCharsPerToken = 4

	// CharsPerPage is the assumed page size used for page estimates.
	CharsPerPage = 3000
)

// Chunk represents a slice of the document text.
type Chunk struct {
	Index      int
	Text       string
	PageStart  int
	PageEnd    int
	TokenCount int
	// Start and End are rune offsets into the source text, End exclusive.
	Start int
	End   int
}

// DefaultOptions returns the production chunking settings.
func DefaultOptions() Options {
	return Options{
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
		CharsPerToken: DefaultCharsPerToken,
	}
}

// ChunkText performs a character-window split with overlap.
// Token counts and page numbers are estimates derived from fixed ratios.
func ChunkText(text string, opts Options) []Chunk {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.OverlapTokens < 0 {
		opts.OverlapTokens = 0
	}
	if opts.CharsPerToken <= 0 {
		opts.CharsPerToken = DefaultCharsPerToken
	}

	runes := []rune(text)
	var chunks []Chunk
	if len(runes) == 0 {
		return chunks
	}

	maxChars := opts.MaxTokens * opts.CharsPerToken
	overlapChars := opts.OverlapTokens * opts.CharsPerToken
	if overlapChars >= maxChars {
		overlapChars = 0
	}

	total := len(runes)
	start := 0
	for start < total {
		end := start + maxChars
		if end > total {
			end = total
		}
		segment := runes[start:end]
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       string(segment),
			PageStart:  EstimatePage(start),
			PageEnd:    EstimatePage(end),
			TokenCount: ceilDiv(len(segment), opts.CharsPerToken),
			Start:      start,
			End:        end,
		})

		start = end - overlapChars
		if start >= total-overlapChars {
			break
		}
	}
	return chunks
}

// EstimatePage maps a character offset to a 1-based page number.
func EstimatePage(offset int) int {
	page := ceilDiv(offset, CharsPerPage)
	if page < 1 {
		return 1
	}
	return page
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
