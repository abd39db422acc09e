package indexer

import (
	"fmt"
	"iter"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"docqa/internal/apperrors"
)

const (
	// ChunkerVersion identifies the chunking algorithm; it is recorded in the index manifest.
	ChunkerVersion = "token-window-v1"

	// EncodingName is the BPE encoding used to count and split tokens.
	EncodingName = "cl100k_base"
)

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewCL100KTokenizer returns the cl100k_base tokenizer. The BPE ranks are
// embedded in the binary so no network access is needed.
func NewCL100KTokenizer() (Tokenizer, error) {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	enc, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", EncodingName, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

// Encode treats special-token text as ordinary text.
func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, []string{"all"}, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// ChunkerOption configures a TokenChunker.
type ChunkerOption func(*TokenChunker)

// WithMinTrailingTokens drops a final chunk shorter than n tokens unless it is
// the only chunk of the document. Zero keeps every chunk.
func WithMinTrailingTokens(n int) ChunkerOption {
	return func(c *TokenChunker) {
		if n > 0 {
			c.minTrailing = n
		}
	}
}

// TokenChunker splits text into overlapping windows of tokens.
type TokenChunker struct {
	tok         Tokenizer
	size        int
	overlap     int
	minTrailing int
}

// NewTokenChunker creates a chunker producing windows of size tokens where
// consecutive windows share overlap tokens.
func NewTokenChunker(tok Tokenizer, size, overlap int, opts ...ChunkerOption) (*TokenChunker, error) {
	if size <= 0 {
		return nil, apperrors.New(apperrors.ErrConfiguration, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, apperrors.New(apperrors.ErrConfiguration, "chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	c := &TokenChunker{tok: tok, size: size, overlap: overlap}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Size returns the window size in tokens.
func (c *TokenChunker) Size() int { return c.size }

// Overlap returns the number of tokens shared by consecutive windows.
func (c *TokenChunker) Overlap() int { return c.overlap }

// Split returns the chunks of text in order. Empty text yields no chunks.
func (c *TokenChunker) Split(text string) []Chunk {
	var chunks []Chunk
	for _, chunk := range c.All(text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// All returns an iterator over the chunks of text. Each call to the returned
// sequence re-tokenizes text, so it may be ranged over more than once.
func (c *TokenChunker) All(text string) iter.Seq2[int, Chunk] {
	return func(yield func(int, Chunk) bool) {
		tokens := c.tok.Encode(text)
		for i, w := range c.windows(len(tokens)) {
			chunk := Chunk{
				Index:  i,
				Text:   c.tok.Decode(tokens[w.start:w.end]),
				Tokens: w.end - w.start,
			}
			if i > 0 {
				chunk.Overlap = c.overlap
			}
			if !yield(i, chunk) {
				return
			}
		}
	}
}

type window struct {
	start, end int
}

// windows computes token spans for a sequence of n tokens. Iteration stops
// after the first window that reaches n, so no window is made only of
// tokens already covered by its predecessor.
func (c *TokenChunker) windows(n int) []window {
	if n == 0 {
		return nil
	}

	step := c.size - c.overlap
	var spans []window
	for start := 0; ; start += step {
		end := min(start+c.size, n)
		spans = append(spans, window{start: start, end: end})
		if end == n {
			break
		}
	}

	if last := spans[len(spans)-1]; len(spans) > 1 && last.end-last.start < c.minTrailing {
		spans = spans[:len(spans)-1]
	}
	return spans
}
