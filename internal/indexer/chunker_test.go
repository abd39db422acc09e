package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/apperrors"
)

// runeTokenizer maps every rune to one token.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	tokens := make([]int, 0, len(text))
	for _, r := range text {
		tokens = append(tokens, int(r))
	}
	return tokens
}

func (runeTokenizer) Decode(tokens []int) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteRune(rune(t))
	}
	return b.String()
}

func chunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

func TestNewTokenChunker_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTokenChunker(runeTokenizer{}, tt.size, tt.overlap)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestTokenChunker_Split(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		opts    []ChunkerOption
		want    []string
	}{
		{
			name: "empty text",
			text: "", size: 4, overlap: 1,
			want: nil,
		},
		{
			name: "shorter than window",
			text: "abc", size: 4, overlap: 1,
			want: []string{"abc"},
		},
		{
			name: "exactly one window",
			text: "abcd", size: 4, overlap: 1,
			want: []string{"abcd"},
		},
		{
			name: "windows end on boundary",
			text: "abcdefghij", size: 4, overlap: 1,
			want: []string{"abcd", "defg", "ghij"},
		},
		{
			name: "short trailing window kept",
			text: "abcdefghijk", size: 4, overlap: 1,
			want: []string{"abcd", "defg", "ghij", "jk"},
		},
		{
			name: "short trailing window dropped by policy",
			text: "abcdefghijk", size: 4, overlap: 1,
			opts: []ChunkerOption{WithMinTrailingTokens(3)},
			want: []string{"abcd", "defg", "ghij"},
		},
		{
			name: "only chunk never dropped",
			text: "ab", size: 4, overlap: 1,
			opts: []ChunkerOption{WithMinTrailingTokens(3)},
			want: []string{"ab"},
		},
		{
			name: "no overlap",
			text: "abcdef", size: 2, overlap: 0,
			want: []string{"ab", "cd", "ef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTokenChunker(runeTokenizer{}, tt.size, tt.overlap, tt.opts...)
			require.NoError(t, err)

			chunks := c.Split(tt.text)
			if tt.want == nil {
				assert.Empty(t, chunks)
				return
			}
			assert.Equal(t, tt.want, chunkTexts(chunks))
		})
	}
}

func TestTokenChunker_WindowInvariants(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)
	const size, overlap = 50, 7

	c, err := NewTokenChunker(runeTokenizer{}, size, overlap)
	require.NoError(t, err)

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, len([]rune(chunk.Text)), chunk.Tokens)

		if i < len(chunks)-1 {
			assert.Equal(t, size, chunk.Tokens, "only the final chunk may be short")
			next := []rune(chunks[i+1].Text)
			cur := []rune(chunk.Text)
			assert.Equal(t, string(cur[size-overlap:]), string(next[:overlap]), "chunk %d must share %d tokens with its successor", i, overlap)
		}

		if i == 0 {
			assert.Equal(t, 0, chunk.Overlap)
			rebuilt.WriteString(chunk.Text)
		} else {
			assert.Equal(t, overlap, chunk.Overlap)
			rebuilt.WriteString(string([]rune(chunk.Text)[overlap:]))
		}
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestTokenChunker_AllRestartable(t *testing.T) {
	c, err := NewTokenChunker(runeTokenizer{}, 3, 1)
	require.NoError(t, err)

	seq := c.All("abcdefgh")

	var first, second []string
	for _, chunk := range seq {
		first = append(first, chunk.Text)
	}
	for _, chunk := range seq {
		second = append(second, chunk.Text)
	}
	assert.Equal(t, []string{"abc", "cde", "efg", "gh"}, first)
	assert.Equal(t, first, second)

	var stopped []int
	for i := range seq {
		stopped = append(stopped, i)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, stopped)
}

func TestCL100KTokenizer(t *testing.T) {
	tok, err := NewCL100KTokenizer()
	require.NoError(t, err)

	assert.Equal(t, []int{15339, 1917}, tok.Encode("hello world"))

	text := "Quarterly revenue grew 12% <|endoftext|> year over year."
	assert.Equal(t, text, tok.Decode(tok.Encode(text)))
}
