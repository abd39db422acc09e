package indexer

// Chunk represents a token window of one document's text.
type Chunk struct {
	DocumentID string // Owning document id (file name without extension)
	Index      int    // Chunk index within the document (starts at 0)
	Text       string // Decoded window text
	Tokens     int    // Number of tokens in the window
	Overlap    int    // Tokens shared with the previous chunk (0 for the first)
}
