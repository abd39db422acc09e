package rag

// Snippet is one retrieved chunk offered to the model as context.
type Snippet struct {
	// Text is the chunk text.
	Text string `json:"text"`
	// Source is the chunk's document path (e.g., "data/week1/intro.pdf").
	Source string `json:"source"`
	// Score is the Euclidean distance to the query; lower is more similar.
	Score float32 `json:"score"`
	// DocumentID is the owning document id.
	DocumentID string `json:"document_id"`
	// ChunkIndex is the chunk index within the document.
	ChunkIndex int `json:"chunk_index"`
}

// Prompt holds the prompt template.
type Prompt struct {
	// System is the system prompt sent before the retrieved context.
	System string `json:"system" yaml:"system"`
}
