package knowledge

import "context"

// Document is one entry in the knowledge base.
type Document struct {
	// ID is a stable external identifier (stored as doc_id). Documents
	// with an ID are upserted; documents without one are always inserted.
	ID    string
	Title string
	Text  string
}

// SearchResult is a retrieved document with its vector distance.
// Lower distance means closer match.
type SearchResult struct {
	Document
	Distance float32
}

// Embedder produces vector embeddings for a batch of texts.
// Implementations must return one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
