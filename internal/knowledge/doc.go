// Package knowledge implements the vector knowledge base behind the chatbot.
//
// Documents are stored in a Weaviate collection with externally computed
// embeddings (vectorizer "none"); the Embedder interface abstracts the
// OpenAI-compatible embedding service so tests can substitute a fake.
//
// Fixed-ID documents (the built-in samples) are upserted by deleting any
// object carrying the same doc_id before inserting, since Weaviate batch
// insertion alone would duplicate them on every run.
package knowledge
