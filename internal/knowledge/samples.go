package knowledge

// SampleDocuments returns the built-in demo documents loaded by
// `ragstack add-sample-data`. Fixed IDs make the load idempotent: the
// store upserts by doc_id, so repeated runs do not duplicate content.
func SampleDocuments() []Document {
	return []Document{
		{
			ID:    "sample:weaviate-overview",
			Title: "What is Weaviate?",
			Text: `Weaviate is an open-source vector database. It stores objects
together with vector embeddings and serves similarity search over them with
millisecond latency. Collections are defined by a schema; each class holds
typed properties plus a vector per object. Weaviate exposes REST and GraphQL
APIs and reports readiness at /v1/.well-known/ready once it can serve
requests.`,
		},
		{
			ID:    "sample:vector-search",
			Title: "How vector search works",
			Text: `Vector search represents text as high-dimensional embeddings and
ranks results by distance between vectors rather than by keyword overlap.
Two passages about the same concept land close together in embedding space
even when they share no words. This demo computes embeddings with a local
bge-small-en-v1.5 model served over an OpenAI-compatible API and stores them
in Weaviate with the vectorizer disabled, so the database never re-embeds
anything itself.`,
		},
		{
			ID:    "sample:rag-pipeline",
			Title: "Retrieval-augmented generation",
			Text: `Retrieval-augmented generation (RAG) grounds a language model's
answers in retrieved documents. For each question the pipeline embeds the
query, fetches the closest documents from the vector database, and passes
them to the model as context alongside the question. The model answers from
that context instead of from its parametric memory alone, which reduces
hallucination and lets the knowledge base be updated without retraining.`,
		},
		{
			ID:    "sample:demo-operations",
			Title: "Operating this demo",
			Text: `The ragstack CLI manages the demo lifecycle. quick-start installs
UI dependencies, launches the Weaviate and embedding containers, waits until
both health endpoints answer, and loads these sample documents. chat opens a
terminal session against the knowledge base; add-all-data indexes every text
file under the data directory; clean stops the containers and deletes the
stored vectors.`,
		},
	}
}
