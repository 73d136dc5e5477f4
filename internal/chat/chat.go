// Package chat implements the retrieval-augmented conversation core:
// embed the question, fetch the nearest documents, answer from them.
package chat

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/koopa0/ragstack/internal/knowledge"
	"github.com/koopa0/ragstack/internal/log"
)

// Store is the slice of the knowledge store the bot needs.
type Store interface {
	Add(ctx context.Context, docs []knowledge.Document, vectors [][]float32) error
	Upsert(ctx context.Context, docs []knowledge.Document, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, limit int) ([]knowledge.SearchResult, error)
	Clear(ctx context.Context) error
}

// systemPrompt grounds the model in retrieved context.
const systemPrompt = `You are a helpful assistant answering questions from a knowledge base.
Use only the provided context to answer. If the context does not contain
the answer, say that you don't know rather than guessing.`

// embedBatchSize bounds how many texts go into one embedding request.
const embedBatchSize = 32

// DefaultTopK is how many documents ground each answer.
const DefaultTopK = 3

// Config tunes the bot.
type Config struct {
	// TopK is the number of documents retrieved per question. Zero means
	// DefaultTopK.
	TopK int
	// EmbedRateLimit caps embedding requests per second during bulk
	// indexing. Zero or negative means unlimited.
	EmbedRateLimit int
}

// Bot is a retrieval-augmented chatbot over a knowledge store.
type Bot struct {
	store    Store
	embedder knowledge.Embedder
	llm      LLM
	topK     int
	limiter  *rate.Limiter
	logger   log.Logger
}

// New creates a bot.
func New(store Store, embedder knowledge.Embedder, llm LLM, cfg Config, logger log.Logger) *Bot {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	limit := rate.Inf
	if cfg.EmbedRateLimit > 0 {
		limit = rate.Limit(cfg.EmbedRateLimit)
	}

	return &Bot{
		store:    store,
		embedder: embedder,
		llm:      llm,
		topK:     topK,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Chat answers a user message grounded in retrieved documents.
//
// Like the original demo, internal failures surface as an apologetic answer
/// rather than an error: the REPL keeps running and the user sees what went
// wrong. The error return is reserved for context cancellation.
func (b *Bot) Chat(ctx context.Context, message string) (string, error) {
	ctx, span := otel.Tracer("ragstack/chat").Start(ctx, "chat.turn")
	defer span.End()

	answer, err := b.chat(ctx, message)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		b.logger.Error("chat turn failed", "error", err)
		return fmt.Sprintf("I'm sorry, I encountered an error: %v", err), nil
	}
	return answer, nil
}

func (b *Bot) chat(ctx context.Context, message string) (string, error) {
	vectors, err := b.embed(ctx, []string{message})
	if err != nil {
		return "", err
	}

	results, err := b.store.Search(ctx, vectors[0], b.topK)
	if err != nil {
		return "", err
	}
	b.logger.Debug("retrieved context", "documents", len(results))

	return b.llm.Complete(ctx, systemPrompt, buildPrompt(results, message))
}

// buildPrompt assembles the user message for the model: numbered context
// sections followed by the question.
func buildPrompt(results []knowledge.SearchResult, question string) string {
	var sb strings.Builder
	if len(results) == 0 {
		sb.WriteString("Context: (the knowledge base returned no matching documents)\n\n")
	} else {
		sb.WriteString("Context:\n")
		for i, r := range results {
			title := r.Title
			if title == "" {
				title = "untitled"
			}
			fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, title, r.Text)
		}
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}

// AddDocuments embeds and indexes documents in batches. Documents with a
// fixed ID are upserted, so re-running a load is idempotent.
func (b *Bot) AddDocuments(ctx context.Context, docs []knowledge.Document) error {
	ctx, span := otel.Tracer("ragstack/chat").Start(ctx, "chat.index")
	defer span.End()

	for start := 0; start < len(docs); start += embedBatchSize {
		batch := docs[start:min(start+embedBatchSize, len(docs))]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := b.embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if err := b.store.Upsert(ctx, batch, vectors); err != nil {
			return fmt.Errorf("indexing batch at %d: %w", start, err)
		}
	}

	b.logger.Info("documents indexed", "count", len(docs))
	return nil
}

// AddFile indexes one text file. The path doubles as the document ID so
// re-adding the same file replaces the previous copy.
func (b *Bot) AddFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	doc := knowledge.Document{
		ID:    "file:" + filepath.ToSlash(path),
		Title: filepath.Base(path),
		Text:  string(content),
	}
	return b.AddDocuments(ctx, []knowledge.Document{doc})
}

// AddDir indexes every .txt and .md file under dir, returning how many
// files were indexed.
func (b *Bot) AddDir(ctx context.Context, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}
		if err := b.AddFile(ctx, path); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("indexing %s: %w", dir, err)
	}
	return count, nil
}

// Clear empties the knowledge base.
func (b *Bot) Clear(ctx context.Context) error {
	return b.store.Clear(ctx)
}

// embed throttles and delegates to the embedder.
func (b *Bot) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.embedder.Embed(ctx, texts)
}
