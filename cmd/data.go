package cmd

import (
	"fmt"

	"github.com/koopa0/ragstack/internal/chat"
	"github.com/koopa0/ragstack/internal/config"
	"github.com/koopa0/ragstack/internal/knowledge"
	"github.com/koopa0/ragstack/internal/log"
)

// newBot wires a chat bot against the configured stack. The returned store
// is the bot's backing index, exposed for schema management.
func newBot(cfg *config.Config) (*chat.Bot, *knowledge.Store, error) {
	store, err := knowledge.NewStore(cfg.WeaviateURL, cfg.IndexName, log.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to vector store: %w", err)
	}
	embedder := knowledge.NewOpenAIEmbedder(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	llm := chat.NewOpenAILLM(cfg.OpenAIBaseURL, cfg.APIKey, cfg.ModelName, cfg.Temperature, cfg.MaxTokens)

	bot := chat.New(store, embedder, llm, chat.Config{
		TopK:           cfg.TopK,
		EmbedRateLimit: cfg.EmbedRateLimit,
	}, log.Default())
	return bot, store, nil
}

func runAddSampleData() error {
	s, cfg, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.WaitReady(ctx); err != nil {
		return err
	}

	bot, store, err := newBot(cfg)
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	docs := knowledge.SampleDocuments()
	if err := bot.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("loading sample documents: %w", err)
	}
	fmt.Printf("Loaded %d sample documents into %s.\n", len(docs), cfg.IndexName)
	return nil
}

func runAddAllData() error {
	s, cfg, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.WaitReady(ctx); err != nil {
		return err
	}

	bot, store, err := newBot(cfg)
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	count, err := bot.AddDir(ctx, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.DataDir, err)
	}
	if count == 0 {
		fmt.Printf("No .txt or .md files found under %s.\n", cfg.DataDir)
		return nil
	}
	fmt.Printf("Loaded %d files from %s into %s.\n", count, cfg.DataDir, cfg.IndexName)
	return nil
}
