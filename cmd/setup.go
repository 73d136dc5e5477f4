package cmd

import (
	"context"
	"fmt"

	"github.com/koopa0/ragstack/internal/knowledge"
)

func runInstall() error {
	s, _, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.Install(ctx); err != nil {
		return err
	}
	fmt.Println("Dependencies installed.")
	return nil
}

func runSetup() error {
	s, _, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.Setup(ctx); err != nil {
		return err
	}
	fmt.Println("Setup complete. All services are ready.")
	return nil
}

func runQuickStart() error {
	s, cfg, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	err = s.QuickStart(ctx, func(ctx context.Context) error {
		bot, store, err := newBot(cfg)
		if err != nil {
			return err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		return bot.AddDocuments(ctx, knowledge.SampleDocuments())
	})
	if err != nil {
		return err
	}
	fmt.Println("Quick start complete. Run 'ragstack chat' or 'ragstack streamlit'.")
	return nil
}
