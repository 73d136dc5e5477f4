package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koopa0/ragstack/internal/config"
	"github.com/koopa0/ragstack/internal/log"
	"github.com/koopa0/ragstack/internal/stack"
)

// newStack loads configuration and wires the service stack.
func newStack() (*stack.Stack, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return stack.New(cfg, log.Default()), cfg, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runStart() error {
	s, _, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.Start(ctx); err != nil {
		return err
	}
	fmt.Println("Services started. Run 'ragstack status' to check readiness.")
	return nil
}

func runStop() error {
	s, _, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.Stop(ctx); err != nil {
		return err
	}
	fmt.Println("Services stopped.")
	return nil
}

func runStatus() error {
	s, _, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	return s.Status(ctx, os.Stdout)
}

func runClean() error {
	s, _, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.Clean(ctx); err != nil {
		return err
	}
	fmt.Println("Services and volumes removed.")
	return nil
}
