// Package stack orchestrates the demo's service lifecycle: bringing the
// containers up and down, installing the UI dependencies, and gating on
// service readiness before anything talks to the stack.
package stack

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/koopa0/ragstack/internal/compose"
	"github.com/koopa0/ragstack/internal/config"
	"github.com/koopa0/ragstack/internal/installer"
	"github.com/koopa0/ragstack/internal/log"
	"github.com/koopa0/ragstack/internal/readiness"
)

const (
	// lockRetryDelay is how often TryLockContext re-attempts the file lock.
	lockRetryDelay = 250 * time.Millisecond
	// probeTimeout bounds the one-shot readiness probes behind Status.
	probeTimeout = 5 * time.Second
)

// Engine is the container lifecycle the stack drives. *compose.Client
// satisfies it.
type Engine interface {
	Detect(ctx context.Context) error
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	DownVolumes(ctx context.Context) error
	Status(ctx context.Context) (string, error)
}

// DepInstaller installs the Python UI dependencies. *installer.Installer
// satisfies it.
type DepInstaller interface {
	Install(ctx context.Context, requirements string) error
}

// Waiter blocks until targets report ready. *readiness.Gate satisfies it.
type Waiter interface {
	Wait(ctx context.Context, targets ...readiness.Target) error
}

// Stack ties configuration, the container engine, the dependency installer
// and the readiness gate together behind the operations the CLI exposes.
type Stack struct {
	cfg       *config.Config
	engine    Engine
	installer DepInstaller
	gate      Waiter
	lockPath  func() (string, error)
	logger    log.Logger
}

// New wires a stack from configuration.
func New(cfg *config.Config, logger log.Logger) *Stack {
	return &Stack{
		cfg:       cfg,
		engine:    compose.New(cfg.ComposeFile, logger),
		installer: installer.New(logger),
		gate:      readiness.NewGate(cfg.PollInterval, cfg.ReadyTimeout, logger),
		lockPath:  defaultLockPath,
		logger:    logger,
	}
}

// NewWithParts wires a stack from explicit collaborators, for tests.
func NewWithParts(cfg *config.Config, engine Engine, dep DepInstaller, gate Waiter, logger log.Logger) *Stack {
	return &Stack{
		cfg:       cfg,
		engine:    engine,
		installer: dep,
		gate:      gate,
		lockPath:  func() (string, error) { return "", nil },
		logger:    logger,
	}
}

func defaultLockPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stack.lock"), nil
}

// withLock runs fn while holding the stack lock, so two invocations cannot
// race the container engine. An empty lock path skips locking.
func (s *Stack) withLock(ctx context.Context, fn func() error) error {
	path, err := s.lockPath()
	if err != nil {
		return fmt.Errorf("resolving lock path: %w", err)
	}
	if path == "" {
		return fn()
	}

	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquiring stack lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("stack lock %s held by another process", path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("releasing stack lock", "error", err)
		}
	}()
	return fn()
}

// targets lists the services the gate polls, in startup-dependency order.
func (s *Stack) targets() []readiness.Target {
	return []readiness.Target{
		{Name: "weaviate", URL: s.cfg.WeaviateReadyURL(), Check: readiness.Check2xx},
		{Name: "embedding", URL: s.cfg.EmbeddingHealthURL(), Check: readiness.Check2xx},
	}
}

// Start brings the containers up. The engine is detected first so a missing
// docker install is reported before anything is attempted.
func (s *Stack) Start(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := s.engine.Detect(ctx); err != nil {
			return err
		}
		s.logger.Info("starting services", "compose_file", s.cfg.ComposeFile)
		return s.engine.Up(ctx)
	})
}

// Stop tears the containers down, keeping their volumes.
func (s *Stack) Stop(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := s.engine.Detect(ctx); err != nil {
			return err
		}
		s.logger.Info("stopping services")
		return s.engine.Down(ctx)
	})
}

// Clean tears the containers down and removes their volumes, so the next
// start begins from an empty knowledge base.
func (s *Stack) Clean(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := s.engine.Detect(ctx); err != nil {
			return err
		}
		s.logger.Info("removing services and volumes")
		return s.engine.DownVolumes(ctx)
	})
}

// Status writes the engine's view of the services followed by a live
// readiness probe per target.
func (s *Stack) Status(ctx context.Context, w io.Writer) error {
	if err := s.engine.Detect(ctx); err != nil {
		return err
	}
	out, err := s.engine.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)

	probe := readiness.NewGate(s.cfg.PollInterval, probeTimeout, s.logger)
	for _, target := range s.targets() {
		state := "ready"
		if err := probe.Probe(ctx, target); err != nil {
			state = fmt.Sprintf("not ready (%v)", err)
		}
		fmt.Fprintf(w, "%-12s %s\n", target.Name, state)
	}
	return nil
}

// Install installs the UI dependencies from the configured requirements file.
func (s *Stack) Install(ctx context.Context) error {
	return s.installer.Install(ctx, s.cfg.Requirements)
}

// WaitReady blocks until every service in the stack reports ready.
func (s *Stack) WaitReady(ctx context.Context) error {
	return s.gate.Wait(ctx, s.targets()...)
}

// Setup is the full bring-up: install dependencies, start the containers,
// then wait for the services to come ready.
func (s *Stack) Setup(ctx context.Context) error {
	if err := s.Install(ctx); err != nil {
		return fmt.Errorf("installing dependencies: %w", err)
	}
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("starting services: %w", err)
	}
	return s.WaitReady(ctx)
}

// QuickStart runs Setup and, only once the stack is fully ready, hands off
// to load to seed the knowledge base.
func (s *Stack) QuickStart(ctx context.Context, load func(context.Context) error) error {
	if err := s.Setup(ctx); err != nil {
		return err
	}
	return load(ctx)
}
