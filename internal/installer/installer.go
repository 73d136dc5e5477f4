// Package installer installs the Python dependencies of the external web UI.
//
// uv is preferred for speed; when it is absent the fallback to pip3 is
// transparent and not an error on its own. Only the absence of both
// installers fails.
package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/koopa0/ragstack/internal/log"
)

// ErrNoInstaller indicates neither uv nor pip3 is available.
var ErrNoInstaller = errors.New("no package installer found")

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Installer resolves an available package installer and runs it.
type Installer struct {
	runner   Runner
	lookPath func(string) (string, error)
	logger   log.Logger
}

// New creates an installer using the host's PATH.
func New(logger log.Logger) *Installer {
	return &Installer{runner: execRunner{}, lookPath: exec.LookPath, logger: logger}
}

// NewWithRunner creates an installer with injected runner and lookPath for tests.
func NewWithRunner(runner Runner, lookPath func(string) (string, error), logger log.Logger) *Installer {
	return &Installer{runner: runner, lookPath: lookPath, logger: logger}
}

// Install installs packages from the given requirements file.
// Prefers uv, falls back to pip3.
func (i *Installer) Install(ctx context.Context, requirements string) error {
	if _, err := i.lookPath("uv"); err == nil {
		i.logger.Info("installing dependencies", "installer", "uv", "requirements", requirements)
		return i.run(ctx, "uv", "pip", "install", "-r", requirements)
	}

	// Silent fallback; uv being absent is expected on plenty of hosts.
	i.logger.Debug("uv not found, falling back to pip3")

	if _, err := i.lookPath("pip3"); err != nil {
		return fmt.Errorf("%w: install uv (https://docs.astral.sh/uv/) or pip3", ErrNoInstaller)
	}
	i.logger.Info("installing dependencies", "installer", "pip3", "requirements", requirements)
	return i.run(ctx, "pip3", "install", "-r", requirements)
}

func (i *Installer) run(ctx context.Context, name string, args ...string) error {
	out, err := i.runner.Run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s install failed: %w: %s", name, err, bytes.TrimSpace(out))
	}
	return nil
}
