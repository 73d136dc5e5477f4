// Package compose drives the docker compose CLI for the demo stack.
//
// Everything here is a thin wrapper over `docker compose -f <file> …`;
// the container engine owns the actual lifecycle. Detect() must pass before
// any lifecycle call so a missing engine is reported before anything starts.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/koopa0/ragstack/internal/log"
)

var (
	// ErrDockerNotFound indicates the docker binary is not on PATH.
	ErrDockerNotFound = errors.New("docker not found")

	// ErrComposeNotFound indicates docker is present but the compose
	// plugin is not.
	ErrComposeNotFound = errors.New("docker compose plugin not found")
)

// Command output kept in error messages is capped so a misbehaving
// container engine cannot flood the terminal.
const maxOutputBytes = 16 * 1024

// Runner executes an external command and returns its combined output.
// The default implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Client runs docker compose against a single compose file.
type Client struct {
	file     string
	runner   Runner
	lookPath func(string) (string, error)
	logger   log.Logger
}

// New creates a compose client for the given compose file.
func New(file string, logger log.Logger) *Client {
	return &Client{
		file:     file,
		runner:   execRunner{},
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// NewWithRunner creates a client with injected runner and lookPath.
// Tests use this to run without a container engine.
func NewWithRunner(file string, runner Runner, lookPath func(string) (string, error), logger log.Logger) *Client {
	return &Client{file: file, runner: runner, lookPath: lookPath, logger: logger}
}

// Detect verifies the container engine prerequisites.
// Returns ErrDockerNotFound or ErrComposeNotFound; nothing is started.
func (c *Client) Detect(ctx context.Context) error {
	if _, err := c.lookPath("docker"); err != nil {
		return fmt.Errorf("%w: install Docker and try again", ErrDockerNotFound)
	}
	if out, err := c.runner.Run(ctx, "docker", "compose", "version"); err != nil {
		return fmt.Errorf("%w: %s", ErrComposeNotFound, truncate(out))
	}
	return nil
}

// Up starts the stack in the background (docker compose up -d).
func (c *Client) Up(ctx context.Context) error {
	c.logger.Info("starting services", "compose_file", c.file)
	if out, err := c.compose(ctx, "up", "-d"); err != nil {
		return fmt.Errorf("compose up: %w: %s", err, truncate(out))
	}
	return nil
}

// Down stops the stack, keeping volumes.
func (c *Client) Down(ctx context.Context) error {
	c.logger.Info("stopping services", "compose_file", c.file)
	if out, err := c.compose(ctx, "down"); err != nil {
		return fmt.Errorf("compose down: %w: %s", err, truncate(out))
	}
	return nil
}

// DownVolumes stops the stack and removes its volumes. The vector database
// contents are gone after this.
func (c *Client) DownVolumes(ctx context.Context) error {
	c.logger.Info("removing services and volumes", "compose_file", c.file)
	if out, err := c.compose(ctx, "down", "-v"); err != nil {
		return fmt.Errorf("compose down -v: %w: %s", err, truncate(out))
	}
	return nil
}

// Status returns the compose service listing (docker compose ps).
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.compose(ctx, "ps")
	if err != nil {
		return "", fmt.Errorf("compose ps: %w: %s", err, truncate(out))
	}
	return string(out), nil
}

func (c *Client) compose(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"compose", "-f", c.file}, args...)
	return c.runner.Run(ctx, "docker", full...)
}

func truncate(out []byte) string {
	out = bytes.TrimSpace(out)
	if len(out) > maxOutputBytes {
		out = out[:maxOutputBytes]
	}
	return string(out)
}
