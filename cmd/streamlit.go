package cmd

import (
	"fmt"
	"os"
	"os/exec"
)

func runStreamlit() error {
	s, cfg, err := newStack()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.WaitReady(ctx); err != nil {
		return err
	}

	if len(cfg.UICommand) == 0 {
		return fmt.Errorf("ui_command is empty")
	}

	// The UI runs in the foreground and owns the terminal until interrupted.
	cmd := exec.CommandContext(ctx, cfg.UICommand[0], cfg.UICommand[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running %s: %w", cfg.UICommand[0], err)
	}
	return nil
}
