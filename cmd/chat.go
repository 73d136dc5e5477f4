package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/koopa0/ragstack/internal/chat"
	"github.com/koopa0/ragstack/internal/log"
	"github.com/koopa0/ragstack/internal/observability"
)

func runChat() error {
	s, cfg, err := newStack()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Please run:")
		fmt.Fprintln(os.Stderr, "  export OPENAI_API_KEY=your-api-key")
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	shutdown, err := observability.Setup(ctx, cfg.Datadog, log.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Default().Warn("flushing traces", "error", err)
		}
	}()

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

	return chatLoop(ctx, bot, os.Stdin, os.Stdout)
}

// chatLoop runs the interactive REPL until the input closes, the user quits,
// or the context is cancelled.
func chatLoop(ctx context.Context, bot *chat.Bot, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Chat ready. Type a question, 'add_file <path>' to index a file,")
	fmt.Fprintln(out, "'clear' to empty the knowledge base, or 'quit' to leave.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Goodbye!")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case line == "clear":
			if err := bot.Clear(ctx); err != nil {
				fmt.Fprintf(out, "Failed to clear the knowledge base: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Knowledge base cleared.")
		case strings.HasPrefix(line, "add_file"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "add_file"))
			if path == "" {
				fmt.Fprintln(out, "Usage: add_file <path>")
				continue
			}
			if err := bot.AddFile(ctx, path); err != nil {
				fmt.Fprintf(out, "Failed to add %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "Indexed %s.\n", path)
		default:
			answer, err := bot.Chat(ctx, line)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			fmt.Fprintf(out, "Bot: %s\n\n", answer)
		}
	}
}
