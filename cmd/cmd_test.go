package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/koopa0/ragstack/internal/chat"
	"github.com/koopa0/ragstack/internal/knowledge"
	"github.com/koopa0/ragstack/internal/log"
	"github.com/koopa0/ragstack/internal/testutil"
)

// runExecute invokes Execute with the given arguments and captures stdout.
func runExecute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldArgs := os.Args
	os.Args = append([]string{"ragstack"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = oldStdout })

	execErr := Execute()

	w.Close()
	os.Stdout = oldStdout
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	return string(out), execErr
}

func TestExecuteNoArgsShowsHelp(t *testing.T) {
	out, err := runExecute(t)
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("no-args output missing usage, got:\n%s", out)
	}
	if !strings.Contains(out, "quick-start") {
		t.Errorf("help should list quick-start, got:\n%s", out)
	}
}

func TestExecuteUnknownCommandShowsHelp(t *testing.T) {
	out, err := runExecute(t, "frobnicate")
	if err != nil {
		t.Fatalf("unknown command must not error, got %v", err)
	}
	if !strings.Contains(out, "Unknown command: frobnicate") {
		t.Errorf("output missing unknown-command notice, got:\n%s", out)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("unknown command should show usage, got:\n%s", out)
	}
}

func TestExecuteHelpAliases(t *testing.T) {
	for _, alias := range []string{"help", "--help", "-h"} {
		t.Run(alias, func(t *testing.T) {
			out, err := runExecute(t, alias)
			if err != nil {
				t.Fatalf("Execute() = %v, want nil", err)
			}
			if !strings.Contains(out, "Usage:") {
				t.Errorf("%s output missing usage, got:\n%s", alias, out)
			}
		})
	}
}

func TestExecuteVersion(t *testing.T) {
	out, err := runExecute(t, "--version")
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if !strings.Contains(out, "ragstack") {
		t.Errorf("version output missing program name, got:\n%s", out)
	}
}

// memStore backs the REPL tests without a running stack.
type memStore struct {
	docs    []knowledge.Document
	cleared int
}

func (m *memStore) Add(_ context.Context, docs []knowledge.Document, _ [][]float32) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *memStore) Upsert(_ context.Context, docs []knowledge.Document, _ [][]float32) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *memStore) Search(context.Context, []float32, int) ([]knowledge.SearchResult, error) {
	return nil, nil
}

func (m *memStore) Clear(context.Context) error {
	m.cleared++
	m.docs = nil
	return nil
}

func newReplBot(store *memStore, llm *testutil.FakeLLM) *chat.Bot {
	return chat.New(store, &testutil.FakeEmbedder{}, llm, chat.Config{}, log.NewNop())
}

func TestChatLoopAnswersAndQuits(t *testing.T) {
	bot := newReplBot(&memStore{}, &testutil.FakeLLM{Response: "hi there"})

	in := strings.NewReader("hello\nquit\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), bot, in, &out); err != nil {
		t.Fatalf("chatLoop() = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Bot: hi there") {
		t.Errorf("missing bot answer, got:\n%s", got)
	}
	if !strings.Contains(got, "Goodbye!") {
		t.Errorf("missing farewell, got:\n%s", got)
	}
}

func TestChatLoopExitsOnEOF(t *testing.T) {
	bot := newReplBot(&memStore{}, &testutil.FakeLLM{})

	var out bytes.Buffer
	if err := chatLoop(context.Background(), bot, strings.NewReader(""), &out); err != nil {
		t.Fatalf("chatLoop() = %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("EOF should end the session cleanly, got:\n%s", out.String())
	}
}

func TestChatLoopClear(t *testing.T) {
	store := &memStore{docs: []knowledge.Document{{Text: "old"}}}
	bot := newReplBot(store, &testutil.FakeLLM{})

	in := strings.NewReader("clear\nquit\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), bot, in, &out); err != nil {
		t.Fatalf("chatLoop() = %v", err)
	}
	if store.cleared != 1 {
		t.Errorf("cleared = %d, want 1", store.cleared)
	}
	if !strings.Contains(out.String(), "Knowledge base cleared.") {
		t.Errorf("missing confirmation, got:\n%s", out.String())
	}
}

func TestChatLoopAddFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/doc.txt"
	if err := os.WriteFile(path, []byte("body"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := &memStore{}
	bot := newReplBot(store, &testutil.FakeLLM{})

	in := strings.NewReader("add_file " + path + "\nquit\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), bot, in, &out); err != nil {
		t.Fatalf("chatLoop() = %v", err)
	}
	if len(store.docs) != 1 {
		t.Fatalf("indexed %d documents, want 1", len(store.docs))
	}
	if store.docs[0].Text != "body" {
		t.Errorf("indexed text = %q", store.docs[0].Text)
	}
}

func TestChatLoopAddFileUsage(t *testing.T) {
	bot := newReplBot(&memStore{}, &testutil.FakeLLM{})

	in := strings.NewReader("add_file\nquit\n")
	var out bytes.Buffer
	if err := chatLoop(context.Background(), bot, in, &out); err != nil {
		t.Fatalf("chatLoop() = %v", err)
	}
	if !strings.Contains(out.String(), "Usage: add_file <path>") {
		t.Errorf("missing usage hint, got:\n%s", out.String())
	}
}
