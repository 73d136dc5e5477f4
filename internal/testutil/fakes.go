package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
)

// FakeEmbedder is a deterministic knowledge.Embedder for tests: each text
// maps to a small vector derived from its hash, so identical texts always
// embed identically and different texts almost never collide.
type FakeEmbedder struct {
	// Dim is the vector dimension. Zero means 4.
	Dim int
	// Err, when set, is returned from every Embed call.
	Err error

	// Calls counts Embed invocations, for throttling and batching tests.
	Calls int
}

// Embed returns one pseudo-embedding per text, in order.
func (f *FakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}

	dim := f.Dim
	if dim == 0 {
		dim = 4
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum32()

		vec := make([]float32, dim)
		for j := range vec {
			seed = seed*1664525 + 1013904223
			vec[j] = float32(seed%1000)/1000 - 0.5
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// FakeLLM is a canned chat.LLM implementation recording its last prompt.
type FakeLLM struct {
	Response string
	Err      error

	LastSystem string
	LastUser   string
	Calls      int
}

// Complete returns the canned response.
func (f *FakeLLM) Complete(_ context.Context, system, user string) (string, error) {
	f.Calls++
	f.LastSystem = system
	f.LastUser = user
	if f.Err != nil {
		return "", f.Err
	}
	if f.Response == "" {
		return fmt.Sprintf("echo: %s", user), nil
	}
	return f.Response, nil
}
