// Package testutil provides shared testing utilities for the ragstack project.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcweaviate "github.com/testcontainers/testcontainers-go/modules/weaviate"
)

// WeaviateImage is the image used for integration tests. Kept in lockstep
// with docker-compose.yml.
const WeaviateImage = "semitechnologies/weaviate:1.26.6"

// StartWeaviate launches a disposable Weaviate container and returns its
// base URL (http://host:port). The container is terminated when the test
// finishes.
//
// Integration tests are opt-in: they are skipped in -short mode and when
// RAGSTACK_INTEGRATION is unset, so the ordinary test run needs no docker.
func StartWeaviate(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("RAGSTACK_INTEGRATION") == "" {
		t.Skip("RAGSTACK_INTEGRATION not set, skipping integration test")
	}

	ctx := context.Background()

	container, err := tcweaviate.Run(ctx, WeaviateImage)
	if err != nil {
		t.Fatalf("failed to start Weaviate container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate Weaviate container: %v", err)
		}
	})

	scheme, host, err := container.HttpHostAddress(ctx)
	if err != nil {
		t.Fatalf("failed to get Weaviate address: %v", err)
	}
	return scheme + "://" + host
}
