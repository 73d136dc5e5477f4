package knowledge

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/koopa0/ragstack/internal/log"
)

// Store persists documents and their vectors in a Weaviate collection.
type Store struct {
	client *weaviate.Client
	class  string
	logger log.Logger
}

// NewStore creates a store for the given Weaviate URL and collection name.
func NewStore(rawURL, class string, logger log.Logger) (*Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing Weaviate URL %q: %w", rawURL, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("weaviate URL must be http(s)://host[:port], got %q", rawURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   u.Host,
		Scheme: u.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Weaviate client: %w", err)
	}

	return &Store{client: client, class: class, logger: logger}, nil
}

// Ready reports whether Weaviate can serve requests.
func (s *Store) Ready(ctx context.Context) (bool, error) {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return false, fmt.Errorf("weaviate readiness check: %w", err)
	}
	return ready, nil
}

// EnsureSchema creates the collection if it does not exist. Vectors are
// supplied by the application, so the class uses vectorizer "none".
func (s *Store) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("checking class %s: %w", s.class, err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:       s.class,
		Description: "Knowledge base documents for the RAG chatbot",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}, Description: "Document body"},
			{Name: "title", DataType: []string{"text"}, Description: "Document title"},
			{Name: "doc_id", DataType: []string{"text"}, Description: "Stable external identifier"},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("creating class %s: %w", s.class, err)
	}
	s.logger.Info("created collection", "class", s.class)
	return nil
}

// Add batch-inserts documents with their precomputed vectors.
// len(vectors) must equal len(docs).
func (s *Store) Add(ctx context.Context, docs []Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(docs))
	for i, doc := range docs {
		objects[i] = &models.Object{
			Class: s.class,
			ID:    strfmt.UUID(uuid.NewString()),
			Properties: map[string]interface{}{
				"text":   doc.Text,
				"title":  doc.Title,
				"doc_id": doc.ID,
			},
			Vector: models.C11yVector(vectors[i]),
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil {
			continue
		}
		for _, e := range item.Result.Errors.Error {
			if e != nil {
				return fmt.Errorf("batch insert: %s", e.Message)
			}
		}
	}

	s.logger.Debug("documents added", "class", s.class, "count", len(docs))
	return nil
}

// Upsert replaces any objects carrying the documents' doc_ids, then inserts.
// Documents without an ID are inserted unconditionally.
func (s *Store) Upsert(ctx context.Context, docs []Document, vectors [][]float32) error {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ID != "" {
			ids = append(ids, doc.ID)
		}
	}
	if err := s.DeleteByDocID(ctx, ids...); err != nil {
		return err
	}
	return s.Add(ctx, docs, vectors)
}

// DeleteByDocID removes all objects whose doc_id matches any of ids.
func (s *Store) DeleteByDocID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	where := filters.Where().
		WithPath([]string{"doc_id"}).
		WithOperator(filters.ContainsAny).
		WithValueText(ids...)

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.class).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("batch delete: %w", err)
	}
	if resp != nil && resp.Results != nil {
		s.logger.Debug("documents deleted", "class", s.class, "matches", resp.Results.Matches)
	}
	return nil
}

// Search returns the limit nearest documents to the query vector.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "title"},
		{Name: "doc_id"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	resp, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("vector search: %s", resp.Errors[0].Message)
	}

	return parseSearchResults(resp.Data, s.class)
}

// Count returns the number of objects in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	meta := graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}

	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(s.class).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("counting objects: %s", resp.Errors[0].Message)
	}

	return parseCount(resp.Data, s.class)
}

// Clear drops the collection and recreates it empty, mirroring the original
// demo's clear_knowledge_base behavior.
func (s *Store) Clear(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.class).Do(ctx)
	if err != nil {
		return fmt.Errorf("checking class %s: %w", s.class, err)
	}
	if exists {
		if err := s.client.Schema().ClassDeleter().WithClassName(s.class).Do(ctx); err != nil {
			return fmt.Errorf("deleting class %s: %w", s.class, err)
		}
		s.logger.Info("cleared knowledge base", "class", s.class)
	}
	return s.EnsureSchema(ctx)
}

// parseSearchResults extracts documents from a GraphQL Get response.
// Shape: {"Get": {<class>: [{"text": …, "title": …, "doc_id": …,
// "_additional": {"distance": …}}, …]}}
func parseSearchResults(data map[string]models.JSONObject, class string) ([]SearchResult, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response: missing Get")
	}
	items, ok := get[class].([]interface{})
	if !ok {
		// Class present but empty comes back as null.
		return nil, nil
	}

	results := make([]SearchResult, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		var r SearchResult
		r.Text, _ = obj["text"].(string)
		r.Title, _ = obj["title"].(string)
		r.ID, _ = obj["doc_id"].(string)
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := add["distance"].(float64); ok {
				r.Distance = float32(d)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// parseCount extracts the object count from a GraphQL Aggregate response.
// Shape: {"Aggregate": {<class>: [{"meta": {"count": N}}]}}
func parseCount(data map[string]models.JSONObject, class string) (int, error) {
	agg, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate response: missing Aggregate")
	}
	items, ok := agg[class].([]interface{})
	if !ok || len(items) == 0 {
		return 0, nil
	}
	obj, ok := items[0].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate entry type %T", items[0])
	}
	meta, ok := obj["meta"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected aggregate response: missing meta")
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", meta["count"])
	}
	return int(count), nil
}
