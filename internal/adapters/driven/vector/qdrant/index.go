// Package qdrant provides a VectorIndex backed by a Qdrant server's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "resumatch_chunks"
	DefaultTimeout    = 15 * time.Second
)

// pointNamespace maps record IDs onto the UUID point IDs Qdrant requires.
var pointNamespace = uuid.MustParse("9d3c1e7a-2b4f-5a60-8c1d-e2f3a4b5c6d7")

// errCollectionMissing marks a 404 from a collection endpoint.
var errCollectionMissing = errors.New("qdrant collection missing")

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name (default: resumatch_chunks).
	Collection string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration

	// Dimensions, when positive, creates the collection eagerly on first use.
	// Otherwise the size is taken from the first upserted vector.
	Dimensions int
}

// Index is a REST client for one Qdrant collection.
type Index struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
	dimensions int

	mu    sync.Mutex
	ready bool
}

// payload is the stored point payload.
type payload struct {
	RecordID string             `json:"record_id"`
	Level    domain.VectorLevel `json:"level"`
	domain.ChunkMetadata
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector,omitempty"`
	Payload payload   `json:"payload"`
}

type scoredPoint struct {
	ID      string    `json:"id"`
	Score   float64   `json:"score"`
	Vector  []float32 `json:"vector,omitempty"`
	Payload payload   `json:"payload"`
}

type matchCondition struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type filter struct {
	Must []matchCondition `json:"must,omitempty"`
}

// New creates a Qdrant index. No request is made until first use.
func New(cfg Config) *Index {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}
}

// PointID returns the Qdrant point ID used for a record ID.
func PointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

// Upsert writes points, creating the collection when it does not exist.
func (x *Index) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := x.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}

	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{
			ID:      PointID(r.ID),
			Vector:  r.Vector,
			Payload: payload{RecordID: r.ID, Level: r.Level, ChunkMetadata: r.Metadata},
		}
	}

	body := map[string]any{"points": points}
	if err := x.do(ctx, http.MethodPut, x.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// Query searches the collection with payload filters.
func (x *Index) Query(ctx context.Context, vector []float32, topK int, f driven.VectorFilter) ([]domain.RetrievalHit, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if qf := buildFilter(f); len(qf.Must) > 0 {
		req["filter"] = qf
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	err := x.do(ctx, http.MethodPost, x.collectionPath("/points/search"), req, &resp)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]domain.RetrievalHit, 0, len(resp.Result))
	for _, p := range resp.Result {
		hits = append(hits, domain.RetrievalHit{
			SourceID: p.Payload.RecordID,
			Score:    p.Score,
			Metadata: p.Payload.ChunkMetadata,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SourceID < hits[j].SourceID
	})
	return hits, nil
}

// Fetch retrieves a point with its vector.
func (x *Index) Fetch(ctx context.Context, id string) (*driven.VectorRecord, error) {
	req := map[string]any{
		"ids":          []string{PointID(id)},
		"with_payload": true,
		"with_vector":  true,
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	err := x.do(ctx, http.MethodPost, x.collectionPath("/points"), req, &resp)
	if errors.Is(err, errCollectionMissing) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching point: %w", err)
	}
	if len(resp.Result) == 0 {
		return nil, domain.ErrNotFound
	}

	p := resp.Result[0]
	return &driven.VectorRecord{
		ID:       id,
		Vector:   p.Vector,
		Level:    p.Payload.Level,
		Metadata: p.Payload.ChunkMetadata,
	}, nil
}

// Delete removes points by record ID.
func (x *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]string, len(ids))
	for i, id := range ids {
		pointIDs[i] = PointID(id)
	}
	return x.deletePoints(ctx, map[string]any{"points": pointIDs})
}

// DeleteDocument removes every point whose payload references the document.
func (x *Index) DeleteDocument(ctx context.Context, documentID string) error {
	f := filter{Must: []matchCondition{match("document_id", documentID)}}
	return x.deletePoints(ctx, map[string]any{"filter": f})
}

// Close releases idle connections.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

func (x *Index) deletePoints(ctx context.Context, body map[string]any) error {
	err := x.do(ctx, http.MethodPost, x.collectionPath("/points/delete?wait=true"), body, nil)
	if errors.Is(err, errCollectionMissing) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}

// ensureCollection reuses an existing collection or creates one with cosine distance.
func (x *Index) ensureCollection(ctx context.Context, dimension int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ready {
		return nil
	}

	err := x.do(ctx, http.MethodGet, x.collectionPath(""), nil, nil)
	if err == nil {
		x.ready = true
		return nil
	}
	if !errors.Is(err, errCollectionMissing) {
		return fmt.Errorf("checking collection: %w", err)
	}

	if x.dimensions > 0 {
		dimension = x.dimensions
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: cannot create collection without a dimension", domain.ErrInvalidInput)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := x.do(ctx, http.MethodPut, x.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	logger.Info("created qdrant collection %s (dimension %d)", x.collection, dimension)
	x.ready = true
	return nil
}

func (x *Index) collectionPath(suffix string) string {
	return x.url + "/collections/" + x.collection + suffix
}

// do sends a JSON request and decodes the JSON response into out when set.
func (x *Index) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("qdrant %s %s (status %d): %s", method, url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func buildFilter(f driven.VectorFilter) filter {
	var out filter
	if f.Level != "" {
		out.Must = append(out.Must, match("level", string(f.Level)))
	}
	if f.DocumentType != "" {
		out.Must = append(out.Must, match("document_type", string(f.DocumentType)))
	}
	if f.ChunkType != "" {
		out.Must = append(out.Must, match("chunk_type", string(f.ChunkType)))
	}
	return out
}

func match(key, value string) matchCondition {
	c := matchCondition{Key: key}
	c.Match.Value = value
	return c
}
