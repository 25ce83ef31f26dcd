package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/askql/askql/internal/errors"
)

// QdrantClient talks to a Qdrant instance over its REST API. Only the
// handful of endpoints the index needs are implemented.
type QdrantClient struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

// NewQdrantClient creates a client for the given instance URL and
// collection name. A non-positive timeout falls back to 10 seconds.
func NewQdrantClient(baseURL, collection string, timeout time.Duration) *QdrantClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &QdrantClient{
		baseURL:    baseURL,
		collection: collection,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Collection returns the collection name the client operates on.
func (c *QdrantClient) Collection() string {
	return c.collection
}

type qdrantResponse struct {
	Status json.RawMessage `json:"status"`
	Result json.RawMessage `json:"result"`
}

type qdrantPoint struct {
	ID      uint64    `json:"id"`
	Vector  []float32 `json:"vector,omitempty"`
	Payload Payload   `json:"payload,omitempty"`
	Score   float64   `json:"score,omitempty"`
}

type qdrantFilter struct {
	Must []qdrantCondition `json:"must"`
}

type qdrantCondition struct {
	Key   string      `json:"key"`
	Match qdrantMatch `json:"match"`
}

type qdrantMatch struct {
	Value string `json:"value"`
}

func buildFilter(filter Filter) *qdrantFilter {
	if filter.Field == "" {
		return nil
	}

	return &qdrantFilter{
		Must: []qdrantCondition{
			{Key: filter.Field, Match: qdrantMatch{Value: filter.Value}},
		},
	}
}

// EnsureCollection creates the collection with cosine distance when it
// does not already exist.
func (c *QdrantClient) EnsureCollection(ctx context.Context, dimensions int) error {
	exists, err := c.collectionExists(ctx)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}

	_, err = c.doRequest(ctx, http.MethodPut, "/collections/"+c.collection, body)

	return err
}

func (c *QdrantClient) collectionExists(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/collections/"+c.collection, nil)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrTypeInternal, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrTypeIndexUnavailable,
			"vector store is unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if resp.StatusCode != http.StatusOK {
		return false, errors.Newf(errors.ErrTypeIndexUnavailable,
			"vector store returned status %d", resp.StatusCode)
	}

	return true, nil
}

// Upsert writes records into the collection, replacing existing points
// with the same ID.
func (c *QdrantClient) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]qdrantPoint, 0, len(records))
	for _, r := range records {
		points = append(points, qdrantPoint{
			ID:      r.ID,
			Vector:  r.Vector,
			Payload: r.Payload,
		})
	}

	body := map[string]interface{}{"points": points}

	_, err := c.doRequest(ctx, http.MethodPut,
		"/collections/"+c.collection+"/points?wait=true", body)

	return err
}

// Search runs a similarity search and returns hits at or above the
// score floor.
func (c *QdrantClient) Search(
	ctx context.Context, vector []float32, limit int, scoreFloor float64,
) ([]ScoredRecord, error) {
	body := map[string]interface{}{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": scoreFloor,
		"with_payload":    true,
	}

	result, err := c.doRequest(ctx, http.MethodPost,
		"/collections/"+c.collection+"/points/search", body)
	if err != nil {
		return nil, err
	}

	var points []qdrantPoint
	if err := json.Unmarshal(result, &points); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIndexUnavailable,
			"failed to decode search response")
	}

	return toScored(points), nil
}

// Scroll lists records matching the filter without ranking.
func (c *QdrantClient) Scroll(ctx context.Context, filter Filter, limit int) ([]ScoredRecord, error) {
	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		body["filter"] = f
	}

	result, err := c.doRequest(ctx, http.MethodPost,
		"/collections/"+c.collection+"/points/scroll", body)
	if err != nil {
		return nil, err
	}

	var scroll struct {
		Points []qdrantPoint `json:"points"`
	}
	if err := json.Unmarshal(result, &scroll); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIndexUnavailable,
			"failed to decode scroll response")
	}

	return toScored(scroll.Points), nil
}

// Delete removes all records matching the filter.
func (c *QdrantClient) Delete(ctx context.Context, filter Filter) error {
	body := map[string]interface{}{}
	if f := buildFilter(filter); f != nil {
		body["filter"] = f
	}

	_, err := c.doRequest(ctx, http.MethodPost,
		"/collections/"+c.collection+"/points/delete?wait=true", body)

	return err
}

func (c *QdrantClient) doRequest(
	ctx context.Context, method, path string, body interface{},
) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIndexUnavailable,
			"vector store is unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIndexUnavailable,
			"failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrTypeIndexUnavailable,
			fmt.Sprintf("vector store returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed qdrantResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIndexUnavailable,
			"failed to decode response")
	}

	return parsed.Result, nil
}

func toScored(points []qdrantPoint) []ScoredRecord {
	records := make([]ScoredRecord, 0, len(points))
	for _, p := range points {
		records = append(records, ScoredRecord{
			ID:      p.ID,
			Score:   p.Score,
			Payload: p.Payload,
		})
	}

	return records
}
