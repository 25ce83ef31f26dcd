package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/errors"
	"github.com/askql/askql/internal/logging"
)

// maxBackoff caps the exponential retry delay.
const maxBackoff = 8 * time.Second

// Client implements Service over the generation server's HTTP API.
// Per-call deadlines are applied through the request context, so the
// training timeout can exceed the generation timeout.
type Client struct {
	baseURL         string
	maxRetries      int
	timeout         time.Duration
	trainingTimeout time.Duration
	httpClient      *http.Client
	logger          *logging.Logger
}

// NewClient creates an HTTP generation client from configuration.
func NewClient(cfg config.GeneratorConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.URL, "/"),
		maxRetries:      cfg.MaxRetries,
		timeout:         cfg.TimeoutDuration(),
		trainingTimeout: cfg.TrainingTimeoutDuration(),
		httpClient:      &http.Client{},
		logger:          logger,
	}
}

type generateRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id,omitempty"`
}

type generateResponse struct {
	Success bool            `json:"success"`
	SQL     json.RawMessage `json:"sql"`
	Message string          `json:"message,omitempty"`
}

type trainRequest struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
	DDL      string `json:"ddl,omitempty"`
}

type trainResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Ask generates SQL for the question. The server may return the SQL as
// a bare string or as a tuple-like array whose first element is the
// SQL; both shapes are accepted.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/generate_sql",
		generateRequest{Question: question}, 0)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeGeneration, "failed to decode generation response")
	}

	if !resp.Success {
		return "", errors.Newf(errors.ErrTypeGeneration, "generation failed: %s", resp.Message)
	}

	sql, err := decodeSQLResult(resp.SQL)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(sql) == "" {
		return "", errors.New(errors.ErrTypeGeneration, "generation service returned empty SQL")
	}

	return sql, nil
}

// decodeSQLResult accepts "SELECT ..." or ["SELECT ...", ...].
func decodeSQLResult(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New(errors.ErrTypeGeneration, "generation service returned no SQL")
	}

	var sql string
	if err := json.Unmarshal(raw, &sql); err == nil {
		return sql, nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err == nil && len(tuple) > 0 {
		if err := json.Unmarshal(tuple[0], &sql); err == nil {
			return sql, nil
		}
	}

	return "", errors.Newf(errors.ErrTypeGeneration,
		"generation service returned unrecognized SQL shape: %s", string(raw))
}

// TrainDDL teaches the service the schema DDL. Training uses the
// longer timeout.
func (c *Client) TrainDDL(ctx context.Context, ddl string) error {
	return c.train(ctx, trainRequest{DDL: ddl})
}

// TrainExample teaches the service one question/SQL pair.
func (c *Client) TrainExample(ctx context.Context, question, sql string) error {
	return c.train(ctx, trainRequest{Question: question, SQL: sql})
}

func (c *Client) train(ctx context.Context, req trainRequest) error {
	body, err := c.doRequest(ctx, http.MethodPost, "/train", req, c.trainingTimeout)
	if err != nil {
		return err
	}

	var resp trainResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return errors.Wrap(err, errors.ErrTypeGeneration, "failed to decode training response")
	}

	if !resp.Success {
		return errors.Newf(errors.ErrTypeGeneration, "training failed: %s", resp.Message)
	}

	return nil
}

// CheckHealth reports whether the generation server is up and its
// model initialized.
func (c *Client) CheckHealth(ctx context.Context) error {
	body, err := c.doRequest(ctx, http.MethodGet, "/health", nil, 0)
	if err != nil {
		return err
	}

	var health struct {
		Status      string `json:"status"`
		Initialized bool   `json:"initialized"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return errors.Wrap(err, errors.ErrTypeGeneration, "failed to decode health response")
	}

	if health.Status != "healthy" {
		return errors.Newf(errors.ErrTypeGeneration, "generation service status: %s", health.Status)
	}

	return nil
}

// doRequest issues one HTTP call with capped exponential-backoff
// retries. Server errors and transport failures retry; client errors
// do not.
func (c *Client) doRequest(
	ctx context.Context, method, path string, payload interface{}, timeout time.Duration,
) ([]byte, error) {
	var jsonBody []byte

	if payload != nil {
		var err error

		jsonBody, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal request")
		}
	}

	if timeout <= 0 {
		timeout = c.timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > maxBackoff {
				backoff = maxBackoff
			}

			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt + 1,
				"backoff": backoff.String(),
			}).Warn("Retrying generation service request")

			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrTypeGeneration,
					"generation service request canceled")
			case <-time.After(backoff):
			}
		}

		body, retryable, err := c.attempt(ctx, method, path, jsonBody)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, errors.Wrapf(lastErr, errors.ErrTypeGeneration,
		"generation service request failed after %d attempts", c.maxRetries+1)
}

func (c *Client) attempt(ctx context.Context, method, path string, jsonBody []byte) ([]byte, bool, error) {
	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrTypeInternal, "failed to create request")
	}

	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.Wrap(err, errors.ErrTypeGeneration,
			"generation service is unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Wrap(err, errors.ErrTypeGeneration, "failed to read response")
	}

	if resp.StatusCode >= 500 {
		return nil, true, errors.Newf(errors.ErrTypeGeneration,
			"generation service returned status %d", resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		return nil, false, errors.New(errors.ErrTypeGeneration,
			fmt.Sprintf("generation service rejected request: %d: %s",
				resp.StatusCode, string(respBody)))
	}

	return respBody, false, nil
}
