package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentforge/resume-extractor/internal/common"
	"github.com/talentforge/resume-extractor/internal/llm"
	"github.com/talentforge/resume-extractor/internal/ratelimit"
)

const maxAttempts = 3

// Client implements llm.ProfileExtractor against an OpenAI-compatible
// chat/completions endpoint. A Client holds no per-call mutable state beyond
// the shared rate gate, so one instance is safe across all workers.
type Client struct {
	cfg        Config
	gate       *ratelimit.Gate
	httpClient *http.Client
	log        *slog.Logger

	// sleep is the backoff wait, overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient validates the provider configuration up front so bad credentials
// abort the run before any work is dispatched.
func NewClient(cfg Config, gate *ratelimit.Gate, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, common.NewAppError("LLM_CONFIG", "API key is required", common.ErrProviderFatal)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, common.NewAppError("LLM_CONFIG", "base URL is required", common.ErrProviderFatal)
	}
	if cfg.Model == "" {
		return nil, common.NewAppError("LLM_CONFIG", "model is required", common.ErrProviderFatal)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Client{
		cfg:        cfg,
		gate:       gate,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
		sleep:      sleepCtx,
	}, nil
}

// ExtractProfile runs the bounded per-call state machine:
// rate gate, then up to maxAttempts tries where a throttled or server-side
// failure waits 10*(attempt+1) seconds, a schema-validation failure tightens
// the prompt with the full field enumeration, and anything else is terminal.
func (c *Client) ExtractProfile(ctx context.Context, req llm.ExtractRequest) (llm.Record, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	if err := c.gate.AwaitTurn(ctx); err != nil {
		return nil, fmt.Errorf("rate gate: %w", err)
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"filename", req.Filename,
		"text_len", len(req.ResumeText),
	)

	prompt := llm.BuildPrompt(req.ResumeText, req.Filename, c.cfg.MaxTextChars)
	schema := llm.BuildProfileJSONSchema()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rec, err := c.attempt(ctx, prompt, schema)
		if err == nil {
			// The key always comes from the work item, whatever the model said.
			rec[llm.KeyField] = req.Filename
			c.log.Info("llm.extract.ok",
				"req_id", rid,
				"filename", req.Filename,
				"attempts", attempt+1,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return rec, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, common.ErrProviderTransient) && attempt < maxAttempts-1:
			wait := time.Duration(10*(attempt+1)) * time.Second
			c.log.Warn("llm.extract.transient",
				"req_id", rid, "attempt", attempt+1, "wait", wait, "error", err)
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
		case errors.Is(err, common.ErrSchemaValidation) && attempt < maxAttempts-1:
			c.log.Warn("llm.extract.schema_retry",
				"req_id", rid, "attempt", attempt+1, "error", err)
			prompt = prompt + llm.StrictSuffix()
		default:
			c.log.Error("llm.extract.failed",
				"req_id", rid, "attempt", attempt+1, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, err
		}
	}

	c.log.Error("llm.extract.exhausted",
		"req_id", rid, "error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, prompt string, schema map[string]any) (llm.Record, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": prompt + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in provider response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSchemaValidation, err)
	}
	rec, err := llm.FlattenRecord(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSchemaValidation, err)
	}
	return rec, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrProviderTransient, err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("provider response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrProviderTransient, resp.StatusCode, buf.String())
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
