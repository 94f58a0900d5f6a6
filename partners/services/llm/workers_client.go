package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"partners/partners/config"
	"partners/partners/utils/logging"
	"partners/partners/utils/sse"

	"go.uber.org/zap"
)

// WorkersAIClient talks to the Cloudflare Workers AI REST endpoint. Its
// streaming responses are already SSE-framed and end with [DONE], which is
// exactly what the chat passthrough relays.
type WorkersAIClient struct {
	apiToken string
	baseURL  string
}

type workersStreamChunk struct {
	Response string `json:"response"`
}

func NewWorkersAIClient(cfg config.Config) (*WorkersAIClient, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY for workers provider")
	}
	base := cfg.AIBaseURL
	if base == "" {
		if cfg.CFAccountID == "" {
			return nil, fmt.Errorf("missing CF_ACCOUNT_ID for workers provider")
		}
		base = fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/ai/run", cfg.CFAccountID)
	}
	return &WorkersAIClient{
		apiToken: cfg.AIAPIKey,
		baseURL:  strings.TrimSuffix(base, "/"),
	}, nil
}

func (c *WorkersAIClient) post(ctx context.Context, req ChatRequest) (*http.Response, error) {
	payload := map[string]interface{}{
		"messages":   req.Messages,
		"max_tokens": req.MaxTokens,
		"stream":     req.Stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/"+req.Model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("workers ai request failed: %s - %s", resp.Status, string(b))
	}
	return resp, nil
}

// StreamRaw hands back the backend's SSE body untouched.
func (c *WorkersAIClient) StreamRaw(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	defer logging.LogDuration(ctx, "workers_ai_stream_raw")()

	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// RunStream parses the SSE events into content deltas.
func (c *WorkersAIClient) RunStream(ctx context.Context, req ChatRequest) (<-chan string, error) {
	defer logging.LogDuration(ctx, "workers_ai_run_stream")()

	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan string)

	go func() {
		defer func() {
			close(ch)
			resp.Body.Close()
		}()

		reader := bufio.NewReader(resp.Body)

		for {
			select {
			case <-ctx.Done():
				logging.AppLogger.Info("workers ai stream context cancelled")
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return
				}
				logging.ErrorLogger.Error("workers ai stream read error", zap.Error(err))
				return
			}

			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}
			if data == sse.DoneSentinel {
				return
			}

			var chunk workersStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logging.ErrorLogger.Error("workers ai stream JSON parse error",
					zap.Error(err), zap.String("raw_line", data))
				continue
			}
			if chunk.Response == "" {
				continue
			}

			select {
			case ch <- chunk.Response:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
