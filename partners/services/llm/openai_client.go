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

// OpenAIClient speaks the chat-completions wire format. The base URL knob
// makes it cover OpenAI, Groq and any other compatible endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewOpenAIClient(cfg config.Config) (*OpenAIClient, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY for openai provider")
	}
	base := cfg.AIBaseURL
	if base == "" {
		base = "https://api.openai.com/v1/chat/completions"
	}
	return &OpenAIClient{apiKey: cfg.AIAPIKey, baseURL: base}, nil
}

func (c *OpenAIClient) post(ctx context.Context, req ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat completions request failed: %s - %s", resp.Status, string(b))
	}
	return resp, nil
}

func (c *OpenAIClient) StreamRaw(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	defer logging.LogDuration(ctx, "openai_stream_raw")()

	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *OpenAIClient) RunStream(ctx context.Context, req ChatRequest) (<-chan string, error) {
	defer logging.LogDuration(ctx, "openai_run_stream")()

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
				logging.AppLogger.Info("openai stream context cancelled")
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return
				}
				logging.ErrorLogger.Error("openai stream read error", zap.Error(err))
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

			var chunk openAIStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logging.ErrorLogger.Error("openai stream JSON parse error",
					zap.Error(err), zap.String("raw_line", data))
				continue
			}

			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				select {
				case ch <- choice.Delta.Content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
