// Package llm wraps the AI backends the gateway can fall through to. Every
// client exposes the raw SSE byte stream for passthrough plus a parsed chunk
// channel for consumers that want content deltas (websocket path, CLI).
package llm

import (
	"context"
	"fmt"
	"io"

	"partners/partners/config"
)

type ChatRequest struct {
	Model     string      `json:"model"`
	Messages  []Message   `json:"messages"`
	MaxTokens int         `json:"max_tokens,omitempty"`
	Stream    bool        `json:"stream"`
	Options   interface{} `json:"options,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Streamer is the opaque AI capability. Both methods issue exactly one
// outbound attempt; there are no retries anywhere in the gateway.
type Streamer interface {
	// StreamRaw returns the backend's own SSE-framed response body,
	// relayed byte-for-byte by the caller. The caller owns closing it.
	StreamRaw(ctx context.Context, req ChatRequest) (io.ReadCloser, error)
	// RunStream returns parsed content deltas. The channel closes when the
	// backend signals done or the context is cancelled.
	RunStream(ctx context.Context, req ChatRequest) (<-chan string, error)
}

// NewStreamer picks the backend client from config.
func NewStreamer(cfg config.Config) (Streamer, error) {
	switch cfg.AIProvider {
	case "workers":
		return NewWorkersAIClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}
