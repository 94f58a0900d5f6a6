package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"partners/partners/config"
	"partners/partners/services/knowledge"
	"partners/partners/services/llm"
	"partners/partners/services/prompt"
	"partners/partners/utils/logging"
	"partners/partners/utils/sse"
	"partners/partners/utils/types"

	"go.uber.org/zap"
)

// SearchResultsSentinel prefixes the card payload on its data line. The
// front-end card renderer keys off this token.
const SearchResultsSentinel = "[SEARCH_RESULTS]"

type ChatController struct {
	tables    *knowledge.Tables
	ai        llm.Streamer
	model     string
	maxTokens int
}

func NewChatController(tables *knowledge.Tables, ai llm.Streamer, cfg config.Config) *ChatController {
	return &ChatController{
		tables:    tables,
		ai:        ai,
		model:     cfg.AIModel,
		maxTokens: cfg.AIMaxTokens,
	}
}

// EncodeCards serializes a card set onto one data line: sentinel first,
// JSON array immediately after, field order stable.
func EncodeCards(cards types.CardSet) (string, error) {
	raw, err := json.Marshal(cards)
	if err != nil {
		return "", err
	}
	return SearchResultsSentinel + string(raw), nil
}

// HandleChat resolves one chat turn: direct reply and card reply are framed
// locally as two SSE events; everything else streams from the AI backend
// untouched.
func (c *ChatController) HandleChat(w http.ResponseWriter, r *http.Request) {
	defer logging.LogDuration(r.Context(), "chat_handle")()

	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeChatError(w, err)
		return
	}

	decision := c.tables.Classify(prompt.LastUserContent(req.Messages))

	switch decision.Kind {
	case knowledge.DirectReply:
		sse.Prepare(w)
		sse.Send(w, decision.Reply)
		sse.Done(w)

	case knowledge.CardReply:
		payload, err := EncodeCards(decision.Cards)
		if err != nil {
			writeChatError(w, err)
			return
		}
		sse.Prepare(w)
		sse.Send(w, payload)
		sse.Done(w)

	default:
		messages := prompt.Assemble(req.Messages, decision.NeedsSearchHint)
		stream, err := c.ai.StreamRaw(r.Context(), llm.ChatRequest{
			Model:     c.model,
			Messages:  toLLMMessages(messages),
			MaxTokens: c.maxTokens,
		})
		if err != nil {
			logging.ErrorLogger.Error("ai backend error", zap.Error(err),
				zap.String("trace_id", logging.TraceID(r.Context())))
			writeChatError(w, err)
			return
		}
		sse.Prepare(w)
		if err := sse.Relay(w, stream); err != nil {
			// Headers are already out; the stream just ends here.
			logging.ErrorLogger.Error("ai stream relay error", zap.Error(err),
				zap.String("trace_id", logging.TraceID(r.Context())))
		}
	}
}

// ChatStream is the websocket variant: same three-tier pipeline, content
// delivered as parsed chunks instead of SSE frames.
func (c *ChatController) ChatStream(ctx context.Context, messages []types.ChatMessage) (<-chan string, <-chan error) {
	ch := make(chan string, 1)
	errCh := make(chan error, 1)

	decision := c.tables.Classify(prompt.LastUserContent(messages))

	switch decision.Kind {
	case knowledge.DirectReply:
		ch <- decision.Reply
		close(ch)
		close(errCh)
		return ch, errCh

	case knowledge.CardReply:
		payload, err := EncodeCards(decision.Cards)
		if err != nil {
			errCh <- err
		} else {
			ch <- payload
		}
		close(ch)
		close(errCh)
		return ch, errCh
	}

	assembled := prompt.Assemble(messages, decision.NeedsSearchHint)
	aiCh, err := c.ai.RunStream(ctx, llm.ChatRequest{
		Model:     c.model,
		Messages:  toLLMMessages(assembled),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		errCh <- err
		close(ch)
		close(errCh)
		return ch, errCh
	}

	go func() {
		defer close(ch)
		defer close(errCh)
		for chunk := range aiCh {
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, errCh
}

func toLLMMessages(messages []types.ChatMessage) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func writeChatError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
