package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"partners/partners/config"
	"partners/partners/services/knowledge"
	"partners/partners/services/llm"
	"partners/partners/services/prompt"
	"partners/partners/utils/logging"
	"partners/partners/utils/types"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "partners-test-logs")
	if err != nil {
		panic(err)
	}
	logging.InitLogger(dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// fakeStreamer stands in for the AI backend and records what it was asked.
type fakeStreamer struct {
	lastReq llm.ChatRequest
	sseBody string
	chunks  []string
	err     error
}

func (f *fakeStreamer) StreamRaw(ctx context.Context, req llm.ChatRequest) (io.ReadCloser, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.sseBody)), nil
}

func (f *fakeStreamer) RunStream(ctx context.Context, req llm.ChatRequest) (<-chan string, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan string, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func newTestController(fake *fakeStreamer) *ChatController {
	cfg := config.Config{AIModel: "test-model", AIMaxTokens: 64}
	return NewChatController(knowledge.Default(), fake, cfg)
}

func postChat(t *testing.T, ctrl *ChatController, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	ctrl.HandleChat(rr, req)
	return rr
}

func chatBody(t *testing.T, messages []types.ChatMessage) string {
	t.Helper()
	raw, err := json.Marshal(types.ChatRequest{Messages: messages})
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func sseEvents(body string) []string {
	var events []string
	for _, chunk := range strings.Split(body, "\n\n") {
		if strings.HasPrefix(chunk, "data: ") {
			events = append(events, strings.TrimPrefix(chunk, "data: "))
		}
	}
	return events
}

func TestHandleChatDirectReply(t *testing.T) {
	ctrl := newTestController(&fakeStreamer{})
	rr := postChat(t, ctrl, chatBody(t, []types.ChatMessage{{Role: "user", Content: "เมนู"}}))

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}
	events := sseEvents(rr.Body.String())
	if len(events) != 2 {
		t.Fatalf("expected exactly 2 events, got %d: %v", len(events), events)
	}
	if events[0] != "[UI_MENU]" {
		t.Errorf("expected [UI_MENU], got %q", events[0])
	}
	if events[1] != "[DONE]" {
		t.Errorf("expected [DONE] terminal, got %q", events[1])
	}
}

func TestHandleChatCardReply(t *testing.T) {
	ctrl := newTestController(&fakeStreamer{})
	rr := postChat(t, ctrl, chatBody(t, []types.ChatMessage{{Role: "user", Content: "ราคาทอง"}}))

	events := sseEvents(rr.Body.String())
	if len(events) != 2 {
		t.Fatalf("expected exactly 2 events, got %d", len(events))
	}
	if !strings.HasPrefix(events[0], SearchResultsSentinel) {
		t.Fatalf("card payload must start with the sentinel, got %q", events[0])
	}

	var cards types.CardSet
	if err := json.Unmarshal([]byte(strings.TrimPrefix(events[0], SearchResultsSentinel)), &cards); err != nil {
		t.Fatalf("card payload is not valid JSON: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected the two gold-price records, got %d", len(cards))
	}
	if cards[0].Title != "ทองคำแท่ง ขายออก" || cards[1].Title != "ทองรูปพรรณ ขายออก" {
		t.Errorf("record order not preserved: %+v", cards)
	}
	if events[1] != "[DONE]" {
		t.Errorf("expected [DONE] terminal, got %q", events[1])
	}
}

func TestHandleChatCardFieldOrder(t *testing.T) {
	payload, err := EncodeCards(types.CardSet{{Title: "a", Time: "b", Venue: "c", Category: "d"}})
	if err != nil {
		t.Fatal(err)
	}
	want := SearchResultsSentinel + `[{"title":"a","time":"b","venue":"c","category":"d"}]`
	if payload != want {
		t.Errorf("expected %q, got %q", want, payload)
	}
}

func TestHandleChatFallbackPassthrough(t *testing.T) {
	upstream := "data: {\"response\":\"hello\"}\n\ndata: [DONE]\n\n"
	fake := &fakeStreamer{sseBody: upstream}
	ctrl := newTestController(fake)

	rr := postChat(t, ctrl, chatBody(t, []types.ChatMessage{{Role: "user", Content: "tell me a story"}}))

	if rr.Body.String() != upstream {
		t.Errorf("passthrough must relay byte-for-byte: got %q", rr.Body.String())
	}
	if fake.lastReq.Model != "test-model" || fake.lastReq.MaxTokens != 64 {
		t.Errorf("generation parameters not forwarded: %+v", fake.lastReq)
	}

	// persona injected at index 0, user turn preserved after it
	if len(fake.lastReq.Messages) != 2 {
		t.Fatalf("expected persona + user message, got %d", len(fake.lastReq.Messages))
	}
	if fake.lastReq.Messages[0].Role != "system" || fake.lastReq.Messages[0].Content != prompt.Persona {
		t.Errorf("persona not injected: %+v", fake.lastReq.Messages[0])
	}
	if fake.lastReq.Messages[1].Content != "tell me a story" {
		t.Errorf("user message altered: %+v", fake.lastReq.Messages[1])
	}
}

func TestHandleChatFallbackSearchHint(t *testing.T) {
	fake := &fakeStreamer{sseBody: "data: [DONE]\n\n"}
	ctrl := newTestController(fake)

	postChat(t, ctrl, chatBody(t, []types.ChatMessage{{Role: "user", Content: "ราคา bitcoin วันนี้"}}))

	msgs := fake.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected persona + user + hint, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Role != "system" || last.Content != prompt.SearchHint {
		t.Errorf("search hint not appended: %+v", last)
	}
}

func TestHandleChatKeepsExistingSystemMessage(t *testing.T) {
	fake := &fakeStreamer{sseBody: "data: [DONE]\n\n"}
	ctrl := newTestController(fake)

	postChat(t, ctrl, chatBody(t, []types.ChatMessage{
		{Role: "system", Content: "custom persona"},
		{Role: "user", Content: "hi there"},
	}))

	count := 0
	for _, m := range fake.lastReq.Messages {
		if m.Role == "system" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one system message, got %d", count)
	}
	if fake.lastReq.Messages[0].Content != "custom persona" {
		t.Errorf("caller's system message should be kept: %+v", fake.lastReq.Messages[0])
	}
}

func TestHandleChatMalformedBody(t *testing.T) {
	ctrl := newTestController(&fakeStreamer{})
	rr := postChat(t, ctrl, "{not json")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var envelope map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if envelope["error"] == "" {
		t.Errorf("expected an error field, got %v", envelope)
	}
}

func TestHandleChatBackendError(t *testing.T) {
	ctrl := newTestController(&fakeStreamer{err: errors.New("backend down")})
	rr := postChat(t, ctrl, chatBody(t, []types.ChatMessage{{Role: "user", Content: "hello"}}))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "backend down") {
		t.Errorf("expected error envelope, got %q", rr.Body.String())
	}
}

func TestChatStreamDirectReply(t *testing.T) {
	ctrl := newTestController(&fakeStreamer{})

	ch, errCh := ctrl.ChatStream(context.Background(), []types.ChatMessage{{Role: "user", Content: "help"}})
	var got []string
	for chunk := range ch {
		got = append(got, chunk)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "[UI_MENU]" {
		t.Errorf("expected single [UI_MENU] chunk, got %v", got)
	}
}

func TestChatStreamFallbackChunks(t *testing.T) {
	fake := &fakeStreamer{chunks: []string{"Hel", "lo"}}
	ctrl := newTestController(fake)

	ch, errCh := ctrl.ChatStream(context.Background(), []types.ChatMessage{{Role: "user", Content: "hi"}})
	var got string
	for chunk := range ch {
		got += chunk
	}
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello" {
		t.Errorf("expected chunk concatenation Hello, got %q", got)
	}
}
