// Terminal client for the partners gateway: type a message, watch the SSE
// stream come back.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"partners/partners/config"
	httputils "partners/partners/utils/http"
	"partners/partners/utils/logging"
	"partners/partners/utils/sse"
	"partners/partners/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)

	baseURL := os.Getenv("GATEWAY_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}

	sessionID := fmt.Sprintf("cli-%s", uuid.New().String()[:8])
	logging.AppLogger.Info("partnersctl session started",
		zap.String("session_id", sessionID), zap.String("gateway", baseURL))

	fmt.Println("partnersctl — chatting with", baseURL)
	fmt.Println("Session:", sessionID)
	fmt.Println("Type your message or 'exit' to quit.")
	fmt.Println()

	var history []types.ChatMessage
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		history = append(history, types.ChatMessage{Role: types.RoleUser, Content: line})
		reply, err := sendTurn(baseURL, history)
		if err != nil {
			fmt.Println("error:", err)
			logging.ErrorLogger.Error("chat turn failed", zap.Error(err))
			continue
		}
		history = append(history, types.ChatMessage{Role: types.RoleAssistant, Content: reply})
		fmt.Println()
	}
}

// sendTurn posts the running history and prints data payloads as they
// arrive, returning the concatenated reply for the history.
func sendTurn(baseURL string, history []types.ChatMessage) (string, error) {
	body, err := httputils.PostStream(context.Background(), baseURL+"/api/chat", nil,
		types.ChatRequest{Messages: history})
	if err != nil {
		return "", err
	}
	defer body.Close()

	var reply strings.Builder
	reader := sse.NewReader(body)
	for {
		data, err := reader.ReadData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return reply.String(), err
		}
		if data == sse.DoneSentinel {
			break
		}
		fmt.Print(data)
		reply.WriteString(data)
	}
	fmt.Println()
	return reply.String(), nil
}
