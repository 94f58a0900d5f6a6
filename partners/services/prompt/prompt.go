// Package prompt prepares the outbound message list for the AI backend.
package prompt

import (
	"partners/partners/utils/types"
)

// Persona is the fixed behavior template injected when the caller did not
// supply a system message. Deployment-time constant, never user-controllable.
const Persona = `You are a friendly, accurate assistant.
DO NOT generate UI commands or JSON unless asked explicitly.`

// SearchHint biases the model toward the card wire format the front end
// renders as horizontal cards.
const SearchHint = `When the user asks about schedules, prices, stocks or news, respond with search results in this exact format:
the first line must start with the literal token [SEARCH_RESULTS] immediately followed by a JSON array of objects with fields "title", "time", "venue", "category".
Do not add any prose after the JSON. Do not wrap the JSON in markdown fences. Category values must be single words.`

// Assemble enforces the single-system-message invariant and appends the
// search hint when requested. The input slice is consumed; callers must not
// reuse it afterwards.
func Assemble(messages []types.ChatMessage, needsSearchHint bool) []types.ChatMessage {
	if !hasSystem(messages) {
		messages = append([]types.ChatMessage{{Role: types.RoleSystem, Content: Persona}}, messages...)
	}
	if needsSearchHint {
		messages = append(messages, types.ChatMessage{Role: types.RoleSystem, Content: SearchHint})
	}
	return messages
}

func hasSystem(messages []types.ChatMessage) bool {
	for _, m := range messages {
		if m.Role == types.RoleSystem {
			return true
		}
	}
	return false
}

// LastUserContent returns the content of the most recent message, the
// current turn by convention.
func LastUserContent(messages []types.ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}
