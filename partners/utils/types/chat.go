package types

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// CardRecord is one structured search result rendered as a horizontal card
// by the front end. Field order is part of the wire contract.
type CardRecord struct {
	Title    string `json:"title"`
	Time     string `json:"time"`
	Venue    string `json:"venue"`
	Category string `json:"category"`
}

type CardSet []CardRecord
