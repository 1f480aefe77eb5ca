package models

// Sender identifies who wrote a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage is one entry of a persisted conversation. Actions are kept in
// their wire form so the history can describe what an agent turn performed.
type ChatMessage struct {
	Sender  Sender       `json:"sender"`
	Text    string       `json:"text"`
	Actions []WireAction `json:"actions,omitempty"`
}

// Assistant conversation openers. The agent history starts empty.
const (
	AssistantGreeting = "Hello! How can I help you be more productive today?"
	AssistantCleared  = "History cleared. How can I help you?"
)
