package domain

import "time"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Message        string    `json:"message"`
	Sender         Sender    `json:"sender"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatTurn is one prior exchange handed to a ChatModel.
type ChatTurn struct {
	Role Sender
	Text string
}

type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

type ThreatAssessment struct {
	Level              ThreatLevel `json:"threat_level"`
	RecommendedActions []string    `json:"recommended_actions"`
}

type SafetyTip struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
