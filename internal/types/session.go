package types

import (
	"time"

	"github.com/google/uuid"
)

// Session is a persisted anonymous or user-linked session with a sliding
// 24-hour expiry driven by LastActivity.
type Session struct {
	ID           uuid.UUID  `json:"session_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity time.Time  `json:"last_activity"`
}

// ConversationTurn is one user/system exchange in a session. Turns are
// append-only; they are never mutated after being recorded.
type ConversationTurn struct {
	Timestamp      time.Time `json:"timestamp"`
	UserMessage    string    `json:"user_message"`
	SystemResponse string    `json:"system_response"`
	Topics         []string  `json:"topics"`
	Sentiment      float64   `json:"sentiment"`
}

// TopicTransition records a shift between topics across consecutive turns.
type TopicTransition struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionPreferences are the most frequent categories and cities seen in a
// session's results, used for context fallbacks on ambiguous queries.
type SessionPreferences struct {
	Categories []string `json:"categories,omitempty"`
	Cities     []string `json:"cities,omitempty"`
}

// ConversationSummary aggregates recent conversation state for a session.
type ConversationSummary struct {
	Exchanges      int      `json:"exchanges"`
	RecentTopics   []string `json:"recent_topics"`
	SentimentTrend float64  `json:"sentiment_trend"`
}

// QueryTopics describes the topical content of the query being processed.
type QueryTopics struct {
	Topics          []string `json:"topics"`
	Sentiment       float64  `json:"sentiment"`
	TopicContinuity bool     `json:"topic_continuity"`
}

// ConversationContext is the assembled short-term memory handed to the
// response assembler.
type ConversationContext struct {
	SessionID    string               `json:"session_id"`
	Preferences  SessionPreferences   `json:"preferences"`
	Conversation *ConversationSummary `json:"conversation,omitempty"`
	CurrentQuery *QueryTopics         `json:"current_query,omitempty"`
	Values       map[string]any       `json:"values,omitempty"`
}
