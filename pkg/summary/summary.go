// Schema for structured conversation summary records
package summary

import "time"

// Status is the lifecycle state of a summary record.
type Status string

const (
	StatusActive         Status = "Active"
	StatusSuperseded     Status = "Superseded"
	StatusDecisionRecord Status = "DecisionRecord"
)

// Valid reports whether the status is a member of the closed set.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuperseded, StatusDecisionRecord:
		return true
	}
	return false
}

// ConversationSummary is a structured summary of a conversation.
//
// Content fields are never nil; the zero value means "empty". Metadata
// fields are pointers: nil marks a legacy record where the value is
// unknown, which is distinct from present-but-empty. An empty Decisions
// slice is a real state; a nil SessionID is not.
type ConversationSummary struct {
	// Content
	Topic         string   `json:"topic"`
	Context       string   `json:"context"`
	Decisions     []string `json:"decisions"`
	Rationale     []string `json:"rationale"`
	OpenQuestions []string `json:"open_questions"`
	NextSteps     []string `json:"next_steps"`
	References    []string `json:"references"`
	TimeScope     string   `json:"time_scope"`

	// Metadata, nil = legacy/unknown
	TopicID         *string    `json:"topic_id,omitempty"`
	SessionID       *string    `json:"session_id,omitempty"`
	PlanID          *string    `json:"plan_id,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	SourceCreatedAt *time.Time `json:"source_created_at,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// NewDefault creates a seed summary for later enrichment: empty sections,
// Active status, all three timestamps set to the same instant, and a topic
// ID derived from the topic via Slugify.
func NewDefault(topic, context string) *ConversationSummary {
	now := time.Now()
	topicID := Slugify(topic)
	status := StatusActive

	return &ConversationSummary{
		Topic:           topic,
		Context:         context,
		Decisions:       []string{},
		Rationale:       []string{},
		OpenQuestions:   []string{},
		NextSteps:       []string{},
		References:      []string{},
		TimeScope:       "",
		TopicID:         &topicID,
		Status:          &status,
		SourceCreatedAt: &now,
		CreatedAt:       &now,
		UpdatedAt:       &now,
	}
}
