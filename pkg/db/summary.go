// Database models for stored conversation summaries
package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SummaryRecord is a persisted conversation summary. The encoded text
// body is the wire format handed to the semantic index; the structured
// columns exist for querying and are never recovered from the body here.
type SummaryRecord struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	WorkspaceID string `json:"workspace_id" gorm:"index:idx_summary_workspace_topic;size:36;not null"`

	// Identity and lifecycle
	TopicID   string  `json:"topic_id,omitempty" gorm:"index:idx_summary_workspace_topic;size:200"`
	Topic     string  `json:"topic" gorm:"size:300;not null"`
	Status    string  `json:"status,omitempty" gorm:"index;size:30"`
	SessionID *string `json:"session_id,omitempty" gorm:"size:100"`
	PlanID    *string `json:"plan_id,omitempty" gorm:"size:100"`

	// Queryable section copies
	Decisions     StringArray `json:"decisions,omitempty" gorm:"type:json"`
	OpenQuestions StringArray `json:"open_questions,omitempty" gorm:"type:json"`

	// Encoded text body and the template version it was rendered with
	Body            string `json:"body" gorm:"type:text;not null"`
	TemplateVersion string `json:"template_version" gorm:"size:10;not null"`

	SourceCreatedAt *time.Time `json:"source_created_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the table name
func (SummaryRecord) TableName() string {
	return "conversation_summaries"
}

// StringArray is a slice of strings stored as JSON
type StringArray []string

// Value implements driver.Valuer for StringArray
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for StringArray
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
	return json.Unmarshal(bytes, s)
}

// SummaryQueryOptions defines options for listing summaries
type SummaryQueryOptions struct {
	WorkspaceID string
	TopicID     string
	Statuses    []string
	Keyword     string
	Limit       int
	Offset      int
	OrderBy     string // created_at, updated_at, topic
	OrderDesc   bool
}

// SummarySearchResult represents a summary search result with score
type SummarySearchResult struct {
	SummaryRecord
	Similarity float32 `json:"similarity,omitempty"`
}
