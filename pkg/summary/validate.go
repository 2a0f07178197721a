// Validation rules for conversation summary records
package summary

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingTopic   = errors.New("summary topic is required")
	ErrMissingContext = errors.New("summary context is required")
	ErrInvalidTopicID = errors.New("topic id must not be blank")
	ErrInvalidStatus  = errors.New("invalid summary status")
)

// InvalidTimestampError reports a malformed timestamp and which field
// carried it.
type InvalidTimestampError struct {
	Field string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid %s timestamp", e.Field)
}

// Validate checks a summary against the record invariants. It is a pure
// check with no side effects and fails on the first violation found.
//
// Topic and context must be non-blank for every record, legacy or not.
// Metadata fields may be nil (legacy), but a non-nil value must be
// well-formed: a blank topic id, a status outside the closed set, or a
// zero timestamp is rejected.
func Validate(s *ConversationSummary) error {
	if strings.TrimSpace(s.Topic) == "" {
		return ErrMissingTopic
	}
	if strings.TrimSpace(s.Context) == "" {
		return ErrMissingContext
	}
	if s.TopicID != nil && strings.TrimSpace(*s.TopicID) == "" {
		return ErrInvalidTopicID
	}
	if s.Status != nil && !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if err := validTimestamp("source_created_at", s.SourceCreatedAt); err != nil {
		return err
	}
	if err := validTimestamp("created_at", s.CreatedAt); err != nil {
		return err
	}
	if err := validTimestamp("updated_at", s.UpdatedAt); err != nil {
		return err
	}
	return nil
}

// validTimestamp accepts nil (legacy) and any non-zero instant. The zero
// time is the one in-band value that cannot be a real instant.
func validTimestamp(field string, t *time.Time) error {
	if t != nil && t.IsZero() {
		return &InvalidTimestampError{Field: field}
	}
	return nil
}
