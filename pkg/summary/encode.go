// Deterministic text encoding for conversation summary records
package summary

import (
	"strings"
	"time"
)

// TemplateVersion identifies the encoded text layout. The external
// decoder branches on this marker before extracting fields, so any change
// to headings, labels, placeholders, field order, or the timestamp layout
// is a breaking format change and must bump this constant.
const TemplateVersion = "v2"

// Literal tokens of the format contract. The decoder matches these
// byte-for-byte; they must not change within a template version.
const (
	MarkerPrefix = "<!-- flowbaby-summary-format: "
	MarkerSuffix = " -->"

	LabelTopicID       = "**Topic ID:**"
	LabelSessionID     = "**Session ID:**"
	LabelPlanID        = "**Plan ID:**"
	LabelStatus        = "**Status:**"
	LabelSourceCreated = "**Source Created:**"
	LabelCreated       = "**Created:**"
	LabelUpdated       = "**Updated:**"

	HeadingContext       = "## Context"
	HeadingDecisions     = "## Key Decisions"
	HeadingRationale     = "## Rationale"
	HeadingOpenQuestions = "## Open Questions"
	HeadingNextSteps     = "## Next Steps"
	HeadingReferences    = "## References"
	HeadingTimeScope     = "## Time Scope"

	PlaceholderNull        = "N/A"
	PlaceholderEmptyList   = "(none)"
	PlaceholderNoTimeScope = "(not specified)"

	BulletPrefix = "- "

	// TimestampLayout is pinned so output is locale-independent and,
	// with all instants normalized to UTC, lexicographically sortable.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// VersionMarker returns the first line of every encoded summary.
func VersionMarker() string {
	return MarkerPrefix + TemplateVersion + MarkerSuffix
}

// Encode renders a summary into the versioned text format. The record is
// validated first; an invalid record produces no text at all. For valid
// records encoding is a total, deterministic function: equal records
// encode to byte-identical text.
func Encode(s *ConversationSummary) (string, error) {
	if err := Validate(s); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(VersionMarker())
	b.WriteString("\n# ")
	b.WriteString(s.Topic)
	b.WriteString("\n\n")

	writeMetaLine(&b, LabelTopicID, optString(s.TopicID))
	writeMetaLine(&b, LabelSessionID, optString(s.SessionID))
	writeMetaLine(&b, LabelPlanID, optString(s.PlanID))
	writeMetaLine(&b, LabelStatus, optStatus(s.Status))
	writeMetaLine(&b, LabelSourceCreated, optTime(s.SourceCreatedAt))
	writeMetaLine(&b, LabelCreated, optTime(s.CreatedAt))
	writeMetaLine(&b, LabelUpdated, optTime(s.UpdatedAt))

	writeTextSection(&b, HeadingContext, s.Context)
	writeListSection(&b, HeadingDecisions, s.Decisions)
	writeListSection(&b, HeadingRationale, s.Rationale)
	writeListSection(&b, HeadingOpenQuestions, s.OpenQuestions)
	writeListSection(&b, HeadingNextSteps, s.NextSteps)
	writeListSection(&b, HeadingReferences, s.References)

	timeScope := s.TimeScope
	if timeScope == "" {
		timeScope = PlaceholderNoTimeScope
	}
	writeTextSection(&b, HeadingTimeScope, timeScope)

	return b.String(), nil
}

func writeMetaLine(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

func writeTextSection(b *strings.Builder, heading, text string) {
	b.WriteString("\n")
	b.WriteString(heading)
	b.WriteString("\n\n")
	b.WriteString(text)
	b.WriteString("\n")
}

func writeListSection(b *strings.Builder, heading string, items []string) {
	b.WriteString("\n")
	b.WriteString(heading)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString(PlaceholderEmptyList)
		b.WriteString("\n")
		return
	}
	for _, item := range items {
		b.WriteString(BulletPrefix)
		b.WriteString(item)
		b.WriteString("\n")
	}
}

func optString(v *string) string {
	if v == nil {
		return PlaceholderNull
	}
	return *v
}

func optStatus(v *Status) string {
	if v == nil {
		return PlaceholderNull
	}
	return string(*v)
}

func optTime(v *time.Time) string {
	if v == nil {
		return PlaceholderNull
	}
	return v.UTC().Format(TimestampLayout)
}
