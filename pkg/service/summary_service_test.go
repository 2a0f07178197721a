package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groupzer0/flowbaby/pkg/db"
	"github.com/groupzer0/flowbaby/pkg/summary"
)

func newTestService(t *testing.T) *SummaryService {
	t.Helper()

	database, err := db.Connect(":memory:")
	if err != nil {
		t.Fatalf("db.Connect() error = %v", err)
	}

	cfg := DefaultSummaryConfig()
	cfg.EnableVectorStore = false

	svc, err := NewSummaryService(database, cfg)
	if err != nil {
		t.Fatalf("NewSummaryService() error = %v", err)
	}
	if err := svc.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	return svc
}

func TestSummaryService_SaveAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sum := summary.NewDefault("Plan 014: Summary Schema!", "Schema redesign discussion.")
	sum.Decisions = []string{"Adopt pointer metadata"}

	record, err := svc.Save(ctx, "ws-1", sum)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.TopicID != "plan-014-summary-schema" {
		t.Fatalf("record.TopicID = %q, want %q", record.TopicID, "plan-014-summary-schema")
	}
	if record.TemplateVersion != summary.TemplateVersion {
		t.Fatalf("record.TemplateVersion = %q, want %q", record.TemplateVersion, summary.TemplateVersion)
	}
	if !strings.HasPrefix(record.Body, summary.VersionMarker()) {
		t.Fatalf("record body does not start with version marker:\n%s", record.Body)
	}
	if !strings.Contains(record.Body, "- Adopt pointer metadata") {
		t.Fatalf("record body missing decision bullet:\n%s", record.Body)
	}

	got, err := svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Body != record.Body {
		t.Fatalf("Get() body differs from saved body")
	}
}

func TestSummaryService_SaveRejectsInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sum := summary.NewDefault("Topic", "Context")
	sum.Context = "   "

	if _, err := svc.Save(ctx, "ws-1", sum); !errors.Is(err, summary.ErrMissingContext) {
		t.Fatalf("Save() error = %v, want %v", err, summary.ErrMissingContext)
	}

	records, err := svc.Query(ctx, &db.SummaryQueryOptions{WorkspaceID: "ws-1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("invalid summary left %d records behind", len(records))
	}
}

func TestSummaryService_UpsertByTopicID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, "ws-1", summary.NewDefault("Weekly Sync", "Initial notes."))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	revised := summary.NewDefault("Weekly Sync", "Revised notes.")
	revised.OpenQuestions = []string{"Budget owner?"}
	second, err := svc.Save(ctx, "ws-1", revised)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("upsert created new record: %s != %s", second.ID, first.ID)
	}
	if !strings.Contains(second.Body, "Revised notes.") {
		t.Fatalf("upsert did not replace body")
	}

	records, err := svc.Query(ctx, &db.SummaryQueryOptions{WorkspaceID: "ws-1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
}

func TestSummaryService_LegacyWithoutTopicIDAlwaysCreates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	legacy := &summary.ConversationSummary{Topic: "Old import", Context: "Predates ids."}
	if _, err := svc.Save(ctx, "ws-1", legacy); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := svc.Save(ctx, "ws-1", legacy); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	records, err := svc.Query(ctx, &db.SummaryQueryOptions{WorkspaceID: "ws-1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
}

func TestSummaryService_GetByTopicID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "ws-1", summary.NewDefault("Release Plan", "Cutover steps.")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := svc.GetByTopicID(ctx, "ws-1", "release-plan")
	if err != nil {
		t.Fatalf("GetByTopicID() error = %v", err)
	}
	if got.Topic != "Release Plan" {
		t.Fatalf("GetByTopicID() topic = %q, want %q", got.Topic, "Release Plan")
	}

	if _, err := svc.GetByTopicID(ctx, "ws-1", "missing"); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("GetByTopicID() error = %v, want %v", err, ErrSummaryNotFound)
	}
}

func TestSummaryService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	record, err := svc.Save(ctx, "ws-1", summary.NewDefault("Ephemeral", "Short lived."))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := svc.Delete(ctx, record.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, record.ID); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("Get() after delete error = %v, want %v", err, ErrSummaryNotFound)
	}
	if err := svc.Delete(ctx, record.ID); !errors.Is(err, ErrSummaryNotFound) {
		t.Fatalf("Delete() twice error = %v, want %v", err, ErrSummaryNotFound)
	}
}

func TestSummaryService_SearchDisabledVectorStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SearchSemantic(ctx, "ws-1", "anything", 5); !errors.Is(err, ErrVectorStoreDisabled) {
		t.Fatalf("SearchSemantic() error = %v, want %v", err, ErrVectorStoreDisabled)
	}

	// Combined search degrades to keyword matching.
	if _, err := svc.Save(ctx, "ws-1", summary.NewDefault("Billing Migration", "Move invoices to the new ledger.")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	results, err := svc.SearchCombined(ctx, "ws-1", "ledger", 5)
	if err != nil {
		t.Fatalf("SearchCombined() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SearchCombined() result count = %d, want 1", len(results))
	}
	if results[0].Topic != "Billing Migration" {
		t.Fatalf("SearchCombined() topic = %q, want %q", results[0].Topic, "Billing Migration")
	}
}
