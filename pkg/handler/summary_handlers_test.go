package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/groupzer0/flowbaby/pkg/db"
	"github.com/groupzer0/flowbaby/pkg/service"
	"github.com/groupzer0/flowbaby/pkg/summary"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.Connect(":memory:")
	if err != nil {
		t.Fatalf("db.Connect() error = %v", err)
	}

	cfg := service.DefaultSummaryConfig()
	cfg.EnableVectorStore = false

	svc, err := service.NewSummaryService(database, cfg)
	if err != nil {
		t.Fatalf("NewSummaryService() error = %v", err)
	}
	if err := svc.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	engine := gin.New()
	NewSummaryHandler(svc).RegisterRoutes(engine.Group("/api"))
	return engine
}

func TestCreateAndFetchSummary(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(summary.NewDefault("Plan 014: Summary Schema!", "Schema redesign discussion."))
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/ws-1/summaries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d (body: %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var record db.SummaryRecord
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if record.TopicID != "plan-014-summary-schema" {
		t.Fatalf("record.TopicID = %q, want %q", record.TopicID, "plan-014-summary-schema")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/workspaces/ws-1/summaries/"+record.ID+"/text", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET text status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.HasPrefix(w.Body.String(), summary.VersionMarker()) {
		t.Fatalf("text body does not start with version marker:\n%s", w.Body.String())
	}
}

func TestCreateSummary_ValidationFailureIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/ws-1/summaries",
		strings.NewReader(`{"topic":"T","context":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST status = %d, want %d (body: %s)", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestGetSummary_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/workspaces/ws-1/summaries/nope", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("GET status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
