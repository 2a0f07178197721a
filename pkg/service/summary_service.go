// Summary service with chromem-go vector store integration
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"gorm.io/gorm"

	"github.com/groupzer0/flowbaby/pkg/db"
	"github.com/groupzer0/flowbaby/pkg/summary"
	"github.com/groupzer0/flowbaby/pkg/utils"
)

var (
	ErrSummaryNotFound     = errors.New("summary not found")
	ErrVectorStoreDisabled = errors.New("vector store is disabled")
)

// SummaryConfig holds configuration for the summary service
type SummaryConfig struct {
	// Vector store settings
	EnableVectorStore bool   `yaml:"enable_vector_store"`
	VectorStorePath   string `yaml:"vector_store_path"`  // Path for persistent storage
	EmbeddingProvider string `yaml:"embedding_provider"` // openai or ollama

	// OpenAI settings
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"` // e.g., text-embedding-3-small

	// Ollama settings
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	// Query settings
	DefaultMaxResults   int `yaml:"default_max_results"`
	SemanticSearchLimit int `yaml:"semantic_search_limit"`
}

// DefaultSummaryConfig returns default configuration
func DefaultSummaryConfig() *SummaryConfig {
	return &SummaryConfig{
		EnableVectorStore:   true,
		EmbeddingProvider:   "openai",
		OpenAIModel:         "text-embedding-3-small",
		OllamaURL:           "http://localhost:11434",
		OllamaModel:         "nomic-embed-text",
		DefaultMaxResults:   50,
		SemanticSearchLimit: 20,
	}
}

// SummaryService persists conversation summaries and indexes their
// encoded text for semantic retrieval. The encoded body is produced by
// the summary package and treated as opaque from here on; this service
// never parses it back.
type SummaryService struct {
	db     *gorm.DB
	config *SummaryConfig
	logger *slog.Logger

	// chromem-go vector store
	vectorDB    *chromem.DB
	collections sync.Map // workspaceID -> *chromem.Collection

	embeddingFunc chromem.EmbeddingFunc
}

// NewSummaryService creates a new summary service
func NewSummaryService(database *gorm.DB, config *SummaryConfig) (*SummaryService, error) {
	if config == nil {
		config = DefaultSummaryConfig()
	}

	s := &SummaryService{
		db:     database,
		config: config,
		logger: utils.GetLogger(),
	}

	if config.EnableVectorStore {
		if err := s.initVectorStore(); err != nil {
			s.logger.Warn("Failed to initialize vector store, semantic search disabled", "error", err)
			s.config.EnableVectorStore = false
		}
	}

	return s, nil
}

// AutoMigrate creates database tables
func (s *SummaryService) AutoMigrate() error {
	return s.db.AutoMigrate(&db.SummaryRecord{})
}

// initVectorStore initializes chromem-go vector store
func (s *SummaryService) initVectorStore() error {
	s.embeddingFunc = s.createEmbeddingFunc(s.config.EmbeddingProvider)
	if s.embeddingFunc == nil {
		return fmt.Errorf("no embedding function available for provider %q", s.config.EmbeddingProvider)
	}

	var err error
	if s.config.VectorStorePath != "" {
		if mkErr := os.MkdirAll(s.config.VectorStorePath, 0o755); mkErr != nil {
			return fmt.Errorf("failed to create vector store directory: %w", mkErr)
		}
		s.vectorDB, err = chromem.NewPersistentDB(s.config.VectorStorePath, false)
	} else {
		s.vectorDB = chromem.NewDB()
	}
	if err != nil {
		return fmt.Errorf("failed to create vector DB: %w", err)
	}

	s.logger.Info("Vector store initialized", "path", s.config.VectorStorePath)

	return nil
}

// createEmbeddingFunc creates an embedding function for the configured provider
func (s *SummaryService) createEmbeddingFunc(provider string) chromem.EmbeddingFunc {
	switch provider {
	case "openai":
		apiKey := s.config.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil
		}
		model := s.config.OpenAIModel
		if model == "" {
			model = "text-embedding-3-small"
		}
		return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model))

	case "ollama":
		url := s.config.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := s.config.OllamaModel
		if model == "" {
			model = "nomic-embed-text"
		}
		return chromem.NewEmbeddingFuncOllama(model, url)

	default:
		return nil
	}
}

// getOrCreateCollection gets or creates a collection for a workspace
func (s *SummaryService) getOrCreateCollection(workspaceID string) (*chromem.Collection, error) {
	collectionName := "ws_" + workspaceID

	if col, ok := s.collections.Load(collectionName); ok {
		return col.(*chromem.Collection), nil
	}

	col := s.vectorDB.GetCollection(collectionName, s.embeddingFunc)
	if col != nil {
		s.collections.Store(collectionName, col)
		return col, nil
	}

	col, err := s.vectorDB.CreateCollection(collectionName, nil, s.embeddingFunc)
	if err != nil {
		return nil, err
	}

	s.collections.Store(collectionName, col)
	return col, nil
}

// ========== CRUD Operations ==========

// Save validates and encodes a summary, then persists it. Summaries with
// a topic id upsert on (workspace, topic id); legacy summaries without
// one always create a new record. A summary that fails validation is
// rejected before any text or row is produced.
func (s *SummaryService) Save(ctx context.Context, workspaceID string, sum *summary.ConversationSummary) (*db.SummaryRecord, error) {
	body, err := summary.Encode(sum)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	createdAt := now
	if sum.CreatedAt != nil {
		createdAt = *sum.CreatedAt
	}
	updatedAt := now
	if sum.UpdatedAt != nil {
		updatedAt = *sum.UpdatedAt
	}

	var status string
	if sum.Status != nil {
		status = string(*sum.Status)
	}
	var topicID string
	if sum.TopicID != nil {
		topicID = *sum.TopicID
	}

	// Upsert on topic id when the summary has one
	if topicID != "" {
		var existing db.SummaryRecord
		err := s.db.Where("workspace_id = ? AND topic_id = ?", workspaceID, topicID).First(&existing).Error
		if err == nil {
			updates := map[string]interface{}{
				"topic":             sum.Topic,
				"status":            status,
				"session_id":        sum.SessionID,
				"plan_id":           sum.PlanID,
				"decisions":         db.StringArray(sum.Decisions),
				"open_questions":    db.StringArray(sum.OpenQuestions),
				"body":              body,
				"template_version":  summary.TemplateVersion,
				"source_created_at": sum.SourceCreatedAt,
				"updated_at":        updatedAt,
			}
			if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update summary: %w", err)
			}

			updated, err := s.Get(ctx, existing.ID)
			if err != nil {
				return nil, err
			}
			if s.config.EnableVectorStore {
				s.indexSummary(ctx, workspaceID, updated.ID, updated, body)
			}

			return updated, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	record := &db.SummaryRecord{
		ID:              uuid.New().String(),
		WorkspaceID:     workspaceID,
		TopicID:         topicID,
		Topic:           sum.Topic,
		Status:          status,
		SessionID:       sum.SessionID,
		PlanID:          sum.PlanID,
		Decisions:       db.StringArray(sum.Decisions),
		OpenQuestions:   db.StringArray(sum.OpenQuestions),
		Body:            body,
		TemplateVersion: summary.TemplateVersion,
		SourceCreatedAt: sum.SourceCreatedAt,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}

	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create summary: %w", err)
	}

	if s.config.EnableVectorStore {
		s.indexSummary(ctx, workspaceID, record.ID, record, body)
	}

	s.logger.Debug("Summary stored",
		"id", record.ID,
		"workspace", workspaceID,
		"topicID", topicID,
		"templateVersion", record.TemplateVersion)

	return record, nil
}

// Get retrieves a summary by ID
func (s *SummaryService) Get(ctx context.Context, id string) (*db.SummaryRecord, error) {
	var record db.SummaryRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSummaryNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByTopicID retrieves a summary by workspace and topic id
func (s *SummaryService) GetByTopicID(ctx context.Context, workspaceID, topicID string) (*db.SummaryRecord, error) {
	var record db.SummaryRecord
	if err := s.db.First(&record, "workspace_id = ? AND topic_id = ?", workspaceID, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSummaryNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Query retrieves summaries based on options
func (s *SummaryService) Query(ctx context.Context, opts *db.SummaryQueryOptions) ([]db.SummaryRecord, error) {
	query := s.db.Model(&db.SummaryRecord{})

	if opts.WorkspaceID != "" {
		query = query.Where("workspace_id = ?", opts.WorkspaceID)
	}
	if opts.TopicID != "" {
		query = query.Where("topic_id = ?", opts.TopicID)
	}
	if len(opts.Statuses) > 0 {
		query = query.Where("status IN ?", opts.Statuses)
	}
	if opts.Keyword != "" {
		keyword := "%" + opts.Keyword + "%"
		query = query.Where("topic LIKE ? OR body LIKE ?", keyword, keyword)
	}

	orderBy := "updated_at"
	if opts.OrderBy != "" {
		orderBy = opts.OrderBy
	}
	if opts.OrderDesc {
		orderBy += " DESC"
	}
	query = query.Order(orderBy)

	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.DefaultMaxResults
	}
	query = query.Limit(limit)
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var records []db.SummaryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes a summary
func (s *SummaryService) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&db.SummaryRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}

	if s.config.EnableVectorStore {
		s.removeFromIndex(ctx, record.WorkspaceID, id)
	}

	return nil
}

// ========== Search Operations ==========

// SearchSemantic performs semantic search over the encoded summary text
func (s *SummaryService) SearchSemantic(ctx context.Context, workspaceID string, query string, limit int) ([]db.SummarySearchResult, error) {
	if !s.config.EnableVectorStore || s.vectorDB == nil {
		return nil, ErrVectorStoreDisabled
	}

	if limit <= 0 {
		limit = s.config.SemanticSearchLimit
	}

	col, err := s.getOrCreateCollection(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	// chromem rejects nResults above the document count
	if count := col.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return []db.SummarySearchResult{}, nil
	}

	results, err := col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	ids := make([]string, len(results))
	similarityMap := make(map[string]float32)
	for i, r := range results {
		ids[i] = r.ID
		similarityMap[r.ID] = r.Similarity
	}

	var records []db.SummaryRecord
	if err := s.db.Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}

	searchResults := make([]db.SummarySearchResult, len(records))
	for i, r := range records {
		searchResults[i] = db.SummarySearchResult{
			SummaryRecord: r,
			Similarity:    similarityMap[r.ID],
		}
	}

	sort.Slice(searchResults, func(i, j int) bool {
		return searchResults[i].Similarity > searchResults[j].Similarity
	})

	return searchResults, nil
}

// SearchCombined performs both keyword and semantic search, merging results
func (s *SummaryService) SearchCombined(ctx context.Context, workspaceID string, query string, limit int) ([]db.SummarySearchResult, error) {
	if limit <= 0 {
		limit = s.config.SemanticSearchLimit
	}

	resultMap := make(map[string]db.SummarySearchResult)

	if s.config.EnableVectorStore {
		semanticResults, err := s.SearchSemantic(ctx, workspaceID, query, limit)
		if err == nil {
			for _, r := range semanticResults {
				resultMap[r.ID] = r
			}
		}
	}

	keywordResults, err := s.Query(ctx, &db.SummaryQueryOptions{
		WorkspaceID: workspaceID,
		Keyword:     query,
		Limit:       limit,
	})
	if err == nil {
		for _, r := range keywordResults {
			if _, exists := resultMap[r.ID]; !exists {
				resultMap[r.ID] = db.SummarySearchResult{
					SummaryRecord: r,
					Similarity:    0.5, // Default score for keyword matches
				}
			}
		}
	}

	results := make([]db.SummarySearchResult, 0, len(resultMap))
	for _, r := range resultMap {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// ========== Vector Store Operations ==========

// indexSummary adds the encoded summary text to the vector store
func (s *SummaryService) indexSummary(ctx context.Context, workspaceID, id string, record *db.SummaryRecord, body string) {
	col, err := s.getOrCreateCollection(workspaceID)
	if err != nil {
		s.logger.Warn("Failed to get collection for vector store", "error", err)
		return
	}

	metadata := map[string]string{
		"topic":            record.Topic,
		"topic_id":         record.TopicID,
		"status":           record.Status,
		"template_version": summary.TemplateVersion,
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  body,
		Metadata: metadata,
	})
	if err != nil {
		s.logger.Warn("Failed to add summary to vector store", "error", err, "summaryID", id)
	}
}

// removeFromIndex removes a summary from the vector store
func (s *SummaryService) removeFromIndex(ctx context.Context, workspaceID string, id string) {
	col, err := s.getOrCreateCollection(workspaceID)
	if err != nil {
		return
	}

	if err := col.Delete(ctx, nil, nil, id); err != nil {
		s.logger.Warn("Failed to remove summary from vector store", "error", err, "summaryID", id)
	}
}
