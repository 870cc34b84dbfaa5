package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

const (
	searchLimitDefault = 5
	searchLimitMax     = 20
)

// SearchService ranks an agent's knowledge chunks for a query. The store
// owns the ordering, including ties; this layer only decorates hits with
// ranks, percentages and per-document grouping.
type SearchService interface {
	Search(ctx context.Context, agentID uuid.UUID, query string, limit int) (*SearchOutput, error)
}

// SearchResult is one ranked hit. ChunkIndex and Rank are 1-based for
// display; ID keeps the store's 0-based index so it stays a stable handle.
type SearchResult struct {
	ID                  string  `json:"id"`
	Text                string  `json:"text"`
	Score               float64 `json:"score"`
	RelevancePercentage int     `json:"relevance_percentage"`
	DocumentTitle       string  `json:"document_title"`
	DocumentType        string  `json:"document_type"`
	ChunkIndex          int     `json:"chunk_index"`
	Source              string  `json:"source"`
	Rank                int     `json:"rank"`
}

// DocumentSummary is the per-document rollup of a result page, listed in
// order of first appearance.
type DocumentSummary struct {
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	Source    string  `json:"source"`
	Chunks    int     `json:"chunks"`
	BestScore float64 `json:"best_score"`
}

type SearchMetadata struct {
	Limit      int       `json:"limit"`
	AgentID    uuid.UUID `json:"agent_id"`
	AgentName  string    `json:"agent_name"`
	SearchedAt time.Time `json:"searched_at"`
}

type SearchOutput struct {
	Query            string            `json:"query"`
	Results          []SearchResult    `json:"results"`
	TotalResults     int               `json:"total_results"`
	TotalChunks      int64             `json:"total_chunks"`
	CollectionExists bool              `json:"collection_exists"`
	DocumentSummary  []DocumentSummary `json:"document_summary"`
	SearchMetadata   SearchMetadata    `json:"search_metadata"`
}

type searchService struct {
	log    *logger.Logger
	agents repos.AgentRepo
	store  chunkstore.ChunkStore
}

func NewSearchService(log *logger.Logger, agents repos.AgentRepo, store chunkstore.ChunkStore) SearchService {
	return &searchService{
		log:    log.With("service", "SearchService"),
		agents: agents,
		store:  store,
	}
}

func (s *searchService) Search(ctx context.Context, agentID uuid.UUID, query string, limit int) (*SearchOutput, error) {
	const op = "Search.Search"
	started := time.Now()

	out, err := s.search(ctx, op, agentID, query, limit)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.Current().ObserveSearch(status, time.Since(started))
	return out, err
}

func (s *searchService) search(ctx context.Context, op string, agentID uuid.UUID, query string, limit int) (*SearchOutput, error) {
	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if agentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent id is required", nil)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "search query is required", nil)
	}
	if limit < 1 {
		limit = searchLimitDefault
	}
	if limit > searchLimitMax {
		limit = searchLimitMax
	}

	agent, err := s.agents.GetForAccount(dbctx.Context{Ctx: ctx}, rd.AccountID, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
		}
		return nil, serviceError(op, err)
	}

	meta := SearchMetadata{
		Limit:      limit,
		AgentID:    agent.ID,
		AgentName:  agent.Name,
		SearchedAt: time.Now().UTC(),
	}

	info, err := s.store.Exists(ctx, agentID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeDependency, op, "knowledge store unavailable", err)
	}
	if !info.Exists || info.PointsCount == 0 {
		// No knowledge yet is a normal answer, not a failure.
		return &SearchOutput{
			Query:            query,
			Results:          []SearchResult{},
			CollectionExists: info.Exists,
			DocumentSummary:  []DocumentSummary{},
			SearchMetadata:   meta,
		}, nil
	}

	chunks, err := s.store.Query(ctx, agentID, query, limit)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeDependency, op, "knowledge search failed", err)
	}

	results := make([]SearchResult, 0, len(chunks))
	for i, c := range chunks {
		results = append(results, SearchResult{
			ID:                  fmt.Sprintf("%s_%d", c.DocumentID, c.ChunkIndex),
			Text:                c.Text,
			Score:               c.Score,
			RelevancePercentage: relevancePercentage(c.Score),
			DocumentTitle:       c.DocumentTitle,
			DocumentType:        c.DocumentType,
			ChunkIndex:          c.ChunkIndex + 1,
			Source:              c.SourceURI,
			Rank:                i + 1,
		})
	}

	s.log.Debug("search completed",
		"agent_id", agentID.String(), "limit", limit, "results", len(results))

	return &SearchOutput{
		Query:            query,
		Results:          results,
		TotalResults:     len(results),
		TotalChunks:      int64(info.PointsCount),
		CollectionExists: true,
		DocumentSummary:  summarizeDocuments(chunks),
		SearchMetadata:   meta,
	}, nil
}

// relevancePercentage converts a cosine score to a whole percentage,
// rounding halves away from zero.
func relevancePercentage(score float64) int {
	return int(math.Round(score * 100))
}

// summarizeDocuments rolls a result page up by (title, type), keeping the
// order documents first appeared in the ranking.
func summarizeDocuments(chunks []chunkstore.Chunk) []DocumentSummary {
	summaries := []DocumentSummary{}
	index := map[[2]string]int{}
	for _, c := range chunks {
		key := [2]string{c.DocumentTitle, c.DocumentType}
		if i, ok := index[key]; ok {
			summaries[i].Chunks++
			if c.Score > summaries[i].BestScore {
				summaries[i].BestScore = c.Score
			}
			continue
		}
		index[key] = len(summaries)
		summaries = append(summaries, DocumentSummary{
			Title:     c.DocumentTitle,
			Type:      c.DocumentType,
			Source:    c.SourceURI,
			Chunks:    1,
			BestScore: c.Score,
		})
	}
	return summaries
}
