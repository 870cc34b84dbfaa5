package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

const (
	statsSampleSize = 50
	// statsSampleQuery is deliberately bland so the sample is not biased
	// toward any one document.
	statsSampleQuery = "general overview of the stored content"
)

// KnowledgeStatsService reconciles what the document rows say was added with
// what the chunk store says was indexed. The two drift when indexing or
// cleanup fails; this view is where that drift becomes visible.
type KnowledgeStatsService interface {
	Stats(ctx context.Context, agentID uuid.UUID) (*KnowledgeStats, error)
}

type KnowledgeStats struct {
	Documents     DocumentsSection     `json:"documents"`
	RagCollection RagCollectionSection `json:"rag_collection"`
	// Detailed is null when the collection is empty or the sampling query
	// failed; its absence never fails the request.
	Detailed *DetailedSection `json:"detailed"`
	Summary  StatsSummary     `json:"summary"`
}

type DocumentsSection struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}

type RagCollectionSection struct {
	Exists         bool   `json:"exists"`
	PointsCount    uint64 `json:"points_count"`
	VectorsCount   uint64 `json:"vectors_count"`
	CollectionName string `json:"collection_name"`
}

// DetailedSection tabulates one broad sample of the collection. Documents
// are listed in the order the sample first surfaced them.
type DetailedSection struct {
	SampleSize   int               `json:"sample_size"`
	ChunksByType map[string]int    `json:"chunks_by_type"`
	Documents    []SampledDocument `json:"documents"`
}

type SampledDocument struct {
	Title  string `json:"title"`
	Type   string `json:"type"`
	Chunks int    `json:"chunks"`
}

type StatsSummary struct {
	DocumentsCount            int64 `json:"documents_count"`
	RagChunksCount            int64 `json:"rag_chunks_count"`
	RagAvailable              bool  `json:"rag_available"`
	DocumentsProcessedIntoRag int   `json:"documents_processed_into_rag"`
}

type knowledgeStatsService struct {
	log       *logger.Logger
	agents    repos.AgentRepo
	documents repos.AgentDocumentRepo
	store     chunkstore.ChunkStore
}

func NewKnowledgeStatsService(
	log *logger.Logger,
	agents repos.AgentRepo,
	documents repos.AgentDocumentRepo,
	store chunkstore.ChunkStore,
) KnowledgeStatsService {
	return &knowledgeStatsService{
		log:       log.With("service", "KnowledgeStatsService"),
		agents:    agents,
		documents: documents,
		store:     store,
	}
}

func (s *knowledgeStatsService) Stats(ctx context.Context, agentID uuid.UUID) (*KnowledgeStats, error) {
	const op = "KnowledgeStats.Stats"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if agentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent id is required", nil)
	}
	if _, err := s.agents.GetForAccount(dbctx.Context{Ctx: ctx}, rd.AccountID, agentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
		}
		return nil, serviceError(op, err)
	}

	var (
		docsTotal  int64
		docsByType []repos.DocumentTypeCount
		info       chunkstore.CollectionInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.documents.CountByAgent(dbctx.Context{Ctx: gctx}, agentID)
		if err != nil {
			return err
		}
		byType, err := s.documents.CountByTypeForAgent(dbctx.Context{Ctx: gctx}, agentID)
		if err != nil {
			return err
		}
		docsTotal = total
		docsByType = byType
		return nil
	})
	g.Go(func() error {
		ci, err := s.store.Exists(gctx, agentID)
		if err != nil {
			return domainagg.NewError(domainagg.CodeDependency, op, "knowledge store unavailable", err)
		}
		info = ci
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, serviceError(op, err)
	}

	byType := make(map[string]int64, len(docsByType))
	for _, row := range docsByType {
		byType[row.DocType] = row.Count
	}

	out := &KnowledgeStats{
		Documents: DocumentsSection{Total: docsTotal, ByType: byType},
		RagCollection: RagCollectionSection{
			Exists:         info.Exists,
			PointsCount:    info.PointsCount,
			VectorsCount:   info.VectorsCount,
			CollectionName: info.Name,
		},
	}

	distinctDocs := 0
	if info.Exists && info.PointsCount > 0 {
		detailed, seen := s.sampleCollection(ctx, agentID)
		out.Detailed = detailed
		distinctDocs = seen
	}

	out.Summary = StatsSummary{
		DocumentsCount:            docsTotal,
		RagChunksCount:            int64(info.PointsCount),
		RagAvailable:              info.Exists && info.PointsCount > 0,
		DocumentsProcessedIntoRag: distinctDocs,
	}
	return out, nil
}

// sampleCollection runs the broad sampling query and tabulates it. Errors
// are logged and swallowed; the stats payload ships without the detail.
func (s *knowledgeStatsService) sampleCollection(ctx context.Context, agentID uuid.UUID) (*DetailedSection, int) {
	chunks, err := s.store.Query(ctx, agentID, statsSampleQuery, statsSampleSize)
	if err != nil {
		s.log.Warn("collection sampling failed",
			"agent_id", agentID.String(), "error", err)
		return nil, 0
	}

	byType := map[string]int{}
	docs := []SampledDocument{}
	index := map[[2]string]int{}
	seen := map[string]struct{}{}
	for _, c := range chunks {
		byType[c.DocumentType]++
		seen[c.DocumentID] = struct{}{}
		key := [2]string{c.DocumentType, c.DocumentTitle}
		if i, ok := index[key]; ok {
			docs[i].Chunks++
			continue
		}
		index[key] = len(docs)
		docs = append(docs, SampledDocument{Title: c.DocumentTitle, Type: c.DocumentType, Chunks: 1})
	}

	return &DetailedSection{
		SampleSize:   len(chunks),
		ChunksByType: byType,
		Documents:    docs,
	}, len(seen)
}
