package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

func newStatsFixture(t *testing.T, docs *fakeDocumentRepo, store *fakeChunkStore) (KnowledgeStatsService, uuid.UUID, uuid.UUID) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	accountID := uuid.New()
	agent := &types.Agent{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      "Support KB",
		Role:      types.AgentRoleResponse,
	}
	svc := NewKnowledgeStatsService(log, newFakeAgentRepo(agent), docs, store)
	return svc, accountID, agent.ID
}

func TestStatsReconcilesBothSources(t *testing.T) {
	docs := newFakeDocumentRepo()
	docs.countTotal = 3
	docs.countByType = []repos.DocumentTypeCount{
		{DocType: "file", Count: 2},
		{DocType: "url", Count: 1},
	}
	docA, docB := uuid.New().String(), uuid.New().String()
	store := &fakeChunkStore{
		existsInfo: chunkstore.CollectionInfo{
			Name:         "rh_agent_abc",
			Exists:       true,
			PointsCount:  7,
			VectorsCount: 7,
		},
		chunks: []chunkstore.Chunk{
			{Score: 0.9, DocumentID: docA, DocumentTitle: "Refund Policy", DocumentType: "file", ChunkIndex: 0},
			{Score: 0.8, DocumentID: docB, DocumentTitle: "Shipping FAQ", DocumentType: "url", ChunkIndex: 0},
			{Score: 0.7, DocumentID: docA, DocumentTitle: "Refund Policy", DocumentType: "file", ChunkIndex: 1},
		},
	}
	svc, accountID, agentID := newStatsFixture(t, docs, store)

	out, err := svc.Stats(authedContext(accountID), agentID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if out.Documents.Total != 3 {
		t.Fatalf("documents total: want=3 got=%d", out.Documents.Total)
	}
	if out.Documents.ByType["file"] != 2 || out.Documents.ByType["url"] != 1 {
		t.Fatalf("documents by type: %+v", out.Documents.ByType)
	}
	if !out.RagCollection.Exists || out.RagCollection.PointsCount != 7 || out.RagCollection.CollectionName != "rh_agent_abc" {
		t.Fatalf("rag collection section: %+v", out.RagCollection)
	}

	if out.Detailed == nil {
		t.Fatalf("detailed section missing for a non-empty collection")
	}
	if out.Detailed.SampleSize != 3 {
		t.Fatalf("sample size: want=3 got=%d", out.Detailed.SampleSize)
	}
	if out.Detailed.ChunksByType["file"] != 2 || out.Detailed.ChunksByType["url"] != 1 {
		t.Fatalf("chunks by type: %+v", out.Detailed.ChunksByType)
	}
	if len(out.Detailed.Documents) != 2 {
		t.Fatalf("sampled documents: want=2 got=%d", len(out.Detailed.Documents))
	}
	if out.Detailed.Documents[0].Title != "Refund Policy" || out.Detailed.Documents[0].Chunks != 2 {
		t.Fatalf("first sampled document: %+v", out.Detailed.Documents[0])
	}

	if store.lastTopK != statsSampleSize {
		t.Fatalf("sample query size: want=%d got=%d", statsSampleSize, store.lastTopK)
	}
	if store.lastQueryText != statsSampleQuery {
		t.Fatalf("sample query text: got=%q", store.lastQueryText)
	}

	sum := out.Summary
	if sum.DocumentsCount != 3 || sum.RagChunksCount != 7 || !sum.RagAvailable {
		t.Fatalf("summary: %+v", sum)
	}
	if sum.DocumentsProcessedIntoRag != 2 {
		t.Fatalf("distinct documents in sample: want=2 got=%d", sum.DocumentsProcessedIntoRag)
	}
}

func TestStatsMissingCollectionSkipsSampling(t *testing.T) {
	docs := newFakeDocumentRepo()
	docs.countTotal = 1
	store := &fakeChunkStore{existsInfo: chunkstore.CollectionInfo{Exists: false}}
	svc, accountID, agentID := newStatsFixture(t, docs, store)

	out, err := svc.Stats(authedContext(accountID), agentID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if out.Detailed != nil {
		t.Fatalf("detailed must be nil without a collection")
	}
	if out.Summary.RagAvailable {
		t.Fatalf("rag available without points")
	}
	if store.queryCalls != 0 {
		t.Fatalf("sampling ran against a missing collection")
	}
}

func TestStatsSamplingFailureIsSoft(t *testing.T) {
	docs := newFakeDocumentRepo()
	docs.countTotal = 2
	store := &fakeChunkStore{
		existsInfo: chunkstore.CollectionInfo{Exists: true, PointsCount: 5},
		queryErr:   &chunkstore.OperationError{Code: chunkstore.OperationErrorTimeout, Operation: "query", Message: "deadline exceeded"},
	}
	svc, accountID, agentID := newStatsFixture(t, docs, store)

	out, err := svc.Stats(authedContext(accountID), agentID)
	if err != nil {
		t.Fatalf("sampling failure must not fail the request: %v", err)
	}
	if out.Detailed != nil {
		t.Fatalf("detailed must be nil after a sampling failure")
	}
	if out.Summary.RagChunksCount != 5 || !out.Summary.RagAvailable {
		t.Fatalf("primary sections lost: %+v", out.Summary)
	}
	if out.Summary.DocumentsProcessedIntoRag != 0 {
		t.Fatalf("processed count without a sample: got=%d", out.Summary.DocumentsProcessedIntoRag)
	}
}

func TestStatsMetadataFailurePropagates(t *testing.T) {
	docs := newFakeDocumentRepo()
	store := &fakeChunkStore{
		existsErr: &chunkstore.OperationError{Code: chunkstore.OperationErrorTransportFailed, Operation: "exists", Message: "connection refused"},
	}
	svc, accountID, agentID := newStatsFixture(t, docs, store)

	_, err := svc.Stats(authedContext(accountID), agentID)
	if !domainagg.IsCode(err, domainagg.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestStatsDocumentCountFailurePropagates(t *testing.T) {
	docs := newFakeDocumentRepo()
	docs.countErr = errors.New("connection reset")
	store := &fakeChunkStore{existsInfo: chunkstore.CollectionInfo{Exists: true, PointsCount: 1}}
	svc, accountID, agentID := newStatsFixture(t, docs, store)

	if _, err := svc.Stats(authedContext(accountID), agentID); err == nil {
		t.Fatalf("expected error when the documents side fails")
	}
}

func TestStatsUnknownAgentIsNotFound(t *testing.T) {
	svc, accountID, _ := newStatsFixture(t, newFakeDocumentRepo(), &fakeChunkStore{})

	_, err := svc.Stats(authedContext(accountID), uuid.New())
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestStatsRequiresAuthenticatedContext(t *testing.T) {
	svc, _, agentID := newStatsFixture(t, newFakeDocumentRepo(), &fakeChunkStore{})

	_, err := svc.Stats(context.Background(), agentID)
	if !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
