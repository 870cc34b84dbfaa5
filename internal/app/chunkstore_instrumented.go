package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
)

// instrumentedChunkStore records per-operation status and latency for every
// call that reaches the retrieval backend.
type instrumentedChunkStore struct {
	inner   chunkstore.ChunkStore
	metrics *observability.Metrics
}

func instrumentChunkStore(inner chunkstore.ChunkStore) chunkstore.ChunkStore {
	if inner == nil {
		return nil
	}
	return &instrumentedChunkStore{
		inner:   inner,
		metrics: observability.Current(),
	}
}

func (s *instrumentedChunkStore) Exists(ctx context.Context, agentID uuid.UUID) (chunkstore.CollectionInfo, error) {
	start := time.Now()
	out, err := s.inner.Exists(ctx, agentID)
	s.observe("exists", err, time.Since(start))
	return out, err
}

func (s *instrumentedChunkStore) Query(ctx context.Context, agentID uuid.UUID, text string, topK int) ([]chunkstore.Chunk, error) {
	start := time.Now()
	out, err := s.inner.Query(ctx, agentID, text, topK)
	s.observe("query", err, time.Since(start))
	return out, err
}

func (s *instrumentedChunkStore) UpsertChunks(ctx context.Context, agentID uuid.UUID, doc chunkstore.DocumentRef, chunks []chunkstore.IngestChunk) error {
	start := time.Now()
	err := s.inner.UpsertChunks(ctx, agentID, doc, chunks)
	s.observe("upsert_chunks", err, time.Since(start))
	return err
}

func (s *instrumentedChunkStore) DeleteDocument(ctx context.Context, agentID, documentID uuid.UUID) error {
	start := time.Now()
	err := s.inner.DeleteDocument(ctx, agentID, documentID)
	s.observe("delete_document", err, time.Since(start))
	return err
}

func (s *instrumentedChunkStore) Close() error {
	return s.inner.Close()
}

func (s *instrumentedChunkStore) observe(operation string, err error, dur time.Duration) {
	if s == nil || s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveChunkStoreOp(operation, status, dur)
}
