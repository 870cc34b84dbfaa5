package chunkstore

import (
	"context"

	"github.com/google/uuid"
)

// disabledStore stands in when no retrieval backend is configured. Reads
// report an absent collection so stats and listings stay usable; writes and
// queries fail with a transport-coded error that callers surface as a
// dependency problem.
type disabledStore struct {
	reason string
}

// NewDisabled returns a store for deployments running without retrieval.
func NewDisabled(reason string) ChunkStore {
	if reason == "" {
		reason = "retrieval backend not configured"
	}
	return &disabledStore{reason: reason}
}

func (s *disabledStore) Exists(ctx context.Context, agentID uuid.UUID) (CollectionInfo, error) {
	if agentID == uuid.Nil {
		return CollectionInfo{}, opErr("chunkstore.Exists", OperationErrorValidation, "agent id is required", nil)
	}
	return CollectionInfo{Name: collectionName(defaultCollectionPrefix, agentID)}, nil
}

func (s *disabledStore) Query(ctx context.Context, agentID uuid.UUID, text string, topK int) ([]Chunk, error) {
	return nil, opErr("chunkstore.Query", OperationErrorTransportFailed, s.reason, nil)
}

func (s *disabledStore) UpsertChunks(ctx context.Context, agentID uuid.UUID, doc DocumentRef, chunks []IngestChunk) error {
	return opErr("chunkstore.UpsertChunks", OperationErrorTransportFailed, s.reason, nil)
}

func (s *disabledStore) DeleteDocument(ctx context.Context, agentID, documentID uuid.UUID) error {
	return opErr("chunkstore.DeleteDocument", OperationErrorTransportFailed, s.reason, nil)
}

func (s *disabledStore) Close() error { return nil }
