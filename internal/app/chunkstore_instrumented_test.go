package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
)

func TestInstrumentChunkStoreNilPassThrough(t *testing.T) {
	if got := instrumentChunkStore(nil); got != nil {
		t.Fatalf("instrumenting a nil store should stay nil, got=%T", got)
	}
}

func TestInstrumentChunkStoreDelegates(t *testing.T) {
	stub := &stubChunkStore{
		queryErr: errors.New("query exploded"),
	}
	store := instrumentChunkStore(stub)
	ctx := context.Background()
	agentID := uuid.New()

	if _, err := store.Exists(ctx, agentID); err != nil {
		t.Fatalf("exists: %v", err)
	}
	if _, err := store.Query(ctx, agentID, "refund policy", 5); err == nil {
		t.Fatalf("query: expected propagated error")
	}
	if err := store.UpsertChunks(ctx, agentID, chunkstore.DocumentRef{ID: uuid.New()}, []chunkstore.IngestChunk{{Text: "a"}}); err != nil {
		t.Fatalf("upsert chunks: %v", err)
	}
	if err := store.DeleteDocument(ctx, agentID, uuid.New()); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if stub.existsCalls != 1 || stub.queryCalls != 1 || stub.upsertCalls != 1 || stub.deleteCalls != 1 || stub.closeCalls != 1 {
		t.Fatalf(
			"delegation counts: exists=%d query=%d upsert=%d delete=%d close=%d",
			stub.existsCalls, stub.queryCalls, stub.upsertCalls, stub.deleteCalls, stub.closeCalls,
		)
	}
}

type stubChunkStore struct {
	existsCalls int
	queryCalls  int
	upsertCalls int
	deleteCalls int
	closeCalls  int

	queryErr error
}

func (s *stubChunkStore) Exists(ctx context.Context, agentID uuid.UUID) (chunkstore.CollectionInfo, error) {
	s.existsCalls++
	return chunkstore.CollectionInfo{Name: "stub", Exists: true}, nil
}

func (s *stubChunkStore) Query(ctx context.Context, agentID uuid.UUID, text string, topK int) ([]chunkstore.Chunk, error) {
	s.queryCalls++
	return nil, s.queryErr
}

func (s *stubChunkStore) UpsertChunks(ctx context.Context, agentID uuid.UUID, doc chunkstore.DocumentRef, chunks []chunkstore.IngestChunk) error {
	s.upsertCalls++
	return nil
}

func (s *stubChunkStore) DeleteDocument(ctx context.Context, agentID, documentID uuid.UUID) error {
	s.deleteCalls++
	return nil
}

func (s *stubChunkStore) Close() error {
	s.closeCalls++
	return nil
}
