// Package chunkstore persists and ranks knowledge chunks. Every agent owns
// one vector collection; documents are chunked upstream and stored as points
// whose payload carries enough metadata to render search results without a
// second trip to Postgres.
package chunkstore

import (
	"context"

	"github.com/google/uuid"
)

// CollectionInfo describes an agent's collection as the store sees it. A
// missing collection is not an error; Exists reports it with Exists=false.
type CollectionInfo struct {
	Name         string
	Exists       bool
	PointsCount  uint64
	VectorsCount uint64
}

// DocumentRef carries the document-level payload stamped onto every chunk.
type DocumentRef struct {
	ID        uuid.UUID
	Title     string
	Type      string
	SourceURI string
	Language  string
}

// IngestChunk is one piece of a document on its way into the store. Index is
// the zero-based position within the document.
type IngestChunk struct {
	Index int
	Text  string
}

// Chunk is one ranked hit on the way back out.
type Chunk struct {
	Score         float64
	Text          string
	DocumentID    string
	DocumentTitle string
	DocumentType  string
	ChunkIndex    int
	SourceURI     string
	Language      string
}

// ChunkStore is the retrieval backend behind the search, stats and document
// services. Implementations embed query text themselves so callers never
// handle raw vectors. Blocking calls inherit the caller's context deadline;
// there is no internal retry. Failures come back as *OperationError.
type ChunkStore interface {
	// Exists reports collection metadata without creating anything.
	Exists(ctx context.Context, agentID uuid.UUID) (CollectionInfo, error)

	// Query embeds text and returns up to topK chunks ordered by score
	// descending, ties broken by document id then chunk index.
	Query(ctx context.Context, agentID uuid.UUID, text string, topK int) ([]Chunk, error)

	// UpsertChunks embeds and writes a document's chunks, creating the
	// agent's collection on first use. Point identity is derived from
	// (document, index), so re-ingesting overwrites rather than duplicates.
	UpsertChunks(ctx context.Context, agentID uuid.UUID, doc DocumentRef, chunks []IngestChunk) error

	// DeleteDocument removes every chunk of one document. Deleting from a
	// collection that was never created is a no-op.
	DeleteDocument(ctx context.Context, agentID, documentID uuid.UUID) error

	Close() error
}
