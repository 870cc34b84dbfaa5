package chunkstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCollectionName(t *testing.T) {
	agentID := uuid.MustParse("8f14e45f-ceea-467f-a8d9-14b2c0f1a2b3")

	name := collectionName("rh", agentID)
	want := "rh_agent_8f14e45fceea467fa8d914b2c0f1a2b3"
	if name != want {
		t.Fatalf("collection name: want=%q got=%q", want, name)
	}
	if strings.Contains(name, "-") {
		t.Fatalf("collection name contains dashes: %q", name)
	}
}

func TestPointIDDeterministic(t *testing.T) {
	docID := uuid.New()

	first := pointID(docID, 0)
	again := pointID(docID, 0)
	if first != again {
		t.Fatalf("same (document, index) produced different ids: %q vs %q", first, again)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("point id is not a uuid: %q (%v)", first, err)
	}
	if next := pointID(docID, 1); next == first {
		t.Fatalf("different indexes produced the same id: %q", first)
	}
	if other := pointID(uuid.New(), 0); other == first {
		t.Fatalf("different documents produced the same id: %q", first)
	}
}

func TestSortChunksDeterministicOrder(t *testing.T) {
	docA := "0a000000-0000-0000-0000-000000000000"
	docB := "0b000000-0000-0000-0000-000000000000"
	chunks := []Chunk{
		{Score: 0.5, DocumentID: docB, ChunkIndex: 2},
		{Score: 0.9, DocumentID: docB, ChunkIndex: 0},
		{Score: 0.5, DocumentID: docA, ChunkIndex: 3},
		{Score: 0.5, DocumentID: docA, ChunkIndex: 1},
	}

	sortChunks(chunks)

	if chunks[0].Score != 0.9 {
		t.Fatalf("chunks[0].Score: want=0.9 got=%v", chunks[0].Score)
	}
	if chunks[1].DocumentID != docA || chunks[1].ChunkIndex != 1 {
		t.Fatalf("chunks[1]: want docA index 1, got doc=%s index=%d", chunks[1].DocumentID, chunks[1].ChunkIndex)
	}
	if chunks[2].DocumentID != docA || chunks[2].ChunkIndex != 3 {
		t.Fatalf("chunks[2]: want docA index 3, got doc=%s index=%d", chunks[2].DocumentID, chunks[2].ChunkIndex)
	}
	if chunks[3].DocumentID != docB || chunks[3].ChunkIndex != 2 {
		t.Fatalf("chunks[3]: want docB index 2, got doc=%s index=%d", chunks[3].DocumentID, chunks[3].ChunkIndex)
	}
}

func TestChunkFromPayload(t *testing.T) {
	docID := uuid.New()
	payload := qdrant.NewValueMap(map[string]any{
		"text":           "Refund windows close after 30 days.",
		"document_id":    docID.String(),
		"document_title": "Refund Policy",
		"document_type":  "policy",
		"chunk_index":    3,
		"source_uri":     "https://example.com/refunds",
		"language":       "en",
	})

	c := chunkFromPayload(0.87, payload)

	if c.Score != 0.87 {
		t.Fatalf("Score: want=0.87 got=%v", c.Score)
	}
	if c.Text != "Refund windows close after 30 days." {
		t.Fatalf("Text: got=%q", c.Text)
	}
	if c.DocumentID != docID.String() {
		t.Fatalf("DocumentID: want=%q got=%q", docID.String(), c.DocumentID)
	}
	if c.DocumentTitle != "Refund Policy" {
		t.Fatalf("DocumentTitle: got=%q", c.DocumentTitle)
	}
	if c.DocumentType != "policy" {
		t.Fatalf("DocumentType: got=%q", c.DocumentType)
	}
	if c.ChunkIndex != 3 {
		t.Fatalf("ChunkIndex: want=3 got=%d", c.ChunkIndex)
	}
	if c.SourceURI != "https://example.com/refunds" {
		t.Fatalf("SourceURI: got=%q", c.SourceURI)
	}
	if c.Language != "en" {
		t.Fatalf("Language: got=%q", c.Language)
	}
}

func TestChunkFromPayloadMissingKeys(t *testing.T) {
	c := chunkFromPayload(0.5, nil)
	if c.Score != 0.5 || c.Text != "" || c.ChunkIndex != 0 {
		t.Fatalf("nil payload should map to zero fields, got %+v", c)
	}
}

func TestClassifyCallError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want OperationErrorCode
	}{
		{"deadline", context.DeadlineExceeded, OperationErrorTimeout},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "deadline"), OperationErrorTimeout},
		{"grpc not found", status.Error(codes.NotFound, "collection missing"), OperationErrorNotFound},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad vector"), OperationErrorValidation},
		{"grpc unavailable", status.Error(codes.Unavailable, "connection refused"), OperationErrorTransportFailed},
		{"grpc internal", status.Error(codes.Internal, "server error"), OperationErrorQueryFailed},
		{"plain error", errors.New("dial tcp: refused"), OperationErrorTransportFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyCallError("chunkstore.Test", tc.err)
			opError, ok := err.(*OperationError)
			if !ok {
				t.Fatalf("expected *OperationError, got=%T", err)
			}
			if opError.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, opError.Code)
			}
			if opError.Operation != "chunkstore.Test" {
				t.Fatalf("operation: want=%q got=%q", "chunkstore.Test", opError.Operation)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("classified error should wrap the cause")
			}
		})
	}
}

func TestOperationErrorFormat(t *testing.T) {
	withMessage := opErr("chunkstore.Query", OperationErrorValidation, "query text is empty", nil)
	want := "chunkstore operation failed (op=chunkstore.Query code=validation_failed): query text is empty"
	if withMessage.Error() != want {
		t.Fatalf("message format: want=%q got=%q", want, withMessage.Error())
	}

	cause := errors.New("dial tcp: refused")
	withCause := opErr("chunkstore.Exists", OperationErrorTransportFailed, "", cause)
	if !strings.Contains(withCause.Error(), "dial tcp: refused") {
		t.Fatalf("cause format: got=%q", withCause.Error())
	}
	if !errors.Is(withCause, cause) {
		t.Fatalf("Unwrap should expose the cause")
	}
}
