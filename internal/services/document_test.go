package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

func TestSplitContentShortTextIsSingleChunk(t *testing.T) {
	chunks := splitContent("  a short note about refunds  ")
	if len(chunks) != 1 {
		t.Fatalf("chunk count: want=1 got=%d", len(chunks))
	}
	if chunks[0] != "a short note about refunds" {
		t.Fatalf("chunk text: got=%q", chunks[0])
	}
}

func TestSplitContentEmptyTextIsNil(t *testing.T) {
	if chunks := splitContent("   \n\t  "); chunks != nil {
		t.Fatalf("expected nil for blank input, got %d chunks", len(chunks))
	}
}

func TestSplitContentRespectsMaxSize(t *testing.T) {
	// No whitespace anywhere, so every cut is a hard cut at the size limit.
	text := strings.Repeat("x", 3000)
	chunks := splitContent(text)
	if len(chunks) != 3 {
		t.Fatalf("chunk count: want=3 got=%d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > chunkSize {
			t.Fatalf("chunk %d exceeds max size: %d", i, len(c))
		}
		if c == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
	if len(chunks[0]) != chunkSize {
		t.Fatalf("first hard chunk: want=%d got=%d", chunkSize, len(chunks[0]))
	}
}

func TestSplitContentSnapsToParagraphBreak(t *testing.T) {
	para1 := strings.Repeat("a", 800)
	para2 := strings.Repeat("b", 800)
	chunks := splitContent(para1 + "\n\n" + para2)

	if len(chunks) != 2 {
		t.Fatalf("chunk count: want=2 got=%d", len(chunks))
	}
	if chunks[0] != para1 {
		t.Fatalf("first chunk must stop at the paragraph break, got %d chars", len(chunks[0]))
	}
	if !strings.HasPrefix(chunks[1], strings.Repeat("a", 200)) {
		t.Fatalf("second chunk must overlap into the first paragraph")
	}
	if !strings.HasSuffix(chunks[1], para2) {
		t.Fatalf("second chunk must carry the full second paragraph")
	}
}

func TestSplitContentFallsBackToSentenceBoundary(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40))
	chunks := splitContent(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "dog.") {
		t.Fatalf("first chunk should end on a sentence: ...%q", chunks[0][len(chunks[0])-10:])
	}
	for i, c := range chunks {
		if len(c) > chunkSize {
			t.Fatalf("chunk %d exceeds max size: %d", i, len(c))
		}
	}
}

func TestAddDocumentValidation(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	accountID := uuid.New()
	agent := &types.Agent{ID: uuid.New(), AccountID: accountID, Name: "KB", Role: types.AgentRoleResponse}
	store := &fakeChunkStore{}
	svc := NewDocumentService(nil, log, newFakeAgentRepo(agent), newFakeDocumentRepo(), store)
	ctx := authedContext(accountID)

	cases := []struct {
		name string
		run  func() error
		code domainagg.ErrorCode
	}{
		{
			"missing title",
			func() error {
				_, err := svc.Add(ctx, agent.ID, AddDocumentInput{Type: "file", Content: "body"})
				return err
			},
			domainagg.CodeValidation,
		},
		{
			"unknown type",
			func() error {
				_, err := svc.Add(ctx, agent.ID, AddDocumentInput{Title: "t", Type: "pdf", Content: "body"})
				return err
			},
			domainagg.CodeValidation,
		},
		{
			"missing content",
			func() error {
				_, err := svc.Add(ctx, agent.ID, AddDocumentInput{Title: "t", Type: "file"})
				return err
			},
			domainagg.CodeValidation,
		},
		{
			"foreign agent",
			func() error {
				_, err := svc.Add(ctx, uuid.New(), AddDocumentInput{Title: "t", Type: "file", Content: "body"})
				return err
			},
			domainagg.CodeNotFound,
		},
		{
			"unauthenticated",
			func() error {
				_, err := svc.Add(context.Background(), agent.ID, AddDocumentInput{Title: "t", Type: "file", Content: "body"})
				return err
			},
			domainagg.CodeUnauthorized,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !domainagg.IsCode(err, tc.code) {
				t.Fatalf("want code %q, got %v", tc.code, err)
			}
		})
	}
	if store.upsertCalls != 0 {
		t.Fatalf("store touched by rejected requests: %d upserts", store.upsertCalls)
	}
}
