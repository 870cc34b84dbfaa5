package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/replyhive/replyhive-backend/internal/data/aggregates"
	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

const (
	chunkSize    = 1200
	chunkOverlap = 200
)

// DocumentService registers knowledge sources to an agent and keeps the
// document rows and the chunk store roughly in sync. The row is authoritative
// for what was added; its status records whether indexing made it through.
type DocumentService interface {
	Add(ctx context.Context, agentID uuid.UUID, in AddDocumentInput) (*types.AgentDocument, error)
	List(ctx context.Context, agentID uuid.UUID) ([]*types.AgentDocument, error)
	Delete(ctx context.Context, agentID, documentID uuid.UUID) error
}

type AddDocumentInput struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	SourceURI string `json:"source_uri"`
	Language  string `json:"language"`
}

type documentService struct {
	db        *gorm.DB
	log       *logger.Logger
	agents    repos.AgentRepo
	documents repos.AgentDocumentRepo
	store     chunkstore.ChunkStore
	guard     dataagg.CASGuard
}

func NewDocumentService(
	db *gorm.DB,
	log *logger.Logger,
	agents repos.AgentRepo,
	documents repos.AgentDocumentRepo,
	store chunkstore.ChunkStore,
) DocumentService {
	return &documentService{
		db:        db,
		log:       log.With("service", "DocumentService"),
		agents:    agents,
		documents: documents,
		store:     store,
		guard:     dataagg.NewCASGuard(db),
	}
}

func (s *documentService) Add(ctx context.Context, agentID uuid.UUID, in AddDocumentInput) (*types.AgentDocument, error) {
	const op = "Document.Add"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if agentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent id is required", nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "document title is required", nil)
	}
	docType := types.DocumentType(strings.TrimSpace(in.Type))
	if !docType.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "document type must be file, url or website", nil)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "document content is required", nil)
	}

	if _, err := s.agents.GetForAccount(dbctx.Context{Ctx: ctx}, rd.AccountID, agentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
		}
		return nil, serviceError(op, err)
	}

	row := &types.AgentDocument{
		AgentID:   agentID,
		Title:     title,
		DocType:   docType,
		SourceURI: strings.TrimSpace(in.SourceURI),
		Language:  strings.TrimSpace(in.Language),
		Status:    types.DocumentStatusPending,
	}
	var doc *types.AgentDocument
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := s.documents.Create(dbctx.Context{Ctx: ctx, Tx: tx}, row)
		if err != nil {
			return err
		}
		doc = out
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}

	pieces := splitContent(content)
	ingest := make([]chunkstore.IngestChunk, 0, len(pieces))
	for i, text := range pieces {
		ingest = append(ingest, chunkstore.IngestChunk{Index: i, Text: text})
	}

	ref := chunkstore.DocumentRef{
		ID:        doc.ID,
		Title:     doc.Title,
		Type:      string(doc.DocType),
		SourceURI: doc.SourceURI,
		Language:  doc.Language,
	}
	if err := s.store.UpsertChunks(ctx, agentID, ref, ingest); err != nil {
		s.markStatus(ctx, doc.ID, types.DocumentStatusFailed, 0)
		s.log.Error("document indexing failed",
			"agent_id", agentID.String(), "document_id", doc.ID.String(), "error", err)
		return nil, domainagg.NewError(domainagg.CodeDependency, op, "document indexing failed", err)
	}

	// Embedding ran outside any transaction, so the row may have been
	// deleted meanwhile. Flip the status only while the row is still pending
	// and alive; otherwise drop the chunks we just wrote.
	ok, err := s.guard.UpdateByStatus(dbctx.Context{Ctx: ctx}, "agent_document", doc.ID,
		[]string{string(types.DocumentStatusPending)}, map[string]any{
			"status":      types.DocumentStatusIndexed,
			"chunk_count": len(ingest),
			"updated_at":  time.Now().UTC(),
		})
	if err != nil {
		return nil, serviceError(op, err)
	}
	if casErr := dataagg.RequireCASSuccess(ok, "document was removed while indexing"); casErr != nil {
		if derr := s.store.DeleteDocument(ctx, agentID, doc.ID); derr != nil {
			s.log.Warn("chunk cleanup failed after aborted indexing",
				"agent_id", agentID.String(), "document_id", doc.ID.String(), "error", derr)
		}
		return nil, serviceError(op, casErr)
	}
	doc.Status = types.DocumentStatusIndexed
	doc.ChunkCount = len(ingest)

	observability.Current().IncDocumentsIngested()
	observability.Current().AddChunksIngested(len(ingest))
	s.log.Info("document indexed",
		"agent_id", agentID.String(), "document_id", doc.ID.String(), "chunks", len(ingest))
	return doc, nil
}

func (s *documentService) List(ctx context.Context, agentID uuid.UUID) ([]*types.AgentDocument, error) {
	const op = "Document.List"

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
	docs, err := s.documents.ListByAgent(dbctx.Context{Ctx: ctx}, agentID)
	if err != nil {
		return nil, serviceError(op, err)
	}
	return docs, nil
}

func (s *documentService) Delete(ctx context.Context, agentID, documentID uuid.UUID) error {
	const op = "Document.Delete"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return err
	}
	if agentID == uuid.Nil || documentID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "agent id and document id are required", nil)
	}
	if _, err := s.agents.GetForAccount(dbctx.Context{Ctx: ctx}, rd.AccountID, agentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
		}
		return serviceError(op, err)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		doc, err := s.documents.GetForAgent(dbc, agentID, documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "document not found", nil)
			}
			return err
		}
		return s.documents.Delete(dbc, doc.ID)
	})
	if txErr != nil {
		return serviceError(op, txErr)
	}

	// The row is the source of truth; a failed point delete leaves orphaned
	// chunks that stats surface later.
	if err := s.store.DeleteDocument(ctx, agentID, documentID); err != nil {
		s.log.Warn("chunk cleanup failed after document delete",
			"agent_id", agentID.String(), "document_id", documentID.String(), "error", err)
	}
	s.log.Info("document deleted", "agent_id", agentID.String(), "document_id", documentID.String())
	return nil
}

// markStatus flips a still-pending document's status outside the request's
// happy path; failures are logged and swallowed because the caller is
// already erroring.
func (s *documentService) markStatus(ctx context.Context, documentID uuid.UUID, status types.DocumentStatus, chunkCount int) {
	ok, err := s.guard.UpdateByStatus(dbctx.Context{Ctx: ctx}, "agent_document", documentID,
		[]string{string(types.DocumentStatusPending)}, map[string]any{
			"status":      status,
			"chunk_count": chunkCount,
			"updated_at":  time.Now().UTC(),
		})
	if err != nil {
		s.log.Error("document status update failed",
			"document_id", documentID.String(), "status", string(status), "error", err)
		return
	}
	if !ok {
		s.log.Warn("document row gone before status update",
			"document_id", documentID.String(), "status", string(status))
	}
}

// splitContent cuts text into overlapping windows of roughly chunkSize
// characters, snapping each cut to the nearest paragraph break, then sentence
// end, then whitespace, so chunks stay readable on their own.
func splitContent(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			if piece := strings.TrimSpace(text[start:]); piece != "" {
				chunks = append(chunks, piece)
			}
			break
		}
		cut := breakPoint(text, start, end)
		if piece := strings.TrimSpace(text[start:cut]); piece != "" {
			chunks = append(chunks, piece)
		}
		next := cut - chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// breakPoint picks where to end the window [start,end). A boundary only
// counts when it falls past the window's midpoint, so a break near the front
// cannot shrink the chunk to a sliver.
func breakPoint(text string, start, end int) int {
	window := text[start:end]
	mid := len(window) / 2
	if i := strings.LastIndex(window, "\n\n"); i > mid {
		return start + i
	}
	if i := strings.LastIndexAny(window, ".!?"); i > mid {
		return start + i + 1
	}
	if i := strings.LastIndexAny(window, " \t\n"); i > mid {
		return start + i
	}
	return end
}
