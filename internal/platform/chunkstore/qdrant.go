package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/replyhive/replyhive-backend/internal/platform/embedding"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

// Payload keys stored on every point.
const (
	payloadText          = "text"
	payloadDocumentID    = "document_id"
	payloadDocumentTitle = "document_title"
	payloadDocumentType  = "document_type"
	payloadChunkIndex    = "chunk_index"
	payloadSourceURI     = "source_uri"
	payloadLanguage      = "language"
)

// pointNamespace seeds deterministic point IDs so re-ingesting a document
// overwrites its chunks instead of duplicating them.
var pointNamespace = uuid.MustParse("3f2a7c9e-5b1d-4e8a-9c6f-2d4b8e0a1f37")

type qdrantStore struct {
	client   *qdrant.Client
	embedder embedding.Embedder
	prefix   string
	log      *logger.Logger
}

// NewQdrantStore connects to Qdrant over gRPC. Collections are created
// lazily on first upsert, so a fresh deployment needs no provisioning step.
func NewQdrantStore(cfg Config, embedder embedding.Embedder, log *logger.Logger) (ChunkStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("chunkstore: embedder is required")
	}
	if embedder.Dimensions() <= 0 {
		return nil, fmt.Errorf("chunkstore: embedder reports %d dimensions", embedder.Dimensions())
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("chunkstore: create qdrant client: %w", err)
	}
	return &qdrantStore{
		client:   client,
		embedder: embedder,
		prefix:   cfg.CollectionPrefix,
		log:      log.With("service", "QdrantChunkStore"),
	}, nil
}

func (s *qdrantStore) Exists(ctx context.Context, agentID uuid.UUID) (CollectionInfo, error) {
	const op = "chunkstore.Exists"
	if agentID == uuid.Nil {
		return CollectionInfo{}, opErr(op, OperationErrorValidation, "agent id is required", nil)
	}
	name := collectionName(s.prefix, agentID)
	info := CollectionInfo{Name: name}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return CollectionInfo{}, classifyCallError(op, err)
	}
	if !exists {
		return info, nil
	}

	meta, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return CollectionInfo{}, classifyCallError(op, err)
	}
	info.Exists = true
	info.PointsCount = meta.GetPointsCount()
	info.VectorsCount = meta.GetVectorsCount()
	return info, nil
}

func (s *qdrantStore) Query(ctx context.Context, agentID uuid.UUID, text string, topK int) ([]Chunk, error) {
	const op = "chunkstore.Query"
	if agentID == uuid.Nil {
		return nil, opErr(op, OperationErrorValidation, "agent id is required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, opErr(op, OperationErrorValidation, "query text is empty", nil)
	}
	if topK <= 0 {
		return nil, opErr(op, OperationErrorValidation, fmt.Sprintf("topK must be positive, got %d", topK), nil)
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, classifyCallError(op, err)
	}
	if len(vectors) != 1 {
		return nil, opErr(op, OperationErrorQueryFailed, fmt.Sprintf("embedder returned %d vectors for one input", len(vectors)), nil)
	}

	name := collectionName(s.prefix, agentID)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vectors[0]...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classifyCallError(op, err)
	}

	chunks := make([]Chunk, 0, len(points))
	for _, p := range points {
		chunks = append(chunks, chunkFromPayload(float64(p.GetScore()), p.GetPayload()))
	}
	sortChunks(chunks)
	s.log.Debug("chunk query served", "collection", name, "top_k", topK, "hits", len(chunks))
	return chunks, nil
}

func (s *qdrantStore) UpsertChunks(ctx context.Context, agentID uuid.UUID, doc DocumentRef, chunks []IngestChunk) error {
	const op = "chunkstore.UpsertChunks"
	if agentID == uuid.Nil {
		return opErr(op, OperationErrorValidation, "agent id is required", nil)
	}
	if doc.ID == uuid.Nil {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}
	if len(chunks) == 0 {
		return opErr(op, OperationErrorValidation, "no chunks to upsert", nil)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return classifyCallError(op, err)
	}
	if len(vectors) != len(chunks) {
		return opErr(op, OperationErrorQueryFailed, fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)), nil)
	}

	name := collectionName(s.prefix, agentID)
	if err := s.ensureCollection(ctx, name); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, ch := range chunks {
		payload := map[string]any{
			payloadText:          ch.Text,
			payloadDocumentID:    doc.ID.String(),
			payloadDocumentTitle: doc.Title,
			payloadDocumentType:  doc.Type,
			payloadChunkIndex:    ch.Index,
		}
		if doc.SourceURI != "" {
			payload[payloadSourceURI] = doc.SourceURI
		}
		if doc.Language != "" {
			payload[payloadLanguage] = doc.Language
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(doc.ID, ch.Index)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	}); err != nil {
		return classifyCallError(op, err)
	}
	s.log.Info("chunks upserted", "collection", name, "document_id", doc.ID.String(), "chunks", len(points))
	return nil
}

func (s *qdrantStore) DeleteDocument(ctx context.Context, agentID, documentID uuid.UUID) error {
	const op = "chunkstore.DeleteDocument"
	if agentID == uuid.Nil {
		return opErr(op, OperationErrorValidation, "agent id is required", nil)
	}
	if documentID == uuid.Nil {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}

	name := collectionName(s.prefix, agentID)
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return classifyCallError(op, err)
	}
	if !exists {
		return nil
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(payloadDocumentID, documentID.String())},
	}
	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	}); err != nil {
		return classifyCallError(op, err)
	}
	s.log.Info("document chunks deleted", "collection", name, "document_id", documentID.String())
	return nil
}

func (s *qdrantStore) Close() error {
	return s.client.Close()
}

func (s *qdrantStore) ensureCollection(ctx context.Context, name string) error {
	const op = "chunkstore.EnsureCollection"
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return classifyCallError(op, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.embedder.Dimensions()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// Two ingests can race to create; losing the race is fine.
		if st, ok := status.FromError(err); ok && st.Code() == codes.AlreadyExists {
			return nil
		}
		return classifyCallError(op, err)
	}
	s.log.Info("collection created", "collection", name, "dimensions", s.embedder.Dimensions())
	return nil
}

func collectionName(prefix string, agentID uuid.UUID) string {
	hex := strings.ReplaceAll(agentID.String(), "-", "")
	return fmt.Sprintf("%s_agent_%s", prefix, hex)
}

func pointID(documentID uuid.UUID, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s:%d", documentID, index))).String()
}

// sortChunks applies the deterministic result order: score descending, then
// document id, then chunk index. Callers downstream rely on this being
// stable across identical queries.
func sortChunks(chunks []Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
}

func chunkFromPayload(score float64, payload map[string]*qdrant.Value) Chunk {
	c := Chunk{Score: score}
	if payload == nil {
		return c
	}
	if v, ok := payload[payloadText]; ok {
		c.Text = v.GetStringValue()
	}
	if v, ok := payload[payloadDocumentID]; ok {
		c.DocumentID = v.GetStringValue()
	}
	if v, ok := payload[payloadDocumentTitle]; ok {
		c.DocumentTitle = v.GetStringValue()
	}
	if v, ok := payload[payloadDocumentType]; ok {
		c.DocumentType = v.GetStringValue()
	}
	if v, ok := payload[payloadChunkIndex]; ok {
		c.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload[payloadSourceURI]; ok {
		c.SourceURI = v.GetStringValue()
	}
	if v, ok := payload[payloadLanguage]; ok {
		c.Language = v.GetStringValue()
	}
	return c
}

func classifyCallError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return opErr(op, OperationErrorTimeout, "", err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded, codes.Canceled:
			return opErr(op, OperationErrorTimeout, "", err)
		case codes.NotFound:
			return opErr(op, OperationErrorNotFound, "", err)
		case codes.InvalidArgument:
			return opErr(op, OperationErrorValidation, "", err)
		case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied:
			return opErr(op, OperationErrorTransportFailed, "", err)
		default:
			return opErr(op, OperationErrorQueryFailed, "", err)
		}
	}
	return opErr(op, OperationErrorTransportFailed, "", err)
}
