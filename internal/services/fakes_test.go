package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/ctxutil"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/realtime/bus"
)

func authedContext(accountID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		AccountID: accountID,
		Email:     "owner@example.com",
	})
}

type fakeAgentRepo struct {
	byID    map[uuid.UUID]*types.Agent
	getErr  error
	listErr error
	updates []map[string]interface{}
}

func newFakeAgentRepo(agents ...*types.Agent) *fakeAgentRepo {
	f := &fakeAgentRepo{byID: map[uuid.UUID]*types.Agent{}}
	for _, ag := range agents {
		f.byID[ag.ID] = ag
	}
	return f
}

func (f *fakeAgentRepo) Create(_ dbctx.Context, row *types.Agent) (*types.Agent, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.byID[row.ID] = row
	return row, nil
}

func (f *fakeAgentRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Agent, error) {
	ag, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ag, nil
}

func (f *fakeAgentRepo) GetForAccount(_ dbctx.Context, accountID, agentID uuid.UUID) (*types.Agent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	ag, ok := f.byID[agentID]
	if !ok || ag.AccountID != accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return ag, nil
}

func (f *fakeAgentRepo) ListByAccount(_ dbctx.Context, accountID uuid.UUID) ([]*types.Agent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*types.Agent
	for _, ag := range f.byID {
		if ag.AccountID == accountID {
			out = append(out, ag)
		}
	}
	return out, nil
}

func (f *fakeAgentRepo) ListByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.Agent, error) {
	var out []*types.Agent
	for _, id := range ids {
		if ag, ok := f.byID[id]; ok {
			out = append(out, ag)
		}
	}
	return out, nil
}

func (f *fakeAgentRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeAgentRepo) Delete(_ dbctx.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeDocumentRepo struct {
	byID        map[uuid.UUID]*types.AgentDocument
	countTotal  int64
	countByType []repos.DocumentTypeCount
	countErr    error
	createErr   error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{byID: map[uuid.UUID]*types.AgentDocument{}}
}

func (f *fakeDocumentRepo) Create(_ dbctx.Context, row *types.AgentDocument) (*types.AgentDocument, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.byID[row.ID] = row
	return row, nil
}

func (f *fakeDocumentRepo) GetForAgent(_ dbctx.Context, agentID, documentID uuid.UUID) (*types.AgentDocument, error) {
	doc, ok := f.byID[documentID]
	if !ok || doc.AgentID != agentID {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (f *fakeDocumentRepo) ListByAgent(_ dbctx.Context, agentID uuid.UUID) ([]*types.AgentDocument, error) {
	var out []*types.AgentDocument
	for _, doc := range f.byID {
		if doc.AgentID == agentID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) CountByAgent(_ dbctx.Context, _ uuid.UUID) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.countTotal, nil
}

func (f *fakeDocumentRepo) CountByTypeForAgent(_ dbctx.Context, _ uuid.UUID) ([]repos.DocumentTypeCount, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.countByType, nil
}

func (f *fakeDocumentRepo) Delete(_ dbctx.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeInboxRepo struct {
	byID         map[uuid.UUID]*types.Inbox
	responseRefs int64
}

func newFakeInboxRepo(inboxes ...*types.Inbox) *fakeInboxRepo {
	f := &fakeInboxRepo{byID: map[uuid.UUID]*types.Inbox{}}
	for _, ib := range inboxes {
		f.byID[ib.ID] = ib
	}
	return f
}

func (f *fakeInboxRepo) Create(_ dbctx.Context, row *types.Inbox) (*types.Inbox, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.byID[row.ID] = row
	return row, nil
}

func (f *fakeInboxRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Inbox, error) {
	ib, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ib, nil
}

func (f *fakeInboxRepo) GetForAccount(_ dbctx.Context, accountID, inboxID uuid.UUID) (*types.Inbox, error) {
	ib, ok := f.byID[inboxID]
	if !ok || ib.AccountID != accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return ib, nil
}

func (f *fakeInboxRepo) ListByAccount(_ dbctx.Context, accountID uuid.UUID) ([]*types.Inbox, error) {
	var out []*types.Inbox
	for _, ib := range f.byID {
		if ib.AccountID == accountID {
			out = append(out, ib)
		}
	}
	return out, nil
}

func (f *fakeInboxRepo) LockByID(_ dbctx.Context, id uuid.UUID) (*types.Inbox, error) {
	ib, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ib, nil
}

func (f *fakeInboxRepo) CountResponseRefs(_ dbctx.Context, _ uuid.UUID) (int64, error) {
	return f.responseRefs, nil
}

func (f *fakeInboxRepo) UpdateFields(_ dbctx.Context, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (f *fakeInboxRepo) Delete(_ dbctx.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeChunkStore struct {
	existsInfo chunkstore.CollectionInfo
	existsErr  error
	chunks     []chunkstore.Chunk
	queryErr   error
	upsertErr  error
	upsertHook func(doc chunkstore.DocumentRef)
	deleteErr  error

	queryCalls    int
	lastQueryText string
	lastTopK      int
	upsertCalls   int
	lastUpsertDoc chunkstore.DocumentRef
	lastUpserted  []chunkstore.IngestChunk
	deletedDocs   []uuid.UUID
}

func (f *fakeChunkStore) Exists(_ context.Context, _ uuid.UUID) (chunkstore.CollectionInfo, error) {
	if f.existsErr != nil {
		return chunkstore.CollectionInfo{}, f.existsErr
	}
	return f.existsInfo, nil
}

func (f *fakeChunkStore) Query(_ context.Context, _ uuid.UUID, text string, topK int) ([]chunkstore.Chunk, error) {
	f.queryCalls++
	f.lastQueryText = text
	f.lastTopK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if topK < len(f.chunks) {
		return f.chunks[:topK], nil
	}
	return f.chunks, nil
}

func (f *fakeChunkStore) UpsertChunks(_ context.Context, _ uuid.UUID, doc chunkstore.DocumentRef, chunks []chunkstore.IngestChunk) error {
	f.upsertCalls++
	f.lastUpsertDoc = doc
	f.lastUpserted = chunks
	if f.upsertHook != nil {
		f.upsertHook(doc)
	}
	return f.upsertErr
}

func (f *fakeChunkStore) DeleteDocument(_ context.Context, _ uuid.UUID, documentID uuid.UUID) error {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return f.deleteErr
}

func (f *fakeChunkStore) Close() error { return nil }

type fakePipeline struct {
	assignOut domainagg.ResponseSlotResult
	assignErr error
	removeOut domainagg.ResponseSlotResult
	removeErr error
	addOut    domainagg.ProcessingMutationResult
	addErr    error
	updateOut domainagg.ProcessingMutationResult
	updateErr error
	dropOut   domainagg.ProcessingMutationResult
	dropErr   error
	listOut   domainagg.PipelineView
	listErr   error

	lastAssign domainagg.AssignResponseAgentInput
	lastRemove domainagg.RemoveResponseAgentInput
	lastAdd    domainagg.AddProcessingAgentInput
	lastUpdate domainagg.UpdateProcessingAgentInput
	lastDrop   domainagg.RemoveProcessingAgentInput
	lastList   domainagg.ListAgentsInput
}

func (f *fakePipeline) Contract() domainagg.Contract {
	return domainagg.PipelineAggregateContract
}

func (f *fakePipeline) AssignResponseAgent(_ context.Context, in domainagg.AssignResponseAgentInput) (domainagg.ResponseSlotResult, error) {
	f.lastAssign = in
	return f.assignOut, f.assignErr
}

func (f *fakePipeline) RemoveResponseAgent(_ context.Context, in domainagg.RemoveResponseAgentInput) (domainagg.ResponseSlotResult, error) {
	f.lastRemove = in
	return f.removeOut, f.removeErr
}

func (f *fakePipeline) AddProcessingAgent(_ context.Context, in domainagg.AddProcessingAgentInput) (domainagg.ProcessingMutationResult, error) {
	f.lastAdd = in
	return f.addOut, f.addErr
}

func (f *fakePipeline) UpdateProcessingAgent(_ context.Context, in domainagg.UpdateProcessingAgentInput) (domainagg.ProcessingMutationResult, error) {
	f.lastUpdate = in
	return f.updateOut, f.updateErr
}

func (f *fakePipeline) RemoveProcessingAgent(_ context.Context, in domainagg.RemoveProcessingAgentInput) (domainagg.ProcessingMutationResult, error) {
	f.lastDrop = in
	return f.dropOut, f.dropErr
}

func (f *fakePipeline) ListAgents(_ context.Context, in domainagg.ListAgentsInput) (domainagg.PipelineView, error) {
	f.lastList = in
	return f.listOut, f.listErr
}

type fakeBus struct {
	events     []bus.Event
	publishErr error
}

func (f *fakeBus) Publish(_ context.Context, ev bus.Event) error {
	f.events = append(f.events, ev)
	return f.publishErr
}

func (f *fakeBus) Close() error { return nil }
