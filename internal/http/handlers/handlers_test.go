package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

// Fakes embed the service interface so each test overrides only the
// methods the handler under test actually calls.

type fakeInboxService struct {
	services.InboxService

	assignResponse   func(ctx context.Context, inboxID uuid.UUID, in services.AssignResponseInput) (domainagg.ResponseSlotResult, error)
	addProcessing    func(ctx context.Context, inboxID uuid.UUID, in services.AddProcessingInput) (domainagg.ProcessingMutationResult, error)
	removeProcessing func(ctx context.Context, inboxID, agentID uuid.UUID) (domainagg.ProcessingMutationResult, error)
	listPipeline     func(ctx context.Context, inboxID uuid.UUID) (domainagg.PipelineView, error)
}

func (f *fakeInboxService) AssignResponseAgent(ctx context.Context, inboxID uuid.UUID, in services.AssignResponseInput) (domainagg.ResponseSlotResult, error) {
	return f.assignResponse(ctx, inboxID, in)
}

func (f *fakeInboxService) AddProcessingAgent(ctx context.Context, inboxID uuid.UUID, in services.AddProcessingInput) (domainagg.ProcessingMutationResult, error) {
	return f.addProcessing(ctx, inboxID, in)
}

func (f *fakeInboxService) RemoveProcessingAgent(ctx context.Context, inboxID, agentID uuid.UUID) (domainagg.ProcessingMutationResult, error) {
	return f.removeProcessing(ctx, inboxID, agentID)
}

func (f *fakeInboxService) ListPipeline(ctx context.Context, inboxID uuid.UUID) (domainagg.PipelineView, error) {
	return f.listPipeline(ctx, inboxID)
}

type fakeSearchService struct {
	gotQuery string
	gotLimit int
	out      *services.SearchOutput
	err      error
}

func (f *fakeSearchService) Search(ctx context.Context, agentID uuid.UUID, query string, limit int) (*services.SearchOutput, error) {
	f.gotQuery = query
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeStatsService struct {
	stats *services.KnowledgeStats
	err   error
}

func (f *fakeStatsService) Stats(ctx context.Context, agentID uuid.UUID) (*services.KnowledgeStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type fakeAgentService struct {
	services.AgentService

	create func(ctx context.Context, in services.CreateAgentInput) (*types.Agent, error)
}

func (f *fakeAgentService) Create(ctx context.Context, in services.CreateAgentInput) (*types.Agent, error) {
	return f.create(ctx, in)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func TestPipelineHandlerRejectsBadInboxID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewPipelineHandler(&fakeInboxService{})
	r := gin.New()
	r.GET("/api/inboxes/:inboxId/agents", h.ListAgents)

	req := httptest.NewRequest(http.MethodGet, "/api/inboxes/not-a-uuid/agents", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != "invalid_inbox_id" {
		t.Fatalf("unexpected code: got=%q want=%q", env.Error.Code, "invalid_inbox_id")
	}
}

func TestPipelineHandlerAssignResponseAgent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	inboxID := uuid.New()
	agentID := uuid.New()
	replaced := uuid.New()

	svc := &fakeInboxService{
		assignResponse: func(ctx context.Context, gotInbox uuid.UUID, in services.AssignResponseInput) (domainagg.ResponseSlotResult, error) {
			if gotInbox != inboxID {
				t.Fatalf("unexpected inbox id: got=%s want=%s", gotInbox, inboxID)
			}
			if in.AgentID != agentID {
				t.Fatalf("unexpected agent id: got=%s want=%s", in.AgentID, agentID)
			}
			return domainagg.ResponseSlotResult{
				InboxID:         inboxID,
				AgentID:         agentID,
				AgentName:       "Responder",
				AssignedAt:      time.Now().UTC(),
				ReplacedAgentID: &replaced,
				Summary:         domainagg.PipelineSummary{TotalAgents: 1, ActiveAgents: 1, HasResponseAgent: true},
			}, nil
		},
	}
	h := NewPipelineHandler(svc)
	r := gin.New()
	r.PUT("/api/inboxes/:inboxId/agents/response", h.AssignResponseAgent)

	body := `{"agent_id":"` + agentID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/api/inboxes/"+inboxID.String()+"/agents/response", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got := payload["agent_id"]; got != agentID.String() {
		t.Fatalf("unexpected agent_id: got=%v want=%s", got, agentID)
	}
	if got := payload["replaced_agent_id"]; got != replaced.String() {
		t.Fatalf("unexpected replaced_agent_id: got=%v want=%s", got, replaced)
	}
	if _, ok := payload["pipeline_summary"]; !ok {
		t.Fatal("expected pipeline_summary in payload")
	}
}

func TestPipelineHandlerMapsConflictTo409(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeInboxService{
		addProcessing: func(ctx context.Context, inboxID uuid.UUID, in services.AddProcessingInput) (domainagg.ProcessingMutationResult, error) {
			return domainagg.ProcessingMutationResult{}, domainagg.NewError(
				domainagg.CodeConflict, "Inbox.AddProcessingAgent", "agent already assigned to inbox", nil)
		},
	}
	h := NewPipelineHandler(svc)
	r := gin.New()
	r.POST("/api/inboxes/:inboxId/agents/processing", h.AddProcessingAgent)

	body := `{"agent_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/inboxes/"+uuid.New().String()+"/agents/processing", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusConflict)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != string(domainagg.CodeConflict) {
		t.Fatalf("unexpected code: got=%q want=%q", env.Error.Code, domainagg.CodeConflict)
	}
}

func TestSearchHandlerDefaultsNonNumericLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeSearchService{out: &services.SearchOutput{Query: "billing", Results: []services.SearchResult{}}}
	h := NewSearchHandler(svc)
	r := gin.New()
	r.GET("/api/agents/:agentId/search", h.Search)

	req := httptest.NewRequest(http.MethodGet, "/api/agents/"+uuid.New().String()+"/search?q=billing&limit=lots", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.gotQuery != "billing" {
		t.Fatalf("unexpected query: got=%q want=%q", svc.gotQuery, "billing")
	}
	if svc.gotLimit != 0 {
		t.Fatalf("non-numeric limit should pass through as zero, got=%d", svc.gotLimit)
	}
}

func TestKnowledgeStatsHandlerMapsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeStatsService{err: domainagg.NewError(domainagg.CodeNotFound, "KnowledgeStats.Stats", "agent not found", nil)}
	h := NewKnowledgeStatsHandler(svc)
	r := gin.New()
	r.GET("/api/agents/:agentId/knowledge/stats", h.Stats)

	req := httptest.NewRequest(http.MethodGet, "/api/agents/"+uuid.New().String()+"/knowledge/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestAgentHandlerCreateReturns201(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeAgentService{
		create: func(ctx context.Context, in services.CreateAgentInput) (*types.Agent, error) {
			if in.Name != "Classifier" {
				t.Fatalf("unexpected name: got=%q want=%q", in.Name, "Classifier")
			}
			return &types.Agent{ID: uuid.New(), Name: in.Name, Role: types.AgentRoleProcessing}, nil
		},
	}
	h := NewAgentHandler(svc)
	r := gin.New()
	r.POST("/api/agents", h.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/agents", strings.NewReader(`{"name":"Classifier","role":"processing"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}
