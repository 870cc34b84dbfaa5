package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/platform/apierr"
)

func TestStatusForCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code domainagg.ErrorCode
		want int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeUnauthorized, http.StatusUnauthorized},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodeInvariantViolation, http.StatusConflict},
		{domainagg.CodePreconditionFailed, http.StatusConflict},
		{domainagg.CodeDependency, http.StatusBadGateway},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
		{domainagg.CodeInternal, http.StatusInternalServerError},
		{domainagg.ErrorCode("something_else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusForCode(tc.code); got != tc.want {
			t.Errorf("StatusForCode(%q): got=%d want=%d", tc.code, got, tc.want)
		}
	}
}

func TestRespondServiceErrorUsesAggregateCode(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	err := domainagg.NewError(domainagg.CodeNotFound, "Agent.Get", "agent not found", nil)
	RespondServiceError(c, err)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Error.Code != string(domainagg.CodeNotFound) {
		t.Fatalf("unexpected code: got=%q want=%q", env.Error.Code, domainagg.CodeNotFound)
	}
	if env.Error.Message == "" {
		t.Fatal("expected a non-empty message")
	}
}

func TestRespondServiceErrorHonorsExplicitStatus(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, apierr.New(http.StatusTeapot, "teapot", errors.New("short and stout")))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusTeapot)
	}
}

func TestRespondServiceErrorDefaultsToInternal(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, errors.New("plain failure"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Error.Code != string(domainagg.CodeInternal) {
		t.Fatalf("unexpected code: got=%q want=%q", env.Error.Code, domainagg.CodeInternal)
	}
}
