package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError translates a service-layer error into the envelope.
// An explicit apierr status wins; otherwise the aggregate code decides.
func RespondServiceError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, apiErr.Code, err)
		return
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	RespondError(c, StatusForCode(code), string(code), err)
}

// StatusForCode maps the shared aggregate error vocabulary onto HTTP
// statuses. The conflict family (uniqueness, role exclusivity, version
// races) all land on 409 so clients get one retry signal.
func StatusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeUnauthorized:
		return http.StatusUnauthorized
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict, domainagg.CodeInvariantViolation, domainagg.CodePreconditionFailed:
		return http.StatusConflict
	case domainagg.CodeDependency:
		return http.StatusBadGateway
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
