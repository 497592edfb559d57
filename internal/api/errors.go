package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relfiles/internal/config"
	"relfiles/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Code           string             `json:"code"`
	Message        string             `json:"message"`
	Field          string             `json:"field,omitempty"`
	Details        interface{}        `json:"details,omitempty"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
	RequestID      string             `json:"requestId,omitempty"`
}

// WriteError writes err as JSON with a status derived from its type.
func WriteError(c *gin.Context, err error) {
	resp := ErrorResponse{
		Code:      string(errors.InternalError),
		Message:   err.Error(),
		RequestID: GetRequestID(c),
	}
	status := http.StatusInternalServerError

	var cfgErr *config.ConfigError
	var relErr *errors.RelfilesError
	switch {
	case stderrors.As(err, &cfgErr):
		resp.Code = string(errors.ConfigInvalid)
		resp.Field = cfgErr.Field
		resp.SuggestedFixes = errors.GetSuggestedFixes(errors.ConfigInvalid)
		status = http.StatusBadRequest
	case stderrors.As(err, &relErr):
		resp.Code = string(relErr.Code)
		resp.Message = relErr.Message
		resp.Details = relErr.Details
		resp.SuggestedFixes = relErr.SuggestedFixes
		status = MapErrorToStatus(relErr.Code)
	}

	c.JSON(status, resp)
}

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ConfigInvalid:
		return http.StatusBadRequest // 400
	case errors.NotARepository:
		return http.StatusNotFound // 404
	case errors.Timeout:
		return http.StatusGatewayTimeout // 504
	case errors.RetrievalFailed:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
