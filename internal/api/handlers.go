package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"relfiles/internal/config"
	"relfiles/internal/output"
	"relfiles/internal/query"
	"relfiles/internal/version"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Stats     query.Stats `json:"stats"`
}

// SimilarResponse is the body of GET /similar.
type SimilarResponse struct {
	File         string   `json:"file"`
	SimilarNames []string `json:"similarNames"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   version.Info(),
		Timestamp: time.Now(),
		Stats:     s.engine.Stats(),
	})
}

// handleRelated serves GET /related?file=&limit=&session=
// A missing limit uses relatedFiles.limit; limit=0 returns no files.
func (s *Server) handleRelated(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		WriteError(c, &config.ConfigError{Field: "file", Message: "query parameter is required"})
		return
	}
	limit, err := parseLimit(c, s.engine.Config().RelatedFiles.Limit)
	if err != nil {
		WriteError(c, err)
		return
	}

	resp, err := s.engine.Related(c.Request.Context(), query.RelatedRequest{
		File:    file,
		Limit:   limit,
		Session: c.Query("session"),
	})
	if err != nil {
		WriteError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, resp)
}

// handleSimilar serves GET /similar?file=&limit=
// A missing limit uses similarNames.limit; limit=0 returns no names.
func (s *Server) handleSimilar(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		WriteError(c, &config.ConfigError{Field: "file", Message: "query parameter is required"})
		return
	}
	limit, err := parseLimit(c, s.engine.Config().RelatedFiles.SimilarNames.Limit)
	if err != nil {
		WriteError(c, err)
		return
	}

	names, err := s.engine.Similar(c.Request.Context(), file, limit)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, SimilarResponse{File: file, SimilarNames: names})
}

// writeJSON writes v with sorted keys and rounded weights.
func writeJSON(c *gin.Context, status int, v interface{}) {
	data, err := output.DeterministicEncode(v)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

// parseLimit reads the optional limit parameter.
func parseLimit(c *gin.Context, fallback int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &config.ConfigError{Field: "limit", Message: "must be an integer, got " + strconv.Quote(raw)}
	}
	if err := config.ValidateLimit("limit", limit); err != nil {
		return 0, err
	}
	return limit, nil
}
