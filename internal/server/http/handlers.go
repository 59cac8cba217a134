package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/history"
)

const (
	// maxRequestBodySize limits request bodies to 1MB.
	maxRequestBodySize = 1 << 20
)

// searchRequest is the request body for POST /api/v1/search.
type searchRequest struct {
	Query string `json:"query" validate:"required,min=3,max=10000"`
}

// searchHandler handles POST /api/v1/search.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req searchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	searchID := uuid.New().String()
	logger := s.logger.With().Str("search_id", searchID).Logger()
	logger.Info().Str("query", req.Query).Msg("search request received")

	result, err := s.searcher.Search(r.Context(), req.Query)
	if err != nil {
		var pipeErr *domain.PipelineError
		if errors.As(err, &pipeErr) {
			logger.Error().Err(err).Msg("search pipeline failed")
		} else {
			logger.Error().Err(err).Msg("search failed")
		}
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if s.publisher != nil {
		s.publisher.Publish(r.Context(), history.SearchCompletedEvent{
			SearchID:         searchID,
			Query:            req.Query,
			ResultCount:      len(result.Papers),
			Ranked:           result.Ranked,
			UsedFallbackPlan: result.UsedFallbackPlan,
			CompletedAt:      time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, toSearchResponse(searchID, req.Query, result))
}

// validationMessage turns a validator error into a client-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "query is required"
	case "min":
		return "query must be at least " + fe.Param() + " characters"
	case "max":
		return "query must be at most " + fe.Param() + " characters"
	}
	return "invalid request"
}
