package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSourceError(SourceTypeArXiv, cause)

	assert.True(t, errors.Is(err, ErrSourceFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "arxiv")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPlannerErrorWrapping(t *testing.T) {
	cause := errors.New("invalid JSON")
	err := NewPlannerError(cause)

	assert.True(t, errors.Is(err, ErrPlannerFailed))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrSourceFailed))
}

func TestRankingErrorWrapping(t *testing.T) {
	cause := errors.New("dimension mismatch")
	err := NewRankingError(cause)

	assert.True(t, errors.Is(err, ErrRankingFailed))
	assert.True(t, errors.Is(err, cause))
}

func TestPipelineErrorWrapping(t *testing.T) {
	cause := errors.New("nil plan")
	err := NewPipelineError(cause)

	assert.True(t, errors.Is(err, ErrPipelineFailed))
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("handler: %w", err)
	var pipelineErr *PipelineError
	require.True(t, errors.As(wrapped, &pipelineErr))
	assert.Equal(t, cause, pipelineErr.Cause)
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("core", "API key")

	assert.True(t, errors.Is(err, ErrMissingConfiguration))
	assert.Contains(t, err.Error(), "core")
	assert.Contains(t, err.Error(), "API key")
}

func TestExternalAPIError(t *testing.T) {
	err := NewExternalAPIError("OpenAlex", 503, "service unavailable", nil)

	assert.Contains(t, err.Error(), "OpenAlex")
	assert.Contains(t, err.Error(), "503")
}
