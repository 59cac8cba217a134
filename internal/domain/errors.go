package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrMissingConfiguration indicates required configuration (such as an
	// API key) is absent. Fatal at construction time, never retried.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrSourceFailed indicates a single source adapter's network or parse
	// failure. Recovered locally by the dispatcher.
	ErrSourceFailed = errors.New("source failed")

	// ErrPlannerFailed indicates a query planner invocation or decode
	// failure. Recovered locally by the orchestrator via the fallback plan.
	ErrPlannerFailed = errors.New("planner failed")

	// ErrRankingFailed indicates an embedding or similarity computation
	// failure. Recovered locally by the ranker via pass-through.
	ErrRankingFailed = errors.New("ranking failed")

	// ErrPipelineFailed indicates a structural failure that escaped all
	// local recoveries. The only error surfaced by the search pipeline.
	ErrPipelineFailed = errors.New("pipeline failed")
)

// ConfigurationError reports missing required credentials or settings.
type ConfigurationError struct {
	Component string
	Missing   string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing required configuration: %s", e.Component, e.Missing)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ConfigurationError) Unwrap() error {
	return ErrMissingConfiguration
}

// SourceError wraps a failure scoped to one source adapter.
type SourceError struct {
	Source SourceType
	Cause  error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SourceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches the source-failure sentinel.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceFailed
}

// PlannerError wraps a query planner failure. Model-invocation errors and
// response-decode errors are treated identically by the caller.
type PlannerError struct {
	Cause error
}

// Error implements the error interface.
func (e *PlannerError) Error() string {
	return fmt.Sprintf("query planner: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches the planner-failure sentinel.
func (e *PlannerError) Is(target error) bool {
	return target == ErrPlannerFailed
}

// RankingError wraps an embedding or similarity computation failure.
type RankingError struct {
	Cause error
}

// Error implements the error interface.
func (e *RankingError) Error() string {
	return fmt.Sprintf("similarity ranking: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RankingError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches the ranking-failure sentinel.
func (e *RankingError) Is(target error) bool {
	return target == ErrRankingFailed
}

// PipelineError is the sole error type surfaced by the public search
// contract. It wraps the single terminal cause.
type PipelineError struct {
	Cause error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("search pipeline: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches the pipeline-failure sentinel.
func (e *PipelineError) Is(target error) bool {
	return target == ErrPipelineFailed
}

// ExternalAPIError provides details about a non-2xx response from an
// external API.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(component, missing string) *ConfigurationError {
	return &ConfigurationError{Component: component, Missing: missing}
}

// NewSourceError creates a new SourceError.
func NewSourceError(source SourceType, cause error) *SourceError {
	return &SourceError{Source: source, Cause: cause}
}

// NewPlannerError creates a new PlannerError.
func NewPlannerError(cause error) *PlannerError {
	return &PlannerError{Cause: cause}
}

// NewRankingError creates a new RankingError.
func NewRankingError(cause error) *RankingError {
	return &RankingError{Cause: cause}
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(cause error) *PipelineError {
	return &PipelineError{Cause: cause}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
