package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/llm"
	"github.com/scholarmesh/paper-metasearch/internal/observability"
)

// PlanDispatcher executes a query plan against paper sources.
type PlanDispatcher interface {
	Dispatch(ctx context.Context, plan *domain.QueryPlan) ([]domain.Paper, error)
}

// Reranker orders papers by relevance to a query. It reports whether
// ranking was applied; on internal failure it returns the input unchanged
// rather than an error.
type Reranker interface {
	Rank(ctx context.Context, query string, papers []domain.Paper) ([]domain.Paper, bool)
}

// Result is the outcome of one metasearch request.
type Result struct {
	// Papers are the merged (and, when Ranked, sorted) results.
	Papers []domain.Paper

	// Ranked reports whether similarity ranking was applied.
	Ranked bool

	// UsedFallbackPlan reports whether the planner failed and the verbatim
	// single-query plan was used instead.
	UsedFallbackPlan bool

	// Duration is the end-to-end pipeline duration.
	Duration time.Duration
}

// Pipeline orchestrates planning, dispatch, and ranking for one search.
//
// The pipeline degrades rather than fails: a planner failure falls back to
// searching all sources with the verbatim query, and a ranking failure
// returns the merged results unranked. Only a misuse of the pipeline
// itself surfaces as an error.
type Pipeline struct {
	planner    llm.QueryPlanner
	dispatcher PlanDispatcher
	ranker     Reranker
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a pipeline from its three stages.
func New(planner llm.QueryPlanner, dispatcher PlanDispatcher, ranker Reranker, logger zerolog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		planner:    planner,
		dispatcher: dispatcher,
		ranker:     ranker,
		logger:     logger,
		metrics:    metrics,
	}
}

// Search runs the full pipeline for one user query.
func (p *Pipeline) Search(ctx context.Context, userQuery string) (*Result, error) {
	start := time.Now()
	p.metrics.RecordSearchStarted()

	plan, usedFallback := p.plan(ctx, userQuery)

	papers, err := p.dispatcher.Dispatch(ctx, plan)
	if err != nil {
		p.metrics.RecordSearchFailed(time.Since(start).Seconds())
		p.logger.Error().Err(err).Str("query", userQuery).Msg("dispatch failed")
		return nil, domain.NewPipelineError(err)
	}

	// No results means nothing to rank; an empty result set is still a
	// successful search.
	if len(papers) == 0 {
		elapsed := time.Since(start)
		p.metrics.RecordSearchCompleted(0, elapsed.Seconds())
		p.logger.Info().Str("query", userQuery).Msg("search returned no papers")
		return &Result{
			Papers:           []domain.Paper{},
			Ranked:           false,
			UsedFallbackPlan: usedFallback,
			Duration:         elapsed,
		}, nil
	}

	ranked, rankedOK := p.ranker.Rank(ctx, userQuery, papers)

	elapsed := time.Since(start)
	p.metrics.RecordSearchCompleted(len(ranked), elapsed.Seconds())
	p.logger.Info().
		Str("query", userQuery).
		Int("papers", len(ranked)).
		Bool("ranked", rankedOK).
		Bool("fallback_plan", usedFallback).
		Dur("duration", elapsed).
		Msg("search completed")

	return &Result{
		Papers:           ranked,
		Ranked:           rankedOK,
		UsedFallbackPlan: usedFallback,
		Duration:         elapsed,
	}, nil
}

// plan asks the planner for a query plan, degrading to the verbatim
// single-query plan on failure.
func (p *Pipeline) plan(ctx context.Context, userQuery string) (*domain.QueryPlan, bool) {
	plan, err := p.planner.PlanQueries(ctx, userQuery)
	if err == nil {
		p.logger.Debug().
			Str("query", userQuery).
			Int("sub_queries", plan.SubQueryCount()).
			Msg("query plan generated")
		return plan, false
	}

	p.metrics.RecordPlannerFallback()
	p.logger.Warn().Err(domain.NewPlannerError(err)).Str("query", userQuery).
		Msg("planner failed, falling back to verbatim query plan")
	return domain.FallbackPlan(userQuery), true
}
