// Package pipeline implements the metasearch pipeline: LLM query planning,
// concurrent fan-out over paper sources, and similarity-based reranking.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/observability"
	"github.com/scholarmesh/paper-metasearch/internal/sources"
)

// subQueryTask pairs one sub-query with the source that will execute it.
type subQueryTask struct {
	source   sources.SearchSource
	subQuery domain.SubQuery
}

// subQueryResult holds the outcome of one sub-query search.
type subQueryResult struct {
	source domain.SourceType
	papers []domain.Paper
	err    error
}

// DispatcherConfig contains dispatcher configuration options.
type DispatcherConfig struct {
	// MaxResults is the per-sub-query result cap forwarded to sources.
	MaxResults int

	// SubQueryTimeout bounds each individual sub-query search.
	SubQueryTimeout time.Duration
}

// applyDefaults fills in zero values with defaults.
func (c *DispatcherConfig) applyDefaults() {
	if c.MaxResults <= 0 {
		c.MaxResults = sources.DefaultMaxResults
	}
	if c.SubQueryTimeout <= 0 {
		c.SubQueryTimeout = sources.DefaultTimeout
	}
}

// Dispatcher fans a query plan out over registered paper sources, one
// goroutine per sub-query, and merges the results.
//
// Individual sub-query failures are logged and counted but never fail the
// dispatch: a source that errors simply contributes nothing to the merged
// result set.
type Dispatcher struct {
	sources map[domain.SourceType]sources.SearchSource
	config  DispatcherConfig
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a dispatcher over the given sources. Sources with
// duplicate types replace earlier registrations.
func NewDispatcher(cfg DispatcherConfig, logger zerolog.Logger, metrics *observability.Metrics, srcs ...sources.SearchSource) *Dispatcher {
	cfg.applyDefaults()

	registered := make(map[domain.SourceType]sources.SearchSource, len(srcs))
	for _, s := range srcs {
		registered[s.SourceType()] = s
	}

	return &Dispatcher{
		sources: registered,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Sources returns the source types the dispatcher can route to.
func (d *Dispatcher) Sources() []domain.SourceType {
	types := make([]domain.SourceType, 0, len(d.sources))
	for st := range d.sources {
		types = append(types, st)
	}
	return types
}

// Dispatch executes every sub-query in the plan against its source
// concurrently and returns the merged papers. The merged order is the
// completion order of the sub-queries; callers that need a stable order
// rank afterwards.
//
// A nil plan is a programming error and returns a pipeline error. An empty
// plan (or one whose sources are all unregistered) returns an empty slice
// and no error.
func (d *Dispatcher) Dispatch(ctx context.Context, plan *domain.QueryPlan) ([]domain.Paper, error) {
	if plan == nil {
		return nil, domain.NewPipelineError(domain.ErrPipelineFailed)
	}

	tasks := d.collectTasks(plan)
	if len(tasks) == 0 {
		return []domain.Paper{}, nil
	}

	resultChan := make(chan subQueryResult, len(tasks))
	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(task subQueryTask) {
			defer wg.Done()
			resultChan <- d.runTask(ctx, task)
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	merged := make([]domain.Paper, 0, len(tasks)*d.config.MaxResults)
	for result := range resultChan {
		if result.err != nil {
			continue
		}
		merged = append(merged, result.papers...)
	}

	return merged, nil
}

// collectTasks pairs the plan's sub-queries with registered sources,
// skipping sub-queries whose source is not available.
func (d *Dispatcher) collectTasks(plan *domain.QueryPlan) []subQueryTask {
	groups := []struct {
		sourceType domain.SourceType
		subQueries []domain.SubQuery
	}{
		{domain.SourceTypeArXiv, plan.ArXivQueries},
		{domain.SourceTypeOpenAlex, plan.OpenAlexQueries},
		{domain.SourceTypeCORE, plan.COREQueries},
	}

	var tasks []subQueryTask
	for _, group := range groups {
		source, ok := d.sources[group.sourceType]
		if !ok {
			if len(group.subQueries) > 0 {
				d.logger.Warn().
					Str("source", string(group.sourceType)).
					Int("sub_queries", len(group.subQueries)).
					Msg("skipping sub-queries for unregistered source")
			}
			continue
		}
		for _, sq := range group.subQueries {
			tasks = append(tasks, subQueryTask{source: source, subQuery: sq})
		}
	}
	return tasks
}

// runTask executes one sub-query against its source with a bounded context.
func (d *Dispatcher) runTask(ctx context.Context, task subQueryTask) subQueryResult {
	sourceType := task.source.SourceType()
	log := observability.WithSourceContext(d.logger, string(sourceType), task.subQuery.Query)

	taskCtx, cancel := context.WithTimeout(ctx, d.config.SubQueryTimeout)
	defer cancel()

	d.metrics.RecordSubQueryDispatched(string(sourceType))
	start := time.Now()

	papers, err := task.source.Search(taskCtx, sources.SearchParams{
		Query:      task.subQuery.Query,
		MaxResults: d.config.MaxResults,
		Mode:       task.subQuery.Mode,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		d.metrics.RecordSubQueryFailed(string(sourceType), elapsed)
		log.Warn().Err(err).Msg("sub-query failed, dropping its contribution")
		return subQueryResult{source: sourceType, err: err}
	}

	d.metrics.RecordSubQueryCompleted(string(sourceType), len(papers), elapsed)
	log.Debug().Int("papers", len(papers)).Msg("sub-query completed")
	return subQueryResult{source: sourceType, papers: papers}
}
