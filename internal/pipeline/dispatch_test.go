package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/observability"
	"github.com/scholarmesh/paper-metasearch/internal/sources"
)

// promauto registers metrics with the default registry, so the package
// shares one Metrics instance across tests.
var testMetrics = observability.NewMetrics("test_pipeline")

// stubSource is a configurable in-memory SearchSource.
type stubSource struct {
	sourceType domain.SourceType
	papers     []domain.Paper
	err        error

	mu    sync.Mutex
	calls []sources.SearchParams
}

func (s *stubSource) Search(ctx context.Context, params sources.SearchParams) ([]domain.Paper, error) {
	s.mu.Lock()
	s.calls = append(s.calls, params)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.papers, nil
}

func (s *stubSource) SourceType() domain.SourceType {
	return s.sourceType
}

func (s *stubSource) Name() string {
	return string(s.sourceType)
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestDispatcher(srcs ...sources.SearchSource) *Dispatcher {
	return NewDispatcher(DispatcherConfig{}, zerolog.Nop(), testMetrics, srcs...)
}

func TestDispatcherMergesAllSources(t *testing.T) {
	arxiv := &stubSource{
		sourceType: domain.SourceTypeArXiv,
		papers:     []domain.Paper{{ID: "a1", Source: domain.SourceTypeArXiv}},
	}
	openalex := &stubSource{
		sourceType: domain.SourceTypeOpenAlex,
		papers:     []domain.Paper{{ID: "o1", Source: domain.SourceTypeOpenAlex}},
	}
	core := &stubSource{
		sourceType: domain.SourceTypeCORE,
		papers:     []domain.Paper{{ID: "c1", Source: domain.SourceTypeCORE}},
	}

	d := newTestDispatcher(arxiv, openalex, core)

	plan := &domain.QueryPlan{
		ArXivQueries:    []domain.SubQuery{{Query: "all:gnn"}, {Query: "cat:cs.LG", Mode: domain.ModeTopic}},
		OpenAlexQueries: []domain.SubQuery{{Query: "gnn"}},
		COREQueries:     []domain.SubQuery{{Query: "gnn"}},
	}

	papers, err := d.Dispatch(context.Background(), plan)
	require.NoError(t, err)

	// Two arXiv sub-queries plus one each for OpenAlex and CORE.
	assert.Len(t, papers, 4)
	assert.Equal(t, 2, arxiv.callCount())
	assert.Equal(t, 1, openalex.callCount())
	assert.Equal(t, 1, core.callCount())
}

func TestDispatcherIsolatesSubQueryFailures(t *testing.T) {
	arxiv := &stubSource{
		sourceType: domain.SourceTypeArXiv,
		err:        domain.NewSourceError(domain.SourceTypeArXiv, errors.New("boom")),
	}
	openalex := &stubSource{
		sourceType: domain.SourceTypeOpenAlex,
		papers: []domain.Paper{
			{ID: "o1", Source: domain.SourceTypeOpenAlex},
			{ID: "o2", Source: domain.SourceTypeOpenAlex},
		},
	}

	d := newTestDispatcher(arxiv, openalex)

	plan := &domain.QueryPlan{
		ArXivQueries:    []domain.SubQuery{{Query: "gnn"}},
		OpenAlexQueries: []domain.SubQuery{{Query: "gnn"}},
	}

	papers, err := d.Dispatch(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, papers, 2)
	for _, p := range papers {
		assert.Equal(t, domain.SourceTypeOpenAlex, p.Source)
	}
}

func TestDispatcherAllSourcesFailReturnsEmpty(t *testing.T) {
	failed := errors.New("unavailable")
	arxiv := &stubSource{sourceType: domain.SourceTypeArXiv, err: failed}
	core := &stubSource{sourceType: domain.SourceTypeCORE, err: failed}

	d := newTestDispatcher(arxiv, core)

	plan := &domain.QueryPlan{
		ArXivQueries: []domain.SubQuery{{Query: "gnn"}},
		COREQueries:  []domain.SubQuery{{Query: "gnn"}},
	}

	papers, err := d.Dispatch(context.Background(), plan)
	require.NoError(t, err)
	assert.NotNil(t, papers)
	assert.Empty(t, papers)
}

func TestDispatcherNilPlan(t *testing.T) {
	d := newTestDispatcher()

	papers, err := d.Dispatch(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, papers)
	assert.True(t, errors.Is(err, domain.ErrPipelineFailed))
}

func TestDispatcherEmptyPlan(t *testing.T) {
	arxiv := &stubSource{sourceType: domain.SourceTypeArXiv}
	d := newTestDispatcher(arxiv)

	papers, err := d.Dispatch(context.Background(), &domain.QueryPlan{})
	require.NoError(t, err)
	assert.Empty(t, papers)
	assert.Equal(t, 0, arxiv.callCount())
}

func TestDispatcherSkipsUnregisteredSources(t *testing.T) {
	arxiv := &stubSource{
		sourceType: domain.SourceTypeArXiv,
		papers:     []domain.Paper{{ID: "a1", Source: domain.SourceTypeArXiv}},
	}

	d := newTestDispatcher(arxiv)

	plan := &domain.QueryPlan{
		ArXivQueries:    []domain.SubQuery{{Query: "gnn"}},
		OpenAlexQueries: []domain.SubQuery{{Query: "gnn"}},
		COREQueries:     []domain.SubQuery{{Query: "gnn"}},
	}

	papers, err := d.Dispatch(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}

func TestDispatcherForwardsParams(t *testing.T) {
	arxiv := &stubSource{sourceType: domain.SourceTypeArXiv}

	d := NewDispatcher(DispatcherConfig{MaxResults: 25}, zerolog.Nop(), testMetrics, arxiv)

	plan := &domain.QueryPlan{
		ArXivQueries: []domain.SubQuery{{Query: "cat:cs.AI", Mode: domain.ModeTopic}},
	}

	_, err := d.Dispatch(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, arxiv.calls, 1)
	assert.Equal(t, "cat:cs.AI", arxiv.calls[0].Query)
	assert.Equal(t, domain.ModeTopic, arxiv.calls[0].Mode)
	assert.Equal(t, 25, arxiv.calls[0].MaxResults)
}

func TestDispatcherSources(t *testing.T) {
	d := newTestDispatcher(
		&stubSource{sourceType: domain.SourceTypeArXiv},
		&stubSource{sourceType: domain.SourceTypeCORE},
	)

	types := d.Sources()
	assert.ElementsMatch(t, []domain.SourceType{domain.SourceTypeArXiv, domain.SourceTypeCORE}, types)
}
