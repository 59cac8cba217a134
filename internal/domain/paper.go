// Package domain defines the core types shared across the paper metasearch service.
package domain

// SourceType identifies an academic paper source.
type SourceType string

// Supported paper sources.
const (
	SourceTypeArXiv    SourceType = "arxiv"
	SourceTypeOpenAlex SourceType = "openalex"
	SourceTypeCORE     SourceType = "core"
)

// AllSourceTypes returns every supported source type.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypeArXiv, SourceTypeOpenAlex, SourceTypeCORE}
}

// IsValidSourceType reports whether st names a supported source.
func IsValidSourceType(st SourceType) bool {
	switch st {
	case SourceTypeArXiv, SourceTypeOpenAlex, SourceTypeCORE:
		return true
	}
	return false
}

// Query modes understood by source adapters. Sources that do not support
// modes ignore them.
const (
	ModeTopic   = "topic"
	ModeKeyword = "keyword"
)

// Paper is the canonical search result unit. A Paper is created by exactly
// one source adapter and is read-only afterward, except for the ranker
// setting Similarity. IDs are source-assigned and are not globally unique
// across sources.
type Paper struct {
	// ID is the source-assigned identifier (format is source-specific).
	ID string `json:"id"`

	// Title is the paper title.
	Title string `json:"title"`

	// Summary is the abstract text. May be empty.
	Summary string `json:"summary"`

	// Published is the publication date as reported by the source.
	// The format varies by source and is not strictly validated.
	Published string `json:"published"`

	// Authors are the author names in source order. May be empty.
	Authors []string `json:"authors"`

	// Link is the best available resolvable URL. May be empty.
	Link string `json:"link"`

	// Source identifies which adapter produced this paper.
	Source SourceType `json:"source"`

	// Similarity is the normalized cosine similarity to the user's query,
	// in [0,1]. Set only after ranking; nil before ranking or when ranking
	// was skipped.
	Similarity *float64 `json:"similarity,omitempty"`
}

// SubQuery is a single source-targeted search string plus optional mode,
// produced by decomposing the user's original query.
type SubQuery struct {
	// Query is the search text sent to the source.
	Query string `json:"query"`

	// Mode is a source-interpreted hint ("topic" or "keyword").
	// Sources that do not support modes ignore it.
	Mode string `json:"mode,omitempty"`
}

// QueryPlan routes sub-queries to the three sources. A plan is created once
// per search invocation, consumed immediately by the dispatcher, then
// discarded. Any of the slices may legitimately be empty.
type QueryPlan struct {
	ArXivQueries    []SubQuery `json:"arxiv_queries"`
	OpenAlexQueries []SubQuery `json:"openalex_queries"`
	COREQueries     []SubQuery `json:"core_queries"`
}

// FallbackPlan builds the plan used when query planning fails: the verbatim
// user query routed to all three sources in keyword mode.
func FallbackPlan(userQuery string) *QueryPlan {
	sq := []SubQuery{{Query: userQuery, Mode: ModeKeyword}}
	return &QueryPlan{
		ArXivQueries:    sq,
		OpenAlexQueries: sq,
		COREQueries:     sq,
	}
}

// SubQueryCount returns the total number of sub-queries across all sources.
func (p *QueryPlan) SubQueryCount() int {
	if p == nil {
		return 0
	}
	return len(p.ArXivQueries) + len(p.OpenAlexQueries) + len(p.COREQueries)
}
