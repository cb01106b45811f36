// Package recommend implements the orchestrator: it wires components A-G
// into a single recommend() call, from a raw UserRequest to a ranked,
// projected list of Result records.
//
// Grounded on the teacher's internal/mcp/tools/compound_tools.go
// MovieRecommendationEngine handler, which is the teacher's own
// single-entrypoint orchestration of several lower-level collaborators into
// one tool call; this package generalizes that shape to the seven-stage
// pipeline.
package recommend

import (
	"context"
	"math/rand"
	"time"

	"movie-recommend-engine/internal/catalog"
	"movie-recommend-engine/internal/config"
	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/embedding"
	"movie-recommend-engine/internal/feature"
	"movie-recommend-engine/internal/filter"
	"movie-recommend-engine/internal/mapping"
	"movie-recommend-engine/internal/moodmatrix"
	"movie-recommend-engine/internal/querygen"
	"movie-recommend-engine/internal/scoring"
	"movie-recommend-engine/pkg/logging"
	"movie-recommend-engine/pkg/metrics"
	"movie-recommend-engine/pkg/timeout"
)

// Result is one ranked recommendation, the shape the orchestrator returns
// to its callers (the MCP recommend_movies tool and the CLI).
type Result struct {
	Movie          movie.Movie
	EmbeddingScore float64
	MatchRatio     float64
	MatchCount     int
	TotalFeatures  int
	Quadrant       scoring.Quadrant
	FinalScore     float64
}

// Trace carries the per-stage diagnostics recorded on every call: the
// synthesized query, the mood relationship (if any), and the
// candidate-count transitions of the feature, embedding, filter and
// scoring stages. debug.verbose additionally logs the query part of it.
type Trace struct {
	QueryText        string
	QueryScenario    querygen.Scenario
	Relationship     *moodmatrix.Relationship
	SentimentConflict bool
	StageCounts      []StageCount
}

// StageCount records one stage's in/out candidate counts.
type StageCount struct {
	Stage string
	In    int
	Out   int
}

// Engine is the orchestrator's dependency set: an immutable catalog
// snapshot, an embedding provider, and the tuned configuration. Engine is
// safe for concurrent use; each Recommend call is independent and uses its
// own request-scoped RNG.
type Engine struct {
	store    *catalog.Store
	embedder embedding.Embedder
	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// New builds an Engine from its collaborators.
func New(store *catalog.Store, embedder embedding.Embedder, cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) *Engine {
	return &Engine{store: store, embedder: embedder, cfg: cfg, logger: logger, metrics: m}
}

// Recommend runs the pipeline end to end: feature extraction, query
// synthesis, embedding search, tiered filtering, quadrant scoring, mixed
// sort, and smart selection, returning at most req.Count results (or the
// configured default when req.Count is unset).
func (e *Engine) Recommend(ctx context.Context, req feature.UserRequest) ([]Result, *Trace, error) {
	timer := e.metrics.StartRequestTimer()
	defer e.metrics.FinishRequestTimer(timer)

	snapshot := e.store.Load()
	log := e.logger.WithStage("recommend")

	count := req.Count
	if count <= 0 {
		count = e.cfg.CandidateCounts.FinalRecommendations
	}

	trace := &Trace{}

	// A+C: feature extraction (mapping tables are consulted inside Extract).
	stageStart := time.Now()
	features := feature.Extract(req, snapshot.Movies())
	e.recordStage(log, "feature", 1, features.TotalFeatures(), stageStart)
	trace.StageCounts = append(trace.StageCounts, StageCount{"feature", 1, features.TotalFeatures()})

	// B+D: mood relationship analysis + query synthesis.
	stageStart = time.Now()
	query := querygen.BuildQuery(req.NaturalQuery, features.MoodTags)
	e.recordStage(log, "querygen", len(features.MoodTags), 1, stageStart)
	trace.QueryText = query.QueryText
	trace.QueryScenario = query.Scenario
	trace.Relationship = query.Relationship
	trace.SentimentConflict = query.Conflict

	// E: global semantic search over the whole catalog.
	stageStart = time.Now()
	entries := embedding.EntriesFromCatalog(snapshot.Embeddings())
	// The provider call carries the embedding deadline; its expiry surfaces
	// from Search as EmbeddingUnavailable like any other provider failure.
	searchCtx, cancelSearch := context.WithTimeout(ctx, timeout.DefaultTimeoutConfig().EmbeddingTimeout)
	hits, err := embedding.Search(searchCtx, e.embedder, query.QueryText, entries, snapshot.Dimension(),
		e.cfg.CandidateCounts.EmbeddingTopK, e.cfg.EmbeddingSearch.MinSimilarity)
	cancelSearch()
	e.metrics.RecordEmbeddingCall(err)
	if err != nil {
		log.LogError(err, "embedding_search_failed")
		return nil, trace, err
	}
	e.recordStage(log, "embedding", len(entries), len(hits), stageStart)
	trace.StageCounts = append(trace.StageCounts, StageCount{"embedding", len(entries), len(hits)})

	candidates := toFilterCandidates(hits, snapshot)

	// F: tiered feature filter.
	stageStart = time.Now()
	tiers := filter.Tiers{Tier1Threshold: e.cfg.FeatureFiltering.Tier1Threshold, Tier2Threshold: e.cfg.FeatureFiltering.Tier2Threshold}
	scored := filter.FilterWithTiers(candidates, features, e.cfg.CandidateCounts.FeatureFilterK, tiers)
	e.recordStage(log, "filter", len(candidates), len(scored), stageStart)
	trace.StageCounts = append(trace.StageCounts, StageCount{"filter", len(candidates), len(scored)})

	// G: quadrant classification, scoring, mixed sort, smart selection.
	stageStart = time.Now()
	thresholds := scoring.Thresholds{HighEmbedding: e.cfg.QuadrantThresholds.HighEmbedding, HighMatch: e.cfg.QuadrantThresholds.HighMatch}
	weights := toScoringWeights(e.cfg.QuadrantWeights)
	classified := scoring.ClassifyAll(scored, thresholds, weights)
	scoring.MixedSort(classified)

	rng := rand.New(rand.NewSource(requestSeed(e.cfg.RNGSeed, req)))
	selCfg := scoring.SelectionConfig{GuaranteedTop: e.cfg.CandidateCounts.GuaranteedTop, RandomPoolSize: e.cfg.CandidateCounts.RandomPoolSize}
	selected := scoring.SmartSelect(classified, count, selCfg, rng)
	e.recordStage(log, "scoring", len(scored), len(selected), stageStart)
	trace.StageCounts = append(trace.StageCounts, StageCount{"scoring", len(scored), len(selected)})

	if e.cfg.Debug.Verbose {
		log.Debug("recommend_trace",
			"query_text", trace.QueryText,
			"scenario", trace.QueryScenario,
			"sentiment_conflict", trace.SentimentConflict,
		)
	}

	return toResults(selected), trace, nil
}

func (e *Engine) recordStage(log *logging.Logger, stage string, in, out int, start time.Time) {
	duration := time.Since(start)
	e.metrics.RecordStage(stage, in, out, duration)
	log.LogPipelineStage(stage, in, out, duration)
}

// requestSeed derives the per-request RNG seed by mixing the configured
// base seed with the request's natural-language text and mood labels, so
// identical requests are reproducible while distinct requests diverge.
// The RNG this seeds is always request-local, never a shared global.
func requestSeed(base int64, req feature.UserRequest) int64 {
	h := int64(2166136261)
	mix := func(s string) {
		for _, r := range s {
			h = (h ^ int64(r)) * 16777619
		}
	}
	mix(req.NaturalQuery)
	for _, m := range req.MoodLabels {
		mix(m)
	}
	return base ^ h
}

func toFilterCandidates(hits []embedding.Hit, snapshot *catalog.Catalog) []filter.Candidate {
	out := make([]filter.Candidate, 0, len(hits))
	for _, hit := range hits {
		m, ok := snapshot.Movie(hit.MovieID)
		if !ok {
			continue
		}
		out = append(out, filter.Candidate{Movie: m, EmbeddingScore: hit.Score})
	}
	return out
}

func toScoringWeights(w config.WeightTable) scoring.WeightTable {
	conv := func(x config.Weights) scoring.Weights {
		return scoring.Weights{Embedding: x.Embedding, MatchRatio: x.MatchRatio, Feature: x.Feature}
	}
	return scoring.WeightTable{Q1: conv(w.Q1), Q2: conv(w.Q2), Q4: conv(w.Q4)}
}

func toResults(candidates []scoring.Candidate) []Result {
	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{
			Movie:          c.Movie,
			EmbeddingScore: c.EmbeddingScore,
			MatchRatio:     c.MatchRatio,
			MatchCount:     c.MatchCount,
			TotalFeatures:  c.TotalFeatures,
			Quadrant:       c.Quadrant,
			FinalScore:     c.FinalScore,
		}
	}
	return out
}

// ListMoodLabels exposes the static mood-label catalog backing the
// list_mood_labels tool, ported from the teacher's /mood-labels endpoint
// shape.
func ListMoodLabels() []mapping.MoodLabelInfo {
	return mapping.ListMoodLabels()
}
