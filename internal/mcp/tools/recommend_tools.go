// Package tools implements the MCP tool handlers exposing the
// recommendation pipeline, following the teacher's
// internal/mcp/tools/compound_tools.go shape: a small struct wrapping the
// service it delegates to, typed Input/Output structs carrying jsonschema
// tags for the SDK's automatic schema generation.
package tools

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"movie-recommend-engine/internal/feature"
	"movie-recommend-engine/internal/mapping"
	"movie-recommend-engine/internal/recommend"
	"movie-recommend-engine/pkg/logging"
	"movie-recommend-engine/pkg/validation"
)

// RecommendTools provides SDK-based MCP handlers for the recommendation
// pipeline's two tools: recommend_movies and list_mood_labels.
type RecommendTools struct {
	engine    *recommend.Engine
	validator *validation.RequestValidator
	logger    *logging.Logger
}

// NewRecommendTools creates a new recommend tools instance.
func NewRecommendTools(engine *recommend.Engine, logger *logging.Logger) *RecommendTools {
	return &RecommendTools{
		engine:    engine,
		validator: validation.NewRequestValidator(),
		logger:    logger,
	}
}

// ===== recommend_movies Tool =====

// RecommendMoviesInput defines the input schema for the recommend_movies tool.
type RecommendMoviesInput struct {
	NaturalQuery string   `json:"natural_query,omitempty" jsonschema:"description=Free-text description of the kind of movie wanted"`
	MoodLabels   []string `json:"mood_labels,omitempty" jsonschema:"description=UI mood labels, e.g. 失戀, 派對"`
	Genres       []string `json:"genres,omitempty" jsonschema:"description=Traditional-Chinese genre labels"`
	Eras         []string `json:"eras,omitempty" jsonschema:"description=Decade IDs, e.g. 90s, 00s"`
	MinRating    float64  `json:"min_rating,omitempty" jsonschema:"description=Minimum vote average, 0-10"`
	Count        int      `json:"count,omitempty" jsonschema:"description=Number of recommendations to return,default=10"`
}

// RecommendMoviesOutput defines the output schema for the recommend_movies tool.
type RecommendMoviesOutput struct {
	Recommendations []MovieRecommendation `json:"recommendations" jsonschema:"description=Ranked recommended movies"`
	TotalFound      int                   `json:"total_found" jsonschema:"description=Number of recommendations returned"`
	QueryText       string                `json:"query_text" jsonschema:"description=The text synthesized for the embedding search"`
	QueryScenario   string                `json:"query_scenario" jsonschema:"description=Which of the four query-synthesis scenarios fired"`
}

// MovieRecommendation is a single ranked recommendation.
type MovieRecommendation struct {
	MovieID        int      `json:"movie_id"`
	Title          string   `json:"title"`
	Overview       string   `json:"overview"`
	Year           int      `json:"year,omitempty"`
	Rating         float64  `json:"rating"`
	Genres         []string `json:"genres"`
	EmbeddingScore float64  `json:"embedding_score"`
	MatchRatio     float64  `json:"match_ratio"`
	Quadrant       string   `json:"quadrant"`
	FinalScore     float64  `json:"final_score"`
}

// RecommendMovies handles the recommend_movies tool call: it runs the full
// seven-stage pipeline and projects the ranked results to their external
// JSON shape. Request validation is advisory only, so an unrecognized era
// or an out-of-range min_rating is logged, never rejected.
func (t *RecommendTools) RecommendMovies(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecommendMoviesInput,
) (*mcp.CallToolResult, RecommendMoviesOutput, error) {
	requestID := uuid.NewString()
	log := t.logger.WithFields(map[string]interface{}{"request_id": requestID})

	if err := t.validateInput(input); err != nil {
		log.Warn("recommend_movies_validation_warning", "error", err.Error())
	}

	userReq := feature.UserRequest{
		NaturalQuery: input.NaturalQuery,
		MoodLabels:   input.MoodLabels,
		Genres:       input.Genres,
		Eras:         input.Eras,
		Count:        input.Count,
	}
	if input.MinRating > 0 {
		userReq.MinRating = &input.MinRating
	}

	results, trace, err := t.engine.Recommend(ctx, userReq)
	if err != nil {
		return nil, RecommendMoviesOutput{}, err
	}

	out := RecommendMoviesOutput{
		Recommendations: make([]MovieRecommendation, len(results)),
		TotalFound:      len(results),
		QueryText:       trace.QueryText,
		QueryScenario:   string(trace.QueryScenario),
	}
	for i, r := range results {
		year := 0
		if y, ok := r.Movie.ReleaseYear(); ok {
			year = y
		}
		out.Recommendations[i] = MovieRecommendation{
			MovieID:        r.Movie.ID.Value(),
			Title:          r.Movie.Title,
			Overview:       r.Movie.Overview,
			Year:           year,
			Rating:         r.Movie.VoteAverage.Value(),
			Genres:         r.Movie.Genres,
			EmbeddingScore: r.EmbeddingScore,
			MatchRatio:     r.MatchRatio,
			Quadrant:       string(r.Quadrant),
			FinalScore:     r.FinalScore,
		}
	}

	return nil, out, nil
}

func (t *RecommendTools) validateInput(input RecommendMoviesInput) error {
	args := map[string]interface{}{"natural_query": input.NaturalQuery}
	if len(input.Eras) > 0 {
		list := make([]interface{}, len(input.Eras))
		for i, e := range input.Eras {
			list[i] = e
		}
		args["eras"] = list
	}
	if input.MinRating > 0 {
		args["min_rating"] = input.MinRating
	}
	if input.Count > 0 {
		args["count"] = input.Count
	}
	return t.validator.ValidateUserRequest(args)
}

// ===== list_mood_labels Tool =====

// ListMoodLabelsInput takes no parameters; the mood-label table is static.
type ListMoodLabelsInput struct{}

// ListMoodLabelsOutput defines the output schema for the list_mood_labels tool.
type ListMoodLabelsOutput struct {
	MoodLabels []MoodLabelEntry `json:"mood_labels" jsonschema:"description=Every UI mood label with its category and description"`
}

// MoodLabelEntry is one row of the UI mood-label table, ported from the
// teacher's /mood-labels endpoint shape.
type MoodLabelEntry struct {
	Label       string `json:"label"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ListMoodLabels handles the list_mood_labels tool call.
func (t *RecommendTools) ListMoodLabels(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListMoodLabelsInput,
) (*mcp.CallToolResult, ListMoodLabelsOutput, error) {
	labels := mapping.ListMoodLabels()
	out := ListMoodLabelsOutput{MoodLabels: make([]MoodLabelEntry, len(labels))}
	for i, l := range labels {
		out.MoodLabels[i] = MoodLabelEntry{Label: l.Label, Category: l.Category, Description: l.Description}
	}
	return nil, out, nil
}
