// Command recommend-cli runs one ad-hoc recommendation from the terminal
// against the same composition root the MCP server uses, grounded on the
// stormdb example's single rootCmd-with-flags cobra idiom.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"movie-recommend-engine/internal/composition"
	"movie-recommend-engine/internal/feature"
)

func main() {
	var (
		naturalQuery string
		moodLabels   []string
		genres       []string
		eras         []string
		minRating    float64
		count        int
		asJSON       bool
	)

	rootCmd := &cobra.Command{
		Use:   "recommend-cli",
		Short: "Get movie recommendations from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			container, err := composition.NewContainer(ctx)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}
			defer container.Close()

			req := feature.UserRequest{
				NaturalQuery: naturalQuery,
				MoodLabels:   moodLabels,
				Genres:       genres,
				Eras:         eras,
				Count:        count,
			}
			if minRating > 0 {
				req.MinRating = &minRating
			}

			results, trace, err := container.Engine.Recommend(ctx, req)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"query_text": trace.QueryText,
					"scenario":   trace.QueryScenario,
					"results":    results,
				})
			}

			fmt.Printf("query: %q (scenario: %s)\n\n", trace.QueryText, trace.QueryScenario)
			for i, r := range results {
				year := 0
				if y, ok := r.Movie.ReleaseYear(); ok {
					year = y
				}
				fmt.Printf("%2d. [%s] %s (%d) - rating %.1f, score %.2f\n",
					i+1, r.Quadrant, r.Movie.Title, year, r.Movie.VoteAverage.Value(), r.FinalScore)
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&naturalQuery, "query", "q", "", "natural-language description of the desired movie")
	flags.StringSliceVarP(&moodLabels, "mood", "m", nil, "UI mood label (repeatable)")
	flags.StringSliceVarP(&genres, "genre", "g", nil, "traditional-Chinese genre label (repeatable)")
	flags.StringSliceVarP(&eras, "era", "e", nil, "decade id, e.g. 90s (repeatable)")
	flags.Float64Var(&minRating, "min-rating", 0, "minimum vote average (0-10)")
	flags.IntVarP(&count, "count", "n", 10, "number of recommendations to return")
	flags.BoolVar(&asJSON, "json", false, "emit results as JSON")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
