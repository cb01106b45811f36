package main

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"movie-recommend-engine/internal/composition"
)

var (
	version = "dev-sdk"
	commit  = "none"
	date    = "unknown"
)

const name = "movie-recommend-engine"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Printf("%s version %s\n", name, version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	ctx := context.Background()

	container, err := composition.NewContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize server: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			container.Logger.Error("shutdown_error", "error", err.Error())
		}
	}()

	container.Logger.LogServerStart(version, map[string]interface{}{
		"catalog_movies":     container.Store.Load().Len(),
		"embedding_dimension": container.Store.Load().Dimension(),
	})

	server := mcp.NewServer(
		&mcp.Implementation{Name: name, Version: version},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend_movies",
		Description: "Get movie recommendations from a natural-language query and/or mood labels, blending semantic and feature-based matching",
	}, container.RecommendTools.RecommendMovies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_mood_labels",
		Description: "List every supported UI mood label with its category and description",
	}, container.RecommendTools.ListMoodLabels)

	server.AddResource(container.PipelineResources.PipelineStatsResource(), container.PipelineResources.HandlePipelineStats)

	fmt.Fprintf(os.Stderr, "%s ready - listening on stdin/stdout\n", name)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		container.Logger.LogError(err, "server_run_failed")
		os.Exit(1)
	}
}
