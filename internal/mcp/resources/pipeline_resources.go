// Package resources implements the MCP resource handlers surfacing
// read-only introspection data, grounded on the teacher's
// internal/mcp/resources/database_resources.go shape (a Resource
// descriptor plus a Handle* function returning JSON text content).
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"movie-recommend-engine/pkg/metrics"
)

// PipelineResources handles the pipeline_stats resource.
type PipelineResources struct {
	metrics *metrics.Metrics
}

// NewPipelineResources creates a new pipeline resources handler.
func NewPipelineResources(m *metrics.Metrics) *PipelineResources {
	return &PipelineResources{metrics: m}
}

// PipelineStatsResource returns the pipeline_stats resource definition:
// system-info introspection narrowed to the pipeline's own per-stage
// counters; the legacy four-quadrant fields are not ported.
func (pr *PipelineResources) PipelineStatsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         "recommend://pipeline/stats",
		Name:        "Pipeline Stats",
		Description: "Per-stage candidate-count and latency statistics for the recommendation pipeline",
		MIMEType:    "application/json",
	}
}

// HandlePipelineStats handles the recommend://pipeline/stats resource request.
func (pr *PipelineResources) HandlePipelineStats(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	summary := pr.metrics.GetSummary()

	statsJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline stats to JSON: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      "recommend://pipeline/stats",
				MIMEType: "application/json",
				Text:     string(statsJSON),
			},
		},
	}, nil
}
