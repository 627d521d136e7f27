package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// recentDays is the window of the recent_workouts resource.
const recentDays = 14

func (h *handlers) templatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	templates, err := h.ds.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, newTemplateViews(templates))
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	today, err := h.ds.Today(ctx)
	if err != nil {
		return nil, err
	}

	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		return nil, err
	}

	views := filterWorkouts(workouts, "", today.AddDays(-recentDays), today, len(workouts))
	return jsonResource(req.Params.URI, views)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
