package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
)

// toolCall carries the arguments of one tools/call and where to report progress.
type toolCall struct {
	args     json.RawMessage
	progress progress.Sink
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, call toolCall) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"wayfarer_generate_guide": handleGenerateGuide,
	"wayfarer_trip":           handleTrip,
	"wayfarer_cache_stats":    handleCacheStats,
	"wayfarer_audit_search":   handleAuditSearch,
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func stringListProp(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "wayfarer_generate_guide",
		Description: "Generate a travel guide for a trip. Either pass trip_id of a stored trip or describe a new trip.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"trip_id":     stringProp("ID of a stored trip (optional)"),
				"destination": stringProp("City or region, e.g. Paris"),
				"start_date":  stringProp("Arrival date in YYYY-MM-DD format"),
				"end_date":    stringProp("Departure date in YYYY-MM-DD format"),
				"hotel_name":  stringProp("Hotel name (optional)"),
				"hotel_lat":   map[string]any{"type": "number", "description": "Hotel latitude (optional)"},
				"hotel_lng":   map[string]any{"type": "number", "description": "Hotel longitude (optional)"},
				"interests":   stringListProp("Interests such as art, food, history (optional)"),
				"cuisines":    stringListProp("Preferred cuisines (optional)"),
				"pace":        stringProp("relaxed, moderate, or packed (optional)"),
				"group_type":  stringProp("solo, couple, family, or friends (optional)"),
			},
		},
	},
	{
		Name:        "wayfarer_trip",
		Description: "Show a stored trip and its latest generation outcome, or list recent trips when trip_id is omitted.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"trip_id": stringProp("Trip ID (optional)"),
				"status":  stringProp("Filter the list by pending, complete, or failed (optional)"),
			},
		},
	},
	{
		Name:        "wayfarer_cache_stats",
		Description: "Show section cache statistics (entries, hits, misses, hit rate).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "wayfarer_audit_search",
		Description: "Search the per-section generation audit log with optional filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"run_id":  stringProp("Filter by run ID (optional)"),
				"section": stringProp("Filter by section, e.g. weather (optional)"),
				"status":  stringProp("Filter by success, cache_hit, or failure (optional)"),
				"since":   stringProp("Start date in YYYY-MM-DD format (optional)"),
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

type generateArgs struct {
	TripID      string   `json:"trip_id"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	HotelName   string   `json:"hotel_name"`
	HotelLat    float64  `json:"hotel_lat"`
	HotelLng    float64  `json:"hotel_lng"`
	Interests   []string `json:"interests"`
	Cuisines    []string `json:"cuisines"`
	Pace        string   `json:"pace"`
	GroupType   string   `json:"group_type"`
}

func (a generateArgs) request() (models.TripRequest, error) {
	start, err := models.ParseDate(a.StartDate)
	if err != nil {
		return models.TripRequest{}, fmt.Errorf("invalid start_date (use YYYY-MM-DD): %w", err)
	}
	end, err := models.ParseDate(a.EndDate)
	if err != nil {
		return models.TripRequest{}, fmt.Errorf("invalid end_date (use YYYY-MM-DD): %w", err)
	}
	req := models.TripRequest{
		Destination: a.Destination,
		StartDate:   start,
		EndDate:     end,
		Preferences: models.Preferences{
			Interests: a.Interests,
			Cuisines:  a.Cuisines,
			Pace:      a.Pace,
			GroupType: a.GroupType,
		},
	}
	if a.HotelName != "" || a.HotelLat != 0 || a.HotelLng != 0 {
		req.Hotel = &models.HotelInfo{Name: a.HotelName, Lat: a.HotelLat, Lng: a.HotelLng}
	}
	return req, req.Validate()
}

func handleGenerateGuide(ctx context.Context, s *Server, call toolCall) ToolCallResult {
	if s.deps.Generator == nil {
		return textResult("Guide generation is not configured.")
	}
	var args generateArgs
	if len(call.args) > 0 {
		if err := json.Unmarshal(call.args, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}

	var rec models.TripRecord
	switch {
	case args.TripID != "":
		if s.deps.Trips == nil {
			return textResult("Trip storage is not configured.")
		}
		var err error
		if rec, err = s.deps.Trips.Get(ctx, args.TripID); err != nil {
			return errorResult("Error loading trip: " + err.Error())
		}
	default:
		req, err := args.request()
		if err != nil {
			return errorResult(err.Error())
		}
		rec = models.TripRecord{Request: req}
		if s.deps.Trips != nil {
			if rec, err = s.deps.Trips.Create(ctx, req); err != nil {
				return errorResult("Error storing trip: " + err.Error())
			}
		}
	}

	var notes []string
	sink := progress.MultiSink{
		progress.FuncSink(func(evt models.ProgressEvent) {
			if evt.Stage == models.StageSection {
				notes = append(notes, fmt.Sprintf("[%3d%%] %s", evt.Percent, evt.Message))
			}
		}),
		call.progress,
	}

	runID := orchestrator.NewRunID()
	g, err := s.deps.Generator.Execute(ctx, orchestrator.Run{
		ID:      runID,
		TripID:  rec.ID,
		Request: rec.Request,
		Sink:    sink,
		Timeout: s.deps.Timeout,
	})
	s.record(ctx, rec.ID, g, err)

	if err != nil {
		var gerr *orchestrator.GenerationError
		if errors.As(err, &gerr) {
			return errorResult(formatFailure(gerr, notes))
		}
		return errorResult("Error generating guide: " + err.Error())
	}
	return textResult(formatGuide(rec.ID, g))
}

// record stores the outcome on the trip when one was persisted.
func (s *Server) record(ctx context.Context, tripID string, g *models.Guide, err error) {
	if s.deps.Trips == nil || tripID == "" {
		return
	}
	var gerr *orchestrator.GenerationError
	switch {
	case err == nil:
		_ = s.deps.Trips.SaveGuide(ctx, tripID, g)
	case errors.As(err, &gerr):
		_ = s.deps.Trips.SaveFailure(ctx, tripID, models.FailureSummary{
			RunID:          gerr.RunID,
			Classification: string(gerr.Classification),
			Missing:        gerr.Missing,
		})
	}
}

type tripArgs struct {
	TripID string `json:"trip_id"`
	Status string `json:"status"`
}

func handleTrip(ctx context.Context, s *Server, call toolCall) ToolCallResult {
	if s.deps.Trips == nil {
		return textResult("Trip storage is not configured.")
	}
	var args tripArgs
	if len(call.args) > 0 {
		_ = json.Unmarshal(call.args, &args)
	}
	if args.TripID == "" {
		recs, err := s.deps.Trips.List(ctx, trips.ListOpts{Status: models.TripStatus(args.Status), Limit: 20})
		if err != nil {
			return errorResult("Error listing trips: " + err.Error())
		}
		return textResult(formatTrips(recs))
	}
	rec, err := s.deps.Trips.Get(ctx, args.TripID)
	if err != nil {
		return errorResult("Error loading trip: " + err.Error())
	}
	return textResult(formatTrip(rec))
}

func handleCacheStats(ctx context.Context, s *Server, _ toolCall) ToolCallResult {
	if s.deps.Cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.deps.Cache.Stats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}

type auditSearchArgs struct {
	RunID   string `json:"run_id"`
	Section string `json:"section"`
	Status  string `json:"status"`
	Since   string `json:"since"`
}

func handleAuditSearch(ctx context.Context, s *Server, call toolCall) ToolCallResult {
	if s.deps.Audit == nil {
		return textResult("Audit logging is not configured.")
	}
	var args auditSearchArgs
	if len(call.args) > 0 {
		_ = json.Unmarshal(call.args, &args)
	}

	opts := models.AuditQueryOpts{
		RunID:   args.RunID,
		Section: models.Section(strings.ToLower(args.Section)),
		Status:  models.ResultStatus(strings.ToLower(args.Status)),
		Limit:   50,
	}
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
		}
		opts.Since = t
	}

	entries, err := s.deps.Audit.Query(ctx, opts)
	if err != nil {
		return errorResult("Error searching audit log: " + err.Error())
	}
	return textResult(formatAuditEntries(entries))
}
