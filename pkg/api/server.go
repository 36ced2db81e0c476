// Package api serves trips and guide generation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/metrics"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
)

// Generator runs one guide generation.
type Generator interface {
	Execute(ctx context.Context, run orchestrator.Run) (*models.Guide, error)
}

// Server is the Wayfarer HTTP API.
type Server struct {
	cfg       *config.Config
	gen       Generator
	trips     trips.Store
	broker    progress.Broker
	mux       *http.ServeMux
	handler   http.Handler
	heartbeat time.Duration
}

// New creates a Server. broker may be nil, which disables the websocket relay.
func New(cfg *config.Config, gen Generator, store trips.Store, broker progress.Broker) *Server {
	s := &Server{
		cfg:       cfg,
		gen:       gen,
		trips:     store,
		broker:    broker,
		mux:       http.NewServeMux(),
		heartbeat: 15 * time.Second,
	}
	s.mux.HandleFunc("POST /v1/trips", s.handleCreateTrip)
	s.mux.HandleFunc("GET /v1/trips", s.handleListTrips)
	s.mux.HandleFunc("GET /v1/trips/{id}", s.handleGetTrip)
	s.mux.HandleFunc("POST /v1/trips/{id}/guide", s.handleGenerate)
	s.mux.HandleFunc("GET /v1/trips/{id}/guide/stream", s.handleGenerateStream)
	s.mux.HandleFunc("GET /v1/runs/{runID}/ws", s.handleRunSocket)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.handler = metrics.Middleware(s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("wayfarer api listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// generate runs the orchestrator for rec and records the outcome on the trip.
func (s *Server) generate(ctx context.Context, rec models.TripRecord, runID string, sink progress.Sink) (*models.Guide, error) {
	sinks := progress.MultiSink{sink}
	if s.broker != nil {
		sinks = append(sinks, progress.NewBrokerSink(s.broker, func(err error) {
			log.Printf("progress publish error: %v", err)
		}))
	}

	g, err := s.gen.Execute(ctx, orchestrator.Run{
		ID:      runID,
		TripID:  rec.ID,
		Request: rec.Request,
		Sink:    sinks,
		Timeout: s.cfg.Generation.Timeout,
	})

	saveCtx := context.WithoutCancel(ctx)
	var gerr *orchestrator.GenerationError
	switch {
	case err == nil:
		if serr := s.trips.SaveGuide(saveCtx, rec.ID, g); serr != nil {
			log.Printf("save guide for trip %s: %v", rec.ID, serr)
		}
	case errors.As(err, &gerr):
		summary := models.FailureSummary{RunID: gerr.RunID, Classification: string(gerr.Classification), Missing: gerr.Missing}
		if serr := s.trips.SaveFailure(saveCtx, rec.ID, summary); serr != nil {
			log.Printf("save failure for trip %s: %v", rec.ID, serr)
		}
	}
	return g, err
}

// statusFor maps a generation error to an HTTP status.
func statusFor(err error) int {
	var gerr *orchestrator.GenerationError
	if !errors.As(err, &gerr) {
		return http.StatusInternalServerError
	}
	switch gerr.Classification {
	case orchestrator.ClassInvalidRequest:
		return http.StatusBadRequest
	case orchestrator.ClassTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusUnprocessableEntity
	}
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type generationFailure struct {
	Error           errorBody             `json:"error"`
	RunID           string                `json:"run_id,omitempty"`
	MissingSections []models.SectionIssue `json:"missing_sections,omitempty"`
}

func failureBody(err error) generationFailure {
	code := statusFor(err)
	var gerr *orchestrator.GenerationError
	if errors.As(err, &gerr) {
		msg := "guide could not be generated"
		if gerr.Classification == orchestrator.ClassInvalidRequest && gerr.Err != nil {
			msg = gerr.Err.Error()
		}
		return generationFailure{
			Error:           errorBody{Message: msg, Type: string(gerr.Classification), Code: code},
			RunID:           gerr.RunID,
			MissingSections: gerr.Missing,
		}
	}
	return generationFailure{Error: errorBody{Message: "internal error", Type: "wayfarer_error", Code: code}}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"wayfarer_error","code":%d}}`, message, code)
}
