package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req models.TripRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.trips.Create(r.Context(), req)
	if err != nil {
		log.Printf("create trip: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create trip")
		return
	}
	w.Header().Set("Location", "/v1/trips/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	opts := trips.ListOpts{Status: models.TripStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}
	recs, err := s.trips.List(r.Context(), opts)
	if err != nil {
		log.Printf("list trips: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list trips")
		return
	}
	if recs == nil {
		recs = []models.TripRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": recs})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// lookupTrip loads the trip named by the {id} path value, writing the error
// response itself when it cannot.
func (s *Server) lookupTrip(w http.ResponseWriter, r *http.Request) (models.TripRecord, bool) {
	rec, err := s.trips.Get(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		return rec, true
	case errors.Is(err, trips.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "trip not found")
	default:
		log.Printf("get trip: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to load trip")
	}
	return models.TripRecord{}, false
}

type guideResponse struct {
	RunID string        `json:"run_id"`
	Guide *models.Guide `json:"guide"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupTrip(w, r)
	if !ok {
		return
	}

	runID := orchestrator.NewRunID()
	w.Header().Set("X-Wayfarer-Run-ID", runID)

	g, err := s.generate(r.Context(), rec, runID, progress.Discard)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Printf("generate guide for trip %s: %v", rec.ID, err)
		}
		writeJSON(w, code, failureBody(err))
		return
	}
	writeJSON(w, http.StatusOK, guideResponse{RunID: runID, Guide: g})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
