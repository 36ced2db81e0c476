package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wayfarer-ai/wayfarer/internal/fixtures"
	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/guide"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/orchestrator"
	"github.com/wayfarer-ai/wayfarer/pkg/progress"
	"github.com/wayfarer-ai/wayfarer/pkg/trips"
)

// fakeGenerator reports a little progress and then returns err, or a copy of
// guide stamped with the run ID.
type fakeGenerator struct {
	mu    sync.Mutex
	guide *models.Guide
	err   error
	runs  []orchestrator.Run
}

func (f *fakeGenerator) Execute(_ context.Context, run orchestrator.Run) (*models.Guide, error) {
	f.mu.Lock()
	f.runs = append(f.runs, run)
	f.mu.Unlock()

	rep := progress.NewReporter(run.ID, run.Sink, nil)
	rep.Report(progress.StartPercent, models.StageStarted, "", "started")
	rep.Report(50, models.StageSection, models.SectionEvents, "Events ready")
	if f.err != nil {
		rep.Fail(f.err.Error())
		return nil, f.err
	}
	g := *f.guide
	g.RunID = run.ID
	rep.Complete("done")
	return &g, nil
}

func parisGuide(t *testing.T) *models.Guide {
	t.Helper()
	req := fixtures.ParisRequest()
	g, err := guide.Assemble(req, fixtures.CompleteDraft(req))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func setupServer(t *testing.T, gen Generator) (*Server, trips.Store, *progress.MemoryBroker) {
	t.Helper()
	store, err := trips.NewSQLite(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Listen = ":0"
	broker := progress.NewMemoryBroker()
	return New(cfg, gen, store, broker), store, broker
}

func createTrip(t *testing.T, srv http.Handler) models.TripRecord {
	t.Helper()
	body := `{"destination":"Paris","start_date":"2025-12-12","end_date":"2025-12-17",
		"hotel":{"name":"Hotel Lutetia","lat":48.8512,"lng":2.327},
		"preferences":{"interests":["art","food"]}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/trips", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec models.TripRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestCreateAndGetTrip(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeGenerator{})
	rec := createTrip(t, srv)
	if rec.ID == "" || rec.Status != models.TripPending {
		t.Fatalf("unexpected record %+v", rec)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trips/"+rec.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got models.TripRecord
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Request.Days() != 5 {
		t.Errorf("expected 5 days, got %d", got.Request.Days())
	}
}

func TestCreateTripRejectsBadInput(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeGenerator{})
	for name, body := range map[string]string{
		"malformed":    `{"destination":`,
		"end_before":   `{"destination":"Paris","start_date":"2025-12-17","end_date":"2025-12-12"}`,
		"no_dest":      `{"start_date":"2025-12-12","end_date":"2025-12-17"}`,
		"invalid_date": `{"destination":"Paris","start_date":"12/12/2025","end_date":"2025-12-17"}`,
	} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/trips", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func TestGetUnknownTrip(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeGenerator{})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trips/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGenerateGuide(t *testing.T) {
	gen := &fakeGenerator{guide: parisGuide(t)}
	srv, store, _ := setupServer(t, gen)
	rec := createTrip(t, srv)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/trips/"+rec.ID+"/guide", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp guideResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RunID == "" || resp.RunID != w.Header().Get("X-Wayfarer-Run-ID") {
		t.Errorf("run id mismatch: body %q header %q", resp.RunID, w.Header().Get("X-Wayfarer-Run-ID"))
	}
	if len(resp.Guide.Itinerary) != 5 {
		t.Errorf("expected 5 itinerary days, got %d", len(resp.Guide.Itinerary))
	}
	if gen.runs[0].TripID != rec.ID {
		t.Errorf("expected trip id %s on run, got %s", rec.ID, gen.runs[0].TripID)
	}

	stored, _ := store.Get(context.Background(), rec.ID)
	if stored.Status != models.TripComplete || stored.Guide == nil {
		t.Errorf("expected stored guide, got %+v", stored)
	}
}

func TestGenerateFailureStatus(t *testing.T) {
	tests := []struct {
		name  string
		class orchestrator.Classification
		code  int
	}{
		{"validation", orchestrator.ClassValidationFailure, http.StatusUnprocessableEntity},
		{"timeout", orchestrator.ClassTimeout, http.StatusGatewayTimeout},
		{"invalid", orchestrator.ClassInvalidRequest, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing := []models.SectionIssue{{Section: models.SectionWeather, Reason: "provider auth error"}}
			gen := &fakeGenerator{err: &orchestrator.GenerationError{RunID: "run-x", Classification: tt.class, Missing: missing}}
			srv, store, _ := setupServer(t, gen)
			rec := createTrip(t, srv)

			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/trips/"+rec.ID+"/guide", nil))
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			var body generationFailure
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Type != string(tt.class) {
				t.Errorf("expected type %s, got %s", tt.class, body.Error.Type)
			}
			if len(body.MissingSections) != 1 || body.MissingSections[0].Section != models.SectionWeather {
				t.Errorf("unexpected missing sections %+v", body.MissingSections)
			}

			stored, _ := store.Get(context.Background(), rec.ID)
			if stored.Status != models.TripFailed || stored.Failure.Classification != string(tt.class) {
				t.Errorf("expected stored failure, got %+v", stored)
			}
		})
	}
}

func TestGenerateStream(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeGenerator{guide: parisGuide(t)})
	rec := createTrip(t, srv)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/trips/" + rec.ID + "/guide/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}

	var names []string
	var lastData string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			lastData = data
		}
	}

	if len(names) < 2 || names[len(names)-1] != "result" {
		t.Fatalf("expected progress events then result, got %v", names)
	}
	var final guideResponse
	if err := json.Unmarshal([]byte(lastData), &final); err != nil {
		t.Fatal(err)
	}
	if final.Guide == nil || final.Guide.RunID != final.RunID {
		t.Errorf("unexpected final payload %+v", final)
	}
}

func TestRunSocketRelaysUntilTerminal(t *testing.T) {
	srv, _, broker := setupServer(t, &fakeGenerator{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/runs/run-1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	_ = broker.Publish(ctx, "run-1", models.ProgressEvent{RunID: "run-1", Percent: 5, Stage: models.StageStarted})
	_ = broker.Publish(ctx, "run-2", models.ProgressEvent{RunID: "run-2", Percent: 7, Stage: models.StageSection})
	_ = broker.Publish(ctx, "run-1", models.ProgressEvent{RunID: "run-1", Percent: 100, Stage: models.StageComplete})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got []models.ProgressEvent
	for {
		var evt models.ProgressEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("unexpected read error: %v", err)
			}
			break
		}
		got = append(got, evt)
	}
	if len(got) != 2 || got[0].Percent != 5 || got[1].Percent != 100 {
		t.Errorf("unexpected relayed events %+v", got)
	}
}

func TestListTrips(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeGenerator{})
	createTrip(t, srv)
	createTrip(t, srv)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trips?status=pending", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Trips []models.TripRecord `json:"trips"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Trips) != 2 {
		t.Errorf("expected 2 trips, got %d", len(body.Trips))
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trips?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _, _ := setupServer(t, &fakeGenerator{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `wayfarer_http_requests_total{method="GET",route="GET /healthz",status="200"}`) {
		t.Error("expected healthz request in metrics output")
	}
}
