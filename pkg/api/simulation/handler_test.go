package simulation

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscalsim/pkg/core/engine"
	"fiscalsim/pkg/core/progress"
)

func testRouter() (*gin.Engine, *progress.Hub) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	hub := progress.NewHub(0)
	h := NewHandler(engine.NewRunner(nil, nil, log), hub, log)

	r := gin.New()
	h.Register(r)
	return r, hub
}

const runBody = `{
	"config": {"year": 2024, "fiscalStartMonth": 1, "startingBalances": {"operating": "1000"}},
	"company": {
		"id": "cmp-1", "userId": "usr-1", "name": "Boulangerie Martin",
		"legalForm": "SARL", "activitySector": "food", "capital": "10000",
		"bankPartner": "Qonto"
	},
	"revenuePatterns": [
		{"id": "sales", "name": "Sales", "amount": "12000", "frequency": "monthly", "startMonth": 1, "vatRate": 20}
	],
	"expensePatterns": []
}`

func postRun(t *testing.T, r *gin.Engine, body string) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulations/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp struct {
		SimulationID string `json:"simulationId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SimulationID)
	return resp.SimulationID
}

func waitDone(t *testing.T, hub *progress.Hub, simID string) *progress.Broadcaster {
	t.Helper()
	b, ok := hub.Get(simID)
	require.True(t, ok)
	deadline := time.Now().Add(2 * time.Second)
	for !b.Done() {
		if time.Now().After(deadline) {
			t.Fatal("simulation did not finish in time")
		}
		time.Sleep(time.Millisecond)
	}
	return b
}

func TestRunAcceptedAndCompletes(t *testing.T) {
	r, hub := testRouter()
	simID := postRun(t, r, runBody)
	b := waitDone(t, hub, simID)

	last := b.Latest()
	require.NotNil(t, last)
	assert.Equal(t, progress.StatusCompleted, last.Status)
	assert.Equal(t, 100, last.Progress)
}

func TestRunRejectsMalformedBody(t *testing.T) {
	r, _ := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/simulations/run", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunValidationFailureEndsFailed(t *testing.T) {
	r, hub := testRouter()
	// Year outside the accepted window fails validation inside the run
	// goroutine; watchers must still see a terminal failed snapshot.
	body := strings.Replace(runBody, `"year": 2024`, `"year": 1999`, 1)
	simID := postRun(t, r, body)
	b := waitDone(t, hub, simID)

	last := b.Latest()
	require.NotNil(t, last)
	assert.Equal(t, progress.StatusFailed, last.Status)
	assert.Contains(t, last.Message, "validation failed")
}

func TestStreamDeliversTerminalEvent(t *testing.T) {
	r, hub := testRouter()
	simID := postRun(t, r, runBody)
	waitDone(t, hub, simID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/"+simID+"/stream", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	require.NotEmpty(t, body)
	// Each frame is a data: line followed by a blank line.
	var lastEvent progress.Event
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &lastEvent))
	}
	assert.Equal(t, progress.EventCompleted, lastEvent.Type)
	require.NotNil(t, lastEvent.Data)
	assert.Equal(t, 100, lastEvent.Data.Progress)
}

func TestStreamUnknownSimulation(t *testing.T) {
	r, _ := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/nope/stream", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	r, hub := testRouter()
	simID := postRun(t, r, runBody)
	waitDone(t, hub, simID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/"+simID+"/snapshot", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var s progress.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, simID, s.SimulationID)
	assert.Equal(t, progress.StatusCompleted, s.Status)
}

func TestSnapshotUnknownSimulation(t *testing.T) {
	r, _ := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/nope/snapshot", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHolidaysEndpoint(t *testing.T) {
	r, _ := testRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/holidays?year=2024&region=FR-67", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Year     int    `json:"year"`
		Region   string `json:"region"`
		Holidays []struct {
			Date string `json:"date"`
			Name string `json:"name"`
		} `json:"holidays"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2024, resp.Year)
	assert.Len(t, resp.Holidays, 13)
	// Sorted by date; the year opens on Jour de l'An.
	assert.Equal(t, "2024-01-01", resp.Holidays[0].Date)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/holidays", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
