// Package simulation exposes the engine over HTTP: a run endpoint, a
// server-sent-event progress stream and a snapshot polling endpoint for
// clients that cannot hold an SSE connection.
package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fiscalsim/pkg/core/calendar"
	"fiscalsim/pkg/core/engine"
	"fiscalsim/pkg/core/progress"
	"fiscalsim/pkg/models"
)

// RunRequest is the body of POST /api/simulations/run.
type RunRequest struct {
	Config          models.FiscalConfig     `json:"config"`
	Company         models.Company          `json:"company"`
	RevenuePatterns []models.RevenuePattern `json:"revenuePatterns"`
	ExpensePatterns []models.ExpensePattern `json:"expensePatterns"`
}

// Handler wires the simulation endpoints.
type Handler struct {
	runner *engine.Runner
	hub    *progress.Hub
	log    *logrus.Logger
}

// NewHandler creates a handler around a runner and a progress hub.
func NewHandler(runner *engine.Runner, hub *progress.Hub, log *logrus.Logger) *Handler {
	return &Handler{runner: runner, hub: hub, log: log}
}

// Register mounts the routes on a gin group.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/simulations/run", h.handleRun)
	r.GET("/api/simulations/:id/stream", h.handleStream)
	r.GET("/api/simulations/:id/snapshot", h.handleSnapshot)
	r.GET("/api/holidays", h.handleHolidays)
}

// handleRun starts a simulation asynchronously and returns its id. The
// caller follows progress on the stream or snapshot endpoints.
func (h *Handler) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	simID := uuid.NewString()
	b := h.hub.Create(simID)

	go func() {
		_, err := h.runner.Run(context.Background(), req.Config, req.Company,
			req.RevenuePatterns, req.ExpensePatterns,
			engine.Options{SimulationID: simID, Broadcaster: b})
		if err != nil && !b.Done() {
			// Validation errors return before the first snapshot; make
			// sure stream watchers still see a terminal event.
			b.Fail(progress.Snapshot{}, err.Error())
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"simulationId": simID})
}

// handleStream attaches an SSE subscriber to a simulation. One JSON
// object per event; the stream closes after the terminal event.
func (h *Handler) handleStream(c *gin.Context) {
	b, ok := h.hub.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation id"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	events, cancel := b.Subscribe()
	defer cancel()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.WithError(err).Warn("failed to marshal stream event")
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()
			if ev.Type == progress.EventCompleted || ev.Type == progress.EventError {
				return
			}
		}
	}
}

// handleSnapshot returns the latest snapshot of a simulation.
func (h *Handler) handleSnapshot(c *gin.Context) {
	b, ok := h.hub.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown simulation id"})
		return
	}
	s := b.Latest()
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// handleHolidays lists the holiday set for ?year=YYYY&region=FR-67.
func (h *Handler) handleHolidays(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid year parameter"})
		return
	}
	region := c.DefaultQuery("region", calendar.RegionDefault)

	set := calendar.ForYear(year, region)
	type holiday struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}
	out := make([]holiday, 0, len(set))
	for date, name := range set {
		out = append(out, holiday{Date: date, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	c.JSON(http.StatusOK, gin.H{"year": year, "region": region, "holidays": out})
}
