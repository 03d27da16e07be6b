// Package server exposes the digest pipeline over HTTP with gin.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/contest-digest/internal/calendar"
	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/format"
	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/notifier"
	"github.com/pfrederiksen/contest-digest/internal/pipeline"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

// DeliveryFailedMessage is the plain-text body returned when the sink rejects
// the digest
const DeliveryFailedMessage = "Failed to send message to webhook"

// Runner is the pipeline surface the handlers need
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
	Build(ctx context.Context) (*pipeline.Result, error)
	Upcoming(ctx context.Context) ([]format.Contest, error)
}

// Handler serves the contest endpoints
type Handler struct {
	runner Runner
	clock  window.Clock
}

// NewHandler creates a handler around runner. A nil clock uses the system
// clock.
func NewHandler(runner Runner, clock window.Clock) *Handler {
	if clock == nil {
		clock = window.SystemClock
	}
	return &Handler{runner: runner, clock: clock}
}

// SendResponse is returned by GET /contests on success
type SendResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
	digest.Counts
}

// PreviewResponse is returned by GET /contests/preview
type PreviewResponse struct {
	RunID     string           `json:"run_id"`
	Counts    digest.Counts    `json:"counts"`
	Malformed int              `json:"malformed"`
	Sections  []digest.Section `json:"sections"`
	Text      string           `json:"text"`
}

// UpcomingResponse is returned by GET /contests/upcoming
type UpcomingResponse struct {
	Contests []format.Contest `json:"contests"`
	Total    int              `json:"total"`
}

// SendDigest runs the pipeline and delivers the digest
func (h *Handler) SendDigest(c *gin.Context) {
	res, err := h.runner.Run(c.Request.Context())
	if err != nil {
		var de *notifier.DeliveryError
		if errors.As(err, &de) {
			c.String(http.StatusInternalServerError, DeliveryFailedMessage)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SendResponse{
		Status: "sent",
		RunID:  res.RunID,
		Counts: res.Digest.Counts,
	})
}

// PreviewDigest composes the digest without delivering it. ?format=text
// returns the raw message.
func (h *Handler) PreviewDigest(c *gin.Context) {
	res, err := h.runner.Build(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, res.Digest.Text)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		RunID:     res.RunID,
		Counts:    res.Digest.Counts,
		Malformed: res.Malformed,
		Sections:  res.Digest.Sections,
		Text:      res.Digest.Text,
	})
}

// GetUpcoming lists filtered contests in the lookahead window
func (h *Handler) GetUpcoming(c *gin.Context) {
	contests, err := h.runner.Upcoming(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, UpcomingResponse{Contests: contests, Total: len(contests)})
}

// GetCalendar serves the lookahead contests as an iCalendar feed
func (h *Handler) GetCalendar(c *gin.Context) {
	contests, err := h.runner.Upcoming(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := calendar.Write(&buf, contests, h.clock()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `inline; filename="contests.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// GetHealth reports liveness
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.clock().UTC().Format(time.RFC3339),
	})
}

// GetMetrics returns the metrics snapshot
func (h *Handler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, logger.GetMetricsSnapshot())
}
