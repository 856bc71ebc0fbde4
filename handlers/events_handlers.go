package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventstream/api/logging"
	"eventstream/api/metrics"
	"eventstream/api/models"
	"eventstream/api/sessions"
	"eventstream/api/utils"
)

// recentEvents loads the newest page of events for the live stream, writing
// the error response itself when it fails.
func (h *AnalyticsHandlers) recentEvents(c *gin.Context) ([]models.TrackedEvent, bool) {
	limit, err := utils.ParseLimit(c.Query("limit"), h.recentLimit, h.maxRecentLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	events, err := h.Store.GetRecentEvents(ctx, limit)
	if err != nil {
		h.queryFailed(c, err, "recent events")
		return nil, false
	}
	return events, true
}

func (h *AnalyticsHandlers) GetRecentEvents(c *gin.Context) {
	events, ok := h.recentEvents(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GetRecentSessions groups the newest events by session. The expanded query
// parameter lists the session keys whose events should be included.
func (h *AnalyticsHandlers) GetRecentSessions(c *gin.Context) {
	events, ok := h.recentEvents(c)
	if !ok {
		return
	}

	expanded := sessions.ParseExpanded(c.Query("expanded"))
	groups := sessions.GroupBySession(events)
	views := sessions.BuildView(groups, expanded)
	metrics.SessionsPerResponse.Observe(float64(len(views)))

	log := logging.With("sessions")
	log.Debug().
		Int("events", len(events)).
		Int("sessions", len(views)).
		Int("expanded", len(expanded)).
		Msg("grouped recent events")

	c.JSON(http.StatusOK, gin.H{
		"sessions":    views,
		"event_count": len(events),
	})
}
