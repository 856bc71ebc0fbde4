// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventstream/api/logging"
	"eventstream/api/metrics"
	"eventstream/api/models"
	"eventstream/api/store"
	"eventstream/api/utils"
)

const (
	insertTimeout = 15 * time.Second
	queryTimeout  = 10 * time.Second
)

type AnalyticsHandlers struct {
	Store EventStore
	now   func() time.Time

	recentLimit    uint64
	maxRecentLimit uint64
}

func NewAnalyticsHandlers(s EventStore, recentLimit, maxRecentLimit uint64) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		Store:          s,
		now:            time.Now,
		recentLimit:    recentLimit,
		maxRecentLimit: maxRecentLimit,
	}
}

// TrackEvent ingests a JSON array of events. Each event gets a fresh id, the
// caller's IP and the server receive time; the client timestamp is kept as sent.
func (h *AnalyticsHandlers) TrackEvent(c *gin.Context) {
	var incomingEvents []models.TrackedEvent
	if err := c.ShouldBindJSON(&incomingEvents); err != nil {
		logging.Warn().Err(err).Msg("binding tracked events")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(incomingEvents) == 0 {
		c.Status(http.StatusOK)
		return
	}

	receivedAt := h.now().UTC()
	clientIP := c.ClientIP()
	userAgent := c.Request.UserAgent()

	eventsToInsert := make([]models.TrackedEvent, 0, len(incomingEvents))
	for _, event := range incomingEvents {
		event.EventID = uuid.New().String()
		event.IPAddress = clientIP
		event.ReceivedAt = receivedAt
		if event.UserAgent == "" {
			event.UserAgent = userAgent
		}
		eventsToInsert = append(eventsToInsert, event)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), insertTimeout)
	defer cancel()

	if err := h.Store.InsertAnalyticsEvents(ctx, eventsToInsert); err != nil {
		logging.Error().Err(err).Int("count", len(eventsToInsert)).Msg("inserting tracked events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record analytics events"})
		return
	}

	metrics.EventsIngested.Add(float64(len(eventsToInsert)))
	c.Status(http.StatusOK)
}

// timeRange parses start/end query params, writing a 400 and returning false
// when they are malformed.
func (h *AnalyticsHandlers) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, end, err := utils.ParseTimeRange(c.Query("start"), c.Query("end"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *AnalyticsHandlers) queryFailed(c *gin.Context, err error, what string) {
	if errors.Is(err, store.ErrInvalidInterval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logging.Error().Err(err).Str("query", what).Msg("analytics query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve " + what})
}

func (h *AnalyticsHandlers) GetEventCountsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	results, err := h.Store.GetEventCountsOverTime(ctx, interval, start, end, c.Query("eventType"))
	if err != nil {
		h.queryFailed(c, err, "event statistics")
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetAverageEventDuration(c *gin.Context) {
	eventTypeFilter := c.Query("eventType")
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	avgDuration, err := h.Store.GetAverageEventDuration(ctx, eventTypeFilter, start, end)
	if err != nil {
		h.queryFailed(c, err, "average event duration statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eventType":         eventTypeFilter,
		"startDate":         start.Format(time.RFC3339),
		"endDate":           end.Format(time.RFC3339),
		"averageDurationMs": avgDuration,
	})
}

func (h *AnalyticsHandlers) GetAverageCustomEventParameter(c *gin.Context) {
	eventTypeFilter := c.Query("eventType")
	paramName := c.Query("paramName")

	if eventTypeFilter == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType query parameter is required"})
		return
	}
	if paramName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramName query parameter is required (e.g., 'revenue', 'score')"})
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	avgValue, err := h.Store.GetAverageCustomEventParameter(ctx, eventTypeFilter, paramName, start, end)
	if err != nil {
		h.queryFailed(c, err, "average custom event parameter statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eventType":    eventTypeFilter,
		"paramName":    paramName,
		"startDate":    start.Format(time.RFC3339),
		"endDate":      end.Format(time.RFC3339),
		"averageValue": avgValue,
	})
}

func (h *AnalyticsHandlers) GetUniqueUsersOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	results, err := h.Store.GetUniqueUsersOverTime(ctx, interval, start, end)
	if err != nil {
		h.queryFailed(c, err, "unique user statistics")
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetTopNPagePaths(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	limit, err := utils.ParseLimit(c.Query("limit"), 10, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	results, err := h.Store.GetTopNPagePaths(ctx, start, end, limit)
	if err != nil {
		h.queryFailed(c, err, "top page paths statistics")
		return
	}

	c.JSON(http.StatusOK, results)
}
