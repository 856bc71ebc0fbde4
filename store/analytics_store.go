// api/store/analytics_store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"eventstream/api/database"
	"eventstream/api/logging"
	"eventstream/api/models"
	"eventstream/api/utils"
)

var ErrInvalidInterval = errors.New("invalid interval")

type AnalyticsStore struct {
	DB *database.ClickHouseClient
}

func NewAnalyticsStore(chClient *database.ClickHouseClient) *AnalyticsStore {
	return &AnalyticsStore{
		DB: chClient,
	}
}

func (s *AnalyticsStore) InsertAnalyticsEvents(ctx context.Context, events []models.TrackedEvent) error {
	if len(events) == 0 {
		return nil
	}

	// Column order must match the analytics_events schema.
	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO analytics_events (
			event_id, event_type, session_id, visitor_id, page_path, client_timestamp_utc,
			timestamp, referrer, user_agent, ip_address, duration_ms, event_data
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, event := range events {
		err := batch.Append(
			event.EventID,
			event.EventType,
			event.SessionID,
			event.VisitorID,
			event.PagePath,
			event.ClientTimestampUTC,
			event.ReceivedAt,
			event.Referrer,
			event.UserAgent,
			event.IPAddress,
			event.DurationMs,
			string(event.EventData),
		)
		if err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append event %s to batch: %w", event.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	logging.Debug().Int("count", len(events)).Msg("inserted analytics events")
	return nil
}

// GetRecentEvents returns the newest events by server receive time.
func (s *AnalyticsStore) GetRecentEvents(ctx context.Context, limit uint64) ([]models.TrackedEvent, error) {
	rows, err := s.DB.Conn.Query(ctx, `
		SELECT event_id, event_type, session_id, visitor_id, page_path, client_timestamp_utc,
			timestamp, referrer, user_agent, ip_address, duration_ms, event_data
		FROM analytics_events
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	results := make([]models.TrackedEvent, 0, limit)
	for rows.Next() {
		var (
			ev        models.TrackedEvent
			eventData string
		)
		if err := rows.Scan(
			&ev.EventID,
			&ev.EventType,
			&ev.SessionID,
			&ev.VisitorID,
			&ev.PagePath,
			&ev.ClientTimestampUTC,
			&ev.ReceivedAt,
			&ev.Referrer,
			&ev.UserAgent,
			&ev.IPAddress,
			&ev.DurationMs,
			&eventData,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recent event: %w", err)
		}
		if eventData != "" && json.Valid([]byte(eventData)) {
			ev.EventData = json.RawMessage(eventData)
		}
		results = append(results, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for recent events: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventTypeFilter string) ([]models.EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	args := []any{start, end}
	selectCols := fmt.Sprintf("toStartOf%s(timestamp) as time_bucket, count() as total_events", interval)
	groupByCols := "time_bucket"
	whereClause := "WHERE timestamp >= ? AND timestamp <= ?"
	orderByCols := "time_bucket ASC"
	isFilteringByType := eventTypeFilter != ""

	if isFilteringByType {
		selectCols += ", event_type"
		groupByCols += ", event_type"
		whereClause += " AND event_type = ?"
		args = append(args, eventTypeFilter)
		orderByCols += ", event_type ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM analytics_events
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	results := []models.EventTypeCountByTime{}
	for rows.Next() {
		var (
			timeBucket  time.Time
			count       uint64
			eventTypeDB string
			current     models.EventTypeCountByTime
		)

		if isFilteringByType {
			if err := rows.Scan(&timeBucket, &count, &eventTypeDB); err != nil {
				return nil, fmt.Errorf("failed to scan event count row: %w", err)
			}
			current.EventType = &eventTypeDB
		} else if err := rows.Scan(&timeBucket, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count row: %w", err)
		}

		current.Time = timeBucket
		current.Count = count
		results = append(results, current)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetAverageEventDuration(ctx context.Context, eventTypeFilter string, start, end time.Time) (float64, error) {
	query := `SELECT avg(duration_ms) FROM analytics_events WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{start, end}

	if eventTypeFilter != "" {
		query += ` AND event_type = ?`
		args = append(args, eventTypeFilter)
	}

	var avgDuration float64
	if err := s.DB.Conn.QueryRow(ctx, query, args...).Scan(&avgDuration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query average event duration: %w", err)
	}

	return zeroIfNaN(avgDuration), nil
}

func (s *AnalyticsStore) GetAverageCustomEventParameter(ctx context.Context, eventTypeFilter, paramName string, start, end time.Time) (float64, error) {
	if paramName == "" {
		return 0, fmt.Errorf("parameter name for average calculation cannot be empty")
	}

	// The parameter name is bound as an argument, never spliced into SQL.
	query := `
		SELECT avg(JSONExtractFloat(event_data, ?))
		FROM analytics_events
		WHERE event_type = ? AND timestamp >= ? AND timestamp <= ?
	`

	var avgValue float64
	err := s.DB.Conn.QueryRow(ctx, query, paramName, eventTypeFilter, start, end).Scan(&avgValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query average of custom event parameter '%s': %w", paramName, err)
	}

	// avg over zero rows is NaN, which encoding/json refuses.
	return zeroIfNaN(avgValue), nil
}

func (s *AnalyticsStore) GetUniqueUsersOverTime(ctx context.Context, interval string, start, end time.Time) ([]models.EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	query := fmt.Sprintf(`
		SELECT toStartOf%s(timestamp) AS time_bucket, uniq(visitor_id) AS unique_users
		FROM analytics_events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval)

	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique users over time: %w", err)
	}
	defer rows.Close()

	results := []models.EventTypeCountByTime{}
	for rows.Next() {
		var timeBucket time.Time
		var uniqueUsers uint64
		if err := rows.Scan(&timeBucket, &uniqueUsers); err != nil {
			return nil, fmt.Errorf("failed to scan unique users row: %w", err)
		}
		results = append(results, models.EventTypeCountByTime{
			Time:  timeBucket,
			Count: uniqueUsers,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for unique users: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT page_path, count() as view_count
		FROM analytics_events
		WHERE event_type = 'page_view' AND timestamp >= ? AND timestamp <= ?
		GROUP BY page_path
		ORDER BY view_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	results := []models.TopPathResult{}
	for rows.Next() {
		var pagePath string
		var count uint64
		if err := rows.Scan(&pagePath, &count); err != nil {
			return nil, fmt.Errorf("failed to scan top page path row: %w", err)
		}
		results = append(results, models.TopPathResult{
			PagePath: pagePath,
			Count:    count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top page paths: %w", err)
	}

	return results, nil
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
