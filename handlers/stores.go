package handlers

import (
	"context"
	"time"

	"eventstream/api/models"
)

// EventStore is the ClickHouse-backed event store the analytics handlers read
// from and write to.
type EventStore interface {
	InsertAnalyticsEvents(ctx context.Context, events []models.TrackedEvent) error
	GetRecentEvents(ctx context.Context, limit uint64) ([]models.TrackedEvent, error)
	GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventTypeFilter string) ([]models.EventTypeCountByTime, error)
	GetAverageEventDuration(ctx context.Context, eventTypeFilter string, start, end time.Time) (float64, error)
	GetAverageCustomEventParameter(ctx context.Context, eventTypeFilter, paramName string, start, end time.Time) (float64, error)
	GetUniqueUsersOverTime(ctx context.Context, interval string, start, end time.Time) ([]models.EventTypeCountByTime, error)
	GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, email string, hashedPassword []byte) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	Generate(user *models.User) (string, error)
	TTL() time.Duration
}

// Pinger is anything the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}
