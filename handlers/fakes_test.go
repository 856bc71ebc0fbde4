package handlers

import (
	"context"
	"errors"
	"time"

	"eventstream/api/models"
	"eventstream/api/store"
)

type fakeEventStore struct {
	inserted    []models.TrackedEvent
	insertErr   error
	recent      []models.TrackedEvent
	recentErr   error
	recentLimit uint64
	countsErr   error
	topLimit    uint64
	counts      []models.EventTypeCountByTime
}

func (f *fakeEventStore) InsertAnalyticsEvents(_ context.Context, events []models.TrackedEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, events...)
	return nil
}

func (f *fakeEventStore) GetRecentEvents(_ context.Context, limit uint64) ([]models.TrackedEvent, error) {
	f.recentLimit = limit
	return f.recent, f.recentErr
}

func (f *fakeEventStore) GetEventCountsOverTime(_ context.Context, interval string, _, _ time.Time, _ string) ([]models.EventTypeCountByTime, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.counts, nil
}

func (f *fakeEventStore) GetAverageEventDuration(context.Context, string, time.Time, time.Time) (float64, error) {
	return 1250, nil
}

func (f *fakeEventStore) GetAverageCustomEventParameter(context.Context, string, string, time.Time, time.Time) (float64, error) {
	return 9.5, nil
}

func (f *fakeEventStore) GetUniqueUsersOverTime(context.Context, string, time.Time, time.Time) ([]models.EventTypeCountByTime, error) {
	return f.counts, nil
}

func (f *fakeEventStore) GetTopNPagePaths(_ context.Context, _, _ time.Time, limit uint64) ([]models.TopPathResult, error) {
	f.topLimit = limit
	return []models.TopPathResult{{PagePath: "/", Count: 3}}, nil
}

type fakeUserStore struct {
	users     map[string]*models.User
	nextID    int
	lookupErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email string, hashed []byte) (*models.User, error) {
	if _, ok := f.users[email]; ok {
		return nil, store.ErrUserExists
	}
	u := &models.User{ID: f.nextID, Email: email, HashedPassword: hashed, CreatedAt: time.Now()}
	f.nextID++
	f.users[email] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var errBoom = errors.New("boom")
