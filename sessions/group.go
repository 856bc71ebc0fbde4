package sessions

import (
	"cmp"
	"slices"
	"time"

	"eventstream/api/models"
)

const defaultFirstPage = "/"

// SessionGroup is a derived view over the events of one session. It is
// recomputed from scratch on every call to GroupBySession.
type SessionGroup struct {
	Key        SessionKey            `json:"key"`
	SessionID  string                `json:"session_id"`
	Synthetic  bool                  `json:"synthetic"`
	Events     []models.TrackedEvent `json:"events"`
	StartTime  string                `json:"start_time"`
	EndTime    string                `json:"end_time"`
	Duration   int64                 `json:"duration"`
	EventCount int                   `json:"event_count"`
	FirstPage  string                `json:"first_page"`
	VisitorID  string                `json:"visitor_id"`
}

type timedEvent struct {
	event  models.TrackedEvent
	millis int64
	parsed bool
}

// GroupBySession buckets events by session key, orders each bucket newest
// first and returns the groups ordered by their most recent event. Events
// with a missing or unparseable client timestamp count as the Unix epoch.
//
// Every input event ends up in exactly one group. The input slice is not
// modified.
func GroupBySession(events []models.TrackedEvent) []SessionGroup {
	buckets := make(map[SessionKey][]timedEvent)
	var order []SessionKey

	for _, ev := range events {
		key := KeyFor(ev)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		millis, parsed := epochMillis(ev.ClientTimestampUTC)
		buckets[key] = append(buckets[key], timedEvent{event: ev, millis: millis, parsed: parsed})
	}

	groups := make([]SessionGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, summarize(key, buckets[key]))
	}

	slices.SortStableFunc(groups, func(a, b SessionGroup) int {
		am, _ := epochMillis(a.EndTime)
		bm, _ := epochMillis(b.EndTime)
		return cmp.Compare(bm, am)
	})
	return groups
}

func summarize(key SessionKey, bucket []timedEvent) SessionGroup {
	slices.SortStableFunc(bucket, func(a, b timedEvent) int {
		return cmp.Compare(b.millis, a.millis)
	})

	newest := bucket[0]
	oldest := bucket[len(bucket)-1]

	g := SessionGroup{
		Key:        key,
		SessionID:  key.String(),
		Synthetic:  key.IsSynthetic(),
		Events:     make([]models.TrackedEvent, len(bucket)),
		StartTime:  oldest.event.ClientTimestampUTC,
		EndTime:    newest.event.ClientTimestampUTC,
		EventCount: len(bucket),
		FirstPage:  oldest.event.PagePath,
		VisitorID:  newest.event.VisitorID,
	}
	for i, te := range bucket {
		g.Events[i] = te.event
	}
	if g.FirstPage == "" {
		g.FirstPage = defaultFirstPage
	}
	// newest sorts before oldest, so the difference is never negative.
	if newest.parsed && oldest.parsed {
		g.Duration = (newest.millis - oldest.millis) / 1000
	}
	return g
}

func epochMillis(ts string) (int64, bool) {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return 0, false
	}
	return t.UnixMilli(), true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 client timestamp. Values without a zone
// offset are read as UTC.
func ParseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
