package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventstream/api/models"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration) string {
	return base.Add(offset).Format(time.RFC3339Nano)
}

func event(id, session, visitor, page string, ts string) models.TrackedEvent {
	return models.TrackedEvent{
		EventID:            id,
		SessionID:          session,
		VisitorID:          visitor,
		PagePath:           page,
		ClientTimestampUTC: ts,
	}
}

func eventIDs(events []models.TrackedEvent) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.EventID
	}
	return ids
}

func TestGroupBySession_Scenario(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "s1", "v1", "/home", at(0)),
		event("b", "s1", "v1", "/cart", at(30*time.Second)),
		event("c", "", "v2", "/pricing", at(10*time.Second)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 2)

	s1 := groups[0]
	assert.Equal(t, "s1", s1.SessionID)
	assert.False(t, s1.Synthetic)
	assert.Equal(t, 2, s1.EventCount)
	assert.Equal(t, int64(30), s1.Duration)
	assert.Equal(t, []string{"b", "a"}, eventIDs(s1.Events))
	assert.Equal(t, at(0), s1.StartTime)
	assert.Equal(t, at(30*time.Second), s1.EndTime)
	assert.Equal(t, "/home", s1.FirstPage)
	assert.Equal(t, "v1", s1.VisitorID)

	v2 := groups[1]
	assert.Equal(t, "no-session-v2", v2.SessionID)
	assert.True(t, v2.Synthetic)
	assert.Equal(t, 1, v2.EventCount)
	assert.Equal(t, int64(0), v2.Duration)
	assert.Equal(t, "/pricing", v2.FirstPage)
}

func TestGroupBySession_Empty(t *testing.T) {
	groups := GroupBySession(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupBySession_PreservesEveryEvent(t *testing.T) {
	events := []models.TrackedEvent{
		event("1", "s1", "v1", "/", at(5*time.Second)),
		event("2", "", "v1", "/", at(3*time.Second)),
		event("3", "s2", "v2", "/", ""),
		event("4", "s1", "v1", "/", at(1*time.Second)),
		event("5", "", "v3", "/", "not a date"),
		event("6", "", "v1", "/", at(9*time.Second)),
		// identical to 1, must not be deduplicated
		event("1", "s1", "v1", "/", at(5*time.Second)),
	}

	groups := GroupBySession(events)

	seen := make(map[string]int)
	total := 0
	for _, g := range groups {
		assert.Equal(t, len(g.Events), g.EventCount)
		for _, ev := range g.Events {
			seen[ev.EventID]++
			total++
			assert.Equal(t, g.Key, KeyFor(ev), "event %s in wrong group", ev.EventID)
		}
	}
	assert.Equal(t, len(events), total)
	assert.Equal(t, 2, seen["1"])
	for _, id := range []string{"2", "3", "4", "5", "6"} {
		assert.Equal(t, 1, seen[id], id)
	}
}

func TestGroupBySession_SameSessionRegardlessOfOrder(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "s1", "v1", "/", at(0)),
		event("b", "s2", "v2", "/", at(time.Minute)),
		event("c", "s1", "v9", "/", at(2*time.Minute)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 2)
	assert.Equal(t, "s1", groups[0].SessionID)
	assert.ElementsMatch(t, []string{"a", "c"}, eventIDs(groups[0].Events))
	// visitor of the newest event wins
	assert.Equal(t, "v9", groups[0].VisitorID)
}

func TestGroupBySession_UnsessionedEventsSplitByVisitor(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "", "v1", "/", at(0)),
		event("b", "", "v2", "/", at(time.Second)),
		event("c", "", "v1", "/", at(2*time.Second)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 2)
	assert.Equal(t, "no-session-v1", groups[0].SessionID)
	assert.Equal(t, []string{"c", "a"}, eventIDs(groups[0].Events))
	assert.Equal(t, "no-session-v2", groups[1].SessionID)
}

func TestGroupBySession_RealIDNeverCollidesWithSyntheticKey(t *testing.T) {
	events := []models.TrackedEvent{
		event("real", "no-session-v1", "v7", "/", at(0)),
		event("synthetic", "", "v1", "/", at(time.Second)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 2)
	assert.Equal(t, groups[0].SessionID, groups[1].SessionID)
	assert.NotEqual(t, groups[0].Key, groups[1].Key)
}

func TestGroupBySession_EventsSortedNewestFirst(t *testing.T) {
	events := []models.TrackedEvent{
		event("missing", "s1", "v1", "/late", ""),
		event("t2", "s1", "v1", "/b", at(2*time.Minute)),
		event("bad", "s1", "v1", "/x", "yesterday"),
		event("t1", "s1", "v1", "/a", at(time.Minute)),
		event("t3", "s1", "v1", "/c", at(3*time.Minute)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 1)
	g := groups[0]

	assert.Equal(t, []string{"t3", "t2", "t1", "missing", "bad"}, eventIDs(g.Events))
	for i := 1; i < len(g.Events); i++ {
		prev, _ := epochMillis(g.Events[i-1].ClientTimestampUTC)
		cur, _ := epochMillis(g.Events[i].ClientTimestampUTC)
		assert.GreaterOrEqual(t, prev, cur)
	}

	// oldest element has no usable timestamp
	assert.Equal(t, "yesterday", g.StartTime)
	assert.Equal(t, at(3*time.Minute), g.EndTime)
	assert.Equal(t, int64(0), g.Duration)
	assert.Equal(t, "/x", g.FirstPage)
}

func TestGroupBySession_Defaults(t *testing.T) {
	groups := GroupBySession([]models.TrackedEvent{{EventID: "bare"}})
	require.Len(t, groups, 1)
	g := groups[0]

	assert.Equal(t, "no-session-", g.SessionID)
	assert.Equal(t, "", g.StartTime)
	assert.Equal(t, "", g.EndTime)
	assert.Equal(t, int64(0), g.Duration)
	assert.Equal(t, "/", g.FirstPage)
	assert.Equal(t, "", g.VisitorID)
	assert.Equal(t, 1, g.EventCount)
}

func TestGroupBySession_DurationFloorsToSeconds(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "s1", "v1", "/", at(0)),
		event("b", "s1", "v1", "/", at(90*time.Second+999*time.Millisecond)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(90), groups[0].Duration)
}

func TestGroupBySession_GroupsOrderedByEndTime(t *testing.T) {
	events := []models.TrackedEvent{
		event("old", "s-old", "v1", "/", at(0)),
		event("none", "s-none", "v2", "/", ""),
		event("new", "s-new", "v3", "/", at(time.Hour)),
		event("mid", "s-mid", "v4", "/", at(30*time.Minute)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 4)

	var order []string
	for _, g := range groups {
		order = append(order, g.SessionID)
	}
	assert.Equal(t, []string{"s-new", "s-mid", "s-old", "s-none"}, order)
}

func TestGroupBySession_MixedISOFormats(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "s1", "v1", "/", "2024-06-01T12:00:00Z"),
		event("b", "s2", "v2", "/landing", "2024-06-01T12:30:00+0000"),
		event("c", "s2", "v2", "/", "2024-06-01T14:45:00+02"),
		event("d", "s2", "v2", "/", "2024-06-01T13:00Z"),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 2)

	s2 := groups[0]
	assert.Equal(t, "s2", s2.SessionID)
	assert.Equal(t, []string{"d", "c", "b"}, eventIDs(s2.Events))
	assert.Equal(t, "2024-06-01T13:00Z", s2.EndTime)
	assert.Equal(t, "2024-06-01T12:30:00+0000", s2.StartTime)
	assert.Equal(t, int64(30*60), s2.Duration)
	assert.Equal(t, "/landing", s2.FirstPage)
	assert.Equal(t, "s1", groups[1].SessionID)
}

// Pre-1970 timestamps are negative and so sort after missing ones, which
// count as the epoch itself.
func TestGroupBySession_PreEpochSortsAfterMissing(t *testing.T) {
	events := []models.TrackedEvent{
		event("pre", "s1", "v1", "/", "1969-12-31T23:59:00Z"),
		event("missing", "s1", "v1", "/", ""),
		event("now", "s1", "v1", "/", at(0)),
	}

	groups := GroupBySession(events)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"now", "missing", "pre"}, eventIDs(groups[0].Events))
	assert.Equal(t, "1969-12-31T23:59:00Z", groups[0].StartTime)
}

func TestGroupBySession_DoesNotMutateInput(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "s1", "v1", "/", at(0)),
		event("b", "s1", "v1", "/", at(time.Second)),
	}
	snapshot := append([]models.TrackedEvent(nil), events...)

	GroupBySession(events)
	assert.Equal(t, snapshot, events)
}

func TestGroupBySession_Idempotent(t *testing.T) {
	events := []models.TrackedEvent{
		event("a", "s1", "v1", "/", at(0)),
		event("b", "", "v2", "/", at(time.Second)),
		event("c", "s1", "v1", "/", at(2*time.Second)),
		event("d", "s3", "v3", "/", ""),
	}

	assert.Equal(t, GroupBySession(events), GroupBySession(events))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"rfc3339", "2024-06-01T12:00:00Z", base, true},
		{"fractional", "2024-06-01T12:00:00.250Z", base.Add(250 * time.Millisecond), true},
		{"offset", "2024-06-01T14:00:00+02:00", base, true},
		{"minute precision utc", "2024-06-01T12:00Z", base, true},
		{"minute precision offset", "2024-06-01T14:00+02:00", base, true},
		{"basic offset", "2024-06-01T12:00:00.5+0000", base.Add(500 * time.Millisecond), true},
		{"basic offset no fraction", "2024-06-01T13:30:00+0130", base, true},
		{"hour offset", "2024-06-01T14:00:00+02", base, true},
		{"no zone", "2024-06-01T12:00:00", base, true},
		{"date only", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "soon", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}
