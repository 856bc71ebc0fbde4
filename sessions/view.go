package sessions

import (
	"strings"

	"eventstream/api/models"
)

// ExpandedSet holds the sessions a viewer has opened. It belongs to the
// caller; GroupBySession never reads or writes it.
type ExpandedSet map[SessionKey]struct{}

// ParseExpanded reads a comma-separated list of key tokens. Blank and
// malformed entries are skipped.
func ParseExpanded(raw string) ExpandedSet {
	set := make(ExpandedSet)
	for _, token := range strings.Split(raw, ",") {
		key, err := ParseKey(token)
		if err != nil {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

func (s ExpandedSet) Contains(key SessionKey) bool {
	_, ok := s[key]
	return ok
}

// SessionView is the display record for one session row.
type SessionView struct {
	Key           SessionKey            `json:"key"`
	SessionID     string                `json:"session_id"`
	Synthetic     bool                  `json:"synthetic"`
	VisitorID     string                `json:"visitor_id"`
	FirstPage     string                `json:"first_page"`
	StartTime     string                `json:"start_time"`
	EndTime       string                `json:"end_time"`
	Duration      int64                 `json:"duration"`
	DurationLabel string                `json:"duration_label"`
	EventCount    int                   `json:"event_count"`
	Expanded      bool                  `json:"expanded"`
	Events        []models.TrackedEvent `json:"events,omitempty"`
}

// BuildView turns groups into display rows, in the same order. Only rows
// whose key is in expanded carry their events.
func BuildView(groups []SessionGroup, expanded ExpandedSet) []SessionView {
	views := make([]SessionView, 0, len(groups))
	for _, g := range groups {
		v := SessionView{
			Key:           g.Key,
			SessionID:     g.SessionID,
			Synthetic:     g.Synthetic,
			VisitorID:     g.VisitorID,
			FirstPage:     g.FirstPage,
			StartTime:     g.StartTime,
			EndTime:       g.EndTime,
			Duration:      g.Duration,
			DurationLabel: FormatDuration(g.Duration),
			EventCount:    g.EventCount,
			Expanded:      expanded.Contains(g.Key),
		}
		if v.Expanded {
			v.Events = g.Events
		}
		views = append(views, v)
	}
	return views
}
