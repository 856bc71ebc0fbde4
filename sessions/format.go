package sessions

import "fmt"

// FormatDuration renders a session length for display: "45s", "2m",
// "1m 30s", "1h 1m". Seconds are dropped once the duration reaches an hour.
func FormatDuration(totalSeconds int64) string {
	switch {
	case totalSeconds < 60:
		return fmt.Sprintf("%ds", totalSeconds)
	case totalSeconds < 3600:
		minutes, seconds := totalSeconds/60, totalSeconds%60
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		hours, minutes := totalSeconds/3600, (totalSeconds%3600)/60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}
