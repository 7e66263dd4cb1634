package utils

import (
	"fmt"
	"time"
)

// GetUserLevel returns a tier name and icon for a lifetime karma total.
func GetUserLevel(karma int) (name string, icon string) {
	switch {
	case karma >= 1000:
		return "Legend", "🏆"
	case karma >= 200:
		return "Regular", "🔥"
	case karma >= 50:
		return "Contributor", "🌿"
	case karma >= 10:
		return "Newcomer", "🌾"
	default:
		return "Lurker", "🌱"
	}
}

// TimeAgo renders t relative to now, e.g. "5m ago".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
