package tokens

import (
	"fmt"
	"time"
)

// FormatRemaining renders the distance between now and expiry as
// "expires in {d}d {h}h {m}m {s}s", or "expired ... ago" when in the past.
func FormatRemaining(now, expiry time.Time) string {
	remaining := expiry.Sub(now)
	if remaining < 0 {
		return fmt.Sprintf("expired %s ago", formatSpan(-remaining))
	}
	return fmt.Sprintf("expires in %s", formatSpan(remaining))
}

func formatSpan(d time.Duration) string {
	seconds := int64(d / time.Second)
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, secs)
}
