// Package timefmt renders short relative durations for list views.
package timefmt

import (
	"fmt"
	"time"
)

// Ago formats d as whole days, hours, minutes, or seconds, using the largest
// unit that is at least one: "3 d", "5 h", "12 min", "40 sec".
func Ago(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	mins := secs / 60
	hours := mins / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%d d", days)
	case hours > 0:
		return fmt.Sprintf("%d h", hours)
	case mins > 0:
		return fmt.Sprintf("%d min", mins)
	default:
		return fmt.Sprintf("%d sec", secs)
	}
}
