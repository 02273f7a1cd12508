package timeutil

import (
	"fmt"
	"time"
)

// RelativeLabel renders a timestamp the way the viewer chrome displays it:
// minutes below one hour, hours below one day, days otherwise.
func RelativeLabel(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd", int(elapsed.Hours()/24))
	}
}
