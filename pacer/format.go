package pacer

import (
	"strconv"
	"time"
)

// FormatInterval renders an interval in seconds with millisecond precision,
// the unit operators tune in.
func FormatInterval(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64) + "s"
}

