package service

import (
	"fmt"
	"time"
)

var agoUnits = []struct {
	name    string
	seconds int64
}{
	{"year", 12 * 30 * 24 * 60 * 60},
	{"month", 30 * 24 * 60 * 60},
	{"day", 24 * 60 * 60},
	{"hour", 60 * 60},
	{"minute", 60},
	{"second", 1},
}

var timeLayouts = []string{time.RFC3339, time.DateTime}

// TimeAgo describes how long before now the timestamp was, in its largest
// whole unit: "3 days ago", "1 hour ago". Unparseable input is returned as is.
func TimeAgo(timestamp string, now time.Time) string {
	var t time.Time
	var err error
	for _, layout := range timeLayouts {
		if t, err = time.Parse(layout, timestamp); err == nil {
			break
		}
	}
	if err != nil {
		return timestamp
	}

	delta := int64(now.Sub(t) / time.Second)
	for _, u := range agoUnits {
		n := delta / u.seconds
		if n < 1 {
			continue
		}
		if n > 1 {
			return fmt.Sprintf("%d %ss ago", n, u.name)
		}
		return fmt.Sprintf("1 %s ago", u.name)
	}
	return "A moment ago"
}
