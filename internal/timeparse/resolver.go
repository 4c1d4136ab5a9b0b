// Package timeparse resolves the loose time expressions that show up in chat
// queries ("around 7pm tomorrow", "at 19:00", "now") into concrete timestamps.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LiveWindow is how far a timestamp may sit from wall-clock time and still be
// answered with a live popularity reading.
const LiveWindow = 30 * time.Minute

var clockPattern = regexp.MustCompile(`(?:\bat\b|\baround\b)?\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

// Resolver parses natural-language time expressions. Now is swappable so
// tests can pin the clock; a nil Now uses time.Now.
type Resolver struct {
	Now func() time.Time
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Current returns the resolver's view of the present moment.
func (r *Resolver) Current() time.Time {
	return r.now()
}

// Parse extracts a timestamp from free text. Recognized forms: "now",
// today/tomorrow day words, and hour[:minute] with optional am/pm. Text with
// no recognizable time expression resolves to the current time; Parse never
// fails.
func (r *Resolver) Parse(text string) time.Time {
	now := r.now()
	s := strings.ToLower(text)

	if strings.Contains(s, "now") {
		return now
	}

	dayOffset := 0
	if strings.Contains(s, "tomorrow") {
		dayOffset = 1
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return now
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 {
		hour = 23
	}
	if minute > 59 {
		minute = 59
	}

	resolved := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return resolved.AddDate(0, 0, dayOffset)
}

// IsLive reports whether t is close enough to the current time to answer with
// a live reading.
func (r *Resolver) IsLive(t time.Time) bool {
	d := t.Sub(r.now())
	if d < 0 {
		d = -d
	}
	return d <= LiveWindow
}
