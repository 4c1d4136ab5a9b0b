package popularity

import (
	"math"
	"time"
)

// WeeklyGrid is a place's historical popularity, indexed by time.Weekday and
// hour for O(1) lookup. A day with no published histogram contributes no
// samples.
type WeeklyGrid struct {
	values  [7][24]int
	present [7]bool
}

// SetDay stores a full 24-hour histogram for one weekday, clamping each value
// into [0,100].
func (g *WeeklyGrid) SetDay(day time.Weekday, hours [24]int) {
	for h, v := range hours {
		g.values[day][h] = clampValue(v)
	}
	g.present[day] = true
}

// At returns the historical value for t's weekday and hour.
func (g *WeeklyGrid) At(t time.Time) (int, bool) {
	day := t.Weekday()
	if !g.present[day] {
		return 0, false
	}
	return g.values[day][t.Hour()], true
}

// Around averages the values in a ±windowHours band centered on t's hour,
// using whichever hours exist. Crossing midnight rolls into the neighboring
// weekday.
func (g *WeeklyGrid) Around(t time.Time, windowHours int) (int, bool) {
	base := t.Truncate(time.Hour)
	sum, count := 0, 0
	for off := -windowHours; off <= windowHours; off++ {
		v, ok := g.At(base.Add(time.Duration(off) * time.Hour))
		if !ok {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(count))), true
}

func clampValue(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
