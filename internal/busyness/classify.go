package busyness

import (
	"strings"

	"campuspulse/server/internal/models"
)

var peakKeywords = []string{"busiest", "most crowded", "peak time", "peak hour", "most busy"}

var timeKeywords = []string{"at", "around", "pm", "am", "o'clock"}

// ClassifyQueryType routes a free-text query to one of the two entry points:
// peak-time questions, questions about a specific clock time, or the default
// "right now" case.
func ClassifyQueryType(query string) models.QueryType {
	lower := strings.ToLower(query)

	for _, kw := range peakKeywords {
		if strings.Contains(lower, kw) {
			return models.QueryTypePeakTime
		}
	}

	if !strings.Contains(lower, "now") {
		for _, kw := range timeKeywords {
			if strings.Contains(lower, kw) {
				return models.QueryTypeSpecificTime
			}
		}
	}

	return models.QueryTypeCurrent
}
