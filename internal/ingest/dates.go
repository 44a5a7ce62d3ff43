package ingest

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/terraincognita07/flux/internal/models"
)

const epochMillisThreshold = 1e12

// Day-first layouts precede month-first ones, so "03/04/2024" is 3 April.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05.999999",
	time.RFC3339Nano,
	"2/1/2006",
	"1/2/2006",
	"2006/1/2",
	"2-1-2006",
	"2.1.2006",
}

// ResolveDate turns a date-like export value into a UTC calendar date.
// Integers are Unix epochs: milliseconds above 10^12, seconds otherwise.
// Anything unrecognised yields false; it never fails harder than that.
func ResolveDate(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case nil:
		return time.Time{}, false
	case json.Number:
		epoch, err := typed.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return dateFromEpoch(epoch), true
	case float64:
		if typed != math.Trunc(typed) {
			return time.Time{}, false
		}
		return dateFromEpoch(int64(typed)), true
	case int:
		return dateFromEpoch(int64(typed)), true
	case int64:
		return dateFromEpoch(typed), true
	case string:
		return resolveDateString(typed)
	default:
		return time.Time{}, false
	}
}

func dateFromEpoch(epoch int64) time.Time {
	var moment time.Time
	if epoch > epochMillisThreshold {
		moment = time.UnixMilli(epoch)
	} else {
		moment = time.Unix(epoch, 0)
	}
	return models.DateOnly(moment.UTC())
}

func resolveDateString(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return models.DateOnly(parsed), true
		}
	}
	return time.Time{}, false
}
