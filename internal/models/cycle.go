package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

type Cycle struct {
	StartDate    time.Time
	EndDate      *time.Time
	Length       *int
	PeriodLength *int
}

type cycleJSON struct {
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Length       *int    `json:"length"`
	PeriodLength *int    `json:"period_length"`
}

func (cycle Cycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(cycleJSON{
		StartDate:    FormatDate(cycle.StartDate),
		EndDate:      formatOptionalDate(cycle.EndDate),
		Length:       cycle.Length,
		PeriodLength: cycle.PeriodLength,
	})
}

func (cycle *Cycle) UnmarshalJSON(data []byte) error {
	var wire cycleJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	start, err := ParseDate(wire.StartDate)
	if err != nil {
		return fmt.Errorf("cycle start_date: %w", err)
	}
	end, err := parseOptionalDate(wire.EndDate)
	if err != nil {
		return fmt.Errorf("cycle end_date: %w", err)
	}
	*cycle = Cycle{
		StartDate:    start,
		EndDate:      end,
		Length:       wire.Length,
		PeriodLength: wire.PeriodLength,
	}
	return nil
}

// BackfillCycles returns a copy of cycles sorted by start date with missing
// lengths derived from the successor's start and missing period lengths
// derived from the end date. The last cycle keeps a nil length.
func BackfillCycles(cycles []Cycle) []Cycle {
	sorted := make([]Cycle, len(cycles))
	copy(sorted, cycles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].Length == nil {
			gap := DaysBetween(sorted[i].StartDate, sorted[i+1].StartDate)
			sorted[i].Length = &gap
		}
	}

	for i := range sorted {
		if sorted[i].PeriodLength == nil && sorted[i].EndDate != nil {
			periodLength := DaysBetween(sorted[i].StartDate, *sorted[i].EndDate) + 1
			sorted[i].PeriodLength = &periodLength
		}
	}

	return sorted
}

func DaysBetween(from time.Time, to time.Time) int {
	return int((DateOnly(to).Unix() - DateOnly(from).Unix()) / secondsPerDay)
}

func DateOnly(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func FormatDate(value time.Time) string {
	return value.Format(DateLayout)
}

func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}

func formatOptionalDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := FormatDate(*value)
	return &formatted
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
