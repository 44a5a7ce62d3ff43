package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	FlowSpotting = "spotting"
	FlowLight    = "light"
	FlowMedium   = "medium"
	FlowHeavy    = "heavy"
)

// DailyLog holds one calendar day of observations. Symptoms and Disturbers
// are kept sorted and free of duplicates.
type DailyLog struct {
	Date        time.Time
	Flow        string
	Symptoms    []string
	Mood        string
	Fluid       string
	SexDrive    string
	Disturbers  []string
	Temperature *float64
	Notes       string
}

type dailyLogJSON struct {
	Date        string   `json:"date"`
	Flow        string   `json:"flow,omitempty"`
	Symptoms    []string `json:"symptoms"`
	Mood        string   `json:"mood,omitempty"`
	Fluid       string   `json:"fluid,omitempty"`
	SexDrive    string   `json:"sex_drive,omitempty"`
	Disturbers  []string `json:"disturbers"`
	Temperature *float64 `json:"temperature,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (entry DailyLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(dailyLogJSON{
		Date:        FormatDate(entry.Date),
		Flow:        entry.Flow,
		Symptoms:    nonNilStrings(entry.Symptoms),
		Mood:        entry.Mood,
		Fluid:       entry.Fluid,
		SexDrive:    entry.SexDrive,
		Disturbers:  nonNilStrings(entry.Disturbers),
		Temperature: entry.Temperature,
		Notes:       entry.Notes,
	})
}

func (entry *DailyLog) UnmarshalJSON(data []byte) error {
	var wire dailyLogJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	day, err := ParseDate(wire.Date)
	if err != nil {
		return fmt.Errorf("daily log date: %w", err)
	}
	*entry = DailyLog{
		Date:        day,
		Flow:        wire.Flow,
		Symptoms:    wire.Symptoms,
		Mood:        wire.Mood,
		Fluid:       wire.Fluid,
		SexDrive:    wire.SexDrive,
		Disturbers:  wire.Disturbers,
		Temperature: wire.Temperature,
		Notes:       wire.Notes,
	}
	return nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
