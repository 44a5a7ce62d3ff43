package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ModelTypeWeightedAverage = "weighted_average"
	DefaultCycleLength       = 28
)

type Prediction struct {
	NextPeriodDate      *time.Time
	ExpectedCycleLength int
	Confidence          float64
	OvulationDate       *time.Time
	FertileWindowStart  *time.Time
	FertileWindowEnd    *time.Time
}

type predictionJSON struct {
	NextPeriodDate      *string `json:"next_period_date"`
	ExpectedCycleLength int     `json:"expected_cycle_length"`
	Confidence          float64 `json:"confidence"`
	OvulationDate       *string `json:"ovulation_date"`
	FertileWindowStart  *string `json:"fertile_window_start"`
	FertileWindowEnd    *string `json:"fertile_window_end"`
}

func (prediction Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(predictionJSON{
		NextPeriodDate:      formatOptionalDate(prediction.NextPeriodDate),
		ExpectedCycleLength: prediction.ExpectedCycleLength,
		Confidence:          prediction.Confidence,
		OvulationDate:       formatOptionalDate(prediction.OvulationDate),
		FertileWindowStart:  formatOptionalDate(prediction.FertileWindowStart),
		FertileWindowEnd:    formatOptionalDate(prediction.FertileWindowEnd),
	})
}

func (prediction *Prediction) UnmarshalJSON(data []byte) error {
	var wire predictionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	decoded := Prediction{
		ExpectedCycleLength: wire.ExpectedCycleLength,
		Confidence:          wire.Confidence,
	}
	fields := []struct {
		name   string
		raw    *string
		target **time.Time
	}{
		{"next_period_date", wire.NextPeriodDate, &decoded.NextPeriodDate},
		{"ovulation_date", wire.OvulationDate, &decoded.OvulationDate},
		{"fertile_window_start", wire.FertileWindowStart, &decoded.FertileWindowStart},
		{"fertile_window_end", wire.FertileWindowEnd, &decoded.FertileWindowEnd},
	}
	for _, field := range fields {
		parsed, err := parseOptionalDate(field.raw)
		if err != nil {
			return fmt.Errorf("prediction %s: %w", field.name, err)
		}
		*field.target = parsed
	}

	*prediction = decoded
	return nil
}

// ModelParams is the only persisted state of a fitted predictor.
// RecentCycleLengths is ordered most recent first.
type ModelParams struct {
	ModelType          string     `json:"model_type"`
	CyclesTrained      int        `json:"cycles_trained"`
	RecentCycleLengths []int      `json:"recent_cycle_lengths"`
	AvgCycleLength     float64    `json:"avg_cycle_length"`
	Prediction         Prediction `json:"prediction"`
}
