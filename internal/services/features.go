package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/flux/internal/models"
)

const (
	MinValidCycleLength = 21
	MaxValidCycleLength = 45

	minFeatureCycles       = 2
	minFeatureValidLengths = 2
	minTemperatureReadings = 10
)

var (
	ErrTooFewCycles       = errors.New("too few cycles")
	ErrTooFewValidLengths = errors.New("too few valid cycle lengths")
)

// FeatureError explains why cycle features could not be computed. It wraps
// ErrTooFewCycles or ErrTooFewValidLengths.
type FeatureError struct {
	Reason string
	cause  error
}

func (err *FeatureError) Error() string {
	return err.Reason
}

func (err *FeatureError) Unwrap() error {
	return err.cause
}

type CycleFeatures struct {
	CycleLengths     []int    `json:"cycle_lengths"`
	MeanLength       float64  `json:"mean_length"`
	StdLength        float64  `json:"std_length"`
	MinLength        int      `json:"min_length"`
	MaxLength        int      `json:"max_length"`
	LastLength       int      `json:"last_length"`
	CycleCount       int      `json:"n_cycles"`
	RollingMean3     *float64 `json:"rolling_mean_3,omitempty"`
	RollingMean6     *float64 `json:"rolling_mean_6,omitempty"`
	Trend            *float64 `json:"trend,omitempty"`
	RegularityScore  float64  `json:"regularity_score"`
	MeanPeriodLength *float64 `json:"mean_period_length,omitempty"`
	LastMonth        int      `json:"last_month"`
	LastStartDate    string   `json:"last_start_date"`
}

type LogFeatures struct {
	SymptomCounts       map[string]int `json:"symptom_counts,omitempty"`
	MoodCounts          map[string]int `json:"mood_counts,omitempty"`
	TemperatureReadings int            `json:"temperature_readings,omitempty"`
	TemperatureMean     *float64       `json:"temperature_mean,omitempty"`
	TemperatureStd      *float64       `json:"temperature_std,omitempty"`
}

func IsValidCycleLength(length int) bool {
	return length >= MinValidCycleLength && length <= MaxValidCycleLength
}

// ValidCycleLengths back-fills lengths and keeps, in chronological order,
// those within the plausible range.
func ValidCycleLengths(cycles []models.Cycle) []int {
	return validLengthsOfSorted(models.BackfillCycles(cycles))
}

func validLengthsOfSorted(sorted []models.Cycle) []int {
	lengths := make([]int, 0, len(sorted))
	for _, cycle := range sorted {
		if cycle.Length != nil && IsValidCycleLength(*cycle.Length) {
			lengths = append(lengths, *cycle.Length)
		}
	}
	return lengths
}

func BuildCycleFeatures(cycles []models.Cycle) (CycleFeatures, error) {
	if len(cycles) < minFeatureCycles {
		return CycleFeatures{}, &FeatureError{
			Reason: fmt.Sprintf("need at least %d cycles for features, got %d", minFeatureCycles, len(cycles)),
			cause:  ErrTooFewCycles,
		}
	}

	sorted := models.BackfillCycles(cycles)
	lengths := validLengthsOfSorted(sorted)
	if len(lengths) < minFeatureValidLengths {
		return CycleFeatures{}, &FeatureError{
			Reason: fmt.Sprintf(
				"need at least %d cycle lengths between %d and %d days, got %d",
				minFeatureValidLengths, MinValidCycleLength, MaxValidCycleLength, len(lengths),
			),
			cause: ErrTooFewValidLengths,
		}
	}

	mean := averageInts(lengths)
	std := populationStdDev(intsToFloats(lengths))
	low, high := minMaxInts(lengths)
	lastStart := sorted[len(sorted)-1].StartDate

	features := CycleFeatures{
		CycleLengths:  lengths,
		MeanLength:    mean,
		StdLength:     std,
		MinLength:     low,
		MaxLength:     high,
		LastLength:    lengths[len(lengths)-1],
		CycleCount:    len(lengths),
		LastMonth:     int(lastStart.Month()),
		LastStartDate: lastStart.Format(time.DateOnly),
	}

	if len(lengths) >= 3 {
		features.RollingMean3 = floatPointer(averageInts(tailInts(lengths, 3)))
	}
	if len(lengths) >= 6 {
		features.RollingMean6 = floatPointer(averageInts(tailInts(lengths, 6)))
	}
	if len(lengths) >= 4 {
		recent := averageInts(lengths[len(lengths)-3:])
		earlier := averageInts(lengths[:len(lengths)-3])
		features.Trend = floatPointer(recent - earlier)
	}

	// Regularity is taken over every valid length, not the rolling windows.
	if mean > 0 {
		features.RegularityScore = max(0, 1-std/mean)
	}

	periodLengths := make([]int, 0, len(sorted))
	for _, cycle := range sorted {
		if cycle.PeriodLength != nil {
			periodLengths = append(periodLengths, *cycle.PeriodLength)
		}
	}
	if len(periodLengths) > 0 {
		features.MeanPeriodLength = floatPointer(averageInts(periodLengths))
	}

	return features, nil
}

func BuildLogFeatures(logs []models.DailyLog, cycles []models.Cycle) LogFeatures {
	if len(logs) == 0 || len(cycles) == 0 {
		return LogFeatures{}
	}

	features := LogFeatures{
		SymptomCounts: make(map[string]int),
		MoodCounts:    make(map[string]int),
	}
	temperatures := make([]float64, 0, len(logs))
	for _, entry := range logs {
		for _, symptom := range entry.Symptoms {
			features.SymptomCounts[symptom]++
		}
		if entry.Mood != "" {
			features.MoodCounts[entry.Mood]++
		}
		if entry.Temperature != nil {
			temperatures = append(temperatures, *entry.Temperature)
		}
	}

	features.TemperatureReadings = len(temperatures)
	if len(temperatures) >= minTemperatureReadings {
		features.TemperatureMean = floatPointer(averageFloats(temperatures))
		features.TemperatureStd = floatPointer(populationStdDev(temperatures))
	}
	return features
}
