package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/terraincognita07/flux/internal/models"
)

const (
	ModelTypeAuto    = "auto"
	ModelTypeProphet = "prophet"

	minFitCycles               = 3
	modelWindow                = 12
	minConfidentLengths        = 3
	lowSampleConfidenceCap     = 0.3
	confidenceVarianceSpan     = 50.0
	lutealPhaseDays            = 14
	fertileDaysBeforeOvulation = 5
)

var (
	ErrInsufficientData     = errors.New("need at least 3 cycles for meaningful predictions")
	ErrModelNotFitted       = errors.New("prediction model is not fitted")
	ErrUnsupportedModelType = errors.New("unsupported model type")
	ErrInvalidParams        = errors.New("invalid model parameters")
)

// CyclePredictor is a recency-weighted average model over valid cycle
// lengths. It is not safe for concurrent Fit calls.
type CyclePredictor struct {
	fitted        bool
	cyclesTrained int
	lengths       []int
	average       float64
	confidence    float64
	lastStart     time.Time
}

func NewCyclePredictor(modelType string) (*CyclePredictor, error) {
	switch modelType {
	case "", ModelTypeAuto, models.ModelTypeWeightedAverage:
		return &CyclePredictor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModelType, modelType)
	}
}

func (predictor *CyclePredictor) Fitted() bool {
	return predictor.fitted
}

func (predictor *CyclePredictor) Fit(cycles []models.Cycle) error {
	if len(cycles) < minFitCycles {
		return fmt.Errorf("%w: got %d", ErrInsufficientData, len(cycles))
	}

	sorted := models.BackfillCycles(cycles)
	lengths := slices.Clone(tailInts(validLengthsOfSorted(sorted), modelWindow))

	*predictor = CyclePredictor{
		fitted:        true,
		cyclesTrained: len(sorted),
		lengths:       lengths,
		lastStart:     sorted[len(sorted)-1].StartDate,
	}
	if len(lengths) == 0 {
		return nil
	}

	predictor.average, predictor.confidence = weightedEstimate(lengths)
	return nil
}

// recencyWeights returns linearly increasing weights summing to 1; the
// i-th of n values weighs i/(n(n+1)/2).
func recencyWeights(n int) []float64 {
	weights := make([]float64, n)
	total := float64(n*(n+1)) / 2
	for i := range weights {
		weights[i] = float64(i+1) / total
	}
	return weights
}

func weightedEstimate(lengths []int) (float64, float64) {
	weights := recencyWeights(len(lengths))
	average := weightedAverage(lengths)

	var variance float64
	for i, length := range lengths {
		delta := float64(length) - average
		variance += weights[i] * delta * delta
	}

	confidence := clamp01(1 - variance/confidenceVarianceSpan)
	if len(lengths) < minConfidentLengths {
		confidence = math.Min(confidence, lowSampleConfidenceCap)
	}
	return average, confidence
}

// weightedAverage sums in integers so an exact half stays exact before
// rounding.
func weightedAverage(lengths []int) float64 {
	n := len(lengths)
	var weighted int
	for i, length := range lengths {
		weighted += (i + 1) * length
	}
	return float64(weighted) / float64(n*(n+1)/2)
}

// NoDataPrediction is returned when no valid cycle length was measured; the
// 28-day length is a population default, not an observation.
func NoDataPrediction() models.Prediction {
	return models.Prediction{ExpectedCycleLength: models.DefaultCycleLength}
}

// Predict forecasts the next period. The fertile window runs from five days
// before the estimated ovulation through ovulation day inclusive.
func (predictor *CyclePredictor) Predict() (models.Prediction, error) {
	if !predictor.fitted {
		return models.Prediction{}, ErrModelNotFitted
	}
	if len(predictor.lengths) == 0 {
		return NoDataPrediction(), nil
	}

	expected := int(math.Round(predictor.average))
	next := predictor.lastStart.AddDate(0, 0, expected)
	ovulation := next.AddDate(0, 0, -lutealPhaseDays)
	fertileStart := ovulation.AddDate(0, 0, -fertileDaysBeforeOvulation)

	return models.Prediction{
		NextPeriodDate:      &next,
		ExpectedCycleLength: expected,
		Confidence:          roundTo(predictor.confidence, 2),
		OvulationDate:       &ovulation,
		FertileWindowStart:  &fertileStart,
		FertileWindowEnd:    &ovulation,
	}, nil
}

func (predictor *CyclePredictor) ExportParams() (models.ModelParams, error) {
	prediction, err := predictor.Predict()
	if err != nil {
		return models.ModelParams{}, err
	}

	recent := slices.Clone(predictor.lengths)
	slices.Reverse(recent)
	if recent == nil {
		recent = []int{}
	}

	return models.ModelParams{
		ModelType:          models.ModelTypeWeightedAverage,
		CyclesTrained:      predictor.cyclesTrained,
		RecentCycleLengths: recent,
		AvgCycleLength:     roundTo(predictor.average, 2),
		Prediction:         prediction,
	}, nil
}

// LoadParams restores a fitted predictor. The last cycle start is recovered
// from the stored prediction as next period date minus expected length.
func (predictor *CyclePredictor) LoadParams(params models.ModelParams) error {
	if params.ModelType != models.ModelTypeWeightedAverage {
		return fmt.Errorf("%w: %q", ErrUnsupportedModelType, params.ModelType)
	}
	if params.CyclesTrained < 0 || len(params.RecentCycleLengths) > modelWindow {
		return fmt.Errorf("%w: cycles_trained=%d recent=%d", ErrInvalidParams, params.CyclesTrained, len(params.RecentCycleLengths))
	}
	for _, length := range params.RecentCycleLengths {
		if !IsValidCycleLength(length) {
			return fmt.Errorf("%w: cycle length %d out of range", ErrInvalidParams, length)
		}
	}

	lengths := slices.Clone(params.RecentCycleLengths)
	slices.Reverse(lengths)

	restored := CyclePredictor{
		fitted:        true,
		cyclesTrained: params.CyclesTrained,
		lengths:       lengths,
	}
	if len(lengths) > 0 {
		if params.Prediction.NextPeriodDate == nil || params.Prediction.ExpectedCycleLength <= 0 {
			return fmt.Errorf("%w: prediction is missing for fitted lengths", ErrInvalidParams)
		}
		restored.average = weightedAverage(lengths)
		restored.confidence = clamp01(params.Prediction.Confidence)
		restored.lastStart = params.Prediction.NextPeriodDate.AddDate(0, 0, -params.Prediction.ExpectedCycleLength)
	}

	*predictor = restored
	return nil
}

func WriteParamsFile(path string, params models.ModelParams) error {
	serialized, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model params: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create params directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(serialized, '\n'), 0o644); err != nil {
		return fmt.Errorf("write model params: %w", err)
	}
	return nil
}

func ReadParamsFile(path string) (models.ModelParams, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.ModelParams{}, fmt.Errorf("read model params: %w", err)
	}
	var params models.ModelParams
	if err := json.Unmarshal(content, &params); err != nil {
		return models.ModelParams{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return params, nil
}
