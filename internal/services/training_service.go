package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/flux/internal/ingest"
	"github.com/terraincognita07/flux/internal/models"
)

var (
	ErrNoDataset = errors.New("no imported data for profile")
	ErrNoModel   = errors.New("no trained model for profile")
)

type DatasetStore interface {
	Create(dataset *models.Dataset) error
	LatestForProfile(profile string) (models.Dataset, bool, error)
	ListProfiles() ([]string, error)
}

type ModelStore interface {
	Upsert(model *models.TrainedModel) error
	FindByProfile(profile string) (models.TrainedModel, bool, error)
}

type PayloadSealer interface {
	Seal(plaintext []byte) ([]byte, []byte, error)
	Open(salt []byte, sealed []byte) ([]byte, error)
}

// TrainingService stores normalized exports per profile and keeps one
// trained model per profile.
type TrainingService struct {
	datasets   DatasetStore
	models     ModelStore
	sealer     PayloadSealer
	normalizer *ingest.Normalizer
	logger     logrus.FieldLogger
	now        func() time.Time
	newID      func() string
}

type ImportResult struct {
	DatasetID string `json:"dataset_id"`
	Format    string `json:"format"`
	Cycles    int    `json:"cycles"`
	Logs      int    `json:"logs"`
}

type FeatureReport struct {
	Cycles     *CycleFeatures `json:"cycle_features"`
	CycleError string         `json:"cycle_error,omitempty"`
	Logs       LogFeatures    `json:"log_features"`
}

func NewTrainingService(datasets DatasetStore, modelStore ModelStore, sealer PayloadSealer, logger logrus.FieldLogger) *TrainingService {
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}
	return &TrainingService{
		datasets:   datasets,
		models:     modelStore,
		sealer:     sealer,
		normalizer: ingest.NewNormalizer(logger),
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Import normalizes raw and stores it, sealed, as the newest dataset of
// profile. An existing trained model is left untouched until Train runs.
func (service *TrainingService) Import(profile string, sourceName string, raw map[string]any, format string) (ImportResult, error) {
	document, err := service.normalizer.Parse(raw, format)
	if err != nil {
		return ImportResult{}, err
	}

	export := models.AppExport{
		ExportedAt: service.now().UTC(),
		Cycles:     document.Cycles,
		Logs:       document.Logs,
	}
	payload, err := json.Marshal(export)
	if err != nil {
		return ImportResult{}, fmt.Errorf("encode canonical export: %w", err)
	}
	salt, sealed, err := service.sealer.Seal(payload)
	if err != nil {
		return ImportResult{}, fmt.Errorf("seal canonical export: %w", err)
	}

	dataset := models.Dataset{
		ID:         service.newID(),
		Profile:    profile,
		Format:     document.Format,
		SourceName: sourceName,
		CycleCount: len(document.Cycles),
		LogCount:   len(document.Logs),
		Salt:       salt,
		Sealed:     sealed,
		CreatedAt:  export.ExportedAt,
	}
	if err := service.datasets.Create(&dataset); err != nil {
		return ImportResult{}, fmt.Errorf("store dataset: %w", err)
	}

	service.logger.WithFields(logrus.Fields{
		"profile": profile,
		"format":  document.Format,
		"cycles":  dataset.CycleCount,
		"logs":    dataset.LogCount,
	}).Info("imported export")

	return ImportResult{
		DatasetID: dataset.ID,
		Format:    dataset.Format,
		Cycles:    dataset.CycleCount,
		Logs:      dataset.LogCount,
	}, nil
}

func (service *TrainingService) LoadLatest(profile string) (models.Dataset, models.AppExport, error) {
	dataset, found, err := service.datasets.LatestForProfile(profile)
	if err != nil {
		return models.Dataset{}, models.AppExport{}, fmt.Errorf("load dataset: %w", err)
	}
	if !found {
		return models.Dataset{}, models.AppExport{}, ErrNoDataset
	}

	payload, err := service.sealer.Open(dataset.Salt, dataset.Sealed)
	if err != nil {
		return models.Dataset{}, models.AppExport{}, err
	}
	var export models.AppExport
	if err := json.Unmarshal(payload, &export); err != nil {
		return models.Dataset{}, models.AppExport{}, fmt.Errorf("decode stored dataset %s: %w", dataset.ID, err)
	}
	return dataset, export, nil
}

func (service *TrainingService) Cycles(profile string) ([]models.Cycle, error) {
	_, export, err := service.LoadLatest(profile)
	if err != nil {
		return nil, err
	}
	return export.Cycles, nil
}

// Features reports cycle and log features of the latest dataset. Too little
// cycle data is reported in CycleError rather than failing the call.
func (service *TrainingService) Features(profile string) (FeatureReport, error) {
	_, export, err := service.LoadLatest(profile)
	if err != nil {
		return FeatureReport{}, err
	}

	report := FeatureReport{Logs: BuildLogFeatures(export.Logs, export.Cycles)}
	cycleFeatures, err := BuildCycleFeatures(export.Cycles)
	var featureErr *FeatureError
	switch {
	case err == nil:
		report.Cycles = &cycleFeatures
	case errors.As(err, &featureErr):
		report.CycleError = featureErr.Reason
	default:
		return FeatureReport{}, err
	}
	return report, nil
}

func (service *TrainingService) Train(profile string, modelType string) (models.ModelParams, error) {
	predictor, err := NewCyclePredictor(modelType)
	if err != nil {
		return models.ModelParams{}, err
	}

	dataset, export, err := service.LoadLatest(profile)
	if err != nil {
		return models.ModelParams{}, err
	}
	if err := predictor.Fit(export.Cycles); err != nil {
		return models.ModelParams{}, err
	}
	params, err := predictor.ExportParams()
	if err != nil {
		return models.ModelParams{}, err
	}

	if err := service.models.Upsert(&models.TrainedModel{
		Profile:   profile,
		DatasetID: dataset.ID,
		Params:    params,
	}); err != nil {
		return models.ModelParams{}, fmt.Errorf("store model: %w", err)
	}

	service.logger.WithFields(logrus.Fields{
		"profile": profile,
		"cycles":  params.CyclesTrained,
		"lengths": len(params.RecentCycleLengths),
	}).Info("trained model")
	return params, nil
}

// Predict answers from the stored model of profile; without one it returns
// the no-data prediction.
func (service *TrainingService) Predict(profile string) (models.Prediction, error) {
	stored, found, err := service.models.FindByProfile(profile)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("load model: %w", err)
	}
	if !found {
		return NoDataPrediction(), nil
	}

	predictor := &CyclePredictor{}
	if err := predictor.LoadParams(stored.Params); err != nil {
		return models.Prediction{}, err
	}
	return predictor.Predict()
}

func (service *TrainingService) ExportParams(profile string) (models.ModelParams, error) {
	stored, found, err := service.models.FindByProfile(profile)
	if err != nil {
		return models.ModelParams{}, fmt.Errorf("load model: %w", err)
	}
	if !found {
		return models.ModelParams{}, ErrNoModel
	}
	return stored.Params, nil
}

// LoadParams validates params and stores them as the model of profile.
func (service *TrainingService) LoadParams(profile string, params models.ModelParams) (models.ModelParams, error) {
	predictor := &CyclePredictor{}
	if err := predictor.LoadParams(params); err != nil {
		return models.ModelParams{}, err
	}
	normalized, err := predictor.ExportParams()
	if err != nil {
		return models.ModelParams{}, err
	}

	if err := service.models.Upsert(&models.TrainedModel{Profile: profile, Params: normalized}); err != nil {
		return models.ModelParams{}, fmt.Errorf("store model: %w", err)
	}
	return normalized, nil
}

// Export returns the latest dataset of profile in the canonical form that
// the app-format importer reads back.
func (service *TrainingService) Export(profile string) (models.AppExport, error) {
	_, export, err := service.LoadLatest(profile)
	if err != nil {
		return models.AppExport{}, err
	}
	export.ExportedAt = service.now().UTC()
	if export.Cycles == nil {
		export.Cycles = []models.Cycle{}
	}
	if export.Logs == nil {
		export.Logs = []models.DailyLog{}
	}
	return export, nil
}

func (service *TrainingService) Profiles() ([]string, error) {
	return service.datasets.ListProfiles()
}

// RetrainAll trains every profile with stored data. Profiles with too few
// cycles are skipped; other failures are collected and returned together.
func (service *TrainingService) RetrainAll(ctx context.Context) (int, error) {
	profiles, err := service.Profiles()
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	trained := 0
	var failures []error
	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return trained, err
		}

		_, err := service.Train(profile, ModelTypeAuto)
		switch {
		case err == nil:
			trained++
		case errors.Is(err, ErrInsufficientData):
			service.logger.WithField("profile", profile).Info("skipped retraining: not enough cycles")
		default:
			service.logger.WithField("profile", profile).WithError(err).Warn("retraining failed")
			failures = append(failures, fmt.Errorf("profile %s: %w", profile, err))
		}
	}
	return trained, errors.Join(failures...)
}
