package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/flux/internal/models"
)

type memoryDatasetStore struct {
	datasets []models.Dataset
	err      error
}

func (store *memoryDatasetStore) Create(dataset *models.Dataset) error {
	if store.err != nil {
		return store.err
	}
	store.datasets = append(store.datasets, *dataset)
	return nil
}

func (store *memoryDatasetStore) LatestForProfile(profile string) (models.Dataset, bool, error) {
	if store.err != nil {
		return models.Dataset{}, false, store.err
	}
	for i := len(store.datasets) - 1; i >= 0; i-- {
		if store.datasets[i].Profile == profile {
			return store.datasets[i], true, nil
		}
	}
	return models.Dataset{}, false, nil
}

func (store *memoryDatasetStore) ListProfiles() ([]string, error) {
	seen := map[string]bool{}
	profiles := make([]string, 0)
	for _, dataset := range store.datasets {
		if !seen[dataset.Profile] {
			seen[dataset.Profile] = true
			profiles = append(profiles, dataset.Profile)
		}
	}
	return profiles, store.err
}

type memoryModelStore struct {
	byProfile map[string]models.TrainedModel
}

func (store *memoryModelStore) Upsert(model *models.TrainedModel) error {
	if store.byProfile == nil {
		store.byProfile = map[string]models.TrainedModel{}
	}
	store.byProfile[model.Profile] = *model
	return nil
}

func (store *memoryModelStore) FindByProfile(profile string) (models.TrainedModel, bool, error) {
	model, ok := store.byProfile[profile]
	return model, ok, nil
}

type reversingSealer struct{}

func (reversingSealer) Seal(plaintext []byte) ([]byte, []byte, error) {
	sealed := bytes.Clone(plaintext)
	for i, j := 0, len(sealed)-1; i < j; i, j = i+1, j-1 {
		sealed[i], sealed[j] = sealed[j], sealed[i]
	}
	return []byte("salt"), sealed, nil
}

func (sealer reversingSealer) Open(_ []byte, sealed []byte) ([]byte, error) {
	_, plaintext, err := sealer.Seal(sealed)
	return plaintext, err
}

func newTestTrainingService(t *testing.T) (*TrainingService, *memoryDatasetStore, *memoryModelStore) {
	t.Helper()

	datasets := &memoryDatasetStore{}
	modelStore := &memoryModelStore{}
	service := NewTrainingService(datasets, modelStore, reversingSealer{}, nil)
	service.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	ids := 0
	service.newID = func() string {
		ids++
		return "dataset-" + string(rune('0'+ids))
	}
	return service, datasets, modelStore
}

func providerExport(starts ...string) map[string]any {
	cycles := make([]any, 0, len(starts))
	for _, start := range starts {
		cycles = append(cycles, map[string]any{"period_start_date": start})
	}
	return map[string]any{
		"operationalData": map[string]any{
			"cycles": cycles,
			"point_events_manual_v2": []any{
				map[string]any{"date": "2024-01-02", "category": "Symptom", "subcategory": "Headache"},
			},
		},
	}
}

var regularStarts = []string{"2024-01-01", "2024-01-29", "2024-02-26", "2024-03-25", "2024-04-22", "2024-05-20"}

func TestTrainingServiceImportSealsCanonicalExport(t *testing.T) {
	t.Parallel()

	service, datasets, _ := newTestTrainingService(t)

	result, err := service.Import("alice", "export.json", providerExport(regularStarts...), "")
	if err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}
	if result.Format != models.FormatProvider || result.Cycles != 6 || result.Logs != 1 || result.DatasetID != "dataset-1" {
		t.Fatalf("unexpected import result: %+v", result)
	}
	if len(datasets.datasets) != 1 {
		t.Fatalf("expected one stored dataset, got %d", len(datasets.datasets))
	}
	stored := datasets.datasets[0]
	if bytes.Contains(stored.Sealed, []byte("cycles")) {
		t.Fatal("expected stored payload to be sealed")
	}
	if stored.SourceName != "export.json" || stored.Profile != "alice" {
		t.Fatalf("unexpected stored dataset: %+v", stored)
	}

	cycles, err := service.Cycles("alice")
	if err != nil {
		t.Fatalf("Cycles() unexpected error: %v", err)
	}
	if len(cycles) != 6 || cycles[0].Length == nil || *cycles[0].Length != 28 {
		t.Fatalf("unexpected cycles after reload: %+v", cycles)
	}
}

func TestTrainingServiceImportRejectsBrokenAppExport(t *testing.T) {
	t.Parallel()

	service, datasets, _ := newTestTrainingService(t)

	_, err := service.Import("alice", "app.json", map[string]any{"cycles": []any{}}, models.FormatApp)
	if err == nil {
		t.Fatal("expected error for app export without exported_at")
	}
	if len(datasets.datasets) != 0 {
		t.Fatal("expected nothing stored after a failed import")
	}
}

func TestTrainingServiceTrainAndPredict(t *testing.T) {
	t.Parallel()

	service, _, modelStore := newTestTrainingService(t)
	if _, err := service.Import("alice", "export.json", providerExport(regularStarts...), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}

	params, err := service.Train("alice", ModelTypeAuto)
	if err != nil {
		t.Fatalf("Train() unexpected error: %v", err)
	}
	if params.CyclesTrained != 6 || params.AvgCycleLength != 28 {
		t.Fatalf("unexpected params: %+v", params)
	}
	if modelStore.byProfile["alice"].DatasetID != "dataset-1" {
		t.Fatalf("expected model linked to dataset-1, got %+v", modelStore.byProfile["alice"])
	}

	prediction, err := service.Predict("alice")
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	assertDay(t, "next period", prediction.NextPeriodDate, "2024-06-17")
	assertDay(t, "fertile window start", prediction.FertileWindowStart, "2024-05-29")

	exported, err := service.ExportParams("alice")
	if err != nil {
		t.Fatalf("ExportParams() unexpected error: %v", err)
	}
	if exported.ModelType != models.ModelTypeWeightedAverage {
		t.Fatalf("unexpected exported params: %+v", exported)
	}
}

func TestTrainingServiceTrainRequiresData(t *testing.T) {
	t.Parallel()

	service, _, _ := newTestTrainingService(t)

	if _, err := service.Train("nobody", ModelTypeAuto); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}

	if _, err := service.Import("alice", "export.json", providerExport("2024-01-01", "2024-01-29"), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}
	if _, err := service.Train("alice", ModelTypeAuto); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := service.Train("alice", ModelTypeProphet); !errors.Is(err, ErrUnsupportedModelType) {
		t.Fatalf("expected ErrUnsupportedModelType, got %v", err)
	}
}

func TestTrainingServicePredictWithoutModelReturnsDefault(t *testing.T) {
	t.Parallel()

	service, _, _ := newTestTrainingService(t)

	prediction, err := service.Predict("alice")
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if prediction.NextPeriodDate != nil || prediction.Confidence != 0 || prediction.ExpectedCycleLength != 28 {
		t.Fatalf("unexpected default prediction: %+v", prediction)
	}

	if _, err := service.ExportParams("alice"); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
}

func TestTrainingServiceFeaturesReportsCycleReason(t *testing.T) {
	t.Parallel()

	service, _, _ := newTestTrainingService(t)
	if _, err := service.Import("alice", "export.json", providerExport("2024-01-01"), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}

	report, err := service.Features("alice")
	if err != nil {
		t.Fatalf("Features() unexpected error: %v", err)
	}
	if report.Cycles != nil || report.CycleError == "" {
		t.Fatalf("expected cycle error reason, got %+v", report)
	}
	if report.Logs.SymptomCounts["headache"] != 1 {
		t.Fatalf("expected headache count from logs, got %+v", report.Logs.SymptomCounts)
	}

	if _, err := service.Import("alice", "export.json", providerExport(regularStarts...), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}
	report, err = service.Features("alice")
	if err != nil {
		t.Fatalf("Features() unexpected error: %v", err)
	}
	if report.Cycles == nil || report.Cycles.MeanLength != 28 {
		t.Fatalf("expected cycle features from newest dataset, got %+v", report)
	}
}

func TestTrainingServiceLoadParamsStoresNormalizedModel(t *testing.T) {
	t.Parallel()

	service, _, modelStore := newTestTrainingService(t)
	next := mustParseDay("2024-06-17")
	params := models.ModelParams{
		ModelType:          models.ModelTypeWeightedAverage,
		CyclesTrained:      6,
		RecentCycleLengths: []int{28, 28, 28, 28, 28},
		AvgCycleLength:     28,
		Prediction:         models.Prediction{NextPeriodDate: &next, ExpectedCycleLength: 28, Confidence: 1},
	}

	loaded, err := service.LoadParams("bob", params)
	if err != nil {
		t.Fatalf("LoadParams() unexpected error: %v", err)
	}
	assertDay(t, "ovulation", loaded.Prediction.OvulationDate, "2024-06-03")
	if _, ok := modelStore.byProfile["bob"]; !ok {
		t.Fatal("expected loaded model to be stored")
	}

	params.ModelType = ModelTypeProphet
	if _, err := service.LoadParams("bob", params); !errors.Is(err, ErrUnsupportedModelType) {
		t.Fatalf("expected ErrUnsupportedModelType, got %v", err)
	}
}

func TestTrainingServiceExportIsCanonical(t *testing.T) {
	t.Parallel()

	service, _, _ := newTestTrainingService(t)
	if _, err := service.Export("alice"); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
	if _, err := service.Import("alice", "export.json", providerExport(regularStarts...), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}

	export, err := service.Export("alice")
	if err != nil {
		t.Fatalf("Export() unexpected error: %v", err)
	}
	if export.ExportedAt.IsZero() || len(export.Cycles) != 6 || len(export.Logs) != 1 {
		t.Fatalf("unexpected export: %+v", export)
	}
}

func TestTrainingServiceRetrainAll(t *testing.T) {
	t.Parallel()

	service, _, modelStore := newTestTrainingService(t)
	if _, err := service.Import("alice", "a.json", providerExport(regularStarts...), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}
	if _, err := service.Import("bob", "b.json", providerExport("2024-01-01"), ""); err != nil {
		t.Fatalf("Import() unexpected error: %v", err)
	}

	trained, err := service.RetrainAll(context.Background())
	if err != nil {
		t.Fatalf("RetrainAll() unexpected error: %v", err)
	}
	if trained != 1 {
		t.Fatalf("expected one retrained profile, got %d", trained)
	}
	if _, ok := modelStore.byProfile["bob"]; ok {
		t.Fatal("expected profile with too few cycles to be skipped")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := service.RetrainAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
