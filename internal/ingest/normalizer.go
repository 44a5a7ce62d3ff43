package ingest

import (
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/flux/internal/models"
)

type cycleSource struct {
	path []string
}

type logSource struct {
	path    []string
	extract func(items []any) []models.DailyLog
}

// Provider schemas are undocumented, so sources are probed in this order
// and the first path holding a non-null value wins.
var cycleSources = []cycleSource{
	{path: []string{"operationalData", "cycles"}},
	{path: []string{"periods"}},
	{path: []string{"menstrual_cycles"}},
	{path: []string{"cycle_data"}},
	{path: []string{"cycles"}},
	{path: []string{"data", "periods"}},
	{path: []string{"data", "cycles"}},
}

var logSources = []logSource{
	{path: []string{"operationalData", "point_events_manual_v2"}, extract: aggregatePointEvents},
	{path: []string{"daily_logs"}, extract: extractDailyLogs},
	{path: []string{"logs"}, extract: extractDailyLogs},
	{path: []string{"symptoms"}, extract: aggregateSymptomEntries},
	{path: []string{"data", "daily_logs"}, extract: extractDailyLogs},
	{path: []string{"data", "logs"}, extract: extractDailyLogs},
}

type Normalizer struct {
	logger logrus.FieldLogger
}

func NewNormalizer(logger logrus.FieldLogger) *Normalizer {
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}
	return &Normalizer{logger: logger}
}

// Normalize converts a provider export into canonical records. Unknown
// layouts produce empty results rather than errors.
func (normalizer *Normalizer) Normalize(raw map[string]any) ([]models.Cycle, []models.DailyLog) {
	return normalizer.normalizeCycles(raw), normalizer.normalizeLogs(raw)
}

func (normalizer *Normalizer) normalizeCycles(raw map[string]any) []models.Cycle {
	for _, source := range cycleSources {
		value, ok := lookupPath(raw, source.path)
		if !ok {
			continue
		}
		items, ok := value.([]any)
		if !ok {
			normalizer.logger.WithField("path", strings.Join(source.path, ".")).Warn("cycle data is not a list")
			return []models.Cycle{}
		}
		return models.BackfillCycles(extractCycles(items))
	}

	normalizer.logger.WithField("available_keys", topLevelKeys(raw)).Warn("could not find period data in export")
	return []models.Cycle{}
}

func (normalizer *Normalizer) normalizeLogs(raw map[string]any) []models.DailyLog {
	for _, source := range logSources {
		value, ok := lookupPath(raw, source.path)
		if !ok {
			continue
		}
		items, ok := value.([]any)
		if !ok {
			normalizer.logger.WithField("path", strings.Join(source.path, ".")).Warn("log data is not a list")
			return []models.DailyLog{}
		}
		return source.extract(items)
	}
	return []models.DailyLog{}
}

func topLevelKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
