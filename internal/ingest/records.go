package ingest

import (
	"sort"
	"time"

	"github.com/terraincognita07/flux/internal/models"
)

var (
	cycleStartAliases        = []string{"period_start_date", "start_date", "startDate", "start", "date"}
	cycleEndAliases          = []string{"period_end_date", "end_date", "endDate", "end"}
	cycleLengthAliases       = []string{"cycle_length", "cycleLength", "length"}
	cyclePeriodLengthAliases = []string{"period_length", "periodLength"}

	logDateAliases        = []string{"date", "log_date"}
	logFlowAliases        = []string{"flow", "flow_intensity"}
	logTemperatureAliases = []string{"temperature", "bbt"}
	symptomNameAliases    = []string{"symptom", "name"}
)

// extractCycles maps raw cycle records to canonical cycles. Records without
// a resolvable start date are dropped; order is left to the caller.
func extractCycles(items []any) []models.Cycle {
	cycles := make([]models.Cycle, 0, len(items))
	for _, record := range objects(items) {
		start, ok := ResolveDate(firstValue(record, cycleStartAliases...))
		if !ok {
			continue
		}

		cycle := models.Cycle{
			StartDate:    start,
			Length:       positiveIntPointer(firstValue(record, cycleLengthAliases...)),
			PeriodLength: positiveIntPointer(firstValue(record, cyclePeriodLengthAliases...)),
		}
		if end, ok := ResolveDate(firstValue(record, cycleEndAliases...)); ok {
			cycle.EndDate = &end
		}
		cycles = append(cycles, cycle)
	}
	return cycles
}

type logBuilder struct {
	entry      models.DailyLog
	symptoms   map[string]struct{}
	disturbers map[string]struct{}
}

func (builder *logBuilder) addSymptoms(values ...string) {
	for _, value := range values {
		builder.symptoms[value] = struct{}{}
	}
}

func (builder *logBuilder) addDisturbers(values ...string) {
	for _, value := range values {
		builder.disturbers[value] = struct{}{}
	}
}

func (builder *logBuilder) build() models.DailyLog {
	entry := builder.entry
	entry.Symptoms = sortedKeys(builder.symptoms)
	entry.Disturbers = sortedKeys(builder.disturbers)
	return entry
}

// logGroups reduces any number of observations to one builder per date.
type logGroups struct {
	byDate map[string]*logBuilder
}

func newLogGroups() *logGroups {
	return &logGroups{byDate: make(map[string]*logBuilder)}
}

func (groups *logGroups) day(date time.Time) *logBuilder {
	key := models.FormatDate(date)
	builder, ok := groups.byDate[key]
	if !ok {
		builder = &logBuilder{
			entry:      models.DailyLog{Date: date},
			symptoms:   make(map[string]struct{}),
			disturbers: make(map[string]struct{}),
		}
		groups.byDate[key] = builder
	}
	return builder
}

func (groups *logGroups) logs() []models.DailyLog {
	logs := make([]models.DailyLog, 0, len(groups.byDate))
	for _, builder := range groups.byDate {
		logs = append(logs, builder.build())
	}
	sortLogs(logs)
	return logs
}

// aggregatePointEvents folds provider category/subcategory events into
// daily logs. Sets accumulate; single-valued fields keep the last event.
func aggregatePointEvents(items []any) []models.DailyLog {
	groups := newLogGroups()
	for _, event := range objects(items) {
		day, ok := ResolveDate(firstValue(event, "date"))
		if !ok {
			continue
		}
		builder := groups.day(day)

		field, value, ok := lookupEvent(stringValue(event["category"]), stringValue(event["subcategory"]))
		if !ok {
			continue
		}
		switch field {
		case fieldSymptom:
			builder.addSymptoms(value)
		case fieldMood:
			builder.entry.Mood = value
		case fieldFluid:
			builder.entry.Fluid = value
		case fieldDisturber:
			builder.addDisturbers(value)
		case fieldSexDrive:
			builder.entry.SexDrive = value
		}
	}
	return groups.logs()
}

func extractDailyLogs(items []any) []models.DailyLog {
	groups := newLogGroups()
	for _, record := range objects(items) {
		day, ok := ResolveDate(firstValue(record, logDateAliases...))
		if !ok {
			continue
		}
		builder := groups.day(day)

		builder.addSymptoms(stringList(record["symptoms"])...)
		builder.addDisturbers(stringList(record["disturbers"])...)
		if flow := canonicalFlow(firstValue(record, logFlowAliases...)); flow != "" {
			builder.entry.Flow = flow
		}
		if mood := stringValue(record["mood"]); mood != "" {
			builder.entry.Mood = mood
		}
		if fluid := stringValue(record["fluid"]); fluid != "" {
			builder.entry.Fluid = fluid
		}
		if sexDrive := stringValue(record["sex_drive"]); sexDrive != "" {
			builder.entry.SexDrive = sexDrive
		}
		if temperature, ok := floatValue(firstValue(record, logTemperatureAliases...)); ok {
			builder.entry.Temperature = &temperature
		}
		if notes := stringValue(record["notes"]); notes != "" {
			builder.entry.Notes = notes
		}
	}
	return groups.logs()
}

// aggregateSymptomEntries handles exports that list one symptom per entry.
func aggregateSymptomEntries(items []any) []models.DailyLog {
	groups := newLogGroups()
	for _, record := range objects(items) {
		day, ok := ResolveDate(firstValue(record, "date"))
		if !ok {
			continue
		}
		builder := groups.day(day)
		if name := stringValue(firstValue(record, symptomNameAliases...)); name != "" {
			builder.addSymptoms(name)
		}
	}
	return groups.logs()
}

func sortLogs(logs []models.DailyLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Date.Before(logs[j].Date)
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
