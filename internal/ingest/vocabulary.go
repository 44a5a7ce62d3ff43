package ingest

import (
	"strings"

	"github.com/terraincognita07/flux/internal/models"
)

type logField int

const (
	fieldSymptom logField = iota + 1
	fieldMood
	fieldFluid
	fieldDisturber
	fieldSexDrive
)

type categoryRule struct {
	field  logField
	values map[string]string
}

// Provider point-event vocabulary keyed by category then subcategory.
// Unexported and never written after init.
var categoryRules = map[string]categoryRule{
	"Symptom": {field: fieldSymptom, values: map[string]string{
		"Acne":          "acne",
		"Backache":      "backache",
		"Bloating":      "bloating",
		"Cravings":      "cravings",
		"DrawingPain":   "cramps",
		"Diarrhea":      "diarrhea",
		"Fatigue":       "fatigue",
		"FeelGood":      "feel_good",
		"Headache":      "headache",
		"Insomnia":      "insomnia",
		"TenderBreasts": "tender_breasts",
	}},
	"Mood": {field: fieldMood, values: map[string]string{
		"Happy":            "happy",
		"Energetic":        "energetic",
		"Neutral":          "neutral",
		"Sad":              "sad",
		"Angry":            "angry",
		"Panic":            "anxious",
		"Depressed":        "depressed",
		"Apathetic":        "apathetic",
		"Confused":         "confused",
		"Swings":           "mood_swings",
		"VerySelfCritical": "self_critical",
		"FeelingGuilty":    "feeling_guilty",
	}},
	"Fluid": {field: fieldFluid, values: map[string]string{
		"Dry":         "dry",
		"Sticky":      "sticky",
		"Creamy":      "creamy",
		"Eggwhite":    "eggwhite",
		"ClumpyWhite": "clumpy_white",
		"Bloody":      "bloody",
	}},
	"Disturber": {field: fieldDisturber, values: map[string]string{
		"Stress":  "stress",
		"Alcohol": "alcohol",
	}},
	"Sex": {field: fieldSexDrive, values: map[string]string{
		"High Sex Drive": "high",
		"None":           "none",
	}},
}

var providerFlowLevels = map[int64]string{
	0: models.FlowSpotting,
	1: models.FlowLight,
	2: models.FlowMedium,
	3: models.FlowHeavy,
}

func lookupEvent(category string, subcategory string) (logField, string, bool) {
	rule, ok := categoryRules[category]
	if !ok {
		return 0, "", false
	}
	value, ok := rule.values[subcategory]
	if !ok {
		return 0, "", false
	}
	return rule.field, value, true
}

// canonicalFlow accepts either a provider intensity level (0-3) or a flow
// name and returns "" for anything else.
func canonicalFlow(value any) string {
	if level, ok := intValue(value); ok {
		return providerFlowLevels[int64(level)]
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	switch normalized := strings.ToLower(strings.TrimSpace(text)); normalized {
	case models.FlowSpotting, models.FlowLight, models.FlowMedium, models.FlowHeavy:
		return normalized
	default:
		return ""
	}
}
