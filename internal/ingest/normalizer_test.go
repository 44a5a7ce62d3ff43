package ingest

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/flux/internal/models"
)

const gdprExportFixture = `{
  "operationalData": {
    "cycles": [
      {"period_start_date": "2024-02-26 00:00:00.0", "period_end_date": "2024-03-01 00:00:00.0"},
      {"period_start_date": "2024-01-01 00:00:00.0", "period_end_date": "2024-01-05 00:00:00.0"},
      {"period_start_date": "2024-01-29 00:00:00.0", "cycle_length": 27},
      {"period_end_date": "2024-03-30 00:00:00.0"}
    ],
    "point_events_manual_v2": [
      {"date": "2024-01-02 08:00:00.0", "category": "Symptom", "subcategory": "DrawingPain"},
      {"date": "2024-01-02 09:00:00.0", "category": "Symptom", "subcategory": "Headache"},
      {"date": "2024-01-02 10:00:00.0", "category": "Symptom", "subcategory": "DrawingPain"},
      {"date": "2024-01-02 11:00:00.0", "category": "Mood", "subcategory": "Sad"},
      {"date": "2024-01-02 21:00:00.0", "category": "Mood", "subcategory": "Panic"},
      {"date": "2024-01-02 21:30:00.0", "category": "Disturber", "subcategory": "Stress"},
      {"date": "2024-01-02 22:00:00.0", "category": "Disturber", "subcategory": "Alcohol"},
      {"date": "2024-01-01 07:00:00.0", "category": "Fluid", "subcategory": "Creamy"},
      {"date": "2024-01-01 07:30:00.0", "category": "Sex", "subcategory": "High Sex Drive"},
      {"date": "2024-01-01 08:00:00.0", "category": "Symptom", "subcategory": "BrandNewSymptom"},
      {"date": "2024-01-03", "category": "Unknown", "subcategory": "Whatever"},
      {"category": "Symptom", "subcategory": "Acne"}
    ]
  }
}`

func mustDecode(t *testing.T, raw string) map[string]any {
	t.Helper()

	decoded, err := Decode(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	return decoded
}

func TestNormalizeProviderGDPRExport(t *testing.T) {
	t.Parallel()

	cycles, logs := NewNormalizer(nil).Normalize(mustDecode(t, gdprExportFixture))

	if len(cycles) != 3 {
		t.Fatalf("expected 3 cycles (record without start dropped), got %d", len(cycles))
	}
	wantStarts := []string{"2024-01-01", "2024-01-29", "2024-02-26"}
	for i, cycle := range cycles {
		if got := models.FormatDate(cycle.StartDate); got != wantStarts[i] {
			t.Fatalf("cycle %d start = %s, want %s", i, got, wantStarts[i])
		}
	}

	if cycles[0].Length == nil || *cycles[0].Length != 28 {
		t.Fatalf("expected back-filled first length 28, got %v", cycles[0].Length)
	}
	if cycles[1].Length == nil || *cycles[1].Length != 27 {
		t.Fatalf("expected explicit second length 27 to be kept, got %v", cycles[1].Length)
	}
	if cycles[2].Length != nil {
		t.Fatalf("expected last cycle length to stay nil, got %d", *cycles[2].Length)
	}
	if cycles[0].PeriodLength == nil || *cycles[0].PeriodLength != 5 {
		t.Fatalf("expected first period length 5, got %v", cycles[0].PeriodLength)
	}
	if cycles[1].PeriodLength != nil {
		t.Fatalf("expected no period length without end date, got %d", *cycles[1].PeriodLength)
	}

	if len(logs) != 3 {
		t.Fatalf("expected 3 daily logs, got %d", len(logs))
	}

	first := logs[0]
	if models.FormatDate(first.Date) != "2024-01-01" {
		t.Fatalf("expected logs sorted by date, first is %s", models.FormatDate(first.Date))
	}
	if first.Fluid != "creamy" || first.SexDrive != "high" {
		t.Fatalf("unexpected fluid/sex drive: %q/%q", first.Fluid, first.SexDrive)
	}
	if len(first.Symptoms) != 0 {
		t.Fatalf("expected unknown subcategory to be ignored, got %v", first.Symptoms)
	}

	second := logs[1]
	if !reflect.DeepEqual(second.Symptoms, []string{"cramps", "headache"}) {
		t.Fatalf("expected merged symptom set, got %v", second.Symptoms)
	}
	if second.Mood != "anxious" {
		t.Fatalf("expected last mood to win, got %q", second.Mood)
	}
	if !reflect.DeepEqual(second.Disturbers, []string{"alcohol", "stress"}) {
		t.Fatalf("unexpected disturbers %v", second.Disturbers)
	}

	if models.FormatDate(logs[2].Date) != "2024-01-03" || len(logs[2].Symptoms) != 0 || logs[2].Mood != "" {
		t.Fatalf("expected empty log for unmapped category, got %+v", logs[2])
	}
}

func TestNormalizeCyclePathFallbackOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		raw       string
		wantStart string
	}{
		{
			name:      "operational data wins over periods",
			raw:       `{"operationalData": {"cycles": [{"start_date": "2024-05-01"}]}, "periods": [{"start_date": "2023-01-01"}]}`,
			wantStart: "2024-05-01",
		},
		{
			name:      "periods",
			raw:       `{"periods": [{"startDate": "2024-05-02"}], "cycles": [{"start": "2023-01-01"}]}`,
			wantStart: "2024-05-02",
		},
		{
			name:      "menstrual cycles",
			raw:       `{"menstrual_cycles": [{"start": "03/05/2024"}]}`,
			wantStart: "2024-05-03",
		},
		{
			name:      "cycle data before cycles",
			raw:       `{"cycle_data": [{"date": 1714780800}], "cycles": [{"start": "2023-01-01"}]}`,
			wantStart: "2024-05-04",
		},
		{
			name:      "top level cycles",
			raw:       `{"cycles": [{"start_date": 1714867200000}]}`,
			wantStart: "2024-05-05",
		},
		{
			name:      "null path is skipped",
			raw:       `{"periods": null, "data": {"periods": null, "cycles": [{"start_date": "2024-05-06"}]}}`,
			wantStart: "2024-05-06",
		},
		{
			name:      "nested periods",
			raw:       `{"data": {"periods": [{"start_date": "2024-05-07"}]}}`,
			wantStart: "2024-05-07",
		},
	}

	for _, tc := range cases {
		cycles, _ := NewNormalizer(nil).Normalize(mustDecode(t, tc.raw))
		if len(cycles) != 1 {
			t.Fatalf("%s: expected 1 cycle, got %d", tc.name, len(cycles))
		}
		if got := models.FormatDate(cycles[0].StartDate); got != tc.wantStart {
			t.Fatalf("%s: start = %s, want %s", tc.name, got, tc.wantStart)
		}
	}
}

func TestNormalizeUnknownSchemaLogsAvailableKeys(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&output)

	cycles, logs := NewNormalizer(logger).Normalize(mustDecode(t, `{"profile": {}, "settings": []}`))
	if len(cycles) != 0 || len(logs) != 0 {
		t.Fatalf("expected empty results, got %d cycles and %d logs", len(cycles), len(logs))
	}
	if cycles == nil || logs == nil {
		t.Fatal("expected empty slices, not nil")
	}
	if !strings.Contains(output.String(), "could not find period data") || !strings.Contains(output.String(), "settings") {
		t.Fatalf("expected diagnostic warning with keys, got %q", output.String())
	}
}

func TestNormalizeNonListPathDegradesToEmpty(t *testing.T) {
	t.Parallel()

	cycles, logs := NewNormalizer(nil).Normalize(mustDecode(t, `{"periods": {"start_date": "2024-01-01"}, "logs": "none"}`))
	if len(cycles) != 0 || len(logs) != 0 {
		t.Fatalf("expected empty results, got %d cycles and %d logs", len(cycles), len(logs))
	}
}

func TestNormalizeDailyLogsMergesDuplicateDates(t *testing.T) {
	t.Parallel()

	raw := `{
	  "cycles": [],
	  "daily_logs": [
	    {"date": "2024-03-02", "symptoms": ["cramps", "bloating"], "flow": 2, "bbt": 36.6},
	    {"log_date": "2024-03-01", "mood": "happy", "flow_intensity": "Light", "notes": "ok"},
	    {"date": "2024-03-02", "symptoms": ["cramps", "fatigue"], "mood": "sad", "disturbers": "stress"},
	    {"notes": "no date"}
	  ]
	}`

	_, logs := NewNormalizer(nil).Normalize(mustDecode(t, raw))
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].Mood != "happy" || logs[0].Flow != models.FlowLight || logs[0].Notes != "ok" {
		t.Fatalf("unexpected first log %+v", logs[0])
	}

	merged := logs[1]
	if !reflect.DeepEqual(merged.Symptoms, []string{"bloating", "cramps", "fatigue"}) {
		t.Fatalf("expected symptom union, got %v", merged.Symptoms)
	}
	if merged.Mood != "sad" || merged.Flow != models.FlowMedium {
		t.Fatalf("unexpected merged scalars mood=%q flow=%q", merged.Mood, merged.Flow)
	}
	if merged.Temperature == nil || *merged.Temperature != 36.6 {
		t.Fatalf("expected bbt alias to fill temperature, got %v", merged.Temperature)
	}
	if !reflect.DeepEqual(merged.Disturbers, []string{"stress"}) {
		t.Fatalf("unexpected disturbers %v", merged.Disturbers)
	}
}

func TestNormalizeSymptomEntries(t *testing.T) {
	t.Parallel()

	raw := `{"symptoms": [
	  {"date": "2024-04-02", "symptom": "headache"},
	  {"date": "2024-04-02", "name": "nausea"},
	  {"date": "2024-04-01", "name": "acne"},
	  {"symptom": "dropped"}
	]}`

	_, logs := NewNormalizer(nil).Normalize(mustDecode(t, raw))
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if !reflect.DeepEqual(logs[1].Symptoms, []string{"headache", "nausea"}) {
		t.Fatalf("unexpected grouped symptoms %v", logs[1].Symptoms)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	normalizer := NewNormalizer(nil)
	firstCycles, firstLogs := normalizer.Normalize(mustDecode(t, gdprExportFixture))
	secondCycles, secondLogs := normalizer.Normalize(mustDecode(t, gdprExportFixture))

	if !reflect.DeepEqual(firstCycles, secondCycles) {
		t.Fatal("expected identical cycles across runs")
	}
	if !reflect.DeepEqual(firstLogs, secondLogs) {
		t.Fatal("expected identical logs across runs")
	}
}

func TestNormalizeSortAndBackfillInvariants(t *testing.T) {
	t.Parallel()

	raw := `{"periods": [
	  {"start": "2024-06-10"},
	  {"start": "2024-01-03"},
	  {"start": "2024-04-15", "cycleLength": 30},
	  {"start": "2024-02-01"},
	  {"start": "2024-03-05"}
	]}`

	cycles, _ := NewNormalizer(nil).Normalize(mustDecode(t, raw))
	for i := 0; i+1 < len(cycles); i++ {
		if cycles[i].StartDate.After(cycles[i+1].StartDate) {
			t.Fatalf("cycles not sorted at %d", i)
		}
		if cycles[i].Length == nil {
			t.Fatalf("cycle %d length was not back-filled", i)
		}
		gap := models.DaysBetween(cycles[i].StartDate, cycles[i+1].StartDate)
		if models.FormatDate(cycles[i].StartDate) != "2024-04-15" && *cycles[i].Length != gap {
			t.Fatalf("cycle %d length = %d, want successor gap %d", i, *cycles[i].Length, gap)
		}
	}
	if *cycles[3].Length != 30 {
		t.Fatalf("expected explicit length to be preserved, got %d", *cycles[3].Length)
	}
}
