package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBackfillCyclesSortsAndFillsLengths(t *testing.T) {
	t.Parallel()

	end := mustParseDay("2024-02-02")
	explicit := 31
	input := []Cycle{
		{StartDate: mustParseDay("2024-02-28")},
		{StartDate: mustParseDay("2024-01-01"), Length: &explicit},
		{StartDate: mustParseDay("2024-01-29"), EndDate: &end},
	}

	cycles := BackfillCycles(input)

	if FormatDate(input[0].StartDate) != "2024-02-28" || input[0].Length != nil {
		t.Fatal("expected input slice to stay untouched")
	}
	if FormatDate(cycles[0].StartDate) != "2024-01-01" || FormatDate(cycles[2].StartDate) != "2024-02-28" {
		t.Fatalf("expected ascending order, got %s..%s", FormatDate(cycles[0].StartDate), FormatDate(cycles[2].StartDate))
	}
	if *cycles[0].Length != 31 {
		t.Fatalf("expected explicit length to win, got %d", *cycles[0].Length)
	}
	if *cycles[1].Length != 30 {
		t.Fatalf("expected successor gap 30, got %d", *cycles[1].Length)
	}
	if cycles[2].Length != nil {
		t.Fatalf("expected last length nil, got %d", *cycles[2].Length)
	}
	if cycles[1].PeriodLength == nil || *cycles[1].PeriodLength != 5 {
		t.Fatalf("expected inclusive period length 5, got %v", cycles[1].PeriodLength)
	}
}

func TestBackfillCyclesHandlesEmptyInput(t *testing.T) {
	t.Parallel()

	if cycles := BackfillCycles(nil); len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %d", len(cycles))
	}
}

func TestDaysBetweenHandlesFarApartDates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from string
		to   string
		want int
	}{
		{from: "2024-01-01", to: "2024-01-29", want: 28},
		{from: "2024-03-01", to: "2024-02-01", want: -29},
		{from: "0001-01-01", to: "2024-01-01", want: 738885},
	}
	for _, tc := range cases {
		if got := DaysBetween(mustParseDay(tc.from), mustParseDay(tc.to)); got != tc.want {
			t.Fatalf("DaysBetween(%s, %s) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestBackfillCyclesFlagsStrayAncientStart(t *testing.T) {
	t.Parallel()

	cycles := BackfillCycles([]Cycle{
		{StartDate: mustParseDay("0001-01-01")},
		{StartDate: mustParseDay("2024-01-01")},
	})

	if cycles[0].Length == nil || *cycles[0].Length <= 45 {
		t.Fatalf("expected a gap far outside the valid range, got %v", cycles[0].Length)
	}
}

func TestCycleJSONUsesCalendarDates(t *testing.T) {
	t.Parallel()

	length := 28
	serialized, err := json.Marshal(Cycle{StartDate: mustParseDay("2024-03-01"), Length: &length})
	if err != nil {
		t.Fatalf("marshal cycle: %v", err)
	}
	want := `{"start_date":"2024-03-01","end_date":null,"length":28,"period_length":null}`
	if string(serialized) != want {
		t.Fatalf("cycle json = %s, want %s", serialized, want)
	}

	var decoded Cycle
	if err := json.Unmarshal(serialized, &decoded); err != nil {
		t.Fatalf("unmarshal cycle: %v", err)
	}
	if !decoded.StartDate.Equal(mustParseDay("2024-03-01")) || decoded.EndDate != nil || *decoded.Length != 28 {
		t.Fatalf("unexpected decoded cycle %+v", decoded)
	}
}

func TestPredictionJSONKeepsNullDates(t *testing.T) {
	t.Parallel()

	serialized, err := json.Marshal(Prediction{ExpectedCycleLength: DefaultCycleLength})
	if err != nil {
		t.Fatalf("marshal prediction: %v", err)
	}
	want := `{"next_period_date":null,"expected_cycle_length":28,"confidence":0,"ovulation_date":null,"fertile_window_start":null,"fertile_window_end":null}`
	if string(serialized) != want {
		t.Fatalf("prediction json = %s, want %s", serialized, want)
	}

	var decoded Prediction
	if err := json.Unmarshal([]byte(`{"next_period_date":"2024-07-01","expected_cycle_length":30,"confidence":0.9}`), &decoded); err != nil {
		t.Fatalf("unmarshal prediction: %v", err)
	}
	if decoded.NextPeriodDate == nil || FormatDate(*decoded.NextPeriodDate) != "2024-07-01" || decoded.FertileWindowStart != nil {
		t.Fatalf("unexpected decoded prediction %+v", decoded)
	}

	if err := json.Unmarshal([]byte(`{"next_period_date":"July"}`), &decoded); err == nil {
		t.Fatal("expected invalid date to fail")
	}
}

func mustParseDay(raw string) time.Time {
	parsed, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		panic(err)
	}
	return parsed
}
