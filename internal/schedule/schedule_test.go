package schedule

import (
	"fmt"
	"testing"
	"time"
)

func TestParseCron(t *testing.T) {
	s, err := Parse(`{"kind":"cron","cron_expr":"0 8 * * *"}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.Kind != "cron" || s.CronExpr != "0 8 * * *" {
		t.Errorf("unexpected schedule: %+v", s)
	}
}

func TestNextRunCron(t *testing.T) {
	next := NextRun(`{"kind":"cron","cron_expr":"* * * * *"}`)
	if next == nil {
		t.Fatal("expected next run time, got nil")
	}
	if next.Before(time.Now()) {
		t.Error("expected next run in the future")
	}
}

func TestNextRunInterval(t *testing.T) {
	next := NextRun(`{"kind":"interval","interval_ms":60000}`)
	if next == nil {
		t.Fatal("expected next run time, got nil")
	}
	diff := next.Sub(time.Now().Add(time.Minute))
	if diff > time.Second || diff < -time.Second {
		t.Errorf("expected next run about a minute out, diff %v", diff)
	}
}

func TestNextRunOnce(t *testing.T) {
	future := time.Now().Add(time.Hour).UnixMilli()
	if next := NextRun(fmt.Sprintf(`{"kind":"once","at_ms":%d}`, future)); next == nil {
		t.Fatal("expected next run time, got nil")
	}

	past := time.Now().Add(-time.Hour).UnixMilli()
	if next := NextRun(fmt.Sprintf(`{"kind":"once","at_ms":%d}`, past)); next != nil {
		t.Error("expected nil for a spent once schedule")
	}
}

func TestNextRunInvalid(t *testing.T) {
	if NextRun(`not json`) != nil {
		t.Error("expected nil for invalid schedule")
	}
	if NextRun(`{"kind":"weekly"}`) != nil {
		t.Error("expected nil for unknown kind")
	}
}

func TestNormalizePlainCron(t *testing.T) {
	result, err := Normalize("0 8 * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := Parse(result)
	if err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if s.Kind != "cron" || s.CronExpr != "0 8 * * *" {
		t.Errorf("unexpected normalized schedule: %+v", s)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize("whenever you like"); err == nil {
		t.Error("expected error for unparseable schedule")
	}
	if _, err := Normalize(`{"kind":"interval","interval_ms":-5}`); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestDescribe(t *testing.T) {
	cases := map[string]string{
		`{"kind":"interval","interval_ms":3600000}`: "every hour",
		`{"kind":"interval","interval_ms":300000}`:  "every 5 minutes",
		`{"kind":"cron","cron_expr":"@daily"}`:      "@daily",
	}
	for raw, want := range cases {
		if got := Describe(raw); got != want {
			t.Errorf("Describe(%s) = %q, want %q", raw, got, want)
		}
	}
}
