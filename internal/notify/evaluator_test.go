package notify

import (
	"testing"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/usage"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func account(fiveUsed, weeklyUsed float64) *models.Account {
	snap := models.QuotaSnapshot{
		CapturedAt: now,
		FiveHour:   models.UsageWindow{Kind: models.WindowFiveHour, UsedPercent: fiveUsed, WindowMinutes: 300, ResetsAt: now.Add(time.Hour)},
		Weekly:     models.UsageWindow{Kind: models.WindowWeekly, UsedPercent: weeklyUsed, WindowMinutes: 10080, ResetsAt: now.Add(48 * time.Hour)},
	}
	return &models.Account{Email: "a@x.com", Ordinal: 2, LastSnapshot: &snap}
}

func ledger(weekly models.ThresholdLevel, fiveHour *models.ThresholdLevel) *models.ThresholdSnapshot {
	return &models.ThresholdSnapshot{Weekly: weekly, FiveHour: fiveHour}
}

func TestEvaluate_WeeklyRatchet(t *testing.T) {
	ev := NewEvaluator(usage.DefaultThresholds())

	tests := []struct {
		name       string
		weeklyUsed float64
		previous   *models.ThresholdSnapshot
		wantEvents int
		wantLevel  models.ThresholdLevel
	}{
		{"WarningToWarning", 90, ledger(models.LevelWarning, nil), 0, models.LevelWarning},
		{"WarningToCritical", 96, ledger(models.LevelWarning, nil), 1, models.LevelCritical},
		{"CriticalToWarning", 90, ledger(models.LevelCritical, nil), 0, models.LevelWarning},
		{"NoLedgerWarning", 90, nil, 1, models.LevelWarning},
		{"NoLedgerNormal", 10, nil, 0, models.LevelNormal},
		{"CriticalToNormal", 10, ledger(models.LevelCritical, nil), 0, models.LevelNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Five-hour usage kept normal so only the weekly window can fire.
			got, ok := ev.Evaluate(account(0, tt.weeklyUsed), tt.previous)
			if !ok {
				t.Fatal("Evaluate() ok = false")
			}
			weekly := 0
			for _, e := range got.Events {
				if e.Window == models.WindowWeekly {
					weekly++
					if e.Level != tt.wantLevel {
						t.Errorf("event level = %v, want %v", e.Level, tt.wantLevel)
					}
				}
			}
			if weekly != tt.wantEvents {
				t.Errorf("weekly events = %d, want %d", weekly, tt.wantEvents)
			}
			if got.Snapshot.Weekly != tt.wantLevel {
				t.Errorf("Snapshot.Weekly = %v, want %v", got.Snapshot.Weekly, tt.wantLevel)
			}
		})
	}
}

func TestEvaluate_ReclimbFiresAgain(t *testing.T) {
	ev := NewEvaluator(usage.DefaultThresholds())

	first, _ := ev.Evaluate(account(0, 96), ledger(models.LevelWarning, nil))
	if len(first.Events) != 1 {
		t.Fatalf("climb to critical events = %d, want 1", len(first.Events))
	}

	// Usage drops back to warning: no event, ledger follows down.
	second, _ := ev.Evaluate(account(0, 90), &first.Snapshot)
	if len(second.Events) != 0 || second.Snapshot.Weekly != models.LevelWarning {
		t.Fatalf("drop to warning = %+v", second)
	}

	third, _ := ev.Evaluate(account(0, 97), &second.Snapshot)
	if len(third.Events) != 1 || third.Events[0].Level != models.LevelCritical {
		t.Errorf("re-climb events = %+v, want one critical", third.Events)
	}
}

func TestEvaluate_FiveHour(t *testing.T) {
	ev := NewEvaluator(usage.DefaultThresholds())

	got, _ := ev.Evaluate(account(90, 10), nil)
	if len(got.Events) != 1 || got.Events[0].Window != models.WindowFiveHour {
		t.Fatalf("Events = %+v, want one five-hour event", got.Events)
	}
	if got.Events[0].Remaining.Value() != 10 || got.Events[0].Ordinal != 2 {
		t.Errorf("event = %+v", got.Events[0])
	}
	if got.Snapshot.FiveHour == nil || *got.Snapshot.FiveHour != models.LevelWarning {
		t.Errorf("Snapshot.FiveHour = %v, want warning", got.Snapshot.FiveHour)
	}

	got, _ = ev.Evaluate(account(90, 10), &got.Snapshot)
	if len(got.Events) != 0 {
		t.Errorf("repeat Events = %+v, want none", got.Events)
	}
}

func TestEvaluate_FiveHourSuppressedWhenWeeklyCritical(t *testing.T) {
	ev := NewEvaluator(usage.DefaultThresholds())

	got, ok := ev.Evaluate(account(99, 96), ledger(models.LevelCritical, models.LevelPtr(models.LevelWarning)))
	if !ok {
		t.Fatal("Evaluate() ok = false")
	}
	if len(got.Events) != 0 {
		t.Errorf("Events = %+v, want none", got.Events)
	}
	if got.Snapshot.FiveHour != nil {
		t.Errorf("Snapshot.FiveHour = %v, want cleared", *got.Snapshot.FiveHour)
	}
}

func TestEvaluate_NoData(t *testing.T) {
	ev := NewEvaluator(usage.DefaultThresholds())

	if _, ok := ev.Evaluate(&models.Account{Email: "a@x.com"}, nil); ok {
		t.Error("Evaluate() without snapshot ok = true")
	}
	if _, ok := ev.Evaluate(account(0, 150), nil); ok {
		t.Error("Evaluate() with out-of-range usage ok = true")
	}
}
