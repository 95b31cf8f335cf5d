package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/recommend"
)

type sent struct {
	title string
	body  string
}

func recordingSink(fail error) (*DesktopSink, *[]sent) {
	var out []sent
	return &DesktopSink{
		Enabled: true,
		notify: func(title, body string) error {
			out = append(out, sent{title, body})
			return fail
		},
	}, &out
}

func TestAlertTitle(t *testing.T) {
	tests := []struct {
		window models.WindowKind
		level  models.ThresholdLevel
		want   string
	}{
		{models.WindowWeekly, models.LevelCritical, "Codex HUD: Weekly Critical"},
		{models.WindowFiveHour, models.LevelWarning, "Codex HUD: 5-Hour Warning"},
		{models.WindowWeekly, models.LevelNormal, "Codex HUD: Weekly Notice"},
	}
	for _, tt := range tests {
		if got := AlertTitle(Event{Window: tt.window, Level: tt.level}); got != tt.want {
			t.Errorf("AlertTitle() = %q, want %q", got, tt.want)
		}
	}
}

func TestAlertBody(t *testing.T) {
	ev := Event{Email: "a@x.com", Label: "Codex 1", Level: models.LevelCritical, Remaining: models.MustPercent(4.6)}
	other := &models.Account{Email: "b@x.com", Ordinal: 2}
	warning := ev
	warning.Level = models.LevelWarning

	tests := []struct {
		name string
		ev   Event
		rec  recommend.Decision
		want string
	}{
		{"NoRecommendation", ev, recommend.Decision{Reason: recommend.ReasonNoData},
			"Codex 1 (a@x.com) has 4% remaining."},
		{"SwitchSuggested", ev, recommend.Decision{Recommended: other},
			"Codex 1 (a@x.com) has 4% remaining. Switch to Codex 2 (b@x.com)."},
		{"SameAccount", ev, recommend.Decision{Recommended: &models.Account{Email: "a@x.com", Ordinal: 1}},
			"Codex 1 (a@x.com) has 4% remaining."},
		{"WarningNoSwitch", warning, recommend.Decision{Recommended: other},
			"Codex 1 (a@x.com) has 4% remaining."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlertBody(tt.ev, tt.rec); got != tt.want {
				t.Errorf("AlertBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDesktopSink_Alerts(t *testing.T) {
	sink, out := recordingSink(nil)
	events := []Event{
		{Email: "a@x.com", Label: "Codex 1", Window: models.WindowWeekly, Level: models.LevelWarning, Remaining: models.MustPercent(12)},
		{Email: "a@x.com", Label: "Codex 1", Window: models.WindowFiveHour, Level: models.LevelCritical, Remaining: models.MustPercent(3)},
	}
	if err := sink.Alerts(events, recommend.Decision{}); err != nil {
		t.Fatalf("Alerts() failed: %v", err)
	}
	if len(*out) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(*out))
	}
	if (*out)[1].title != "Codex HUD: 5-Hour Critical" {
		t.Errorf("second title = %q", (*out)[1].title)
	}
}

func TestDesktopSink_ErrorsJoined(t *testing.T) {
	boom := errors.New("no dbus")
	sink, _ := recordingSink(boom)
	err := sink.Alerts([]Event{{Window: models.WindowWeekly}, {Window: models.WindowFiveHour}}, recommend.Decision{})
	if !errors.Is(err, boom) {
		t.Errorf("Alerts() err = %v, want wrapping %v", err, boom)
	}
}

func TestDesktopSink_Disabled(t *testing.T) {
	sink, out := recordingSink(nil)
	sink.Enabled = false
	if err := sink.WeeklyReminder(ReminderEvent{Email: "a@x.com", Label: "Codex 1"}); err != nil {
		t.Errorf("WeeklyReminder() failed: %v", err)
	}
	if len(*out) != 0 {
		t.Errorf("disabled sink sent %d notifications", len(*out))
	}
}

func TestDesktopSink_ReminderAndHello(t *testing.T) {
	sink, out := recordingSink(nil)
	at := time.Date(2025, 1, 15, 9, 30, 0, 0, time.Local)

	_ = sink.WeeklyReminder(ReminderEvent{Email: "a@x.com", Label: "Codex 1", Ordinal: 1, ResetsAt: at})
	_ = sink.HelloSent(&models.Account{Email: "a@x.com", Ordinal: 1}, at)

	if len(*out) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(*out))
	}
	if (*out)[0].title != "Codex HUD: Weekly Reset Ready" ||
		!strings.Contains((*out)[0].body, "Jan 15, 2025 9:30 AM") {
		t.Errorf("reminder = %+v", (*out)[0])
	}
	if (*out)[1].title != "Codex HUD: 5-Hour Window Started" ||
		(*out)[1].body != "Hello sent at 9:30 AM for Codex 1 (a@x.com)." {
		t.Errorf("hello = %+v", (*out)[1])
	}
}
