package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/codexhud/internal/auth"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/notify"
	"github.com/j-veylop/codexhud/internal/recommend"
	"github.com/j-veylop/codexhud/internal/usage"
)

type fakeStore struct {
	state   *models.AppState
	saved   []*models.AppState
	loadErr error
	saveErr error
}

func (s *fakeStore) Load() (*models.AppState, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *fakeStore) Save(state *models.AppState) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, state.Clone())
	s.state = state.Clone()
	return nil
}

type fakeIdentity struct {
	err   error
	email string
}

func (f fakeIdentity) Load(string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	return auth.Identity{Email: f.email}, nil
}

type fakeSender struct {
	store *fakeStore
	err   error
	calls int
	// savesAtSend is the number of saves observed when SendHello ran.
	savesAtSend int
}

func (f *fakeSender) SendHello(context.Context, string, string) error {
	f.calls++
	if f.store != nil {
		f.savesAtSend = len(f.store.saved)
	}
	return f.err
}

type fakeSink struct {
	reminders []notify.ReminderEvent
	hellos    []string
}

func (f *fakeSink) Alerts([]notify.Event, recommend.Decision) error { return nil }

func (f *fakeSink) WeeklyReminder(ev notify.ReminderEvent) error {
	f.reminders = append(f.reminders, ev)
	return nil
}

func (f *fakeSink) HelloSent(account *models.Account, _ time.Time) error {
	f.hellos = append(f.hellos, account.Email)
	return nil
}

type runRow struct {
	email, kind, outcome string
}

type fakeHistory struct {
	rows []runRow
}

func (f *fakeHistory) RecordRun(email, kind, outcome, _ string, _ time.Time) error {
	f.rows = append(f.rows, runRow{email, kind, outcome})
	return nil
}

func stateWith(weeklyUsed float64, captured time.Time) *models.AppState {
	s := models.NewAppState()
	snap := models.QuotaSnapshot{
		CapturedAt: captured,
		Source:     models.SourceSessionLog,
		FiveHour:   models.UsageWindow{Kind: models.WindowFiveHour, WindowMinutes: 300, ResetsAt: captured.Add(5 * time.Hour)},
		Weekly:     models.UsageWindow{Kind: models.WindowWeekly, UsedPercent: weeklyUsed, WindowMinutes: 10080, ResetsAt: captured.Add(72 * time.Hour)},
	}
	s.Accounts = append(s.Accounts, models.Account{Email: "a@x.com", Ordinal: 1, LastSnapshot: &snap})
	s.SetActive("a@x.com")
	return s
}

func newTestRunner(store *fakeStore, sender *fakeSender, now time.Time) (*Runner, *fakeSink, *fakeHistory) {
	sink := &fakeSink{}
	history := &fakeHistory{}
	sender.store = store
	r := NewRunner(store, fakeIdentity{email: "a@x.com"}, sender, sink, usage.DefaultThresholds())
	r.History = history
	r.Now = func() time.Time { return now }
	return r, sink, history
}

func TestRunDailyHello_Sends(t *testing.T) {
	now := at(10)
	store := &fakeStore{state: stateWith(20, at(8))}
	sender := &fakeSender{}
	r, sink, history := newTestRunner(store, sender, now)

	res, err := r.RunDailyHello(context.Background())
	if err != nil {
		t.Fatalf("RunDailyHello() error = %v", err)
	}
	if !res.Sent || res.Reason != "" || res.Email != "a@x.com" {
		t.Errorf("RunDailyHello() = %+v, want sent", res)
	}
	if sender.calls != 1 || sender.savesAtSend != 1 {
		t.Errorf("sender calls = %d, saves before send = %d, want 1 and 1", sender.calls, sender.savesAtSend)
	}
	rec := store.state.DailyHelloRecords["a@x.com"]
	if rec.RunCount != 1 || !rec.LastRun.Equal(now) {
		t.Errorf("record = %+v, want one run at %v", rec, now)
	}
	if len(sink.hellos) != 1 {
		t.Errorf("hello notifications = %d, want 1", len(sink.hellos))
	}
	if len(history.rows) != 1 || history.rows[0].outcome != OutcomeSent {
		t.Errorf("history = %+v", history.rows)
	}
}

func TestRunDailyHello_Skips(t *testing.T) {
	tests := []struct {
		name  string
		state *models.AppState
		now   time.Time
		want  BlockReason
	}{
		{"NoState", nil, at(10), ReasonNoState},
		{"Depleted", stateWith(96, at(8)), at(10), ReasonWeeklyDepleted},
		{"OutsideWindow", stateWith(20, at(6)), at(7), ReasonOutsideWindow},
		{"NotConfigured", models.NewAppState(), at(10), ReasonNotConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{state: tt.state}
			sender := &fakeSender{}
			r, _, _ := newTestRunner(store, sender, tt.now)

			res, err := r.RunDailyHello(context.Background())
			if err != nil {
				t.Fatalf("RunDailyHello() error = %v", err)
			}
			if res.Reason != tt.want || res.Sent {
				t.Errorf("RunDailyHello() = %+v, want reason %q", res, tt.want)
			}
			if sender.calls != 0 || len(store.saved) != 0 {
				t.Errorf("sender calls = %d, saves = %d, want none", sender.calls, len(store.saved))
			}
		})
	}
}

func TestRunDailyHello_IdentityError(t *testing.T) {
	store := &fakeStore{state: stateWith(20, at(8))}
	r, _, _ := newTestRunner(store, &fakeSender{}, at(10))
	r.Identity = fakeIdentity{err: auth.ErrFileNotFound}

	if _, err := r.RunDailyHello(context.Background()); !errors.Is(err, auth.ErrFileNotFound) {
		t.Errorf("RunDailyHello() error = %v, want ErrFileNotFound", err)
	}
}

func TestRunDailyHello_SendFailureKeepsRecord(t *testing.T) {
	store := &fakeStore{state: stateWith(20, at(8))}
	sender := &fakeSender{err: ErrExecutionFailed}
	r, sink, history := newTestRunner(store, sender, at(10))

	res, err := r.RunDailyHello(context.Background())
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("RunDailyHello() error = %v, want ErrExecutionFailed", err)
	}
	if res.Sent {
		t.Error("Sent = true after failure")
	}
	if store.state.DailyHelloRecords["a@x.com"].RunCount != 1 {
		t.Error("record was not persisted before the send")
	}
	if len(sink.hellos) != 0 {
		t.Error("hello notification sent after failure")
	}
	if len(history.rows) != 1 || history.rows[0].outcome != OutcomeFailed {
		t.Errorf("history = %+v", history.rows)
	}
}

func TestRunForcedRefresh(t *testing.T) {
	now := at(12)

	t.Run("Success", func(t *testing.T) {
		store := &fakeStore{state: stateWith(40, at(8))}
		sender := &fakeSender{}
		r, _, history := newTestRunner(store, sender, now)

		res, err := r.RunForcedRefresh(context.Background())
		if err != nil || !res.Sent {
			t.Fatalf("RunForcedRefresh() = %+v, %v", res, err)
		}
		if sender.savesAtSend != 1 || len(store.saved) != 2 {
			t.Errorf("saves before send = %d, total = %d, want 1 and 2", sender.savesAtSend, len(store.saved))
		}
		rec := store.state.ForcedRefreshRecords["a@x.com"]
		if rec.LastAttempt == nil || rec.LastSuccess == nil || rec.LastFailure != nil {
			t.Errorf("record = %+v", rec)
		}
		if len(history.rows) != 1 || history.rows[0].kind != string(KindForcedRefresh) {
			t.Errorf("history = %+v", history.rows)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		store := &fakeStore{state: stateWith(40, at(8))}
		sender := &fakeSender{err: ErrExecutionFailed}
		r, _, _ := newTestRunner(store, sender, now)

		_, err := r.RunForcedRefresh(context.Background())
		if !errors.Is(err, ErrExecutionFailed) {
			t.Fatalf("RunForcedRefresh() error = %v", err)
		}
		rec := store.state.ForcedRefreshRecords["a@x.com"]
		if rec.LastFailure == nil || rec.LastSuccess != nil {
			t.Errorf("record = %+v", rec)
		}
	})

	t.Run("NoAuth", func(t *testing.T) {
		store := &fakeStore{state: stateWith(40, at(8))}
		sender := &fakeSender{}
		r, _, _ := newTestRunner(store, sender, now)
		r.Identity = fakeIdentity{err: auth.ErrMissingToken}

		res, err := r.RunForcedRefresh(context.Background())
		if err != nil || res.Reason != ReasonNoAuth {
			t.Errorf("RunForcedRefresh() = %+v, %v, want noAuth", res, err)
		}
		if sender.calls != 0 {
			t.Error("sender called without auth")
		}
	})

	t.Run("TooSoon", func(t *testing.T) {
		state := stateWith(40, at(8))
		state.ForcedRefreshRecords["a@x.com"] = models.ForcedRefreshRecord{LastAttempt: models.TimePtr(now.Add(-time.Second))}
		store := &fakeStore{state: state}
		sender := &fakeSender{}
		r, _, _ := newTestRunner(store, sender, now)

		res, err := r.RunForcedRefresh(context.Background())
		if err != nil || res.Reason != ReasonTooSoon {
			t.Errorf("RunForcedRefresh() = %+v, %v, want tooSoon", res, err)
		}
	})

	t.Run("SaveError", func(t *testing.T) {
		saveErr := errors.New("disk full")
		store := &fakeStore{state: stateWith(40, at(8)), saveErr: saveErr}
		sender := &fakeSender{}
		r, _, _ := newTestRunner(store, sender, now)

		if _, err := r.RunForcedRefresh(context.Background()); !errors.Is(err, saveErr) {
			t.Errorf("RunForcedRefresh() error = %v, want %v", err, saveErr)
		}
		if sender.calls != 0 {
			t.Error("sender called after failed save")
		}
	})
}

func TestWeeklyReminders(t *testing.T) {
	now := at(10)
	state := stateWith(0, at(8))
	state.Accounts[0].LastSnapshot.Weekly.AssumedReset = true
	state.Accounts = append(state.Accounts, models.Account{Email: "b@x.com", Ordinal: 2})

	r, sink, history := newTestRunner(&fakeStore{}, &fakeSender{}, now)

	due := r.WeeklyReminders(state)
	if len(due) != 1 || due[0].Email != "a@x.com" || due[0].Label != "Codex 1" {
		t.Fatalf("WeeklyReminders() = %+v", due)
	}
	if rec := state.WeeklyReminderRecords["a@x.com"]; rec.LastNotified == nil || !rec.LastNotified.Equal(now) {
		t.Errorf("record = %+v", rec)
	}
	if again := r.WeeklyReminders(state); len(again) != 0 {
		t.Errorf("second WeeklyReminders() = %+v, want none", again)
	}

	r.DeliverReminders(due)
	if len(sink.reminders) != 1 || len(history.rows) != 1 || history.rows[0].kind != string(KindWeeklyReminder) {
		t.Errorf("reminders = %+v, history = %+v", sink.reminders, history.rows)
	}
}
