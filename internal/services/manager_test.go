package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/codexhud/internal/auth"
	"github.com/j-veylop/codexhud/internal/config"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/notify"
	"github.com/j-veylop/codexhud/internal/recommend"
	"github.com/j-veylop/codexhud/internal/sessionlog"
)

type memStore struct {
	state *models.AppState
	saves int
}

func (s *memStore) Load() (*models.AppState, error) {
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *memStore) Save(state *models.AppState) error {
	s.saves++
	s.state = state.Clone()
	return nil
}

type fakeEvents struct {
	err    error
	queue  []*models.UsageEvent
	sinces []*time.Time
}

func (f *fakeEvents) Next(since *time.Time) (*models.UsageEvent, error) {
	f.sinces = append(f.sinces, since)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.queue) == 0 {
		return nil, nil
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, nil
}

func (f *fakeEvents) Path() string { return "" }
func (f *fakeEvents) Close() error { return nil }

type fakeIdentity struct {
	err   error
	email string
}

func (f *fakeIdentity) Load(string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	return auth.Identity{Email: f.email}, nil
}

type fakeSender struct {
	calls int
}

func (f *fakeSender) SendHello(context.Context, string, string) error {
	f.calls++
	return nil
}

type fakeSink struct {
	alerts    []notify.Event
	reminders []notify.ReminderEvent
	rec       recommend.Decision
}

func (f *fakeSink) Alerts(events []notify.Event, rec recommend.Decision) error {
	f.alerts = append(f.alerts, events...)
	f.rec = rec
	return nil
}

func (f *fakeSink) WeeklyReminder(ev notify.ReminderEvent) error {
	f.reminders = append(f.reminders, ev)
	return nil
}

func (f *fakeSink) HelloSent(*models.Account, time.Time) error { return nil }

type fakeHistory struct {
	snapshots []models.SnapshotRecord
	runs      []string
}

func (f *fakeHistory) InsertSnapshot(rec *models.SnapshotRecord) error {
	f.snapshots = append(f.snapshots, *rec)
	return nil
}

func (f *fakeHistory) RecordRun(_, kind, outcome, _ string, _ time.Time) error {
	f.runs = append(f.runs, kind+":"+outcome)
	return nil
}

func (f *fakeHistory) RecentSnapshots(email string, limit int) ([]models.SnapshotRecord, error) {
	var out []models.SnapshotRecord
	for i := len(f.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		if f.snapshots[i].Email == email {
			out = append(out, f.snapshots[i])
		}
	}
	return out, nil
}

func (f *fakeHistory) RecentAutomationRuns(limit int) ([]models.AutomationRun, error) {
	var out []models.AutomationRun
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, models.AutomationRun{Kind: f.runs[i]})
	}
	return out, nil
}

type fixture struct {
	mgr      *Manager
	store    *memStore
	events   *fakeEvents
	identity *fakeIdentity
	sender   *fakeSender
	sink     *fakeSink
	history  *fakeHistory
	now      time.Time
}

func newFixture(t *testing.T, state *models.AppState) *fixture {
	t.Helper()
	f := &fixture{
		store:    &memStore{state: state},
		events:   &fakeEvents{},
		identity: &fakeIdentity{email: "a@x.com"},
		sender:   &fakeSender{},
		sink:     &fakeSink{},
		history:  &fakeHistory{},
		now:      time.Date(2026, 1, 23, 10, 0, 0, 0, time.Local),
	}
	cfg := &config.Config{
		AuthPath:        "auth.json",
		CriticalPercent: models.MustPercent(5),
		WarningPercent:  models.MustPercent(15),
		RefreshInterval: time.Minute,
	}
	f.mgr = New(cfg, Deps{
		Store:    f.store,
		Events:   f.events,
		Identity: f.identity,
		Sender:   f.sender,
		Sink:     f.sink,
		History:  f.history,
		Now:      func() time.Time { return f.now },
	})
	return f
}

func twoAccounts() *models.AppState {
	s := models.NewAppState()
	s.Accounts = []models.Account{
		{Email: "a@x.com", Ordinal: 1},
		{Email: "b@x.com", Ordinal: 2},
	}
	return s
}

func event(at time.Time, fiveUsed, weeklyUsed float64) *models.UsageEvent {
	return &models.UsageEvent{
		Timestamp: at,
		Primary:   &models.RateLimit{UsedPercent: fiveUsed, WindowMinutes: 300, ResetsAt: at.Add(2 * time.Hour)},
		Secondary: &models.RateLimit{UsedPercent: weeklyUsed, WindowMinutes: 10080, ResetsAt: at.Add(48 * time.Hour)},
	}
}

func TestRefresh_MergesEventAndAlerts(t *testing.T) {
	f := newFixture(t, twoAccounts())
	f.events.queue = []*models.UsageEvent{event(f.now.Add(-time.Minute), 20, 96)}

	res, err := f.mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !res.Updated || !res.HasAuth || res.ActiveEmail != "a@x.com" {
		t.Errorf("Refresh() = %+v", res)
	}

	acc := f.store.state.Account("a@x.com")
	if acc.LastSnapshot == nil || acc.LastSnapshot.Weekly.UsedPercent != 96 {
		t.Fatalf("snapshot not merged: %+v", acc.LastSnapshot)
	}
	if f.store.state.Active() != "a@x.com" || f.store.state.LastRefresh == nil {
		t.Errorf("state active = %q, lastRefresh = %v", f.store.state.Active(), f.store.state.LastRefresh)
	}
	if f.store.saves != 1 {
		t.Errorf("saves = %d, want 1", f.store.saves)
	}

	if len(f.sink.alerts) != 1 || f.sink.alerts[0].Level != models.LevelCritical {
		t.Errorf("alerts = %+v, want one critical", f.sink.alerts)
	}
	if ledger := f.store.state.NotificationLedger["a@x.com"]; ledger.Weekly != models.LevelCritical || ledger.FiveHour != nil {
		t.Errorf("ledger = %+v", ledger)
	}
	if f.sink.rec.Reason != recommend.ReasonAllDepleted {
		t.Errorf("recommendation reason = %q", f.sink.rec.Reason)
	}
	if len(f.history.snapshots) != 1 {
		t.Errorf("history snapshots = %d, want 1", len(f.history.snapshots))
	}

	// Same level again: the ratchet does not re-fire.
	f.events.queue = []*models.UsageEvent{event(f.now, 25, 97)}
	if _, err := f.mgr.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.sink.alerts) != 1 {
		t.Errorf("alerts after second refresh = %d, want 1", len(f.sink.alerts))
	}
}

func TestRefresh_InProgressIsDropped(t *testing.T) {
	f := newFixture(t, twoAccounts())
	f.mgr.refreshing.Store(true)

	if _, err := f.mgr.Refresh(context.Background()); !errors.Is(err, ErrRefreshInProgress) {
		t.Errorf("Refresh() error = %v, want ErrRefreshInProgress", err)
	}
	if _, err := f.mgr.DailyHello(context.Background()); !errors.Is(err, ErrRefreshInProgress) {
		t.Errorf("DailyHello() error = %v, want ErrRefreshInProgress", err)
	}
	if f.store.saves != 0 || len(f.events.sinces) != 0 {
		t.Error("dropped refresh touched state or logs")
	}

	f.mgr.refreshing.Store(false)
	if _, err := f.mgr.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh() after release error = %v", err)
	}
}

func TestRefresh_AccountNotConfigured(t *testing.T) {
	f := newFixture(t, twoAccounts())
	f.identity.email = "stranger@x.com"
	f.events.queue = []*models.UsageEvent{event(f.now, 10, 10)}

	res, err := f.mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !errors.Is(res.Warning(), ErrAccountNotConfigured) {
		t.Errorf("Warning() = %v, want ErrAccountNotConfigured", res.Warning())
	}
	if f.store.state.Active() != "stranger@x.com" {
		t.Errorf("active = %q, want stranger@x.com", f.store.state.Active())
	}
	if len(f.events.sinces) != 0 {
		t.Error("logs were read for an unconfigured account")
	}
}

func TestRefresh_IdentityErrorKeepsStoredActive(t *testing.T) {
	state := twoAccounts()
	state.SetActive("b@x.com")
	f := newFixture(t, state)
	f.identity.err = auth.ErrFileNotFound
	f.events.queue = []*models.UsageEvent{event(f.now, 10, 30)}

	res, err := f.mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if res.HasAuth || res.ActiveEmail != "b@x.com" {
		t.Errorf("Refresh() = %+v, want stored active without auth", res)
	}
	if !errors.Is(res.Warning(), auth.ErrFileNotFound) {
		t.Errorf("Warning() = %v", res.Warning())
	}
	if acc := f.store.state.Account("b@x.com"); acc.LastSnapshot == nil {
		t.Error("event was not merged into stored active account")
	}
}

func TestRefresh_IncompleteEventForcesRefresh(t *testing.T) {
	f := newFixture(t, twoAccounts())
	ev := event(f.now, 10, 10)
	ev.Secondary = nil
	f.events.queue = []*models.UsageEvent{ev}

	res, err := f.mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if res.ForcedRefresh == nil || !res.ForcedRefresh.Sent {
		t.Fatalf("ForcedRefresh = %+v, want sent", res.ForcedRefresh)
	}
	if f.sender.calls != 1 {
		t.Errorf("sender calls = %d, want 1", f.sender.calls)
	}
	rec := f.store.state.ForcedRefreshRecords["a@x.com"]
	if rec.LastAttempt == nil || rec.LastSuccess == nil {
		t.Errorf("forced refresh record = %+v", rec)
	}
	if len(f.history.runs) != 1 || f.history.runs[0] != "forcedRefresh:sent" {
		t.Errorf("history runs = %v", f.history.runs)
	}
}

func TestRefresh_AccountSwitchSetsCutoff(t *testing.T) {
	f := newFixture(t, twoAccounts())

	if _, err := f.mgr.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.events.sinces[0] != nil {
		t.Errorf("first cutoff = %v, want nil", f.events.sinces[0])
	}

	f.identity.email = "b@x.com"
	f.now = f.now.Add(time.Minute)
	if _, err := f.mgr.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.events.sinces[1]; got == nil || !got.Equal(f.now) {
		t.Errorf("cutoff after switch = %v, want %v", got, f.now)
	}
}

func TestRefresh_NormalizesAndReminds(t *testing.T) {
	state := twoAccounts()
	past := time.Date(2026, 1, 15, 9, 30, 0, 0, time.Local)
	snap := models.QuotaSnapshot{
		CapturedAt: past,
		FiveHour:   models.UsageWindow{Kind: models.WindowFiveHour, UsedPercent: 50, WindowMinutes: 300, ResetsAt: past.Add(time.Hour)},
		Weekly:     models.UsageWindow{Kind: models.WindowWeekly, UsedPercent: 80, WindowMinutes: 10080, ResetsAt: past.Add(24 * time.Hour)},
	}
	state.Accounts[1].LastSnapshot = &snap
	f := newFixture(t, state)

	res, err := f.mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	got := f.store.state.Account("b@x.com").LastSnapshot
	if !got.Weekly.AssumedReset || got.Weekly.UsedPercent != 0 || !got.Weekly.ResetsAt.After(f.now) {
		t.Errorf("weekly window not rolled forward: %+v", got.Weekly)
	}
	if len(res.Reminders) != 1 || len(f.sink.reminders) != 1 || f.sink.reminders[0].Email != "b@x.com" {
		t.Errorf("reminders = %+v, delivered = %+v", res.Reminders, f.sink.reminders)
	}
	if res.Recommendation.Recommended == nil || res.Recommendation.Recommended.Email != "b@x.com" {
		t.Errorf("recommendation = %+v, want b@x.com", res.Recommendation)
	}
}

func TestRefresh_LogsMissingIsWarning(t *testing.T) {
	f := newFixture(t, twoAccounts())
	f.events.err = sessionlog.ErrLogsNotFound

	res, err := f.mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !errors.Is(res.Warning(), sessionlog.ErrLogsNotFound) {
		t.Errorf("Warning() = %v, want ErrLogsNotFound", res.Warning())
	}
	if f.store.saves != 1 {
		t.Errorf("saves = %d, want 1", f.store.saves)
	}
}

func TestManager_Subscription(t *testing.T) {
	f := newFixture(t, twoAccounts())
	ch, cmd := f.mgr.Subscribe()
	if cmd == nil {
		t.Fatal("Subscribe() returned nil cmd")
	}

	if _, err := f.mgr.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	msg := cmd()
	ev, ok := msg.(RefreshedEvent)
	if !ok {
		t.Fatalf("cmd() = %T, want RefreshedEvent", msg)
	}
	if ev.Result.ActiveEmail != "a@x.com" {
		t.Errorf("event active = %q", ev.Result.ActiveEmail)
	}
	if f.mgr.Latest() == nil {
		t.Error("Latest() = nil after refresh")
	}

	f.mgr.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Error("channel still open after Unsubscribe")
	}
	if err := f.mgr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestManager_HistoryReaders(t *testing.T) {
	f := newFixture(t, nil)
	f.history.snapshots = []models.SnapshotRecord{
		{Email: "a@example.com", WeeklyUsed: 10},
		{Email: "b@example.com", WeeklyUsed: 20},
		{Email: "a@example.com", WeeklyUsed: 30},
	}
	f.history.runs = []string{"dailyHello:sent"}

	recs, err := f.mgr.Snapshots("a@example.com", 10)
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if len(recs) != 2 || recs[0].WeeklyUsed != 30 {
		t.Errorf("Snapshots() = %+v, want 2 records newest first", recs)
	}

	runs, err := f.mgr.Runs(5)
	if err != nil || len(runs) != 1 {
		t.Errorf("Runs() = %v, %v, want 1 run", runs, err)
	}

	bare := New(f.mgr.cfg, Deps{Store: f.store, Events: f.events, Identity: f.identity, Sender: f.sender})
	if recs, err := bare.Snapshots("a@example.com", 10); recs != nil || err != nil {
		t.Errorf("Snapshots() without history = %v, %v, want nil, nil", recs, err)
	}
}
