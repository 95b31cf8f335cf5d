// Package services orchestrates refreshes for the CLI and the dashboard.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/codexhud/internal/auth"
	"github.com/j-veylop/codexhud/internal/automation"
	"github.com/j-veylop/codexhud/internal/config"
	"github.com/j-veylop/codexhud/internal/db"
	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/notify"
	"github.com/j-veylop/codexhud/internal/recommend"
	"github.com/j-veylop/codexhud/internal/sessionlog"
	"github.com/j-veylop/codexhud/internal/store"
	"github.com/j-veylop/codexhud/internal/usage"
	"github.com/j-veylop/codexhud/internal/watch"
)

// HistoryRetention is how long history rows are kept.
const HistoryRetention = 90 * 24 * time.Hour

var (
	// ErrRefreshInProgress is returned when a refresh is already running.
	// The trigger is dropped, not queued.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrAccountNotConfigured means the signed-in account is not in the account list.
	ErrAccountNotConfigured = errors.New("active account is not configured")
)

type (
	// RefreshedEvent is emitted after every completed refresh.
	RefreshedEvent struct {
		Result Result
	}

	// ErrorEvent is emitted when a refresh fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()     {}

// EventSource yields the newest usage event appended since the last call.
type EventSource interface {
	Next(since *time.Time) (*models.UsageEvent, error)
	Path() string
	Close() error
}

// History stores snapshots and automation runs.
type History interface {
	automation.RunRecorder
	InsertSnapshot(rec *models.SnapshotRecord) error
}

// Deps are the collaborators of a Manager. History, Sink and Now are optional.
type Deps struct {
	Store    automation.StateStore
	Events   EventSource
	Identity automation.IdentitySource
	Sender   automation.Sender
	Sink     notify.Sink
	History  History
	Now      func() time.Time
}

// Result describes one refresh.
type Result struct {
	At             time.Time
	State          *models.AppState
	ForcedRefresh  *automation.Result
	Recommendation recommend.Decision
	ActiveEmail    string
	Alerts         []notify.Event
	Reminders      []notify.ReminderEvent
	Warnings       []error
	HasAuth        bool
	Updated        bool
}

// Warning joins the non-fatal problems of the refresh.
func (r Result) Warning() error {
	return errors.Join(r.Warnings...)
}

// Manager serializes refreshes and routes their results to subscribers.
type Manager struct {
	cfg         *config.Config
	deps        Deps
	runner      *automation.Runner
	evaluator   notify.Evaluator
	engine      recommend.Engine
	since       *time.Time
	latest      *Result
	subscribers []chan<- ServiceEvent
	lastActive  string
	mu          sync.RWMutex
	refreshing  atomic.Bool

	// FullScan makes a refresh that finds no new event fall back to scanning
	// the whole tracked log, for accounts that have no snapshot yet.
	FullScan bool
}

// NewManager wires the production collaborators from cfg.
func NewManager(cfg *config.Config) (*Manager, error) {
	st, err := store.New(cfg.StatePath, store.DefaultOptions())
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return New(cfg, Deps{
		Store:    st,
		Events:   sessionlog.NewIngestor(cfg.SessionsDir, cfg.TailBytes),
		Identity: auth.NewDecoder(),
		Sender:   automation.NewCodexSender(cfg.CodexBin),
		Sink:     notify.NewDesktopSink(cfg.Notifications),
		History:  database,
	}), nil
}

// New creates a manager from explicit collaborators.
func New(cfg *config.Config, deps Deps) *Manager {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	thresholds := cfg.Thresholds()

	runner := automation.NewRunner(deps.Store, deps.Identity, deps.Sender, deps.Sink, thresholds)
	runner.AuthPath = cfg.AuthPath
	runner.Model = cfg.HelloModel
	runner.Now = deps.Now
	if deps.History != nil {
		runner.History = deps.History
	}

	return &Manager{
		cfg:       cfg,
		deps:      deps,
		runner:    runner,
		evaluator: notify.NewEvaluator(thresholds),
		engine:    recommend.NewEngine(thresholds),
	}
}

// Runner returns the automation runner sharing this manager's collaborators.
func (m *Manager) Runner() *automation.Runner {
	return m.runner
}

// Engine returns the recommendation engine.
func (m *Manager) Engine() recommend.Engine {
	return m.engine
}

// Latest returns the result of the last successful refresh, or nil.
func (m *Manager) Latest() *Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

type historyReader interface {
	RecentSnapshots(email string, limit int) ([]models.SnapshotRecord, error)
	RecentAutomationRuns(limit int) ([]models.AutomationRun, error)
}

// Snapshots returns up to limit recorded snapshots of email, newest first.
// It returns nothing when no history database is configured.
func (m *Manager) Snapshots(email string, limit int) ([]models.SnapshotRecord, error) {
	h, ok := m.deps.History.(historyReader)
	if !ok {
		return nil, nil
	}
	return h.RecentSnapshots(email, limit)
}

// Runs returns up to limit recorded automation runs, newest first.
func (m *Manager) Runs(limit int) ([]models.AutomationRun, error) {
	h, ok := m.deps.History.(historyReader)
	if !ok {
		return nil, nil
	}
	return h.RecentAutomationRuns(limit)
}

// Refresh reads new usage, updates every account and persists the state once.
// It returns ErrRefreshInProgress without doing anything when another
// refresh is running.
func (m *Manager) Refresh(ctx context.Context) (Result, error) {
	if !m.refreshing.CompareAndSwap(false, true) {
		return Result{}, ErrRefreshInProgress
	}
	defer m.refreshing.Store(false)

	now := m.deps.Now()
	res := Result{At: now}

	state, err := m.deps.Store.Load()
	if err != nil {
		return res, err
	}
	if state == nil {
		state = models.NewAppState()
	}
	state.EnsureMaps()

	if id, err := m.deps.Identity.Load(m.cfg.AuthPath); err == nil {
		res.HasAuth = true
		m.trackActive(state.Active(), id.Email, now)
		state.SetActive(id.Email)
	} else {
		logger.Debug("identity unavailable, keeping stored account", "error", err)
		res.Warnings = append(res.Warnings, fmt.Errorf("identity: %w", err))
	}
	res.ActiveEmail = state.Active()

	active := state.Account(res.ActiveEmail)
	if res.ActiveEmail != "" && active == nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("%w: %s", ErrAccountNotConfigured, res.ActiveEmail))
	}
	if active != nil {
		m.ingest(ctx, state, active, &res)
	}

	for i := range state.Accounts {
		acc := &state.Accounts[i]
		if acc.LastSnapshot == nil {
			continue
		}
		if normalized := usage.Normalize(*acc.LastSnapshot, now); !normalized.Equal(*acc.LastSnapshot) {
			acc.LastSnapshot = &normalized
		}
	}

	if active != nil {
		var previous *models.ThresholdSnapshot
		if entry, ok := state.NotificationLedger[active.Email]; ok {
			previous = &entry
		}
		if eval, ok := m.evaluator.Evaluate(active, previous); ok {
			state.NotificationLedger[active.Email] = eval.Snapshot
			res.Alerts = eval.Events
		}
	}
	res.Reminders = m.runner.WeeklyReminders(state)

	state.LastRefresh = models.TimePtr(now)
	if err := m.deps.Store.Save(state); err != nil {
		return res, err
	}

	res.Recommendation = m.engine.Recommend(state.Accounts, state.Active())
	m.deliver(&res)
	res.State = state

	m.mu.Lock()
	m.latest = &res
	m.mu.Unlock()
	m.broadcast(RefreshedEvent{Result: res})
	return res, nil
}

// trackActive starts a new event cutoff when the signed-in account changes,
// so events written under the previous account are not attributed to it.
func (m *Manager) trackActive(stored, current string, now time.Time) {
	prev := m.lastActive
	if prev == "" {
		prev = stored
	}
	if prev != "" && prev != current {
		logger.Info("active account changed", "from", prev, "to", current)
		m.since = models.TimePtr(now)
	}
	m.lastActive = current
}

func (m *Manager) ingest(ctx context.Context, state *models.AppState, active *models.Account, res *Result) {
	ev, err := m.deps.Events.Next(m.since)
	if err != nil {
		res.Warnings = append(res.Warnings, err)
		return
	}
	if ev == nil && m.FullScan && active.LastSnapshot == nil {
		if path := m.deps.Events.Path(); path != "" {
			if ev, err = sessionlog.LatestEvent(path, m.since, 0); err != nil {
				res.Warnings = append(res.Warnings, err)
				return
			}
		}
	}
	if ev == nil {
		return
	}

	snap, err := usage.SnapshotFromEvent(ev, models.SourceSessionLog)
	if errors.Is(err, usage.ErrIncompleteEvent) {
		res.Warnings = append(res.Warnings, err)
		fr, ferr := m.runner.ForcedRefreshFor(ctx, state, active.Email, res.HasAuth)
		res.ForcedRefresh = &fr
		if ferr != nil {
			res.Warnings = append(res.Warnings, ferr)
		}
		return
	}

	merged, changed := usage.Merge(active.LastSnapshot, snap)
	if !changed {
		return
	}
	active.LastSnapshot = &merged
	active.LastUpdated = models.TimePtr(res.At)
	res.Updated = true

	if m.deps.History != nil {
		rec := models.NewSnapshotRecord(active.Email, merged)
		if err := m.deps.History.InsertSnapshot(&rec); err != nil {
			logger.Warn("failed to record snapshot", "error", err)
		}
	}
}

func (m *Manager) deliver(res *Result) {
	if len(res.Alerts) > 0 && m.deps.Sink != nil {
		if err := m.deps.Sink.Alerts(res.Alerts, res.Recommendation); err != nil {
			logger.Warn("alert delivery failed", "error", err)
		}
	}
	m.runner.DeliverReminders(res.Reminders)
}

// DailyHello runs the keep-alive automation under the refresh guard.
func (m *Manager) DailyHello(ctx context.Context) (automation.Result, error) {
	if !m.refreshing.CompareAndSwap(false, true) {
		return automation.Result{}, ErrRefreshInProgress
	}
	defer m.refreshing.Store(false)
	return m.runner.RunDailyHello(ctx)
}

// ForcedRefresh runs the forced refresh automation under the refresh guard.
func (m *Manager) ForcedRefresh(ctx context.Context) (automation.Result, error) {
	if !m.refreshing.CompareAndSwap(false, true) {
		return automation.Result{}, ErrRefreshInProgress
	}
	defer m.refreshing.Store(false)
	return m.runner.RunForcedRefresh(ctx)
}

// Run refreshes immediately, then on every tick and on every debounced file
// change until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	m.prune()
	m.refreshAndReport(ctx)

	sub, err := m.subscribeChanges(func() { go m.refreshAndReport(ctx) })
	if err != nil {
		logger.Warn("file watching disabled", "error", err)
	} else {
		defer func() { _ = sub.Cancel() }()
	}

	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.refreshAndReport(ctx)
		}
	}
}

func (m *Manager) refreshAndReport(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := m.Refresh(ctx)
	switch {
	case errors.Is(err, ErrRefreshInProgress):
		logger.Debug("refresh dropped, one is already running")
	case err != nil:
		logger.Error("refresh failed", "error", err)
		m.broadcast(ErrorEvent{Service: "refresh", Error: err})
	default:
		if w := res.Warning(); w != nil {
			logger.Debug("refresh completed with warnings", "warnings", w)
		}
	}
}

// subscribeChanges watches the sessions tree and the credential file. Native
// notifications fall back to polling when they cannot be set up.
func (m *Manager) subscribeChanges(onChange func()) (watch.Subscription, error) {
	files := []string{m.cfg.AuthPath}
	poll := &watch.PollSource{Root: m.cfg.SessionsDir, Files: files, Debounce: m.cfg.WatchDebounce}
	if m.cfg.WatchMode == config.WatchModePoll {
		return poll.Subscribe(onChange)
	}

	native := &watch.FSNotifySource{Root: m.cfg.SessionsDir, Files: files, Debounce: m.cfg.WatchDebounce}
	sub, err := native.Subscribe(onChange)
	if err != nil {
		logger.Warn("native file watching unavailable, polling instead", "error", err)
		return poll.Subscribe(onChange)
	}
	return sub, nil
}

func (m *Manager) prune() {
	p, ok := m.deps.History.(interface {
		Prune(cutoff time.Time) (int64, error)
	})
	if !ok {
		return
	}
	n, err := p.Prune(m.deps.Now().Add(-HistoryRetention))
	if err != nil {
		logger.Warn("history prune failed", "error", err)
		return
	}
	if n > 0 {
		logger.Debug("pruned history", "rows", n)
	}
}

// broadcast sends an event to all subscribers without blocking.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ev
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes subscribers and releases the collaborators.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error
	if m.deps.Events != nil {
		errs = append(errs, m.deps.Events.Close())
	}
	if c, ok := m.deps.History.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
