package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/codexhud/internal/auth"
	"github.com/j-veylop/codexhud/internal/logger"
	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/notify"
	"github.com/j-veylop/codexhud/internal/usage"
)

// Kind identifies an automated action.
type Kind string

const (
	KindDailyHello     Kind = "dailyHello"
	KindForcedRefresh  Kind = "forcedRefresh"
	KindWeeklyReminder Kind = "weeklyReminder"
)

// Runner-level skip reasons, reported alongside the policy reasons.
const (
	ReasonNoState       BlockReason = "noState"
	ReasonNotConfigured BlockReason = "notConfigured"
)

// Run outcomes written to history.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// StateStore loads and saves the aggregate state.
type StateStore interface {
	Load() (*models.AppState, error)
	Save(state *models.AppState) error
}

// IdentitySource resolves the signed-in account.
type IdentitySource interface {
	Load(path string) (auth.Identity, error)
}

// RunRecorder stores an audit row per attempted action.
type RunRecorder interface {
	RecordRun(email, kind, outcome, detail string, at time.Time) error
}

// Result describes what a run did. Reason is empty when the action was attempted.
type Result struct {
	Kind   Kind
	Email  string
	Reason BlockReason
	Sent   bool
}

// Runner executes gated actions, persisting each allowed record before the
// side effect and the outcome after it.
type Runner struct {
	Store          StateStore
	Identity       IdentitySource
	Sender         Sender
	Sink           notify.Sink
	History        RunRecorder
	Now            func() time.Time
	AuthPath       string
	Model          string
	Message        string
	Thresholds     usage.Thresholds
	ForcedRefresh  ForcedRefreshEvaluator
	DailyHello     DailyHelloEvaluator
	WeeklyReminder WeeklyReminderEvaluator
}

// NewRunner creates a runner with default policies.
func NewRunner(store StateStore, identity IdentitySource, sender Sender, sink notify.Sink, thresholds usage.Thresholds) *Runner {
	return &Runner{
		Store:          store,
		Identity:       identity,
		Sender:         sender,
		Sink:           sink,
		Now:            time.Now,
		Message:        DefaultMessage,
		Thresholds:     thresholds,
		ForcedRefresh:  ForcedRefreshEvaluator{Thresholds: thresholds, Policy: DefaultForcedRefreshPolicy()},
		DailyHello:     DailyHelloEvaluator{Policy: DefaultDailyHelloPolicy()},
		WeeklyReminder: WeeklyReminderEvaluator{Policy: DefaultWeeklyReminderPolicy()},
	}
}

// RunDailyHello loads state and identity, then runs DailyHelloFor.
func (r *Runner) RunDailyHello(ctx context.Context) (Result, error) {
	res := Result{Kind: KindDailyHello}
	state, err := r.Store.Load()
	if err != nil {
		return res, err
	}
	if state == nil {
		res.Reason = ReasonNoState
		return res, nil
	}
	state.EnsureMaps()

	id, err := r.Identity.Load(r.AuthPath)
	if err != nil {
		return res, fmt.Errorf("load identity: %w", err)
	}
	return r.DailyHelloFor(ctx, state, id.Email)
}

// DailyHelloFor sends a keep-alive for email if its policy allows.
func (r *Runner) DailyHelloFor(ctx context.Context, state *models.AppState, email string) (Result, error) {
	res := Result{Kind: KindDailyHello, Email: email}
	now := r.now()
	state.EnsureMaps()

	account := state.Account(email)
	if account == nil {
		res.Reason = ReasonNotConfigured
		return res, nil
	}
	if remaining, ok := usage.WeeklyRemaining(account); ok && remaining.AtMost(r.Thresholds.Depleted()) {
		res.Reason = ReasonWeeklyDepleted
		return res, nil
	}

	started := FiveHourStarted(account, now, r.DailyHello.Policy.StartHour)
	d := r.DailyHello.Decide(now, state.DailyHelloRecords[email], started)
	if !d.Allowed {
		logger.Debug("daily hello blocked", "email", email, "reason", d.Reason)
		res.Reason = d.Reason
		return res, nil
	}

	state.DailyHelloRecords[email] = d.Record
	if err := r.Store.Save(state); err != nil {
		return res, err
	}

	err := r.Sender.SendHello(ctx, r.Model, r.message())
	r.record(email, KindDailyHello, err, now)
	if err != nil {
		return res, fmt.Errorf("daily hello: %w", err)
	}

	res.Sent = true
	if r.Sink != nil {
		if err := r.Sink.HelloSent(account, now); err != nil {
			logger.Warn("hello notification failed", "error", err)
		}
	}
	return res, nil
}

// RunForcedRefresh loads state and identity, then runs ForcedRefreshFor.
// A missing or unreadable credential blocks with ReasonNoAuth.
func (r *Runner) RunForcedRefresh(ctx context.Context) (Result, error) {
	res := Result{Kind: KindForcedRefresh}
	state, err := r.Store.Load()
	if err != nil {
		return res, err
	}
	if state == nil {
		res.Reason = ReasonNoState
		return res, nil
	}
	state.EnsureMaps()

	id, err := r.Identity.Load(r.AuthPath)
	if err != nil {
		logger.Debug("no identity for forced refresh", "error", err)
		return r.ForcedRefreshFor(ctx, state, "", false)
	}
	return r.ForcedRefreshFor(ctx, state, id.Email, true)
}

// ForcedRefreshFor sends a refresh for email if its policy allows, recording
// success or failure in the account's ForcedRefreshRecord.
func (r *Runner) ForcedRefreshFor(ctx context.Context, state *models.AppState, email string, hasAuth bool) (Result, error) {
	res := Result{Kind: KindForcedRefresh, Email: email}
	now := r.now()
	state.EnsureMaps()

	in := ForcedRefreshInput{HasAuth: hasAuth}
	if remaining, ok := usage.WeeklyRemaining(state.Account(email)); ok {
		in.WeeklyRemaining = &remaining
	}

	d := r.ForcedRefresh.Decide(now, state.ForcedRefreshRecords[email], in)
	if !d.Allowed {
		logger.Debug("forced refresh blocked", "email", email, "reason", d.Reason)
		res.Reason = d.Reason
		return res, nil
	}

	state.ForcedRefreshRecords[email] = d.Record
	if err := r.Store.Save(state); err != nil {
		return res, err
	}

	sendErr := r.Sender.SendHello(ctx, r.Model, r.message())
	if sendErr == nil {
		state.ForcedRefreshRecords[email] = MarkSuccess(d.Record, r.now())
	} else {
		state.ForcedRefreshRecords[email] = MarkFailure(d.Record, r.now())
	}
	saveErr := r.Store.Save(state)
	r.record(email, KindForcedRefresh, sendErr, now)

	if sendErr != nil {
		return res, errors.Join(fmt.Errorf("forced refresh: %w", sendErr), saveErr)
	}
	res.Sent = true
	return res, saveErr
}

// WeeklyReminders updates the reminder record of every account whose
// reminder is due and returns the reminders to deliver. The caller persists
// state before delivering them.
func (r *Runner) WeeklyReminders(state *models.AppState) []notify.ReminderEvent {
	now := r.now()
	state.EnsureMaps()
	var due []notify.ReminderEvent
	for i := range state.Accounts {
		acc := &state.Accounts[i]
		if acc.LastSnapshot == nil {
			continue
		}
		d := r.WeeklyReminder.Decide(now, acc.LastSnapshot.Weekly, state.WeeklyReminderRecords[acc.Email])
		if !d.Allowed {
			continue
		}
		state.WeeklyReminderRecords[acc.Email] = d.Record
		due = append(due, notify.ReminderEvent{
			Email:    acc.Email,
			Label:    acc.Label(),
			Ordinal:  acc.Ordinal,
			ResetsAt: acc.LastSnapshot.Weekly.ResetsAt,
		})
	}
	return due
}

// DeliverReminders sends reminders through the sink.
func (r *Runner) DeliverReminders(reminders []notify.ReminderEvent) {
	for _, ev := range reminders {
		var err error
		if r.Sink != nil {
			err = r.Sink.WeeklyReminder(ev)
		}
		if err != nil {
			logger.Warn("weekly reminder failed", "email", ev.Email, "error", err)
		}
		r.record(ev.Email, KindWeeklyReminder, err, r.now())
	}
}

func (r *Runner) record(email string, kind Kind, err error, at time.Time) {
	if r.History == nil {
		return
	}
	outcome, detail := OutcomeSent, ""
	if err != nil {
		outcome, detail = OutcomeFailed, err.Error()
	}
	if herr := r.History.RecordRun(email, string(kind), outcome, detail, at); herr != nil {
		logger.Warn("failed to record automation run", "kind", kind, "error", herr)
	}
}

func (r *Runner) message() string {
	if r.Message == "" {
		return DefaultMessage
	}
	return r.Message
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
