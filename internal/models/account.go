// Package models defines data structures and domain types.
package models

import (
	"maps"
	"strconv"
	"time"
)

// Account is one configured account of the tracked service.
// Ordinal is user-assigned and stable; Email is the unique key.
type Account struct {
	LastSnapshot *QuotaSnapshot `json:"lastSnapshot,omitempty"`
	LastUpdated  *time.Time     `json:"lastUpdated,omitempty"`
	Email        string         `json:"email"`
	DisplayName  string         `json:"displayName,omitempty"`
	Ordinal      int            `json:"codexNumber"`
}

// Label returns the name shown to users, e.g. "Codex 2".
func (a *Account) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return "Codex " + strconv.Itoa(a.Ordinal)
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() Account {
	clone := Account{
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Ordinal:     a.Ordinal,
	}
	if a.LastSnapshot != nil {
		snap := *a.LastSnapshot
		clone.LastSnapshot = &snap
	}
	if a.LastUpdated != nil {
		clone.LastUpdated = TimePtr(*a.LastUpdated)
	}
	return clone
}

// AppState is the persisted aggregate root.
// Bookkeeping maps may hold entries for accounts that were since removed.
type AppState struct {
	ActiveEmail           *string                         `json:"activeEmail,omitempty"`
	LastRefresh           *time.Time                      `json:"lastRefresh,omitempty"`
	NotificationLedger    map[string]ThresholdSnapshot    `json:"notificationLedger,omitempty"`
	ForcedRefreshRecords  map[string]ForcedRefreshRecord  `json:"forcedRefreshRecords,omitempty"`
	DailyHelloRecords     map[string]DailyHelloRecord     `json:"dailyHelloRecords,omitempty"`
	WeeklyReminderRecords map[string]WeeklyReminderRecord `json:"weeklyReminderRecords,omitempty"`
	Accounts              []Account                       `json:"accounts"`
}

// NewAppState returns an empty state with initialized maps.
func NewAppState() *AppState {
	s := &AppState{Accounts: []Account{}}
	s.EnsureMaps()
	return s
}

// EnsureMaps allocates any nil bookkeeping maps, e.g. after decoding an older file.
func (s *AppState) EnsureMaps() {
	if s.Accounts == nil {
		s.Accounts = []Account{}
	}
	if s.NotificationLedger == nil {
		s.NotificationLedger = make(map[string]ThresholdSnapshot)
	}
	if s.ForcedRefreshRecords == nil {
		s.ForcedRefreshRecords = make(map[string]ForcedRefreshRecord)
	}
	if s.DailyHelloRecords == nil {
		s.DailyHelloRecords = make(map[string]DailyHelloRecord)
	}
	if s.WeeklyReminderRecords == nil {
		s.WeeklyReminderRecords = make(map[string]WeeklyReminderRecord)
	}
}

// Active returns the active email, or "" when unset.
func (s *AppState) Active() string {
	if s.ActiveEmail == nil {
		return ""
	}
	return *s.ActiveEmail
}

// SetActive sets or clears the active email.
func (s *AppState) SetActive(email string) {
	if email == "" {
		s.ActiveEmail = nil
		return
	}
	s.ActiveEmail = &email
}

// AccountIndex returns the index of the account with the given email, or -1.
func (s *AppState) AccountIndex(email string) int {
	for i := range s.Accounts {
		if s.Accounts[i].Email == email {
			return i
		}
	}
	return -1
}

// Account returns a pointer into Accounts for the given email, or nil.
func (s *AppState) Account(email string) *Account {
	if i := s.AccountIndex(email); i >= 0 {
		return &s.Accounts[i]
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *AppState) Clone() *AppState {
	clone := &AppState{
		Accounts:              make([]Account, len(s.Accounts)),
		NotificationLedger:    maps.Clone(s.NotificationLedger),
		ForcedRefreshRecords:  maps.Clone(s.ForcedRefreshRecords),
		DailyHelloRecords:     maps.Clone(s.DailyHelloRecords),
		WeeklyReminderRecords: maps.Clone(s.WeeklyReminderRecords),
	}
	for i := range s.Accounts {
		clone.Accounts[i] = s.Accounts[i].Clone()
	}
	if s.ActiveEmail != nil {
		clone.SetActive(*s.ActiveEmail)
	}
	if s.LastRefresh != nil {
		clone.LastRefresh = TimePtr(*s.LastRefresh)
	}
	clone.EnsureMaps()
	return clone
}
