// Package recommend picks which configured account to use next.
package recommend

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/usage"
)

// Reason explains a Decision.
type Reason string

const (
	// ReasonStickiness keeps the active account because it is still usable.
	ReasonStickiness Reason = "stickiness"
	// ReasonEarliestWeeklyReset picks the available account whose week ends first.
	ReasonEarliestWeeklyReset Reason = "earliestWeeklyReset"
	// ReasonAllDepleted picks the depleted account that recovers first.
	ReasonAllDepleted Reason = "allDepleted"
	// ReasonNoData means no account has a snapshot yet.
	ReasonNoData Reason = "noData"
)

// Decision is the outcome of Recommend. Recommended is nil only for ReasonNoData.
type Decision struct {
	Recommended *models.Account
	Reason      Reason
	ActiveEmail string
}

// Engine ranks accounts by weekly quota.
type Engine struct {
	Thresholds usage.Thresholds
}

// NewEngine creates an engine using the given thresholds.
func NewEngine(thresholds usage.Thresholds) Engine {
	return Engine{Thresholds: thresholds}
}

type candidate struct {
	account models.Account
	status  usage.Status
}

func (e Engine) evaluate(accounts []models.Account) []candidate {
	return lo.Map(accounts, func(a models.Account, _ int) candidate {
		return candidate{account: a, status: e.Thresholds.Evaluate(&a)}
	})
}

// Recommend picks the account to use next.
//
// The active account is kept while it is available. Otherwise the available
// account with the earliest weekly reset wins, ties going to the one with
// more remaining; failing that the same rule is applied to depleted accounts.
func (e Engine) Recommend(accounts []models.Account, activeEmail string) Decision {
	cands := e.evaluate(accounts)

	if active, ok := findActive(cands, activeEmail); ok && active.status.Kind == usage.StatusAvailable {
		return decision(active, ReasonStickiness, activeEmail)
	}

	if available := ofKind(cands, usage.StatusAvailable); len(available) > 0 {
		return decision(lo.MinBy(available, resetsFirst), ReasonEarliestWeeklyReset, activeEmail)
	}
	if depleted := ofKind(cands, usage.StatusDepleted); len(depleted) > 0 {
		return decision(lo.MinBy(depleted, resetsFirst), ReasonAllDepleted, activeEmail)
	}
	return Decision{Reason: ReasonNoData, ActiveEmail: activeEmail}
}

// Prioritize returns every account in recommendation order: the active
// account if available, then available and depleted accounts ranked like
// Recommend, then accounts without data in their original order.
func (e Engine) Prioritize(accounts []models.Account, activeEmail string) []models.Account {
	cands := e.evaluate(accounts)
	ordered := make([]models.Account, 0, len(accounts))

	sticky := ""
	if active, ok := findActive(cands, activeEmail); ok && active.status.Kind == usage.StatusAvailable {
		ordered = append(ordered, active.account)
		sticky = active.account.Email
	}

	for _, kind := range []usage.StatusKind{usage.StatusAvailable, usage.StatusDepleted} {
		group := lo.Filter(ofKind(cands, kind), func(c candidate, _ int) bool {
			return c.account.Email != sticky
		})
		slices.SortStableFunc(group, compareCandidates)
		ordered = append(ordered, accountsOf(group)...)
	}

	return append(ordered, accountsOf(ofKind(cands, usage.StatusUnknown))...)
}

func findActive(cands []candidate, email string) (candidate, bool) {
	if email == "" {
		return candidate{}, false
	}
	return lo.Find(cands, func(c candidate) bool {
		return c.account.Email == email
	})
}

func ofKind(cands []candidate, kind usage.StatusKind) []candidate {
	return lo.Filter(cands, func(c candidate, _ int) bool {
		return c.status.Kind == kind
	})
}

func accountsOf(cands []candidate) []models.Account {
	return lo.Map(cands, func(c candidate, _ int) models.Account {
		return c.account
	})
}

// resetsFirst reports whether a ranks ahead of b.
func resetsFirst(a, b candidate) bool {
	return compareCandidates(a, b) < 0
}

func compareCandidates(a, b candidate) int {
	ra, rb := a.status.Weekly.ResetsAt, b.status.Weekly.ResetsAt
	if c := ra.Compare(rb); c != 0 {
		return c
	}
	// Higher remaining ranks first.
	pa, pb := a.status.Weekly.Remaining, b.status.Weekly.Remaining
	switch {
	case pb.Less(pa):
		return -1
	case pa.Less(pb):
		return 1
	default:
		return 0
	}
}

func decision(c candidate, reason Reason, activeEmail string) Decision {
	account := c.account.Clone()
	return Decision{Recommended: &account, Reason: reason, ActiveEmail: activeEmail}
}

// Summary is a one-line description of the decision for display.
func (d Decision) Summary() string {
	if d.Recommended == nil {
		return "No usage recorded yet."
	}
	name := fmt.Sprintf("%s (%s)", d.Recommended.Label(), d.Recommended.Email)
	switch d.Reason {
	case ReasonStickiness:
		return "Keep using " + name + "."
	case ReasonAllDepleted:
		return "All accounts depleted. " + name + " recovers first."
	default:
		if d.Recommended.Email == d.ActiveEmail {
			return "Keep using " + name + "."
		}
		return "Switch to " + name + ", its weekly window resets first."
	}
}
