package quota

import (
	"time"

	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

// Quota abstracts over the two account models: legacy accounts with locally
// tracked hour/day windows and newer accounts without local usage tracking.
type Quota interface {
	// StartFloor returns the earliest time a new schedule may anchor its
	// first slot, a job must not start before the current rate limit window.
	StartFloor(now time.Time) time.Time

	// Reserve advances t past any exhausted windows, records one action and
	// returns the earliest time the action may run.
	Reserve(t time.Time) time.Time

	// State returns the counters to persist after scheduling, nil when the
	// account tracks nothing locally.
	State() *outreachTypes.WindowState
}

// ForAccount selects the quota model of the given account. The returned
// value operates on a copy of the persisted counters, the caller decides
// whether to write the updated state back.
func ForAccount(account outreachTypes.Account) Quota {
	if account.HasQuotaWindows() {
		state := *account.Quota
		return &windowed{state: &state}
	}
	return unlimited{}
}

type windowed struct {
	state *outreachTypes.WindowState
}

func (q *windowed) StartFloor(now time.Time) time.Time {
	if now.Before(q.state.RateLimitHourStart) {
		return q.state.RateLimitHourStart
	}
	return now
}

func (q *windowed) Reserve(t time.Time) time.Time {
	for {
		q.roll(t)
		if q.state.ActionsUsedThisHour >= q.state.RateLimitPerHour {
			t = q.state.RateLimitHourStart.Add(time.Hour)
			continue
		}
		if q.state.ActionsUsedThisDay >= q.state.RateLimitPerDay {
			t = nextMidnight(q.state.RateLimitDayStart)
			continue
		}
		break
	}
	q.state.ActionsUsedThisHour++
	q.state.ActionsUsedThisDay++
	return t
}

// roll moves the hour and day windows forward so that t falls inside them.
func (q *windowed) roll(t time.Time) {
	if !t.Before(q.state.RateLimitHourStart.Add(time.Hour)) {
		q.state.ActionsUsedThisHour = 0
		q.state.RateLimitHourStart = t.Truncate(time.Hour)
	}
	if !t.Before(nextMidnight(q.state.RateLimitDayStart)) {
		q.state.ActionsUsedThisDay = 0
		q.state.ActionsUsedThisHour = 0
		q.state.RateLimitDayStart = midnightOf(t)
	}
}

func (q *windowed) State() *outreachTypes.WindowState {
	return q.state
}

// unlimited is the compatibility shim for newer account models, the platform
// enforces limits on its side and nothing is tracked locally.
type unlimited struct{}

func (unlimited) StartFloor(now time.Time) time.Time { return now }

func (unlimited) Reserve(t time.Time) time.Time { return t }

func (unlimited) State() *outreachTypes.WindowState { return nil }

func midnightOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func nextMidnight(dayStart time.Time) time.Time {
	return midnightOf(dayStart).AddDate(0, 0, 1)
}
