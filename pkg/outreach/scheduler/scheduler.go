package scheduler

import (
	"math/rand"
	"time"

	"github.com/assistant-support/web-sale-sub000/pkg/outreach/quota"
	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

// Total jitter spread relative to the base interval, a slot moves by at most
// ±15% of the interval. Jitter keeps the action timing from looking
// mechanically periodic.
const jitterSpread = 0.3

// randFloat is swapped out in tests to make schedules deterministic.
var randFloat = rand.Float64

type Result struct {
	Tasks               []outreachTypes.Task
	EstimatedCompletion time.Time
}

// Schedule assigns an execution slot to every recipient, walking the list in
// input order with a fixed cadence of actionsPerHour. For quota gated action
// types the cursor skips ahead whenever the account's hour or day window is
// exhausted. Send-message actions bypass the local quota entirely, messaging
// limits are enforced by the platform and not tracked here.
//
// The caller validates inputs: recipients must be non-empty and
// actionsPerHour must already be clamped to a sane range. A zero startTime
// anchors the first slot at the account's window floor (no earlier than the
// current rate limit window start).
//
// Pure computation, the quota's counters advance in memory only, persisting
// them is the caller's decision.
func Schedule(
	recipients []outreachTypes.Recipient,
	accountQuota quota.Quota,
	actionsPerHour int,
	actionType string,
	startTime time.Time,
	now time.Time,
) Result {
	baseInterval := time.Hour / time.Duration(actionsPerHour)

	cursor := startTime
	if cursor.IsZero() {
		cursor = accountQuota.StartFloor(now)
	}

	gated := actionType != outreachTypes.ACTION_TYPE_SEND_MESSAGE

	tasks := make([]outreachTypes.Task, 0, len(recipients))
	for _, recipient := range recipients {
		if gated {
			cursor = accountQuota.Reserve(cursor)
		}

		jitter := time.Duration((randFloat() - 0.5) * jitterSpread * float64(baseInterval))
		tasks = append(tasks, outreachTypes.Task{
			Recipient:    recipient,
			ScheduledFor: cursor.Add(jitter),
		})

		// Jitter never accumulates, the cursor advances by the plain interval.
		cursor = cursor.Add(baseInterval)
	}

	return Result{
		Tasks:               tasks,
		EstimatedCompletion: cursor,
	}
}
