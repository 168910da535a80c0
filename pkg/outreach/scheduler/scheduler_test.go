package scheduler

import (
	"testing"
	"time"

	"github.com/assistant-support/web-sale-sub000/pkg/outreach/quota"
	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

func withoutJitter(t *testing.T) {
	t.Helper()
	orig := randFloat
	randFloat = func() float64 { return 0.5 }
	t.Cleanup(func() { randFloat = orig })
}

func testRecipients(n int) []outreachTypes.Recipient {
	recipients := make([]outreachTypes.Recipient, n)
	for i := range recipients {
		recipients[i] = outreachTypes.Recipient{
			Name:  "person",
			Phone: "090000000" + string(rune('0'+i)),
		}
	}
	return recipients
}

func unlimitedQuota() quota.Quota {
	return quota.ForAccount(outreachTypes.Account{Name: "new-model"})
}

func TestSchedulePreservesInputOrder(t *testing.T) {
	recipients := testRecipients(8)
	now := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)

	res := Schedule(recipients, unlimitedQuota(), 30, outreachTypes.ACTION_TYPE_LOOKUP_IDENTITY, time.Time{}, now)

	if len(res.Tasks) != len(recipients) {
		t.Fatalf("expected %d tasks, got %d", len(recipients), len(res.Tasks))
	}
	for i, task := range res.Tasks {
		if task.Recipient.Phone != recipients[i].Phone {
			t.Errorf("task %d out of order: got %s want %s", i, task.Recipient.Phone, recipients[i].Phone)
		}
		if task.Completed {
			t.Errorf("task %d created as completed", i)
		}
	}
}

func TestScheduleCadenceIsUnjittered(t *testing.T) {
	withoutJitter(t)

	now := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)
	res := Schedule(testRecipients(5), unlimitedQuota(), 30, outreachTypes.ACTION_TYPE_LOOKUP_IDENTITY, time.Time{}, now)

	interval := 2 * time.Minute
	for i, task := range res.Tasks {
		want := now.Add(time.Duration(i) * interval)
		if !task.ScheduledFor.Equal(want) {
			t.Errorf("task %d scheduled for %v, want %v", i, task.ScheduledFor, want)
		}
	}
	if want := now.Add(5 * interval); !res.EstimatedCompletion.Equal(want) {
		t.Errorf("estimated completion %v, want %v", res.EstimatedCompletion, want)
	}
}

func TestScheduleJitterStaysWithinBounds(t *testing.T) {
	now := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)
	interval := 2 * time.Minute
	maxOffset := time.Duration(jitterSpread / 2 * float64(interval))

	res := Schedule(testRecipients(9), unlimitedQuota(), 30, outreachTypes.ACTION_TYPE_LOOKUP_IDENTITY, time.Time{}, now)

	for i, task := range res.Tasks {
		slot := now.Add(time.Duration(i) * interval)
		offset := task.ScheduledFor.Sub(slot)
		if offset < -maxOffset || offset > maxOffset {
			t.Errorf("task %d jitter %v outside ±%v", i, offset, maxOffset)
		}
	}
}

func TestScheduleQuotaGating(t *testing.T) {
	withoutJitter(t)

	hourStart := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)
	account := outreachTypes.Account{Name: "legacy", Quota: &outreachTypes.WindowState{
		RateLimitPerHour:    2,
		RateLimitPerDay:     100,
		ActionsUsedThisHour: 2,
		ActionsUsedThisDay:  2,
		RateLimitHourStart:  hourStart,
		RateLimitDayStart:   time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local),
	}}
	accountQuota := quota.ForAccount(account)

	res := Schedule(testRecipients(1), accountQuota, 30, outreachTypes.ACTION_TYPE_LOOKUP_IDENTITY, time.Time{}, hourStart.Add(10*time.Minute))

	nextWindow := hourStart.Add(time.Hour)
	if res.Tasks[0].ScheduledFor.Before(nextWindow) {
		t.Errorf("gated task scheduled for %v, before next window %v", res.Tasks[0].ScheduledFor, nextWindow)
	}
}

func TestScheduleQuotaNeverExceededAtAssignment(t *testing.T) {
	withoutJitter(t)

	hourStart := time.Date(2024, 5, 13, 9, 0, 0, 0, time.Local)
	account := outreachTypes.Account{Name: "legacy", Quota: &outreachTypes.WindowState{
		RateLimitPerHour:   3,
		RateLimitPerDay:    50,
		RateLimitHourStart: hourStart,
		RateLimitDayStart:  time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local),
	}}
	accountQuota := quota.ForAccount(account)

	res := Schedule(testRecipients(9), accountQuota, 30, outreachTypes.ACTION_TYPE_ADD_FRIEND, time.Time{}, hourStart)

	// With 3 actions per hour window and a 2 minute cadence, tasks 3..5 must
	// have been pushed into the following hour window, and so on.
	for i, task := range res.Tasks {
		windowIdx := i / 3
		earliest := hourStart.Add(time.Duration(windowIdx) * time.Hour)
		if task.ScheduledFor.Before(earliest) {
			t.Errorf("task %d scheduled for %v, before its legal window %v", i, task.ScheduledFor, earliest)
		}
	}

	state := accountQuota.State()
	if state.ActionsUsedThisHour > state.RateLimitPerHour {
		t.Errorf("hour counter exceeds limit: %d", state.ActionsUsedThisHour)
	}
}

func TestSendMessageBypassesQuota(t *testing.T) {
	withoutJitter(t)

	hourStart := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)
	account := outreachTypes.Account{Name: "legacy", Quota: &outreachTypes.WindowState{
		RateLimitPerHour:    1,
		RateLimitPerDay:     1,
		ActionsUsedThisHour: 1,
		ActionsUsedThisDay:  1,
		RateLimitHourStart:  hourStart,
		RateLimitDayStart:   time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local),
	}}
	accountQuota := quota.ForAccount(account)

	now := hourStart.Add(5 * time.Minute)
	res := Schedule(testRecipients(4), accountQuota, 30, outreachTypes.ACTION_TYPE_SEND_MESSAGE, time.Time{}, now)

	interval := 2 * time.Minute
	for i, task := range res.Tasks {
		want := now.Add(time.Duration(i) * interval)
		if !task.ScheduledFor.Equal(want) {
			t.Errorf("send-message task %d delayed by quota gating: got %v want %v", i, task.ScheduledFor, want)
		}
	}

	state := accountQuota.State()
	if state.ActionsUsedThisHour != 1 || state.ActionsUsedThisDay != 1 {
		t.Errorf("send-message actions must not touch the counters: %+v", state)
	}
}

func TestScheduleStartsFromGivenTime(t *testing.T) {
	withoutJitter(t)

	now := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)
	start := now.Add(3 * time.Hour)

	res := Schedule(testRecipients(2), unlimitedQuota(), 10, outreachTypes.ACTION_TYPE_LOOKUP_IDENTITY, start, now)

	if !res.Tasks[0].ScheduledFor.Equal(start) {
		t.Errorf("first task should start at the given time, got %v", res.Tasks[0].ScheduledFor)
	}
}
