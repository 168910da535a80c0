package quota

import (
	"testing"
	"time"

	outreachTypes "github.com/assistant-support/web-sale-sub000/pkg/outreach/types"
)

func legacyAccount(state outreachTypes.WindowState) outreachTypes.Account {
	return outreachTypes.Account{Name: "legacy", Quota: &state}
}

func TestUnlimitedQuota(t *testing.T) {
	q := ForAccount(outreachTypes.Account{Name: "new-model"})

	now := time.Date(2024, 5, 13, 10, 30, 0, 0, time.Local)
	if got := q.StartFloor(now); !got.Equal(now) {
		t.Errorf("unexpected start floor: %v", got)
	}
	for i := 0; i < 100; i++ {
		if got := q.Reserve(now); !got.Equal(now) {
			t.Fatalf("unlimited quota moved the slot: %v", got)
		}
	}
	if q.State() != nil {
		t.Error("unlimited quota should not expose persistable state")
	}
}

func TestStartFloorUsesWindowStart(t *testing.T) {
	hourStart := time.Date(2024, 5, 13, 11, 0, 0, 0, time.Local)
	q := ForAccount(legacyAccount(outreachTypes.WindowState{
		RateLimitPerHour:   10,
		RateLimitPerDay:    100,
		RateLimitHourStart: hourStart,
		RateLimitDayStart:  time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local),
	}))

	before := hourStart.Add(-20 * time.Minute)
	if got := q.StartFloor(before); !got.Equal(hourStart) {
		t.Errorf("start floor should be the hour window start, got %v", got)
	}
	after := hourStart.Add(5 * time.Minute)
	if got := q.StartFloor(after); !got.Equal(after) {
		t.Errorf("start floor should be now, got %v", got)
	}
}

func TestReserveSkipsToNextHourWhenExhausted(t *testing.T) {
	hourStart := time.Date(2024, 5, 13, 10, 0, 0, 0, time.Local)
	q := ForAccount(legacyAccount(outreachTypes.WindowState{
		RateLimitPerHour:    2,
		RateLimitPerDay:     100,
		ActionsUsedThisHour: 2,
		ActionsUsedThisDay:  2,
		RateLimitHourStart:  hourStart,
		RateLimitDayStart:   time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local),
	}))

	slot := q.Reserve(hourStart.Add(10 * time.Minute))
	wantEarliest := hourStart.Add(time.Hour)
	if slot.Before(wantEarliest) {
		t.Errorf("slot %v is before the next hour window %v", slot, wantEarliest)
	}

	state := q.State()
	if state == nil {
		t.Fatal("legacy account must expose persistable state")
	}
	if state.ActionsUsedThisHour != 1 {
		t.Errorf("hour counter should restart at 1 after rollover, got %d", state.ActionsUsedThisHour)
	}
	if !state.RateLimitHourStart.Equal(wantEarliest) {
		t.Errorf("hour window start should be %v, got %v", wantEarliest, state.RateLimitHourStart)
	}
}

func TestReserveSkipsToNextMidnightWhenDayExhausted(t *testing.T) {
	dayStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local)
	q := ForAccount(legacyAccount(outreachTypes.WindowState{
		RateLimitPerHour:    10,
		RateLimitPerDay:     5,
		ActionsUsedThisHour: 1,
		ActionsUsedThisDay:  5,
		RateLimitHourStart:  time.Date(2024, 5, 13, 22, 0, 0, 0, time.Local),
		RateLimitDayStart:   dayStart,
	}))

	slot := q.Reserve(time.Date(2024, 5, 13, 22, 15, 0, 0, time.Local))
	wantEarliest := dayStart.AddDate(0, 0, 1)
	if slot.Before(wantEarliest) {
		t.Errorf("slot %v is before next midnight %v", slot, wantEarliest)
	}

	state := q.State()
	if state.ActionsUsedThisDay != 1 {
		t.Errorf("day counter should restart at 1 after rollover, got %d", state.ActionsUsedThisDay)
	}
	if !state.RateLimitDayStart.Equal(wantEarliest) {
		t.Errorf("day window start should be %v, got %v", wantEarliest, state.RateLimitDayStart)
	}
}

func TestReserveNeverExceedsLimits(t *testing.T) {
	q := ForAccount(legacyAccount(outreachTypes.WindowState{
		RateLimitPerHour:   3,
		RateLimitPerDay:    7,
		RateLimitHourStart: time.Date(2024, 5, 13, 9, 0, 0, 0, time.Local),
		RateLimitDayStart:  time.Date(2024, 5, 13, 0, 0, 0, 0, time.Local),
	}))

	cursor := time.Date(2024, 5, 13, 9, 5, 0, 0, time.Local)
	for i := 0; i < 20; i++ {
		cursor = q.Reserve(cursor)
		state := q.State()
		if state.ActionsUsedThisHour > state.RateLimitPerHour {
			t.Fatalf("hour limit exceeded at reservation %d: %d", i, state.ActionsUsedThisHour)
		}
		if state.ActionsUsedThisDay > state.RateLimitPerDay {
			t.Fatalf("day limit exceeded at reservation %d: %d", i, state.ActionsUsedThisDay)
		}
		cursor = cursor.Add(2 * time.Minute)
	}
}
