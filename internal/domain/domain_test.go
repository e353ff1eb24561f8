package domain

import (
	"testing"
	"time"
)

func TestReasonValid(t *testing.T) {
	tests := []struct {
		reason Reason
		want   bool
	}{
		{ReasonSignUp, true},
		{ReasonDailyLogin, true},
		{ReasonAdminDebit, true},
		{ReasonReward, true},
		{Reason("sign_up"), false},
		{Reason("GIFT"), false},
		{Reason(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := tt.reason.Valid(); got != tt.want {
				t.Errorf("Reason(%q).Valid() = %v, want %v", tt.reason, got, tt.want)
			}
		})
	}
}

func TestReasonsCoversValidSet(t *testing.T) {
	for _, r := range Reasons() {
		if !r.Valid() {
			t.Errorf("Reasons() lists %q but Valid() rejects it", r)
		}
	}
}

func TestEarnRuleCooldown(t *testing.T) {
	tests := []struct {
		minutes int
		want    time.Duration
	}{
		{0, 0},
		{1, time.Minute},
		{720, 12 * time.Hour},
	}
	for _, tt := range tests {
		rule := EarnRule{CooldownMinutes: tt.minutes}
		if got := rule.Cooldown(); got != tt.want {
			t.Errorf("Cooldown() with %d minutes = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}

func TestDayWindow(t *testing.T) {
	tests := []struct {
		name      string
		in        time.Time
		wantStart time.Time
	}{
		{
			"midday utc",
			time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"just before midnight",
			time.Date(2026, 3, 1, 23, 59, 59, 999_000_000, time.UTC),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"exactly midnight starts the new day",
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			"non-utc input normalized to utc day",
			time.Date(2026, 3, 1, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := DayWindow(tt.in)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if want := tt.wantStart.Add(24 * time.Hour); !end.Equal(want) {
				t.Errorf("end = %v, want %v", end, want)
			}
		})
	}
}
