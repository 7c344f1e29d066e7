package reminders

import (
	"testing"
	"time"
)

func TestExtractIntervalMonths(t *testing.T) {
	tests := []struct {
		frequency string
		expected  int
	}{
		{"3 months", 3},
		{"6months", 6},
		{"Every 12 Months", 12},
		{"monthly", 0},
		{"yearly", 12},
		{"Every year", 12},
		{"2 years", 12},
		{"quarterly", 3},
		{"bi-quarterly", 3},
		{"weekly", 1},
		{"every 2 weeks", 1},
		{"daily", 0},
		{"", 0},
		{"18 months or 1 year", 18},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			if got := ExtractIntervalMonths(tt.frequency); got != tt.expected {
				t.Errorf("ExtractIntervalMonths(%q) = %d, want %d", tt.frequency, got, tt.expected)
			}
		})
	}
}

func TestDefaultIntervalForTask(t *testing.T) {
	tests := []struct {
		task     string
		expected int
	}{
		{"Vidange moteur", 6},
		{"Oil Change", 6},
		{"Remplacement filtre à air", 12},
		{"Cabin Filter", 12},
		{"Rotation des pneus", 12},
		{"Tire rotation", 12},
		{"Brake Pads", 24},
		{"Plaquettes de frein", 24},
		{"Battery check", 36},
		{"Courroie de distribution", 60},
		{"Timing belt", 60},
		{"Oil filter", 6},
		{"Unknown Task XYZ", 12},
		{"", 12},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			if got := DefaultIntervalForTask(tt.task); got != tt.expected {
				t.Errorf("DefaultIntervalForTask(%q) = %d, want %d", tt.task, got, tt.expected)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{"plain", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 6, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"year wrap", time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), 3, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"day overflow", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"zero", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 0, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonths(tt.start, tt.months); !got.Equal(tt.expected) {
				t.Errorf("AddMonths() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now      time.Time
		expected int
	}{
		{due.Add(time.Second), 1},
		{due.Add(24 * time.Hour), 1},
		{due.Add(24*time.Hour + time.Minute), 2},
		{due.Add(10 * 24 * time.Hour), 10},
	}

	for _, tt := range tests {
		if got := DaysOverdue(tt.now, due); got != tt.expected {
			t.Errorf("DaysOverdue(%v) = %d, want %d", tt.now, got, tt.expected)
		}
	}
}
