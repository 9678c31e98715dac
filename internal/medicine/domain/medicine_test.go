package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMedicine_DueAt(t *testing.T) {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		med  Medicine
		slot string
		want bool
	}{
		{"matching slot", Medicine{Active: true, StartDate: past, Timing: []string{"08:00", "20:00"}}, "08:00", true},
		{"other slot", Medicine{Active: true, StartDate: past, Timing: []string{"20:00"}}, "08:00", false},
		{"inactive", Medicine{Active: false, StartDate: past, Timing: []string{"08:00"}}, "08:00", false},
		{"not started", Medicine{Active: true, StartDate: future, Timing: []string{"08:00"}}, "08:00", false},
		{"ended", Medicine{Active: true, StartDate: past.Add(-time.Hour), EndDate: &past, Timing: []string{"08:00"}}, "08:00", false},
		{"open ended", Medicine{Active: true, StartDate: past, EndDate: &future, Timing: []string{"08:00"}}, "08:00", true},
		{"duplicate slots", Medicine{Active: true, StartDate: past, Timing: []string{"08:00", "08:00"}}, "08:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.med.DueAt(tt.slot, now))
		})
	}
}
