package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlot_FreeSpots(t *testing.T) {
	tests := []struct {
		name     string
		slot     Slot
		expected int
	}{
		{"empty", Slot{Capacity: 3}, 3},
		{"partially taken", Slot{Capacity: 3, TakenCount: 1}, 2},
		{"full", Slot{Capacity: 3, TakenCount: 3}, 0},
		{"overbooked after capacity decrease", Slot{Capacity: 1, TakenCount: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.slot.FreeSpots())
		})
	}
}
