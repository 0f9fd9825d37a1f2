package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScooterNeedsSwap(t *testing.T) {
	s := &Scooter{SwapThreshold: 0.2}
	assert.True(t, s.NeedsSwap(0.1))
	assert.False(t, s.NeedsSwap(0.2))
	assert.False(t, s.NeedsSwap(0.5))
}

func TestScooterTravelTime(t *testing.T) {
	s := &Scooter{Speed: 0.025}
	assert.InDelta(t, 400.0, s.TravelTime(10), 1e-9)
}

func TestScooterTravelTimeNonPositiveInputsReturnZero(t *testing.T) {
	s := &Scooter{Speed: 0.025}
	assert.Equal(t, 0.0, s.TravelTime(0))
	assert.Equal(t, 0.0, s.TravelTime(-3))

	stalled := &Scooter{Speed: 0}
	assert.Equal(t, 0.0, stalled.TravelTime(5))
}

func TestScooterStateString(t *testing.T) {
	assert.Equal(t, "MOVING", ScooterMoving.String())
	assert.Equal(t, "TRAVELING_TO_STATION", ScooterTravelingToStation.String())
	assert.Equal(t, "SWAPPING", ScooterSwapping.String())
	assert.Equal(t, "WAITING_FOR_BATTERY", ScooterWaitingForBattery.String())
	assert.Equal(t, "IDLE", ScooterIdle.String())
	assert.Equal(t, "UNKNOWN", ScooterState(99).String())
}
