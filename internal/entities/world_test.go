package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNearestStationPicksClosest(t *testing.T) {
	w := NewWorldState(100, 100, 100, 60)
	w.AddStation(NewStation("station_0", Position{X: 0, Y: 0}, 1, 1.3))
	w.AddStation(NewStation("station_1", Position{X: 10, Y: 10}, 1, 1.3))

	nearest := w.FindNearestStation(Position{X: 1, Y: 1})
	require.NotNil(t, nearest)
	assert.Equal(t, "station_0", nearest.ID)
}

func TestFindNearestStationTiesBreakByCreationOrder(t *testing.T) {
	w := NewWorldState(100, 100, 100, 60)
	w.AddStation(NewStation("station_0", Position{X: 0, Y: 0}, 1, 1.3))
	w.AddStation(NewStation("station_1", Position{X: 10, Y: 10}, 1, 1.3))

	nearest := w.FindNearestStation(Position{X: 5, Y: 5})
	require.NotNil(t, nearest)
	assert.Equal(t, "station_0", nearest.ID)
}

func TestFindNearestStationEmptyWorldReturnsNil(t *testing.T) {
	w := NewWorldState(100, 100, 100, 60)
	assert.Nil(t, w.FindNearestStation(Position{X: 0, Y: 0}))
}

func TestWorldStateSnapshotIsDeepCopy(t *testing.T) {
	w := NewWorldState(100, 100, 100, 60)
	st := NewStation("station_0", Position{X: 1, Y: 1}, 2, 1.3)
	w.AddStation(st)
	b := NewBattery("b0", 1.6, 1.3, 1.6)
	b.PlaceInStation("station_0", 0)
	st.Slots[0].BatteryID = b.ID
	w.AddBattery(b)

	target := Position{X: 3, Y: 3}
	wake := 120.0
	sc := &Scooter{ID: "s0", Position: Position{X: 0, Y: 0}, BatteryID: b.ID, TargetPosition: &target, IdleUntil: &wake}
	w.AddScooter(sc)

	snap := w.Snapshot()

	// Mutating the live world must not affect the snapshot.
	st.Slots[0].BatteryID = "changed"
	b.ConsumeEnergy(1.0)
	sc.Position = Position{X: 9, Y: 9}
	*sc.TargetPosition = Position{X: 99, Y: 99}
	*sc.IdleUntil = 999

	snapStation := snap.Stations["station_0"]
	require.NotNil(t, snapStation)
	assert.Equal(t, b.ID, snapStation.Slots[0].BatteryID)

	snapBattery := snap.Batteries["b0"]
	require.NotNil(t, snapBattery)
	assert.Equal(t, 1.6, snapBattery.CurrentChargeKWh)

	snapScooter := snap.Scooters["s0"]
	require.NotNil(t, snapScooter)
	assert.Equal(t, Position{X: 0, Y: 0}, snapScooter.Position)
	require.NotNil(t, snapScooter.TargetPosition)
	assert.Equal(t, Position{X: 3, Y: 3}, *snapScooter.TargetPosition)
	require.NotNil(t, snapScooter.IdleUntil)
	assert.Equal(t, 120.0, *snapScooter.IdleUntil)
}

func TestWorldStateSnapshotPreservesOrderSlices(t *testing.T) {
	w := NewWorldState(10, 10, 100, 60)
	w.AddStation(NewStation("station_0", Position{}, 1, 1.3))
	w.AddScooter(&Scooter{ID: "s0"})

	snap := w.Snapshot()
	assert.Equal(t, []string{"station_0"}, snap.StationOrder)
	assert.Equal(t, []string{"s0"}, snap.ScooterOrder)

	// Appending to the live world's order slices must not leak into the snapshot.
	w.AddStation(NewStation("station_1", Position{}, 1, 1.3))
	assert.Equal(t, []string{"station_0"}, snap.StationOrder)
}
