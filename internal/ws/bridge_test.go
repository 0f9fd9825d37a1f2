package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scooterswap/internal/entities"
	"scooterswap/internal/manager"
	"scooterswap/internal/metrics"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub)
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func sampleWorld() *entities.WorldState {
	w := entities.NewWorldState(10, 10, 100, 60)
	st := entities.NewStation("station_0", entities.Position{X: 5, Y: 5}, 2, 1.0)
	w.AddStation(st)
	s := &entities.Scooter{ID: "scooter_0", Position: entities.Position{X: 1, Y: 1}, BatteryID: "battery_0", State: entities.ScooterMoving, Speed: 1, ConsumptionRate: 0.1, SwapThreshold: 0.2}
	w.AddScooter(s)
	b := entities.NewBattery("battery_0", 1.0, 1.0, 0.8)
	b.PlaceInScooter(s.ID)
	w.AddBattery(b)
	return w
}

func TestBridge_OnUpdate(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnUpdate(manager.Update{
		Timestamp:      time.Unix(0, 0),
		SessionID:      "session-1",
		SimulationTime: 42,
		Tick:           3,
		Status:         "RUNNING",
		Snapshot:       sampleWorld(),
		Metrics:        metrics.CurrentSnapshot{TotalSwaps: 1},
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeStateUpdate, env.Type)

	var p StatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 3, p.Tick)
	assert.Equal(t, "RUNNING", p.Status)
	assert.Len(t, p.Scooters, 1)
	assert.Len(t, p.Stations, 1)
	assert.Equal(t, 1, p.Metrics.TotalSwaps)
}

func TestBridge_OnUpdate_NilSnapshotIgnored(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnUpdate(manager.Update{Status: "IDLE"})

	select {
	case <-client.send:
		t.Fatal("expected no broadcast for a nil snapshot")
	default:
	}
}
