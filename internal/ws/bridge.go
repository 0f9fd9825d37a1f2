package ws

import (
	"log"

	"scooterswap/internal/api"
	"scooterswap/internal/manager"
)

// Bridge adapts manager.BroadcastObserver into hub broadcasts, projecting
// each Update into a state_update envelope.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// OnUpdate is registered with manager.Manager.AddObserver.
func (b *Bridge) OnUpdate(u manager.Update) {
	if u.Snapshot == nil {
		return
	}
	payload := StatePayload{
		SnapshotDTO: api.BuildSnapshot(u.Snapshot, u.Tick, u.Status),
		Metrics:     u.Metrics,
	}
	msg, err := NewEnvelope(TypeStateUpdate, payload)
	if err != nil {
		log.Printf("Error marshaling state update: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
