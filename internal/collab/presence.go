package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type presenceEntry struct {
	payload   *PresencePayload
	updatedAt time.Time
}

// PresenceManager tracks the live editing context of each user in a room.
type PresenceManager struct {
	mu      sync.RWMutex
	entries map[string]presenceEntry // userID -> entry
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		entries: make(map[string]presenceEntry),
	}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.entries[userID] = presenceEntry{payload: p, updatedAt: time.Now()}
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.entries, userID)
}

func (pm *PresenceManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.entries)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.entries))
	for k, v := range pm.entries {
		result[k] = v.payload
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
