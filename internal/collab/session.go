package collab

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/vectorpad/vectorpad/internal/scene"
)

// SessionState holds the authoritative scene for one room. Operations are
// applied in arrival order and assigned a monotonically increasing server
// sequence; the log feeds snapshot persistence.
type SessionState struct {
	mu        sync.RWMutex
	store     *scene.Store
	doc       scene.Document
	serverSeq int64
	opLog     []scene.Operation
	dirty     bool
}

func NewSessionState(doc scene.Document, store *scene.Store) *SessionState {
	return &SessionState{
		store: store,
		doc:   doc,
	}
}

// ServerSeq returns the sequence of the most recently applied operation.
func (ss *SessionState) ServerSeq() int64 {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.serverSeq
}

// Document returns the room's document metadata.
func (ss *SessionState) Document() scene.Document {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.doc
}

// Apply validates and applies one operation, returning its server sequence.
// A rejected operation leaves the sequence untouched.
func (ss *SessionState) Apply(op scene.Operation) (int64, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.store.Apply(op); err != nil {
		return 0, err
	}
	ss.serverSeq++
	ss.opLog = append(ss.opLog, op)
	ss.dirty = true
	return ss.serverSeq, nil
}

// SceneJSON marshals the current scene elements in z-order for sync and
// persistence.
func (ss *SessionState) SceneJSON() (json.RawMessage, int64, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	data, err := json.Marshal(ss.store.Snapshot())
	if err != nil {
		return nil, 0, err
	}
	return data, ss.serverSeq, nil
}

// Flush returns the scene JSON when there are unsaved changes and marks the
// state clean. It returns ok=false when nothing changed since the last flush.
func (ss *SessionState) Flush() (json.RawMessage, int64, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.dirty {
		return nil, 0, false
	}
	data, err := json.Marshal(ss.store.Snapshot())
	if err != nil {
		return nil, 0, false
	}
	ss.dirty = false
	return data, ss.serverSeq, true
}

// GetServerTimestamp returns the current server timestamp in milliseconds.
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
