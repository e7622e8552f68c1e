package collab

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorpad/vectorpad/internal/scene"
)

func newTestHub() *Hub {
	load := func(ctx context.Context, documentID string) (scene.Document, []*scene.Element, error) {
		return scene.Document{Name: "doc", Width: 100, Height: 100}, nil, nil
	}
	save := func(ctx context.Context, documentID string, elements json.RawMessage, serverSeq int64) error {
		return nil
	}
	return NewHub(load, save)
}

func newTestClient(hub *Hub, userID, clientID string) *Client {
	return &Client{
		hub:         hub,
		send:        make(chan []byte, sendBufferSize),
		UserID:      userID,
		DisplayName: userID,
		DocumentID:  "doc-1",
		ClientID:    clientID,
	}
}

func drainMessages(t *testing.T, c *Client) []*Message {
	t.Helper()
	var out []*Message
	for {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, &msg)
		default:
			return out
		}
	}
}

func TestHub_JoinRegistersPresenceForLaterJoiners(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()

	first := newTestClient(h, "user-a", "c1")
	h.addClient(ctx, first)
	drainMessages(t, first)

	// user-a never sends a presence.update; a later joiner must still see
	// them in the state message.
	second := newTestClient(h, "user-b", "c2")
	h.addClient(ctx, second)

	var state *Message
	for _, m := range drainMessages(t, second) {
		if m.Type == TypePresenceState {
			state = m
		}
	}
	require.NotNil(t, state)

	var payload PresenceStatePayload
	require.NoError(t, json.Unmarshal(state.Payload, &payload))
	entry, ok := payload.Presences["user-a"]
	require.True(t, ok)
	assert.Equal(t, "user-a", entry.DisplayName)
	_, self := payload.Presences["user-b"]
	assert.False(t, self, "the state message precedes the joiner's own entry")
}

func TestHub_JoinCountsInPresence(t *testing.T) {
	h := newTestHub()
	client := newTestClient(h, "user-a", "c1")
	h.addClient(context.Background(), client)

	h.mu.RLock()
	room := h.rooms["doc-1"]
	h.mu.RUnlock()
	require.NotNil(t, room)
	assert.Equal(t, 1, room.presence.Count())
}
