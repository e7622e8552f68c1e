package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vectorpad/vectorpad/internal/scene"
)

// DocLoader fetches a document and its latest scene for a new room.
type DocLoader func(ctx context.Context, documentID string) (scene.Document, []*scene.Element, error)

// DocSaver persists a scene snapshot when a room flushes.
type DocSaver func(ctx context.Context, documentID string, elements json.RawMessage, serverSeq int64) error

type Room struct {
	documentID string
	clients    map[string]*Client // clientID -> client
	presence   *PresenceManager
	state      *SessionState
}

func NewRoom(documentID string, state *SessionState) *Room {
	return &Room{
		documentID: documentID,
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		state:      state,
	}
}

// Hub owns one room per open document and routes every message between the
// clients of a room. Room scene state is authoritative on the server.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // documentID -> room
	register   chan *Client
	unregister chan *Client

	loadDoc DocLoader
	saveDoc DocSaver
}

func NewHub(loadDoc DocLoader, saveDoc DocSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		loadDoc:    loadDoc,
		saveDoc:    saveDoc,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DocumentID]
	if !ok {
		state, err := h.openDocument(ctx, client.DocumentID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("open document", "document", client.DocumentID, "error", err)
			client.SendError(fmt.Sprintf("document unavailable: %s", client.DocumentID))
			close(client.send)
			return
		}
		room = NewRoom(client.DocumentID, state)
		h.rooms[client.DocumentID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Welcome, full scene, then current presence.
	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})

	if elements, seq, err := room.state.SceneJSON(); err == nil {
		scenePayload, _ := json.Marshal(SceneSyncPayload{Elements: elements, ServerSeq: seq})
		client.Send(&Message{Type: TypeSceneSync, DocumentID: client.DocumentID, Payload: scenePayload})
	}

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Register the joiner immediately so later joiners see silent
	// collaborators, not only those who have sent a presence.update.
	room.presence.Update(client.UserID, &PresencePayload{DisplayName: client.DisplayName})

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.DocumentID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "document", client.DocumentID, "peers", room.presence.Count())
}

func (h *Hub) openDocument(ctx context.Context, documentID string) (*SessionState, error) {
	doc, elements, err := h.loadDoc(ctx, documentID)
	if err != nil {
		return nil, err
	}
	store := scene.NewStore()
	if err := store.Replace(elements); err != nil {
		return nil, fmt.Errorf("restore scene: %w", err)
	}
	return NewSessionState(doc, store), nil
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DocumentID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.DocumentID)
	}
	h.mu.Unlock()

	if empty {
		h.flushRoom(ctx, room)
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.DocumentID, &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}, "")

	slog.Info("client left", "user", client.UserID, "document", client.DocumentID)
}

// FlushAll persists every open room, used on shutdown.
func (h *Hub) FlushAll(ctx context.Context) {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.flushRoom(ctx, room)
	}
}

func (h *Hub) flushRoom(ctx context.Context, room *Room) {
	elements, seq, ok := room.state.Flush()
	if !ok {
		return
	}
	if err := h.saveDoc(ctx, room.documentID, elements, seq); err != nil {
		slog.Error("save document", "document", room.documentID, "error", err)
		return
	}
	slog.Info("document saved", "document", room.documentID, "serverSeq", seq)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

// handleOpSubmit applies the operation to the authoritative scene, acks the
// sender with the assigned server sequence and broadcasts to everyone else.
// A rejected operation is nacked and not broadcast.
func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		sender.SendError("invalid op.submit payload")
		return
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.DocumentID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	serverSeq, err := room.state.Apply(payload.Operation)
	if err != nil {
		nack, _ := json.Marshal(OperationNackPayload{
			OperationID: payload.Operation.ID,
			Reason:      err.Error(),
		})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     payload.Operation.ID,
		ServerSeq:       serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: payload.Operation,
		UserID:    sender.UserID,
		ServerSeq: serverSeq,
	})
	h.broadcastToRoom(sender.DocumentID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Seq:     serverSeq,
		Payload: broadcast,
	}, sender.ClientID)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.DocumentID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.DocumentID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) broadcastToRoom(documentID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[documentID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
