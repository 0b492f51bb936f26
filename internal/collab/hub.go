package collab

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/inamate/zoompan/internal/auth"
	"github.com/inamate/zoompan/internal/stage"
	"github.com/inamate/zoompan/internal/telemetry"
	"github.com/inamate/zoompan/internal/viewport"
)

// Room is the set of clients attached to one stage, with their last known
// pointers in content coordinates.
type Room struct {
	stageID     string
	clients     map[string]*Client // clientID -> client
	seq         atomic.Int64
	unsubscribe func()

	pmu      sync.Mutex
	presence map[string]*PresencePayload // clientID -> presence
}

func NewRoom(stageID string) *Room {
	return &Room{
		stageID:  stageID,
		clients:  make(map[string]*Client),
		presence: make(map[string]*PresencePayload),
	}
}

func (r *Room) setPresence(clientID string, p *PresencePayload) {
	r.pmu.Lock()
	defer r.pmu.Unlock()
	r.presence[clientID] = p
}

func (r *Room) dropPresence(clientID string) {
	r.pmu.Lock()
	defer r.pmu.Unlock()
	delete(r.presence, clientID)
}

func (r *Room) presenceState() (*Message, error) {
	r.pmu.Lock()
	state := maps.Clone(r.presence)
	r.pmu.Unlock()
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: state})
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // stageID -> room
	stages     *stage.Service
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub returns a hub serving stages. Rooms are closed when their stage is
// deleted or swept.
func NewHub(stages *stage.Service) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		stages:     stages,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	stages.OnRemove(func(id string) { h.closeRoom(id, "stage removed") })
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	st, err := h.stages.Get(client.StageID)
	if err != nil {
		slog.Warn("client joined unknown stage", "stage", client.StageID)
		client.close()
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[client.StageID]
	if !ok {
		room = NewRoom(client.StageID)
		room.unsubscribe = st.Subscribe(func(t viewport.TransformResult) {
			h.broadcastTransform(room, t)
		})
		h.rooms[client.StageID] = room
	}
	room.clients[client.ClientID] = client
	room.setPresence(client.ClientID, &PresencePayload{DisplayName: client.DisplayName, Role: client.Role})
	h.mu.Unlock()
	telemetry.ClientsConnected.Inc()

	if msg, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		Role:     client.Role,
		Stage:    st.Snapshot(),
	}); err == nil {
		client.Send(msg)
	}

	if stateMsg, err := room.presenceState(); err == nil {
		client.Send(stateMsg)
	}

	if joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
		Role:        client.Role,
	}); err == nil {
		joinMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.StageID, joinMsg, client.ClientID)
	}

	slog.Info("client joined", "client", client.ClientID, "stage", client.StageID, "role", client.Role)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.StageID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		client.close()
		return
	}

	delete(room.clients, client.ClientID)
	room.dropPresence(client.ClientID)
	if len(room.clients) == 0 {
		room.unsubscribe()
		delete(h.rooms, client.StageID)
	}
	h.mu.Unlock()
	client.close()
	telemetry.ClientsConnected.Dec()

	if leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID}); err == nil {
		leaveMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.StageID, leaveMsg, "")
	}

	slog.Info("client left", "client", client.ClientID, "stage", client.StageID)
}

// detach removes a room and returns its clients. Closing them is left to
// the caller so no client is closed under the hub lock.
func (h *Hub) detach(stageID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[stageID]
	if !ok {
		return nil
	}
	room.unsubscribe()
	delete(h.rooms, stageID)
	return slices.Collect(maps.Values(room.clients))
}

// closeRoom tells every client of stageID why it is being dropped, then
// disconnects them.
func (h *Hub) closeRoom(stageID, reason string) {
	clients := h.detach(stageID)
	if len(clients) == 0 {
		return
	}
	msg, err := newMessage(TypeStageClosed, StageClosedPayload{Reason: reason})
	if err == nil {
		msg.StageID = stageID
	}
	for _, c := range clients {
		if msg != nil {
			c.Send(msg)
		}
		c.close()
		telemetry.ClientsConnected.Dec()
	}
	slog.Info("room closed", "stage", stageID, "clients", len(clients), "reason", reason)
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	ids := slices.Collect(maps.Keys(h.rooms))
	h.mu.RUnlock()
	for _, id := range ids {
		h.closeRoom(id, "server shutting down")
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch {
	case strings.HasPrefix(msg.Type, TypeGesturePrefix):
		h.handleGesture(sender, msg)
	case msg.Type == TypeLayoutUpdate:
		h.handleLayoutUpdate(sender, msg)
	case msg.Type == TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.sendError(msg.Type, "unknown message type")
	}
}

func (h *Hub) handleGesture(sender *Client, msg *Message) {
	if !sender.Role.Allows(auth.RoleController) {
		sender.sendError(msg.Type, "viewers cannot send gestures")
		return
	}

	var cmd stage.Command
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			sender.sendError(msg.Type, "invalid gesture payload")
			return
		}
	}
	cmd.Type = stage.CommandType(strings.TrimPrefix(msg.Type, TypeGesturePrefix))

	st, err := h.stages.Get(sender.StageID)
	if err != nil {
		sender.sendError(msg.Type, err.Error())
		return
	}
	if _, err := st.Apply(cmd); err != nil {
		slog.Debug("gesture rejected", "error", err, "client", sender.ClientID)
		sender.sendError(msg.Type, errorText(err))
	}
}

func (h *Hub) handleLayoutUpdate(sender *Client, msg *Message) {
	if !sender.Role.Allows(auth.RoleController) {
		sender.sendError(msg.Type, "viewers cannot change the layout")
		return
	}

	var layout viewport.Layout
	if err := json.Unmarshal(msg.Payload, &layout); err != nil {
		sender.sendError(msg.Type, "invalid layout payload")
		return
	}

	st, err := h.stages.Get(sender.StageID)
	if err != nil {
		sender.sendError(msg.Type, err.Error())
		return
	}
	if _, err := st.SetLayout(&layout); err != nil {
		sender.sendError(msg.Type, errorText(err))
	}
}

// handlePresenceUpdate converts the sender's screen pointer into content
// coordinates and shares it with the rest of the room.
func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var in PresencePayload
	if err := json.Unmarshal(msg.Payload, &in); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence := &PresencePayload{DisplayName: sender.DisplayName, Role: sender.Role}
	if in.Pointer != nil {
		st, err := h.stages.Get(sender.StageID)
		if err != nil {
			return
		}
		if p, ok := st.ToContent(*in.Pointer); ok {
			presence.Pointer = &p
		}
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.StageID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	room.setPresence(sender.ClientID, presence)

	outMsg, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(sender.StageID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastTransform(room *Room, t viewport.TransformResult) {
	msg, err := newMessage(TypeTransform, TransformPayload{Transform: t})
	if err != nil {
		slog.Error("marshal transform", "error", err)
		return
	}
	msg.StageID = room.stageID
	msg.Seq = room.seq.Add(1)
	h.broadcastToRoom(room.stageID, msg, "")
}

func (h *Hub) broadcastToRoom(stageID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[stageID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, viewport.ErrInvalidSize),
		errors.Is(err, viewport.ErrOutOfRangeInput),
		errors.Is(err, stage.ErrUnknownCommand),
		errors.Is(err, stage.ErrNotFound):
		return err.Error()
	default:
		return "internal error"
	}
}
