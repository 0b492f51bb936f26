package collab

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/zoompan/internal/auth"
	"github.com/inamate/zoompan/internal/stage"
	"github.com/inamate/zoompan/internal/typeid"
)

// Handler upgrades /ws/stages/{stageId} requests into hub clients.
type Handler struct {
	hub            *Hub
	auth           *auth.Service
	stages         *stage.Service
	originPatterns []string
}

func NewHandler(hub *Hub, authService *auth.Service, stages *stage.Service, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		auth:           authService,
		stages:         stages,
		originPatterns: originPatterns,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stageID := mux.Vars(r)["stageId"]
	if err := typeid.Validate(stageID, typeid.PrefixStage); err != nil {
		http.Error(w, "invalid stage id", http.StatusBadRequest)
		return
	}

	// Browsers cannot set headers on websocket requests, so the token rides
	// in the query string.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.Authorize(token, stageID, auth.RoleViewer)
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			http.Error(w, "token does not grant access", http.StatusForbidden)
			return
		}
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := h.stages.Get(stageID); err != nil {
		http.Error(w, "stage not found", http.StatusNotFound)
		return
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, claims.Role, displayName, stageID, clientID)

	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
