package stage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/zoompan/internal/auth"
	"github.com/inamate/zoompan/internal/viewport"
)

type Handler struct {
	service *Service
	auth    *auth.Service
}

func NewHandler(service *Service, authService *auth.Service) *Handler {
	return &Handler{service: service, auth: authService}
}

type createResponse struct {
	Stage           Snapshot `json:"stage"`
	ControllerToken string   `json:"controllerToken"`
	ViewerToken     string   `json:"viewerToken"`
}

type transformResponse struct {
	Transform viewport.TransformResult `json:"transform"`
	State     viewport.State           `json:"state"`
}

// Mount registers the stage routes on r.
func (h *Handler) Mount(r *mux.Router) {
	r.HandleFunc("/stages", h.Create).Methods("POST", "OPTIONS")

	viewer := h.auth.Require(auth.RoleViewer)
	controller := h.auth.Require(auth.RoleController)

	s := r.PathPrefix("/stages/{stageId}").Subrouter()
	s.Handle("", viewer(http.HandlerFunc(h.Get))).Methods("GET", "OPTIONS")
	s.Handle("", controller(http.HandlerFunc(h.Delete))).Methods("DELETE", "OPTIONS")
	s.Handle("/layout", controller(http.HandlerFunc(h.UpdateLayout))).Methods("PUT", "OPTIONS")
	s.Handle("/gestures", controller(http.HandlerFunc(h.Gesture))).Methods("POST", "OPTIONS")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var layout viewport.Layout
	if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	st, err := h.service.Create(&layout)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	controller, err := h.auth.IssueToken(st.ID, auth.RoleController)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	viewer, err := h.auth.IssueToken(st.ID, auth.RoleViewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{
		Stage:           st.Snapshot(),
		ControllerToken: controller,
		ViewerToken:     viewer,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(mux.Vars(r)["stageId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	stageID := mux.Vars(r)["stageId"]
	if err := h.service.Delete(stageID); err != nil {
		handleServiceError(w, err)
		return
	}
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		slog.Info("stage deleted by token", "stage", stageID, "token", claims.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateLayout(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(mux.Vars(r)["stageId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var layout viewport.Layout
	if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := st.SetLayout(&layout); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (h *Handler) Gesture(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(mux.Vars(r)["stageId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var resp transformResponse
	err = st.Do(func(e *viewport.Engine) error {
		t, err := cmd.apply(e)
		resp = transformResponse{Transform: t, State: e.State()}
		return err
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrUnknownCommand):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, viewport.ErrInvalidSize), errors.Is(err, viewport.ErrOutOfRangeInput):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
