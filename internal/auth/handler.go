package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const minPasswordLen = 8

// Handler exposes the account endpoints: register, login and the
// authenticated profile lookup.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (r registerRequest) validate() string {
	switch {
	case r.Email == "" || r.Password == "" || r.DisplayName == "":
		return "email, password, and displayName are required"
	case len(r.Password) < minPasswordLen:
		return "password must be at least 8 characters"
	}
	return ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httpError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	switch {
	case errors.Is(err, ErrEmailTaken):
		httpError(w, http.StatusConflict, "email already registered")
	case err != nil:
		slog.Error("register failed", "error", err)
		httpError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusCreated, result)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpError(w, http.StatusUnauthorized, "invalid credentials")
	case err != nil:
		slog.Error("login failed", "error", err)
		httpError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		slog.Error("get user failed", "error", err)
		httpError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
