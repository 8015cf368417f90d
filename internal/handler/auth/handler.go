// Package auth exposes the signup, login, guest, and logout actions.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aivy-lab/aivy/backend/internal/handler/events"
	authservice "github.com/aivy-lab/aivy/backend/internal/service/auth"
	"github.com/aivy-lab/aivy/backend/internal/service/session"
	"github.com/aivy-lab/aivy/backend/internal/sessionid"
	"github.com/aivy-lab/aivy/backend/internal/validate"
	"github.com/aivy-lab/aivy/backend/pkg/utils"
)

// Handler dispatches auth actions and renders the session view after each.
type Handler struct {
	authSvc  *authservice.Service
	sessions *session.Manager
	hub      *events.Hub
}

// New creates the auth handler.
func New(authSvc *authservice.Service, sessions *session.Manager, hub *events.Hub) *Handler {
	return &Handler{authSvc: authSvc, sessions: sessions, hub: hub}
}

// RegisterRoutes mounts the auth endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/login", h.handleLogIn)
	r.Post("/auth/guest", h.handleGuest)
	r.Post("/auth/logout", h.handleLogOut)
	r.Get("/session", h.handleView)
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// actionResponse carries the renderable view, plus an optional user-visible
// notice.
type actionResponse struct {
	Message string       `json:"message,omitempty"`
	View    session.View `json:"view"`
}

func (h *Handler) sessionFor(r *http.Request) *session.Session {
	return h.sessions.GetOrCreate(sessionid.FromContext(r.Context()))
}

func (h *Handler) render(w http.ResponseWriter, status int, sess *session.Session, message string) {
	view := sess.Snapshot()
	h.hub.Publish(sess.ID(), view)
	utils.RespondJSON(w, status, actionResponse{Message: message, View: view})
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authSvc.SignUp(r.Context(), payload.Email, payload.Password); err != nil {
		status, message := signUpErrorStatus(err)
		utils.RespondError(w, status, message)
		return
	}

	// Signup never logs the user in; the session stays as it was.
	h.render(w, http.StatusCreated, h.sessionFor(r), "Account created! Please log in.")
}

func (h *Handler) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.authSvc.LogIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrAccountNotFound) {
			utils.RespondError(w, http.StatusUnauthorized, "Login failed. Please check your credentials.")
			return
		}
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	sess := h.sessionFor(r)
	sess.LogIn(identity)
	h.render(w, http.StatusOK, sess, "")
}

func (h *Handler) handleGuest(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(r)
	sess.EnterGuest()
	h.render(w, http.StatusOK, sess, "You are using guest mode. Your chat history won't be saved permanently.")
}

func (h *Handler) handleLogOut(w http.ResponseWriter, r *http.Request) {
	sid := sessionid.FromContext(r.Context())
	h.sessions.Discard(sid)

	// A fresh logged-out session replaces the discarded one immediately so
	// the response still renders.
	h.render(w, http.StatusOK, h.sessions.GetOrCreate(sid), "")
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, actionResponse{View: h.sessionFor(r).Snapshot()})
}

func signUpErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, validate.ErrInvalidEmail):
		return http.StatusBadRequest, "Please enter a valid email address."
	case errors.Is(err, validate.ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 6 characters long."
	case errors.Is(err, authservice.ErrEmailInUse):
		return http.StatusConflict, "This email is already in use. Please log in instead."
	case errors.Is(err, authservice.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid email or password format."
	default:
		return http.StatusBadGateway, err.Error()
	}
}
