// Package chat exposes the conversation actions: adding subjects and
// sending messages.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aivy-lab/aivy/backend/internal/handler/events"
	"github.com/aivy-lab/aivy/backend/internal/model/chat"
	"github.com/aivy-lab/aivy/backend/internal/service/session"
	"github.com/aivy-lab/aivy/backend/internal/sessionid"
	"github.com/aivy-lab/aivy/backend/pkg/utils"
)

// Replier generates the assistant's answer for one turn.
type Replier interface {
	GenerateReply(ctx context.Context, history []chat.Message, userText string) (string, error)
}

// Archiver records completed turns of logged-in users somewhere durable,
// best effort.
type Archiver interface {
	ArchiveTurn(ctx context.Context, uid, subject string, turn chat.Turn)
}

// Handler dispatches chat actions and renders the session view after each.
type Handler struct {
	sessions *session.Manager
	replier  Replier  // nil when the completion model is not configured
	archiver Archiver // nil when the document store is not configured
	hub      *events.Hub
}

// New creates the chat handler. replier and archiver may be nil; the
// corresponding features degrade with a user-visible message.
func New(sessions *session.Manager, replier Replier, archiver Archiver, hub *events.Hub) *Handler {
	return &Handler{sessions: sessions, replier: replier, archiver: archiver, hub: hub}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/subjects", h.handleAddSubject)
	r.Post("/chat", h.handleChatTurn)
}

type viewResponse struct {
	Message string       `json:"message,omitempty"`
	View    session.View `json:"view"`
}

func (h *Handler) render(w http.ResponseWriter, status int, sess *session.Session, message string) {
	view := sess.Snapshot()
	h.hub.Publish(sess.ID(), view)
	utils.RespondJSON(w, status, viewResponse{Message: message, View: view})
}

func (h *Handler) handleAddSubject(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(sessionid.FromContext(r.Context()))
	if !sess.LoggedIn() {
		utils.RespondError(w, http.StatusUnauthorized, "Please login first.")
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Name) == "" {
		utils.RespondError(w, http.StatusBadRequest, "subject name is required")
		return
	}

	sess.EnsureSubject(payload.Name)
	h.render(w, http.StatusOK, sess, "")
}

func (h *Handler) handleChatTurn(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(sessionid.FromContext(r.Context()))
	if !sess.LoggedIn() {
		utils.RespondError(w, http.StatusUnauthorized, "Please login first.")
		return
	}

	var payload struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userText := strings.TrimSpace(payload.Message)
	if userText == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if h.replier == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "The assistant is not configured on this server.")
		return
	}

	// One turn at a time per session; a concurrent tab gets refused rather
	// than interleaved.
	if !sess.TryAcquire() {
		utils.RespondError(w, http.StatusConflict, "Another message is still being answered.")
		return
	}
	defer sess.Release()

	history, err := sess.Transcript(payload.Subject)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSubject) {
			utils.RespondError(w, http.StatusBadRequest, "unknown subject")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := h.replier.GenerateReply(r.Context(), history, userText)
	if err != nil {
		// Nothing was appended: a failed generation leaves the transcript
		// exactly as it was.
		log.Printf("[chat] generation failed for subject=%s: %v", payload.Subject, err)
		utils.RespondError(w, http.StatusBadGateway, "The assistant is unavailable. Please try again.")
		return
	}

	if err := sess.AppendTurn(payload.Subject, userText, reply); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "unknown subject")
		return
	}

	if identity, ok := sess.Identity(); ok && h.archiver != nil {
		h.archiver.ArchiveTurn(r.Context(), identity.UID, payload.Subject, chat.Turn{
			UserText:      userText,
			AssistantText: reply,
		})
	}

	h.render(w, http.StatusOK, sess, "")
}
