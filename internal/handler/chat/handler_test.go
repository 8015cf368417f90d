package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aivy-lab/aivy/backend/internal/handler/events"
	"github.com/aivy-lab/aivy/backend/internal/model/account"
	"github.com/aivy-lab/aivy/backend/internal/model/chat"
	"github.com/aivy-lab/aivy/backend/internal/service/session"
	"github.com/aivy-lab/aivy/backend/internal/sessionid"
)

type stubReplier struct {
	reply string
	err   error
}

func (s *stubReplier) GenerateReply(_ context.Context, _ []chat.Message, _ string) (string, error) {
	return s.reply, s.err
}

type recordingArchiver struct {
	uids     []string
	subjects []string
}

func (a *recordingArchiver) ArchiveTurn(_ context.Context, uid, subject string, _ chat.Turn) {
	a.uids = append(a.uids, uid)
	a.subjects = append(a.subjects, subject)
}

type viewPayload struct {
	View  session.View `json:"view"`
	Error string       `json:"error"`
}

func setupRouter(replier Replier, archiver Archiver) (*chi.Mux, *session.Manager) {
	sessions := session.NewManager()
	handler := New(sessions, replier, archiver, events.NewHub())

	r := chi.NewRouter()
	r.Use(sessionid.Middleware)
	handler.RegisterRoutes(r)
	return r, sessions
}

func doJSON(t *testing.T, r http.Handler, sid, path string, body any) (*httptest.ResponseRecorder, viewPayload) {
	t.Helper()

	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionid.CookieName, Value: sid})
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	var decoded viewPayload
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestChatRequiresLogin(t *testing.T) {
	r, _ := setupRouter(&stubReplier{reply: "hello"}, nil)

	resp, _ := doJSON(t, r, uuid.NewString(), "/chat", map[string]string{"subject": "General", "message": "hi"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestChatTurnAppendsOnePair(t *testing.T) {
	r, sessions := setupRouter(&stubReplier{reply: "hello"}, nil)
	sid := uuid.NewString()
	sessions.GetOrCreate(sid).EnterGuest()

	resp, decoded := doJSON(t, r, sid, "/chat", map[string]string{"subject": "General", "message": "hi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, decoded.Error)
	}

	transcript := decoded.View.History["General"]
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[0].Role != chat.RoleUser || transcript[0].Text != "hi" {
		t.Fatalf("unexpected first message: %+v", transcript[0])
	}
	if transcript[1].Role != chat.RoleAssistant || transcript[1].Text != "hello" {
		t.Fatalf("unexpected second message: %+v", transcript[1])
	}
}

func TestChatGenerationFailureLeavesHistory(t *testing.T) {
	r, sessions := setupRouter(&stubReplier{err: errors.New("boom")}, nil)
	sid := uuid.NewString()
	sess := sessions.GetOrCreate(sid)
	sess.EnterGuest()

	resp, _ := doJSON(t, r, sid, "/chat", map[string]string{"subject": "General", "message": "hi"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	transcript, err := sess.Transcript("General")
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 0 {
		t.Fatalf("a failed turn must not touch history, got %d messages", len(transcript))
	}
}

func TestChatUnknownSubject(t *testing.T) {
	r, sessions := setupRouter(&stubReplier{reply: "hello"}, nil)
	sid := uuid.NewString()
	sessions.GetOrCreate(sid).EnterGuest()

	resp, _ := doJSON(t, r, sid, "/chat", map[string]string{"subject": "Chemistry", "message": "hi"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatUnavailableWithoutReplier(t *testing.T) {
	r, sessions := setupRouter(nil, nil)
	sid := uuid.NewString()
	sessions.GetOrCreate(sid).EnterGuest()

	resp, _ := doJSON(t, r, sid, "/chat", map[string]string{"subject": "General", "message": "hi"})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestAddSubjectThenChat(t *testing.T) {
	r, sessions := setupRouter(&stubReplier{reply: "integrals it is"}, nil)
	sid := uuid.NewString()
	sessions.GetOrCreate(sid).EnterGuest()

	resp, decoded := doJSON(t, r, sid, "/subjects", map[string]string{"name": "Math"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	found := false
	for _, s := range decoded.View.Subjects {
		if s == "Math" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Math missing from subjects: %v", decoded.View.Subjects)
	}

	resp, decoded = doJSON(t, r, sid, "/chat", map[string]string{"subject": "Math", "message": "teach me calculus"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(decoded.View.History["Math"]) != 2 {
		t.Fatalf("expected one turn under Math, got %d messages", len(decoded.View.History["Math"]))
	}
}

func TestArchiverOnlyForLoggedInUsers(t *testing.T) {
	archiver := &recordingArchiver{}
	r, sessions := setupRouter(&stubReplier{reply: "hello"}, archiver)

	guestSID := uuid.NewString()
	sessions.GetOrCreate(guestSID).EnterGuest()
	doJSON(t, r, guestSID, "/chat", map[string]string{"subject": "General", "message": "hi"})
	if len(archiver.uids) != 0 {
		t.Fatalf("guest turns must not be archived, got %v", archiver.uids)
	}

	userSID := uuid.NewString()
	sessions.GetOrCreate(userSID).LogIn(account.Identity{UID: "u1", Email: "x@y.com"})
	doJSON(t, r, userSID, "/chat", map[string]string{"subject": "General", "message": "hi"})
	if len(archiver.uids) != 1 || archiver.uids[0] != "u1" {
		t.Fatalf("expected one archived turn for u1, got %v", archiver.uids)
	}
	if archiver.subjects[0] != "General" {
		t.Fatalf("unexpected archived subject: %v", archiver.subjects)
	}
}
