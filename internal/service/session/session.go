// Package session keeps per-browser conversation state in process memory.
// A session lives from the first request carrying its cookie until logout
// or process exit; nothing here is durable.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aivy-lab/aivy/backend/internal/model/account"
	"github.com/aivy-lab/aivy/backend/internal/model/chat"
)

// DefaultSubject is seeded into every fresh session.
const DefaultSubject = "General"

var ErrUnknownSubject = errors.New("unknown subject")

// Session is the state behind one browser session: who is chatting, the
// ordered subject list, and one transcript per subject. Subjects and
// transcripts are only ever mutated together, so a subject present in
// Subjects always has a history entry and vice versa.
type Session struct {
	mu       sync.Mutex
	id       string
	identity *account.Identity
	guest    bool
	subjects []string
	history  map[string][]chat.Message

	// busy serializes chat turns: the UI submits one action at a time, and
	// a second tab is refused rather than interleaved.
	busy sync.Mutex
}

func newSession(id string) *Session {
	return &Session{
		id:       id,
		subjects: []string{DefaultSubject},
		history:  map[string][]chat.Message{DefaultSubject: {}},
	}
}

// ID returns the cookie value this session is keyed by.
func (s *Session) ID() string {
	return s.id
}

// TryAcquire claims the per-session turn lock. Callers that get true must
// call Release when the action completes.
func (s *Session) TryAcquire() bool {
	return s.busy.TryLock()
}

// Release frees the turn lock.
func (s *Session) Release() {
	s.busy.Unlock()
}

// LogIn binds a provider identity to the session.
func (s *Session) LogIn(identity account.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
	s.guest = false
}

// EnterGuest marks the session as a guest chat: usable immediately, never
// archived.
func (s *Session) EnterGuest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.guest = true
}

// LoggedIn reports whether the session may see the chat view.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil || s.guest
}

// Guest reports whether the session runs without a durable identity.
func (s *Session) Guest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guest
}

// Identity returns the bound identity, if any.
func (s *Session) Identity() (account.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return account.Identity{}, false
	}
	return *s.identity, true
}

// EnsureSubject registers name as a conversation subject. Idempotent: an
// existing subject keeps its transcript, and an empty or all-whitespace name
// is a no-op. Returns true when a new subject was added.
func (s *Session) EnsureSubject(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.history[name]; exists {
		return false
	}

	s.subjects = append(s.subjects, name)
	s.history[name] = []chat.Message{}
	return true
}

// AppendTurn commits one completed exchange to the subject transcript: the
// user message first, then the assistant reply. Nothing is written for a
// turn whose reply never arrived; the caller only invokes this after a
// successful generation.
func (s *Session) AppendTurn(subject, userText, assistantText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, ok := s.history[subject]
	if !ok {
		return ErrUnknownSubject
	}

	now := time.Now().UTC()
	transcript = append(transcript,
		chat.Message{ID: uuid.NewString(), Role: chat.RoleUser, Text: userText, CreatedAt: now},
		chat.Message{ID: uuid.NewString(), Role: chat.RoleAssistant, Text: assistantText, CreatedAt: now},
	)
	s.history[subject] = transcript
	return nil
}

// Transcript returns a copy of the subject's message history.
func (s *Session) Transcript(subject string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, ok := s.history[subject]
	if !ok {
		return nil, ErrUnknownSubject
	}

	copied := make([]chat.Message, len(transcript))
	copy(copied, transcript)
	return copied, nil
}

// Snapshot renders the full session view sent to the browser after every
// mutation.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		LoggedIn: s.identity != nil || s.guest,
		Guest:    s.guest,
		Subjects: append([]string(nil), s.subjects...),
		History:  make(map[string][]chat.Message, len(s.history)),
	}
	if s.identity != nil {
		view.Email = s.identity.Email
	}
	for subject, transcript := range s.history {
		copied := make([]chat.Message, len(transcript))
		copy(copied, transcript)
		view.History[subject] = copied
	}
	return view
}

// View is the renderable session state. The frontend redraws from it
// wholesale; it carries no server internals.
type View struct {
	LoggedIn bool                      `json:"loggedIn"`
	Guest    bool                      `json:"guest"`
	Email    string                    `json:"email,omitempty"`
	Subjects []string                  `json:"subjects"`
	History  map[string][]chat.Message `json:"history"`
}
