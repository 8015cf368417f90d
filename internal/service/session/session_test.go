package session_test

import (
	"testing"

	"github.com/aivy-lab/aivy/backend/internal/model/account"
	"github.com/aivy-lab/aivy/backend/internal/model/chat"
	"github.com/aivy-lab/aivy/backend/internal/service/session"
)

func TestFreshSessionDefaults(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.GetOrCreate("sid-1")

	view := sess.Snapshot()
	if view.LoggedIn {
		t.Fatal("fresh session should be logged out")
	}
	if len(view.Subjects) != 1 || view.Subjects[0] != session.DefaultSubject {
		t.Fatalf("unexpected default subjects: %v", view.Subjects)
	}
	if transcript := view.History[session.DefaultSubject]; len(transcript) != 0 {
		t.Fatalf("expected empty default transcript, got %d messages", len(transcript))
	}
}

func TestEnsureSubjectIdempotent(t *testing.T) {
	sess := session.NewManager().GetOrCreate("sid-1")

	if added := sess.EnsureSubject("Math"); !added {
		t.Fatal("expected Math to be added")
	}
	if err := sess.AppendTurn("Math", "hi", "hello"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	// A second Ensure must not duplicate the subject or clear its history.
	if added := sess.EnsureSubject("Math"); added {
		t.Fatal("expected second EnsureSubject to be a no-op")
	}

	view := sess.Snapshot()
	count := 0
	for _, s := range view.Subjects {
		if s == "Math" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Math entry, got %d", count)
	}
	if len(view.History["Math"]) != 2 {
		t.Fatalf("history cleared by EnsureSubject: %d messages", len(view.History["Math"]))
	}
}

func TestEnsureSubjectIgnoresBlankNames(t *testing.T) {
	sess := session.NewManager().GetOrCreate("sid-1")

	if sess.EnsureSubject("") || sess.EnsureSubject("   ") {
		t.Fatal("blank subject names must be ignored")
	}
	if view := sess.Snapshot(); len(view.Subjects) != 1 {
		t.Fatalf("unexpected subjects: %v", view.Subjects)
	}
}

func TestAppendTurnOrderAndLength(t *testing.T) {
	sess := session.NewManager().GetOrCreate("sid-1")

	if err := sess.AppendTurn(session.DefaultSubject, "hi", "hello"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	transcript, err := sess.Transcript(session.DefaultSubject)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
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

func TestAppendTurnUnknownSubject(t *testing.T) {
	sess := session.NewManager().GetOrCreate("sid-1")

	if err := sess.AppendTurn("Chemistry", "hi", "hello"); err != session.ErrUnknownSubject {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestGuestEntry(t *testing.T) {
	sess := session.NewManager().GetOrCreate("sid-1")
	sess.EnterGuest()

	view := sess.Snapshot()
	if !view.LoggedIn || !view.Guest {
		t.Fatalf("guest session should be logged in as guest: %+v", view)
	}
	if len(view.Subjects) != 1 || view.Subjects[0] != session.DefaultSubject {
		t.Fatalf("guest entry must not touch subjects: %v", view.Subjects)
	}
}

func TestLogInThenDiscard(t *testing.T) {
	mgr := session.NewManager()
	sess := mgr.GetOrCreate("sid-1")
	sess.LogIn(account.Identity{UID: "u1", Email: "x@y.com"})

	if view := sess.Snapshot(); !view.LoggedIn || view.Email != "x@y.com" {
		t.Fatalf("unexpected view after login: %+v", view)
	}

	mgr.Discard("sid-1")
	fresh := mgr.GetOrCreate("sid-1")
	if fresh == sess {
		t.Fatal("expected a new session after discard")
	}
	if fresh.Snapshot().LoggedIn {
		t.Fatal("session after logout should start logged out")
	}
}

func TestTurnLock(t *testing.T) {
	sess := session.NewManager().GetOrCreate("sid-1")

	if !sess.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if sess.TryAcquire() {
		t.Fatal("second acquire should fail while the turn is in flight")
	}
	sess.Release()
	if !sess.TryAcquire() {
		t.Fatal("acquire after release should succeed")
	}
	sess.Release()
}
