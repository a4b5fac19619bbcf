package store_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/GingerImpasto/orangechat/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	s, err := store.Open(slog.New(handler), ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func seedUser(t *testing.T, s *store.Store, id, email string) {
	t.Helper()
	err := s.CreateUser(&store.User{ID: id, Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
}

func TestCreateAndFindUser(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "u1", "a@example.com")

	byEmail, err := s.FindUserByEmail("a@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("FindUserByEmail returned ID %q", byEmail.ID)
	}

	if _, err := s.FindUserByID("missing"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("FindUserByID(missing) error = %v, want ErrUserNotFound", err)
	}

	err = s.CreateUser(&store.User{ID: "u2", Email: "a@example.com", PasswordHash: "x"})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateEmail", err)
	}
}

func TestFriendshipIsBidirectional(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "u1", "a@example.com")
	seedUser(t, s, "u2", "b@example.com")

	if err := s.AddFriendship("u1", "u2"); err != nil {
		t.Fatalf("AddFriendship failed: %v", err)
	}

	for _, userID := range []string{"u1", "u2"} {
		ids, err := s.FriendIDs(userID)
		if err != nil {
			t.Fatalf("FriendIDs(%s) failed: %v", userID, err)
		}
		if len(ids) != 1 {
			t.Fatalf("FriendIDs(%s) = %v, want one entry", userID, ids)
		}
	}

	if err := s.RemoveFriendship("u2", "u1"); err != nil {
		t.Fatalf("RemoveFriendship failed: %v", err)
	}
	for _, userID := range []string{"u1", "u2"} {
		ids, _ := s.FriendIDs(userID)
		if len(ids) != 0 {
			t.Errorf("FriendIDs(%s) = %v after removal, want empty", userID, ids)
		}
	}
}

func TestConversationOrdering(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	msgs := []store.Message{
		{SenderID: "u1", ReceiverID: "u2", Content: "first", CreatedAt: base},
		{SenderID: "u2", ReceiverID: "u1", Content: "second", CreatedAt: base.Add(time.Minute)},
		{SenderID: "u1", ReceiverID: "u3", Content: "other thread", CreatedAt: base.Add(2 * time.Minute)},
		{SenderID: "u1", ReceiverID: "u2", Content: "third", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range msgs {
		if err := s.SaveMessage(&msgs[i]); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	conv, err := s.Conversation("u1", "u2")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(conv) != 3 {
		t.Fatalf("Conversation returned %d messages, want 3", len(conv))
	}
	want := []string{"first", "second", "third"}
	for i, msg := range conv {
		if msg.Content != want[i] {
			t.Errorf("conversation[%d] = %q, want %q", i, msg.Content, want[i])
		}
	}
}
