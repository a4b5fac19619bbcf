package hub_test

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/GingerImpasto/orangechat/internal/hub"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

// fakeHandle records every frame pushed through it.
type fakeHandle struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeHandle) Send(msg []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, msg)
}

func (f *fakeHandle) Close(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeHandle) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newSession(userID string, friends ...string) (*hub.Session, *fakeHandle) {
	h := &fakeHandle{}
	return hub.NewSession(userID, h, friends), h
}

func TestRegistryLifecycle(t *testing.T) {
	r := hub.NewRegistry(newTestLogger())
	sess, _ := newSession("user-1")

	if prev := r.Register(sess); prev != nil {
		t.Fatalf("Register of a fresh user returned a superseded session")
	}
	got, ok := r.Lookup("user-1")
	if !ok || got != sess {
		t.Fatalf("Lookup after Register: got (%v, %v), want the registered session", got, ok)
	}
	if !sess.Connected() {
		t.Error("registered session should report connected")
	}

	if !r.Remove(sess) {
		t.Fatal("Remove of a registered session reported no-op")
	}
	if _, ok := r.Lookup("user-1"); ok {
		t.Error("Lookup found session after Remove")
	}
	if sess.Connected() {
		t.Error("removed session still reports connected")
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := hub.NewRegistry(newTestLogger())
	sess, _ := newSession("user-1")
	r.Register(sess)

	if !r.Remove(sess) {
		t.Fatal("first Remove reported no-op")
	}
	if r.Remove(sess) {
		t.Error("second Remove should be a no-op")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d entries", r.Len())
	}
}

func TestRegistryLastWriterWins(t *testing.T) {
	r := hub.NewRegistry(newTestLogger())
	first, _ := newSession("user-1")
	second, _ := newSession("user-1")

	r.Register(first)
	prev := r.Register(second)
	if prev != first {
		t.Fatalf("expected first session to be superseded, got %v", prev)
	}
	if first.Connected() {
		t.Error("superseded session still reports connected")
	}

	got, _ := r.Lookup("user-1")
	if got != second {
		t.Errorf("Lookup returned the superseded session")
	}

	// Teardown of the superseded session must not evict the new one.
	if r.Remove(first) {
		t.Error("Remove of a superseded session should be a no-op")
	}
	if got, ok := r.Lookup("user-1"); !ok || got != second {
		t.Error("replacement session was evicted by the superseded one's teardown")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := hub.NewRegistry(newTestLogger())
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := "user-" + strconv.Itoa(i%10)
			sess, _ := newSession(userID)
			r.Register(sess)
			r.Lookup(userID)
			r.Remove(sess)
		}(i)
	}
	wg.Wait()
}
