package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"grouprank/domain/core"
	"grouprank/internal"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(ttl time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(ttl, internal.NewNopLogger())
	m.now = clock.Now
	return m, clock
}

func TestSetUserAndClear(t *testing.T) {
	m, _ := newManager(time.Hour)
	id := core.NewSessionID()

	_, ok := m.User(id)
	assert.False(t, ok)

	m.SetUser(id, "u1")
	user, ok := m.User(id)
	assert.True(t, ok)
	assert.Equal(t, core.UserID("u1"), user)

	m.SetUser(id, "u2")
	user, _ = m.User(id)
	assert.Equal(t, core.UserID("u2"), user)

	m.Clear(id)
	_, ok = m.User(id)
	assert.False(t, ok)
}

func TestSessionsExpire(t *testing.T) {
	m, clock := newManager(time.Hour)
	stale := core.NewSessionID()
	fresh := core.NewSessionID()

	m.SetUser(stale, "old")
	clock.Advance(45 * time.Minute)
	m.SetUser(fresh, "new")
	clock.Advance(30 * time.Minute)

	_, ok := m.User(stale)
	assert.False(t, ok)
	_, ok = m.User(fresh)
	assert.True(t, ok)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestRunStopsWithContext(t *testing.T) {
	m, _ := newManager(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	m.SetUser(core.NewSessionID(), "u1")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
