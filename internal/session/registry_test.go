package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	failOn  map[string]error
}

func (d *fakeDeleter) Delete(_ context.Context, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failOn[sessionID]; ok {
		return err
	}
	d.deleted = append(d.deleted, sessionID)
	return nil
}

type fixture struct {
	reg *Registry
	del *fakeDeleter
	t   time.Time
}

func newFixture(inactivity, orphan time.Duration) *fixture {
	f := &fixture{
		del: &fakeDeleter{failOn: map[string]error{}},
		t:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.reg = NewRegistry(f.del, Config{
		InactivityThreshold: inactivity,
		OrphanThreshold:     orphan,
		Now:                 func() time.Time { return f.t },
	}, nil)
	return f
}

func (f *fixture) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestSweep_InactivityThreshold(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)

	f.reg.RecordAccess("s1")
	f.advance(60 * time.Minute)
	f.reg.RecordAccess("s2")
	f.advance(time.Minute)
	// s1 idle 61m, s2 idle 1m.

	res := f.reg.Sweep(context.Background(), SweepOptions{})

	assert.Equal(t, 1, res.CleanedCount)
	assert.Equal(t, []string{"s1"}, f.del.deleted)
	assert.False(t, f.reg.Known("s1"))
	assert.True(t, f.reg.Known("s2"))
}

func TestSweep_ExactThresholdSurvives(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)

	f.reg.RecordAccess("s1")
	f.advance(60 * time.Minute)

	res := f.reg.Sweep(context.Background(), SweepOptions{})
	assert.Zero(t, res.CleanedCount)
	assert.True(t, f.reg.Known("s1"))
}

func TestSweep_OrphanPassOnlyForNewSessions(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)

	f.reg.RecordAccess("old")
	f.advance(6 * time.Minute)
	// 6m idle: past the orphan threshold, well inside inactivity.

	res := f.reg.Sweep(context.Background(), SweepOptions{})
	assert.Zero(t, res.CleanedCount, "plain sweep must not apply the orphan threshold")

	res = f.reg.Sweep(context.Background(), SweepOptions{NewSession: true})
	assert.Equal(t, 1, res.CleanedCount)
	assert.False(t, f.reg.Known("old"))
}

func TestSweep_NeverRemovesTriggeringSession(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)

	f.reg.RecordAccess("me")
	f.advance(2 * time.Hour)

	res := f.reg.Sweep(context.Background(), SweepOptions{NewSession: true, Protect: "me"})
	assert.Zero(t, res.CleanedCount)
	assert.True(t, f.reg.Known("me"))
}

func TestSweep_DeleteFailureIsIsolated(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)
	f.del.failOn["bad"] = errors.New("store unavailable")

	f.reg.RecordAccess("bad")
	f.reg.RecordAccess("good")
	f.advance(2 * time.Hour)

	res := f.reg.Sweep(context.Background(), SweepOptions{})

	assert.Equal(t, 2, res.CleanedCount, "failing delete must not abort the sweep")
	assert.Equal(t, 1, res.DeleteFailures)
	assert.Contains(t, f.del.deleted, "good")
	// The registry entry goes away even when the state delete failed.
	assert.False(t, f.reg.Known("bad"))
	assert.False(t, f.reg.Known("good"))
}

func TestRecordAccess_RefreshesTimestamp(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)

	f.reg.RecordAccess("s1")
	f.advance(59 * time.Minute)
	f.reg.RecordAccess("s1")
	f.advance(59 * time.Minute)

	res := f.reg.Sweep(context.Background(), SweepOptions{})
	assert.Zero(t, res.CleanedCount)
	assert.True(t, f.reg.Known("s1"))
}

func TestSweep_RemovedSessionStartsOver(t *testing.T) {
	f := newFixture(60*time.Minute, 5*time.Minute)

	f.reg.RecordAccess("s1")
	f.advance(2 * time.Hour)
	f.reg.Sweep(context.Background(), SweepOptions{})
	require.False(t, f.reg.Known("s1"))

	f.reg.RecordAccess("s1")
	assert.True(t, f.reg.Known("s1"))
	assert.Equal(t, 1, f.reg.Len())
}

func TestRun_DisabledWithoutInterval(t *testing.T) {
	f := newFixture(time.Minute, time.Minute)
	done := make(chan struct{})
	go func() {
		f.reg.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when the interval is zero")
	}
}
