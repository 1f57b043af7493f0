package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type recordingCloser struct {
	closed []uint
}

func (r *recordingCloser) ForceClose(passingID uint) error {
	r.closed = append(r.closed, passingID)
	return nil
}

func newTestCloser(t *testing.T) (*AttemptCloser, *recordingCloser, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	engine := &recordingCloser{}
	closer := NewAttemptCloser(client, time.Second, zap.NewNop())
	closer.BindEngine(engine)
	return closer, engine, mr
}

func TestDrainClosesDueAttempts(t *testing.T) {
	closer, engine, mr := newTestCloser(t)

	if err := closer.Schedule(11, -time.Second); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := closer.Schedule(12, time.Hour); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := closer.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if len(engine.closed) != 1 || engine.closed[0] != 11 {
		t.Fatalf("expected only the due attempt closed, got %v", engine.closed)
	}
	members, err := mr.ZMembers(closeQueueKey)
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 || members[0] != "12" {
		t.Fatalf("expected the future deadline to survive, got %v", members)
	}
}

func TestCancelRemovesDeadline(t *testing.T) {
	closer, engine, mr := newTestCloser(t)

	if err := closer.Schedule(11, -time.Second); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := closer.Cancel(11); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if mr.Exists(closeQueueKey) {
		t.Fatalf("expected the queue to be empty after cancel")
	}

	if err := closer.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(engine.closed) != 0 {
		t.Fatalf("a cancelled deadline must not fire, got %v", engine.closed)
	}
}

func TestDrainSkipsMalformedMembers(t *testing.T) {
	closer, engine, mr := newTestCloser(t)

	mr.ZAdd(closeQueueKey, 0, "not-a-number")
	if err := closer.Schedule(11, -time.Second); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := closer.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(engine.closed) != 1 || engine.closed[0] != 11 {
		t.Fatalf("expected the valid entry to close, got %v", engine.closed)
	}
}
