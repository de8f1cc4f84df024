package bootstrap

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"prospectai_backend/platform/config"
	"prospectai_backend/platform/logger"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	calls := 0
	err := WithRetry(context.Background(), log, "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestWithRetryReturnsLastError(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	err := WithRetry(context.Background(), log, "op", 2, time.Millisecond, func() error {
		return errors.New("boom")
	})
	if err == nil || err.Error() != "op: boom" {
		t.Fatalf("err = %v", err)
	}
	if err := WithRetry(context.Background(), log, "op", 0, time.Millisecond, func() error { return nil }); err == nil {
		t.Fatalf("expected invalid attempts error")
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := WithRetry(ctx, log, "op", 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestSweepLockerWithoutRedis(t *testing.T) {
	client, closeFn := Redis(context.Background(), &config.Config{}, logger.NewWithWriter("test", io.Discard))
	defer closeFn()
	if client != nil {
		t.Fatalf("expected no redis client without REDIS_URL")
	}
	if locker := SweepLocker(client); locker != nil {
		t.Fatalf("expected nil locker without REDIS_URL")
	}
}
