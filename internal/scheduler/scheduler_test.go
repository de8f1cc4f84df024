package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"prospectai_backend/internal/prospect/sweep"
	"prospectai_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeSweeper struct {
	runs   atomic.Int32
	result sweep.Result
	err    error
}

func (f *fakeSweeper) SweepOverdueLeads(context.Context) (sweep.Result, error) {
	f.runs.Add(1)
	return f.result, f.err
}

func TestSweepTaskPayload(t *testing.T) {
	task, err := NewSweepOverdueLeadsTask(SweepOverdueLeadsPayload{TriggeredBy: TriggerAdmin})
	if err != nil {
		t.Fatalf("NewSweepOverdueLeadsTask: %v", err)
	}
	if task.Type() != "prospect.sweep_overdue" {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	payload, err := ParseSweepOverdueLeadsPayload(task)
	if err != nil {
		t.Fatalf("ParseSweepOverdueLeadsPayload: %v", err)
	}
	if payload.TriggeredBy != TriggerAdmin {
		t.Fatalf("TriggeredBy = %q", payload.TriggeredBy)
	}

	empty, err := ParseSweepOverdueLeadsPayload(asynq.NewTask(TaskSweepOverdueLeads, nil))
	if err != nil || empty.TriggeredBy != "" {
		t.Fatalf("empty payload should parse, got %+v, %v", empty, err)
	}
}

func TestHandleSweepOverdueLeads(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	task, _ := NewSweepOverdueLeadsTask(SweepOverdueLeadsPayload{TriggeredBy: TriggerCron})

	sweeper := &fakeSweeper{result: sweep.Result{Reassigned: 2}}
	w := &Worker{sweeper: sweeper, log: log}
	if err := w.handleSweepOverdueLeads(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := sweeper.runs.Load(); got != 1 {
		t.Fatalf("expected one sweep, got %d", got)
	}

	failing := &Worker{sweeper: &fakeSweeper{err: errors.New("db down")}, log: log}
	if err := failing.handleSweepOverdueLeads(context.Background(), task); err == nil {
		t.Fatalf("expected sweep error to be returned to asynq")
	}

	bad := asynq.NewTask(TaskSweepOverdueLeads, []byte("{"))
	if err := w.handleSweepOverdueLeads(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retries, got %v", err)
	}
}

func TestEveryInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"@every 1m":    time.Minute,
		"@every 30s":   30 * time.Second,
		" @every 5m ":  5 * time.Minute,
		"*/2 * * * *":  time.Minute,
		"@every bogus": time.Minute,
		"@every -1s":   time.Minute,
	}
	for spec, want := range cases {
		if got := EveryInterval(spec); got != want {
			t.Errorf("EveryInterval(%q) = %v, want %v", spec, got, want)
		}
	}
}

func TestTickerSweepStopsOnCancel(t *testing.T) {
	sweeper := &fakeSweeper{}
	ts := &TickerSweep{sweeper: sweeper, log: logger.NewWithWriter("test", io.Discard), interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ts.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("ticker never ran the sweep")
		case <-time.After(10 * time.Millisecond):
		}
		if sweeper.runs.Load() > 0 {
			break
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	if err := c.EnqueueSweep(context.Background(), TriggerAdmin); err != nil {
		t.Fatalf("nil client: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
