package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWorkerDeliversResult(t *testing.T) {
	w := NewWorker()
	ch, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	res := waitOutcome(t, ch)
	if res.Err != nil || res.Value != "done" {
		t.Fatalf("result = %+v, want done", res)
	}
	if w.Busy() {
		t.Fatal("worker still busy after completion")
	}
}

func TestWorkerSingleFlight(t *testing.T) {
	w := NewWorker()
	release := make(chan struct{})
	ch, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !w.Busy() {
		t.Fatal("worker should be busy while the task runs")
	}
	if _, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, nil
	}); !errors.Is(err, ErrBusy) {
		t.Fatalf("second submit = %v, want ErrBusy", err)
	}
	close(release)
	waitOutcome(t, ch)
}

func TestWorkerIdleOnlyAfterResultDelivered(t *testing.T) {
	w := NewWorker()
	ch, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for w.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("worker never went idle")
		}
		time.Sleep(time.Millisecond)
	}
	// Once Busy reports false the result must already be receivable.
	select {
	case res := <-ch:
		if res.Err != nil || res.Value != "done" {
			t.Fatalf("result = %+v, want done", res)
		}
	default:
		t.Fatal("worker idle but no result delivered")
	}
}

func TestWorkerPropagatesTaskError(t *testing.T) {
	w := NewWorker()
	ch, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errMock
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	res := waitOutcome(t, ch)
	if !errors.Is(res.Err, errMock) {
		t.Fatalf("result error = %v, want errMock", res.Err)
	}
}

func TestWorkerAcceptsNewTaskAfterCompletion(t *testing.T) {
	w := NewWorker()
	for i := 0; i < 3; i++ {
		ch, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return i, nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("task %d timed out", i)
		}
	}
}
