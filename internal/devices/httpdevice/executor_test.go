/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package httpdevice

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/events"
)

type fakeCollaborator struct {
	attempts  int32
	failTimes int32 // number of leading calls that fail with NetworkError
	errCode   string
	status    int
}

func (f *fakeCollaborator) HTTPRequest(ctx context.Context, method Method, url string, params map[string]any) (Response, error) {
	n := atomic.AddInt32(&f.attempts, 1)
	if n <= f.failTimes {
		return Response{}, &NetworkError{Code: f.errCode}
	}
	return Response{StatusCode: f.status}, nil
}

// Scenario 5 (§8): retry on ECONNRESET, one bounded retry wave.
func TestExecutorRetriesOnceOnRetryableNetworkError(t *testing.T) {
	fc := &fakeCollaborator{failTimes: 1, errCode: "ECONNRESET", status: 200}
	signals := events.NewBus()
	sub := signals.Subscribe()
	defer signals.Unsubscribe(sub)

	exec := NewExecutor(fc, signals, func() int64 { return time.Now().UnixMilli() }, 50)
	cmd := device.Command{
		Context: "test",
		Payload: LayerCommand{LayerID: "L1", Method: MethodGET, URL: "http://x"},
	}

	if err := exec.Execute(cmd); err != nil {
		t.Fatalf("expected first attempt to swallow a retryable failure, got %v", err)
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&fc.attempts) < 2 {
		select {
		case <-deadline:
			t.Fatal("expected exactly one retry to have fired by now")
		case <-time.After(10 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fc.attempts); got != 2 {
		t.Fatalf("expected exactly 2 attempts (original + 1 retry), got %d", got)
	}
}

func TestExecutorDropsUnchangedFingerprint(t *testing.T) {
	fc := &fakeCollaborator{status: 200}
	signals := events.NewBus()
	exec := NewExecutor(fc, signals, func() int64 { return 0 }, 0)

	payload := LayerCommand{LayerID: "L1", Method: MethodGET, URL: "http://x"}
	cmd := device.Command{Context: "t", Payload: payload}

	if err := exec.Execute(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := exec.Execute(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&fc.attempts); got != 1 {
		t.Fatalf("expected the second identical command to be dropped, got %d attempts", got)
	}
}

func TestExecutorNonRetryableErrorSurfaces(t *testing.T) {
	fc := &fakeCollaborator{failTimes: 99, errCode: "EUNKNOWN"}
	signals := events.NewBus()
	exec := NewExecutor(fc, signals, func() int64 { return 0 }, 50)

	cmd := device.Command{Payload: LayerCommand{LayerID: "L1", Method: MethodGET, URL: "http://x"}}
	if err := exec.Execute(cmd); err == nil {
		t.Fatal("expected a non-retryable network error to surface")
	}
}
