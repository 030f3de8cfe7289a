/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package httpdevice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/timedqueue"
	"github.com/friendsincode/castline/internal/tsrerr"
)

// Executor dispatches LayerCommands against a Collaborator, with the
// relevance check and bounded-retry behavior of §4.5.
type Executor struct {
	collaborator Collaborator
	signals      *events.Bus
	clock        timedqueue.Clock
	resendTime   int64 // ms; <= 1 disables retry

	mu       sync.Mutex
	lastSent map[string]LayerCommand // layer id -> last successfully sent
}

// NewExecutor constructs an Executor. resendTime <= 1 disables retry.
func NewExecutor(collaborator Collaborator, signals *events.Bus, clock timedqueue.Clock, resendTime int64) *Executor {
	if clock == nil {
		clock = timedqueue.SystemClock
	}
	return &Executor{
		collaborator: collaborator,
		signals:      signals,
		clock:        clock,
		resendTime:   resendTime,
		lastSent:     make(map[string]LayerCommand),
	}
}

// Execute runs one command, as the device.ExecuteFunc wired into the
// generic façade.
func (e *Executor) Execute(cmd device.Command) error {
	payload, ok := cmd.Payload.(LayerCommand)
	if !ok {
		return tsrerr.New(tsrerr.KindUnsupportedCommand, "httpdevice.Execute", fmt.Errorf("unexpected payload type %T", cmd.Payload))
	}
	return e.send(cmd.Context, payload, false)
}

func (e *Executor) send(cmdContext string, payload LayerCommand, isRetry bool) error {
	layerID := payload.LayerID

	// Relevance check: drop if the fingerprint already matches what was
	// last successfully sent for this layer (idempotent collapse).
	e.mu.Lock()
	if last, ok := e.lastSent[layerID]; ok && last.equal(payload) {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	start := e.clock()
	resp, err := e.collaborator.HTTPRequest(context.Background(), payload.Method, payload.URL, payload.Params)
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) && tsrerr.IsRetryableNetworkCode(netErr.Code) && e.resendTime > 1 && !isRetry {
			elapsed := e.clock() - start
			delay := e.resendTime - elapsed
			if delay < 0 {
				delay = 0
			}
			go func() {
				time.Sleep(time.Duration(delay) * time.Millisecond)
				if retryErr := e.send(cmdContext, payload, true); retryErr != nil {
					e.signals.Publish(events.Signal{
						Kind:           events.KindCommandError,
						Err:            retryErr,
						CommandContext: cmdContext,
					})
				}
			}()
			return nil
		}
		return tsrerr.New(tsrerr.KindNetwork, "httpdevice.send", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.signals.Publish(events.Signal{
			Kind:    events.KindWarning,
			Message: fmt.Sprintf("http device: non-2xx response %d for %s %s", resp.StatusCode, payload.Method, payload.URL),
		})
	}

	e.mu.Lock()
	e.lastSent[layerID] = payload
	e.mu.Unlock()
	return nil
}
