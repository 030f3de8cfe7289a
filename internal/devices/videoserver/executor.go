/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/timedqueue"
	"github.com/friendsincode/castline/internal/tsrerr"
	"github.com/friendsincode/castline/internal/ttlcache"
)

// JumpErrorMarginFrames bounds how far a previously prepared jump may have
// drifted from the newly desired offset before it is discarded (§4.5).
const JumpErrorMarginFrames = 5

// SoftJumpWaitTime is how long playOrPause waits for the server to
// stage a soft jump before the optional stop+trigger. Per the reference
// behavior this wait applies unconditionally, including when the pending
// action is a PAUSE (§9 open question: "preserve it to match observed
// behavior").
const SoftJumpWaitTime = 100 * time.Millisecond

// ClipTitleCacheTTL is how long a resolved clip-title-to-id lookup is
// cached (§4.5: "30 s default").
const ClipTitleCacheTTL = 30 * time.Second

// Executor dispatches the video-server differ's commands against a
// Collaborator, maintaining the per-port Tracked State the projector
// cannot see (§4.5).
type Executor struct {
	collaborator Collaborator
	signals      *events.Bus
	clock        timedqueue.Clock
	resendTime   int64

	tracked   *trackedState
	clipCache *ttlcache.Cache[string, RemoteClip]
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
		tracked:      newTrackedState(),
		clipCache:    ttlcache.New[string, RemoteClip](nil),
	}
}

// Execute runs one command, as the device.ExecuteFunc wired into the
// generic façade.
func (e *Executor) Execute(cmd device.Command) error {
	ctx := context.Background()
	switch payload := cmd.Payload.(type) {
	case SetupPortPayload:
		return e.withRetry(cmd.Context, func(isRetry bool) error { return e.setupPort(ctx, payload) })
	case LoadFragmentsPayload:
		return e.withRetry(cmd.Context, func(isRetry bool) error { return e.loadFragments(ctx, payload) })
	case PlayPausePayload:
		return e.withRetry(cmd.Context, func(isRetry bool) error { return e.playOrPause(ctx, cmd.Kind, payload) })
	case ClearPayload:
		return e.withRetry(cmd.Context, func(isRetry bool) error { return e.clearClip(ctx, payload) })
	case ReleasePayload:
		return e.withRetry(cmd.Context, func(isRetry bool) error { return e.releasePort(ctx, payload) })
	default:
		return tsrerr.New(tsrerr.KindUnsupportedCommand, "videoserver.Execute", fmt.Errorf("unexpected payload type %T", cmd.Payload))
	}
}

// withRetry runs action once, and — for a retryable NETWORK error, with
// resendTime configured — schedules exactly one bounded retry, mirroring
// the HTTP device's retry wave (§4.5, Scenario 5).
func (e *Executor) withRetry(cmdContext string, action func(isRetry bool) error) error {
	start := e.clock()
	err := action(false)
	if err == nil {
		return nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) && tsrerr.IsRetryableNetworkCode(netErr.Code) && e.resendTime > 1 {
		elapsed := e.clock() - start
		delay := e.resendTime - elapsed
		if delay < 0 {
			delay = 0
		}
		go func() {
			time.Sleep(time.Duration(delay) * time.Millisecond)
			if retryErr := action(true); retryErr != nil {
				e.signals.Publish(events.Signal{
					Kind:           events.KindCommandError,
					Err:            retryErr,
					CommandContext: cmdContext,
				})
			}
		}()
		return nil
	}
	return err
}

func (e *Executor) setupPort(ctx context.Context, p SetupPortPayload) error {
	if tracked, ok := e.tracked.get(p.PortID); ok && tracked.channel == p.Channel {
		return nil
	}

	_, exists, err := e.collaborator.GetPort(ctx, p.PortID)
	if err != nil {
		return classify("videoserver.setupPort", err)
	}
	if exists {
		if err := e.collaborator.ReleasePort(ctx, p.PortID); err != nil && !isNotFound(err) {
			return classify("videoserver.setupPort", err)
		}
	}
	if _, err := e.collaborator.CreatePort(ctx, p.PortID, p.Channel); err != nil {
		return classify("videoserver.setupPort", err)
	}
	e.tracked.set(p.PortID, &trackedPort{channel: p.Channel})
	return nil
}

// loadFragments implements LOAD_FRAGMENTS (§4.5): resolve the clip,
// dedupe against what is already loaded at the port, and — when the
// transition is still ahead — contain the previous clip and stage the
// soft jump to the new one's in point.
func (e *Executor) loadFragments(ctx context.Context, p LoadFragmentsPayload) error {
	tracked, ok := e.tracked.get(p.PortID)
	if !ok {
		return tsrerr.New(tsrerr.KindStateCorruption, "videoserver.loadFragments", fmt.Errorf("port %s not tracked; SETUP_PORT must run first", p.PortID))
	}

	remote, err := e.clipCache.GetSet(p.Clip.Title, ClipTitleCacheTTL, func() (RemoteClip, error) {
		return e.collaborator.SearchClip(ctx, p.Clip.Title)
	})
	if err != nil {
		return classify("videoserver.loadFragments", err)
	}

	server, err := e.collaborator.GetServer(ctx)
	if err != nil {
		return classify("videoserver.loadFragments", err)
	}
	if !poolVisible(server.Pools, remote.Pool) {
		return tsrerr.New(tsrerr.KindProtocol, "videoserver.loadFragments", fmt.Errorf("clip %q is on pool %q, not visible to this server", p.Clip.Title, remote.Pool))
	}

	fragments, err := e.collaborator.GetClipFragments(ctx, remote.ID)
	if err != nil {
		return classify("videoserver.loadFragments", err)
	}

	if tracked.clipID == remote.ID && tracked.fragments == fragments {
		// Exact fragment set already loaded; reuse the port's recorded
		// in/out points rather than reloading (§4.5).
	} else {
		loaded, err := e.collaborator.LoadFragmentsOntoPort(ctx, p.PortID, remote.ID, fragments)
		if err != nil {
			return classify("videoserver.loadFragments", err)
		}
		tracked.clipID = remote.ID
		tracked.fragments = fragments
		tracked.portInPoint = loaded.PortInPoint
		tracked.portOutPoint = loaded.PortOutPoint
	}

	now := e.clock()
	if p.TimeOfPlay-now > 0 {
		if tracked.scheduledStop != nil {
			tracked.scheduledStop.Stop()
		}
		delay := time.Duration(p.TimeOfPlay-now) * time.Millisecond
		portID := p.PortID
		tracked.scheduledStop = time.AfterFunc(delay, func() {
			if err := e.collaborator.PortStop(context.Background(), portID); err != nil {
				e.signals.Publish(events.Signal{Kind: events.KindCommandError, Err: classify("videoserver.loadFragments.scheduledStop", err)})
			}
		})

		if err := e.collaborator.PortPrepareJump(ctx, p.PortID, tracked.portInPoint); err != nil {
			return classify("videoserver.loadFragments", err)
		}
		offset := tracked.portInPoint
		tracked.jumpOffset = &offset
		tracked.playTime = p.TimeOfPlay
	}

	return nil
}

// playOrPause implements PLAY_CLIP/PAUSE_CLIP (§4.5).
func (e *Executor) playOrPause(ctx context.Context, kind string, p PlayPausePayload) error {
	tracked, ok := e.tracked.get(p.PortID)
	if !ok {
		return tsrerr.New(tsrerr.KindStateCorruption, "videoserver.playOrPause", fmt.Errorf("port %s not tracked; LOAD_FRAGMENTS must run first", p.PortID))
	}

	isPause := kind == CommandKindPauseClip
	fps := p.Clip.FPS
	if fps == 0 {
		fps = DefaultFPS
	}

	effectiveTime := e.clock()
	if p.Clip.PauseTime != nil {
		effectiveTime = *p.Clip.PauseTime
	}
	elapsedMs := effectiveTime - p.Clip.PlayTime
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	jumpToOffset := jumpOffsetFrames(tracked.portInPoint, elapsedMs, fps)

	if tracked.jumpOffset != nil && abs64(*tracked.jumpOffset-jumpToOffset) > JumpErrorMarginFrames {
		tracked.jumpOffset = nil
	}

	if tracked.jumpOffset != nil {
		if isPause {
			if err := e.collaborator.PortStop(ctx, p.PortID); err != nil {
				return classify("videoserver.playOrPause", err)
			}
		}
		if err := e.collaborator.PortTriggerJump(ctx, p.PortID); err != nil {
			return classify("videoserver.playOrPause", err)
		}
	} else if p.Mode == ModeSpeed {
		if isPause {
			if err := e.collaborator.PortStop(ctx, p.PortID); err != nil {
				return classify("videoserver.playOrPause", err)
			}
		}
		if err := e.collaborator.PortHardJump(ctx, p.PortID, jumpToOffset); err != nil {
			return classify("videoserver.playOrPause", err)
		}
	} else {
		if err := e.collaborator.PortPrepareJump(ctx, p.PortID, jumpToOffset); err != nil {
			return classify("videoserver.playOrPause", err)
		}
		time.Sleep(SoftJumpWaitTime)
		if isPause {
			if err := e.collaborator.PortStop(ctx, p.PortID); err != nil {
				return classify("videoserver.playOrPause", err)
			}
		}
		if err := e.collaborator.PortTriggerJump(ctx, p.PortID); err != nil {
			return classify("videoserver.playOrPause", err)
		}
	}
	tracked.jumpOffset = &jumpToOffset

	if isPause {
		return nil
	}

	if err := e.collaborator.PortPlay(ctx, p.PortID); err != nil {
		return classify("videoserver.playOrPause", err)
	}
	if tracked.scheduledStop != nil {
		tracked.scheduledStop.Stop()
	}
	delay := time.Duration(msForFrames(tracked.portOutPoint-jumpToOffset, fps)) * time.Millisecond
	portID := p.PortID
	tracked.scheduledStop = time.AfterFunc(delay, func() {
		if err := e.collaborator.PortStop(context.Background(), portID); err != nil {
			e.signals.Publish(events.Signal{Kind: events.KindCommandError, Err: classify("videoserver.playOrPause.scheduledStop", err)})
		}
	})

	return nil
}

// clearClip implements CLEAR_CLIP (§4.5).
func (e *Executor) clearClip(ctx context.Context, p ClearPayload) error {
	if err := e.collaborator.PortClear(ctx, p.PortID); err != nil {
		return classify("videoserver.clearClip", err)
	}
	if tracked, ok := e.tracked.get(p.PortID); ok {
		if tracked.scheduledStop != nil {
			tracked.scheduledStop.Stop()
			tracked.scheduledStop = nil
		}
		tracked.clipID = ""
		tracked.fragments = Fragments{}
		tracked.jumpOffset = nil
	}
	return nil
}

// releasePort implements RELEASE_PORT (§4.5): a 404 on release is
// non-fatal, the port is already gone.
func (e *Executor) releasePort(ctx context.Context, p ReleasePayload) error {
	if err := e.collaborator.ReleasePort(ctx, p.PortID); err != nil && !isNotFound(err) {
		return classify("videoserver.releasePort", err)
	}
	e.tracked.delete(p.PortID)
	return nil
}

func classify(op string, err error) error {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return tsrerr.New(tsrerr.KindNetwork, op, err)
	}
	return tsrerr.New(tsrerr.KindProtocol, op, err)
}

func isNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func poolVisible(pools []string, pool string) bool {
	for _, p := range pools {
		if p == pool {
			return true
		}
	}
	return false
}

// framesForMs derives a frame count from an elapsed duration, rounding per
// §4.5: "frames = round(ms * fps / 1000)".
func framesForMs(ms int64, fps float64) int64 {
	return int64(math.Round(float64(ms) * fps / 1000))
}

// jumpOffsetFrames computes the play/pause jump target per §4.5's literal
// formula: floor(portInPoint + max(0, (pauseTime ?? now) - playTime) * fps
// / 1000). This one call site uses floor rather than framesForMs's round,
// per the formula as given.
func jumpOffsetFrames(portInPoint, elapsedMs int64, fps float64) int64 {
	return portInPoint + int64(math.Floor(float64(elapsedMs)*fps/1000))
}

// msForFrames is the inverse of framesForMs: the millisecond duration a
// frame count spans at fps, used to self-schedule the end-of-clip stop at
// portOutPoint.
func msForFrames(frames int64, fps float64) int64 {
	if frames <= 0 {
		return 0
	}
	return int64(math.Round(float64(frames) * 1000 / fps))
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
