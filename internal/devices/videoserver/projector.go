/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import (
	"fmt"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/timeline"
)

// Project implements device.Projector for the video-server device. Each
// timeline layer mapped to this device's ports contributes a clip to its
// port's foreground (Clip) or, when the object is a lookahead, to that
// port's NextUp — never replacing a live foreground with a preview
// (Scenario 6).
func Project(deviceID string) device.Projector {
	return func(snapshot timeline.Snapshot, mappings timeline.MappingTable) (device.DeviceState, error) {
		ports := State{}

		for layerID, obj := range snapshot.Layers {
			mapping, ok := mappings.LayerFor(layerID, obj)
			if !ok || mapping.Device != timeline.DeviceKindVideoServer || mapping.DeviceID != deviceID {
				continue
			}

			if obj.Content.Type() != "CLIP" {
				return nil, fmt.Errorf("INVALID_MAPPING: videoserver layer %q has unsupported content type %q", layerID, obj.Content.Type())
			}

			portID, _ := mapping.Options["portId"].(string)
			if portID == "" {
				return nil, fmt.Errorf("INVALID_MAPPING: videoserver mapping for layer %q is missing portId", layerID)
			}

			channel := asInt(mapping.Options["channel"])
			if channel == 0 {
				channel = 1
			}

			mode := ModeQuality
			if m, ok := mapping.Options["mode"].(string); ok && m != "" {
				mode = Mode(m)
			}
			if m, ok := obj.Content["mode"].(string); ok && m != "" {
				mode = Mode(m)
			}

			fps := asFloat(obj.Content["fps"])
			if fps == 0 {
				fps = DefaultFPS
			}

			clip := Clip{
				Title:    asString(obj.Content["title"]),
				Playing:  asBool(obj.Content["playing"]),
				PlayTime: obj.Instance.Start,
				FPS:      fps,
			}
			if raw, ok := obj.Content["pauseTime"]; ok {
				ms := int64(asInt(raw))
				clip.PauseTime = &ms
			}

			port := ports[portID]
			port.PortID = portID
			port.Channel = channel
			port.Mode = mode
			port.QueueKey = portID

			if obj.IsLookahead {
				c := clip
				port.NextUp = &c
			} else {
				c := clip
				port.Clip = &c
				port.TemporalPriority = obj.TemporalPriority
			}
			ports[portID] = port
		}

		return ports, nil
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
