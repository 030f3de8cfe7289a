/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package httpdevice

import (
	"fmt"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/timeline"
)

// Project implements device.Projector for the HTTP device: every layer
// mapped to this device whose content carries an HTTP method/url becomes
// one LayerCommand (§4.3).
func Project(deviceID string) device.Projector {
	return func(snapshot timeline.Snapshot, mappings timeline.MappingTable) (device.DeviceState, error) {
		state := State{}

		for layerID, obj := range snapshot.Layers {
			mapping, ok := mappings.LayerFor(layerID, obj)
			if !ok || mapping.Device != timeline.DeviceKindHTTPSend || mapping.DeviceID != deviceID {
				continue
			}

			method, _ := obj.Content["type"].(string)
			switch Method(method) {
			case MethodGET, MethodPOST, MethodPUT, MethodDELETE:
			default:
				return nil, fmt.Errorf("INVALID_MAPPING: layer %q has unsupported content type %q for http device", layerID, method)
			}

			url, _ := obj.Content["url"].(string)
			if url == "" {
				return nil, fmt.Errorf("INVALID_MAPPING: layer %q missing url", layerID)
			}

			params, _ := obj.Content["params"].(map[string]any)
			priority := asInt(obj.Content["temporalPriority"])
			queueID, _ := obj.Content["queueId"].(string)

			state[layerID] = LayerCommand{
				LayerID:          layerID,
				TimelineObjID:    obj.ID,
				Method:           Method(method),
				URL:              url,
				Params:           params,
				TemporalPriority: priority,
				QueueID:          queueID,
			}
		}

		return state, nil
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
