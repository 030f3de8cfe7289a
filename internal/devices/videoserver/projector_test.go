/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import (
	"testing"

	"github.com/friendsincode/castline/internal/timeline"
)

func mapping(portID string, channel int) timeline.Mapping {
	return timeline.Mapping{
		Device:   timeline.DeviceKindVideoServer,
		DeviceID: "vs1",
		Options:  map[string]any{"portId": portID, "channel": channel},
	}
}

func TestProjectBuildsForegroundClip(t *testing.T) {
	snapshot := timeline.Snapshot{
		Time: 10000,
		Layers: map[string]timeline.ResolvedObject{
			"M1": {
				ID:       "o1",
				Instance: timeline.Instance{Start: 10000},
				Content:  timeline.Content{"type": "CLIP", "title": "NEWS", "playing": true},
			},
		},
	}
	mappings := timeline.MappingTable{"M1": mapping("P1", 1)}

	state, err := Project("vs1")(snapshot, mappings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ports := state.(State)
	port, ok := ports["P1"]
	if !ok {
		t.Fatal("expected port P1 to be projected")
	}
	if port.Clip == nil || port.Clip.Title != "NEWS" || !port.Clip.Playing {
		t.Fatalf("unexpected clip: %+v", port.Clip)
	}
	if port.NextUp != nil {
		t.Fatalf("expected no NextUp, got %+v", port.NextUp)
	}
}

// Scenario 6 (§8): a lookahead layer with no foreground synthesizes an
// empty-foreground port with NextUp populated.
func TestProjectLookaheadWithoutForegroundPopulatesNextUp(t *testing.T) {
	snapshot := timeline.Snapshot{
		Time: 5000,
		Layers: map[string]timeline.ResolvedObject{
			"M1-preview": {
				ID:                "o2",
				Instance:          timeline.Instance{Start: 8000},
				Content:           timeline.Content{"type": "CLIP", "title": "SPORT"},
				IsLookahead:       true,
				LookaheadForLayer: "M1",
			},
		},
	}
	mappings := timeline.MappingTable{"M1": mapping("P1", 1)}

	state, err := Project("vs1")(snapshot, mappings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ports := state.(State)
	port, ok := ports["P1"]
	if !ok {
		t.Fatal("expected port P1 to be projected from the lookahead layer alone")
	}
	if port.Clip != nil {
		t.Fatalf("expected no foreground clip, got %+v", port.Clip)
	}
	if port.NextUp == nil || port.NextUp.Title != "SPORT" {
		t.Fatalf("expected NextUp populated with SPORT, got %+v", port.NextUp)
	}
}

func TestProjectRejectsUnsupportedContentType(t *testing.T) {
	snapshot := timeline.Snapshot{
		Time: 1000,
		Layers: map[string]timeline.ResolvedObject{
			"M1": {ID: "o1", Content: timeline.Content{"type": "HTML"}},
		},
	}
	mappings := timeline.MappingTable{"M1": mapping("P1", 1)}

	if _, err := Project("vs1")(snapshot, mappings); err == nil {
		t.Fatal("expected an INVALID_MAPPING error for an unsupported content type")
	}
}
