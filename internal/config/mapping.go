/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/castline/internal/timeline"
)

// mappingFile is the on-disk YAML shape for a timeline.MappingTable. The
// resolver engine itself never reads this file — only the diagnostic CLI's
// validate-mapping subcommand does, to parse it and report what each layer
// binds to.
type mappingFile struct {
	Layers map[string]layerMapping `yaml:"layers"`
}

type layerMapping struct {
	Device   string         `yaml:"device"`
	DeviceID string         `yaml:"deviceId"`
	Options  map[string]any `yaml:"options"`
}

// LoadMappingTable parses a YAML mapping-table file into the engine's
// timeline.MappingTable shape.
func LoadMappingTable(path string) (timeline.MappingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}

	var parsed mappingFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse mapping file %s: %w", path, err)
	}

	table := make(timeline.MappingTable, len(parsed.Layers))
	for layerID, m := range parsed.Layers {
		table[layerID] = timeline.Mapping{
			Device:   timeline.DeviceKind(m.Device),
			DeviceID: m.DeviceID,
			Options:  m.Options,
		}
	}
	return table, nil
}
