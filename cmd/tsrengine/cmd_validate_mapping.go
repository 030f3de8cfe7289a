/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/castline/internal/config"
)

var validateMappingPath string

var validateMappingCmd = &cobra.Command{
	Use:   "validate-mapping",
	Short: "Parse a YAML mapping-table file and report what it binds",
	RunE:  runValidateMapping,
}

func init() {
	validateMappingCmd.Flags().StringVar(&validateMappingPath, "file", "", "Path to a mapping-table YAML file (required)")
	validateMappingCmd.MarkFlagRequired("file")
}

func runValidateMapping(cmd *cobra.Command, args []string) error {
	table, err := config.LoadMappingTable(validateMappingPath)
	if err != nil {
		return err
	}

	fmt.Printf("%d layer mapping(s):\n", len(table))
	for layerID, m := range table {
		fmt.Printf("  %s -> device=%s deviceId=%s options=%v\n", layerID, m.Device, m.DeviceID, m.Options)
	}
	return nil
}
