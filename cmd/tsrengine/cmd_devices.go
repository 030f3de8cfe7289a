/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/castline/internal/diagnostics"
)

var devicesStatusAddr string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Inspect the device façades of a running tsrengine",
}

var devicesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print every registered device's getStatus() as a table",
	Long: `Fetches GET /status from a running tsrengine serve process and renders
every registered device's getStatus() snapshot as a table, grounded on the
teacher's cmd_backfill.go-style operational subcommands.`,
	RunE: runDevicesStatus,
}

func init() {
	devicesCmd.AddCommand(devicesStatusCmd)
	devicesStatusCmd.Flags().StringVar(&devicesStatusAddr, "addr", "http://127.0.0.1:8090", "Base URL of a running tsrengine serve process")
}

func runDevicesStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(devicesStatusAddr + "/status")
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch status: unexpected status %s", resp.Status)
	}

	var status diagnostics.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}

	if len(status.Devices) == 0 {
		fmt.Println("no devices registered")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tCODE\tACTIVE\tMESSAGES")
	for id, d := range status.Devices {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%v\n", id, d.Code, d.Active, d.Messages)
	}
	return tw.Flush()
}
