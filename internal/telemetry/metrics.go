/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/tsrerr"
)

// Metrics holds the resolver's Prometheus collectors, one registry shared
// by every device façade in the process.
type Metrics struct {
	Registry *prometheus.Registry

	QueueDepth      *prometheus.GaugeVec
	DeviceConnected *prometheus.GaugeVec
	SlowCommands    *prometheus.CounterVec
	CommandErrors   *prometheus.CounterVec
}

// NewMetrics constructs and registers the resolver's metric collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tsr_queue_depth",
			Help: "Number of entries currently queued on a device's Timed Queue.",
		}, []string{"device_id"}),
		DeviceConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tsr_device_connected",
			Help: "1 if the device façade reports connected, 0 otherwise.",
		}, []string{"device_id"}),
		SlowCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tsr_slow_commands_total",
			Help: "Count of callbacks that exceeded their deadline margin.",
		}, []string{"device_id"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tsr_command_errors_total",
			Help: "Count of command execution errors by taxonomy kind.",
		}, []string{"device_id", "kind"}),
	}
	reg.MustRegister(m.QueueDepth, m.DeviceConnected, m.SlowCommands, m.CommandErrors)
	return m
}

// SetQueueDepth records the current depth of a device's Timed Queue. The
// caller samples this periodically; the queue itself has no push hook.
func (m *Metrics) SetQueueDepth(deviceID string, depth int) {
	m.QueueDepth.WithLabelValues(deviceID).Set(float64(depth))
}

// Watch subscribes to a device's signal bus and feeds it into the
// registered collectors until sub is unsubscribed.
func (m *Metrics) Watch(deviceID string, bus *events.Bus) events.Subscriber {
	sub := bus.Subscribe()
	go func() {
		for sig := range sub {
			switch sig.Kind {
			case events.KindConnectionChanged:
				v := 0.0
				if sig.Connected {
					v = 1
				}
				m.DeviceConnected.WithLabelValues(deviceID).Set(v)
			case events.KindSlowCommand:
				m.SlowCommands.WithLabelValues(deviceID).Inc()
			case events.KindCommandError, events.KindError:
				kind, ok := tsrerr.KindOf(sig.Err)
				if !ok {
					kind = "UNKNOWN"
				}
				m.CommandErrors.WithLabelValues(deviceID, string(kind)).Inc()
			}
		}
	}()
	return sub
}
