// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// getGaugeValue extracts the value from a Prometheus gauge
func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m io_prometheus_client.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func TestJobCountersIncrement(t *testing.T) {
	submitted := JobsSubmittedTotal.WithLabelValues("generate")
	before := getCounterValue(submitted)

	submitted.Inc()

	if after := getCounterValue(submitted); after != before+1 {
		t.Fatalf("expected submitted counter to increase by 1, got %v -> %v", before, after)
	}

	terminal := JobsTerminalTotal.WithLabelValues("generate", "completed")
	before = getCounterValue(terminal)

	terminal.Inc()

	if after := getCounterValue(terminal); after != before+1 {
		t.Fatalf("expected terminal counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestJobsActiveGaugeTracksSet(t *testing.T) {
	JobsActive.Set(3)
	if v := getGaugeValue(JobsActive); v != 3 {
		t.Fatalf("expected active gauge 3, got %v", v)
	}
	JobsActive.Set(0)
	if v := getGaugeValue(JobsActive); v != 0 {
		t.Fatalf("expected active gauge 0 after reset, got %v", v)
	}
}

func TestOptimizerReplacementCounterByReason(t *testing.T) {
	forbidden := OptimizerReplacements.WithLabelValues("forbidden")
	before := getCounterValue(forbidden)

	forbidden.Inc()
	forbidden.Inc()

	if after := getCounterValue(forbidden); after != before+2 {
		t.Fatalf("expected forbidden replacement counter to increase by 2, got %v -> %v", before, after)
	}
}
