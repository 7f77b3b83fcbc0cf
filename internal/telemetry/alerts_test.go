/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const alertsPath = "../../deploy/prometheus/alerts.yml"

// TestAlertsFileValid verifies the Prometheus alerts configuration is valid YAML.
func TestAlertsFileValid(t *testing.T) {
	data, err := os.ReadFile(alertsPath)
	if err != nil {
		t.Skipf("Skipping test: alerts file not found at %s", alertsPath)
		return
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		t.Fatalf("Invalid YAML in alerts.yml: %v", err)
	}

	groups, ok := config["groups"]
	if !ok {
		t.Error("alerts.yml missing 'groups' key")
		return
	}

	groupsList, ok := groups.([]interface{})
	if !ok || len(groupsList) == 0 {
		t.Error("alerts.yml 'groups' is empty or invalid")
	}
}

// TestCriticalAlertsPresent verifies critical alerts are defined.
func TestCriticalAlertsPresent(t *testing.T) {
	data, err := os.ReadFile(alertsPath)
	if err != nil {
		t.Skipf("Skipping test: alerts file not found at %s", alertsPath)
		return
	}

	content := string(data)
	criticalAlerts := []string{
		"OrchestratorStuck",
		"PlaybackStartFailures",
		"ScheduleEmpty",
		"HighAPIErrorRate",
	}
	for _, alert := range criticalAlerts {
		if !strings.Contains(content, alert) {
			t.Errorf("alerts.yml missing alert %s", alert)
		}
	}
}

// TestAlertsReferenceExportedMetrics verifies every metric the alerts query is
// one this package actually exports.
func TestAlertsReferenceExportedMetrics(t *testing.T) {
	data, err := os.ReadFile(alertsPath)
	if err != nil {
		t.Skipf("Skipping test: alerts file not found at %s", alertsPath)
		return
	}

	content := string(data)
	exported := []string{
		"seda_orchestrator_passes_total",
		"seda_orchestrator_errors_total",
		"seda_items_live",
		"seda_api_requests_total",
		"seda_api_request_duration_seconds",
	}
	for _, metric := range exported {
		if !strings.Contains(content, metric) {
			t.Errorf("alerts.yml does not reference %s", metric)
		}
	}
}
