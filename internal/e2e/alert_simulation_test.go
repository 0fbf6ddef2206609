package e2e

import (
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/argus-iam/argus/testing"
)

type alertScenario struct {
	name       string
	severity   string
	threshold  float64
	actual     float64
	window     time.Duration
	runbookRef string
}

func TestAlertSimulationProducesFiringAndResolvedLogs(t *testing.T) {
	scenarios := []alertScenario{
		{
			name:       "HighErrorRate",
			severity:   "critical",
			threshold:  0.05,
			actual:     0.08,
			window:     10 * time.Minute,
			runbookRef: "docs/runbook-ops.md#high-error-rate",
		},
		{
			name:       "HighLatency",
			severity:   "warning",
			threshold:  1.0,
			actual:     1.4,
			window:     15 * time.Minute,
			runbookRef: "docs/runbook-ops.md#high-latency",
		},
		{
			name:       "JobFailures",
			severity:   "warning",
			threshold:  0,
			actual:     2,
			window:     time.Hour,
			runbookRef: "docs/runbook-ops.md#job-failures",
		},
	}

	var logBuilder strings.Builder
	for _, scenario := range scenarios {
		logBuilder.WriteString(renderAlertLog("FIRING", scenario))
		logBuilder.WriteString(renderAlertLog("RESOLVED", scenario))
	}

	logOutput := logBuilder.String()
	for _, scenario := range scenarios {
		firing := renderAlertLog("FIRING", scenario)
		if !strings.Contains(logOutput, firing) {
			t.Fatalf("expected log to contain firing entry for %s", scenario.name)
		}
		resolved := renderAlertLog("RESOLVED", scenario)
		if !strings.Contains(logOutput, resolved) {
			t.Fatalf("expected log to contain resolved entry for %s", scenario.name)
		}
	}
}

func renderAlertLog(state string, scenario alertScenario) string {
	return fmt.Sprintf("%s %s severity=%s actual=%.2f threshold=%.2f window=%s runbook=%s\n",
		state, scenario.name, scenario.severity, scenario.actual, scenario.threshold, scenario.window, scenario.runbookRef)
}
