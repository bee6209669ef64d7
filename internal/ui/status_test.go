package ui_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmigrate/internal/ui"
)

func TestStatusReporterLines(testInstance *testing.T) {
	testCases := []struct {
		name         string
		colorize     bool
		invoke       func(reporter *ui.StatusReporter)
		expectedLine string
		expectANSI   bool
	}{
		{
			name:         "plain_info",
			invoke:       func(reporter *ui.StatusReporter) { reporter.Info("Primary Language: %s", "Java") },
			expectedLine: "  - Primary Language: Java\n",
		},
		{
			name:         "success_without_terminal",
			invoke:       func(reporter *ui.StatusReporter) { reporter.Success("CI file pushed successfully.") },
			expectedLine: "  - CI file pushed successfully.\n",
		},
		{
			name:       "failure_with_color",
			colorize:   true,
			invoke:     func(reporter *ui.StatusReporter) { reporter.Failure("could not determine build system") },
			expectANSI: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			var output bytes.Buffer
			reporter := ui.NewStatusReporterWithColor(&output, testCase.colorize)

			testCase.invoke(reporter)

			if testCase.expectANSI {
				require.Contains(testInstance, output.String(), "\x1b[31m")
				require.Contains(testInstance, output.String(), "could not determine build system")
				return
			}
			require.Equal(testInstance, testCase.expectedLine, output.String())
		})
	}
}

func TestStatusReporterSkipsColorForBuffers(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := ui.NewStatusReporter(&output)

	reporter.Warning("template missing")

	require.NotContains(testInstance, output.String(), "\x1b[")
}

func TestStatusReporterSeparator(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := ui.NewStatusReporterWithColor(&output, false)

	reporter.Separator(ui.PhaseStartingMigration, "acme/widgets")

	lines := strings.Split(output.String(), "\n")
	require.Len(testInstance, lines, 4)
	require.Empty(testInstance, lines[0])
	require.Len(testInstance, lines[1], 100)
	require.Contains(testInstance, lines[1], " Starting migration for acme/widgets ")
	require.True(testInstance, strings.HasPrefix(lines[1], "==="))
	require.True(testInstance, strings.HasSuffix(lines[1], "==="))
}

func TestRenderSummary(testInstance *testing.T) {
	rendered := ui.RenderSummary([]ui.SummaryRow{
		{Repository: "acme/widgets", Outcome: ui.OutcomeMigrated, Stage: "done", BuildSystem: "maven", WorkflowAttached: true},
		{Repository: "acme/docs", Outcome: ui.OutcomeSkipped, Stage: "detecting"},
		{Repository: "acme/broken", Outcome: ui.OutcomeFailed, Stage: "pushing", BuildSystem: "npm"},
	})

	require.Contains(testInstance, rendered, "acme/widgets")
	require.Contains(testInstance, rendered, "acme/broken")
	require.Contains(testInstance, rendered, "pushing")
	require.Contains(testInstance, strings.ToLower(rendered), "1 migrated, 1 skipped, 1 failed")
}
