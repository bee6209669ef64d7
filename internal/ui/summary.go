package ui

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	summaryRepositoryHeaderConstant  = "Repository"
	summaryOutcomeHeaderConstant     = "Outcome"
	summaryStageHeaderConstant       = "Stage"
	summaryBuildSystemHeaderConstant = "Build system"
	summaryWorkflowHeaderConstant    = "Workflow"
	summaryTotalsTemplateConstant    = "%d migrated, %d skipped, %d failed"
	summaryEmptyCellConstant         = "-"
)

// Outcome classifies how a repository's migration ended.
type Outcome string

// Migration outcomes.
const (
	OutcomeMigrated Outcome = Outcome("migrated")
	OutcomeSkipped  Outcome = Outcome("skipped")
	OutcomeFailed   Outcome = Outcome("failed")
)

// SummaryRow is one repository line of the run summary.
type SummaryRow struct {
	Repository       string
	Outcome          Outcome
	Stage            string
	BuildSystem      string
	WorkflowAttached bool
}

// RenderSummary renders the run summary table followed by outcome totals.
func RenderSummary(rows []SummaryRow) string {
	tableWriter := table.NewWriter()
	tableWriter.SetStyle(table.StyleRounded)
	tableWriter.AppendHeader(table.Row{
		summaryRepositoryHeaderConstant,
		summaryOutcomeHeaderConstant,
		summaryStageHeaderConstant,
		summaryBuildSystemHeaderConstant,
		summaryWorkflowHeaderConstant,
	})

	outcomeCounts := map[Outcome]int{}
	for _, row := range rows {
		outcomeCounts[row.Outcome]++
		tableWriter.AppendRow(table.Row{
			row.Repository,
			string(row.Outcome),
			orPlaceholder(row.Stage),
			orPlaceholder(row.BuildSystem),
			strconv.FormatBool(row.WorkflowAttached),
		})
	}
	tableWriter.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tableWriter.AppendFooter(table.Row{
		fmt.Sprintf(summaryTotalsTemplateConstant, outcomeCounts[OutcomeMigrated], outcomeCounts[OutcomeSkipped], outcomeCounts[OutcomeFailed]),
	})

	return tableWriter.Render()
}

func orPlaceholder(value string) string {
	if len(value) == 0 {
		return summaryEmptyCellConstant
	}
	return value
}
