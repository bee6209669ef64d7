package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	separatorWidthConstant         = 100
	separatorFillConstant          = "="
	separatorLabelTemplateConstant = " %s for %s "
	separatorLineTemplateConstant  = "\n%s%s%s\n\n"
	statusLineTemplateConstant     = "%s\n"
	detailIndentConstant           = "  - "
	// PhaseStartingMigration labels the separator printed before a repository is processed.
	PhaseStartingMigration = "Starting migration"
	// PhaseEndOfMigration labels the separator printed after a repository is processed.
	PhaseEndOfMigration = "End of migration"
)

// StatusReporter writes the per-step console lines users follow during a run.
// Successes are green, warnings yellow and failures red when the writer is a terminal.
type StatusReporter struct {
	writer       io.Writer
	guard        sync.Mutex
	successColor *color.Color
	warningColor *color.Color
	failureColor *color.Color
}

// NewStatusReporter constructs a reporter that colorizes only terminal output.
func NewStatusReporter(writer io.Writer) *StatusReporter {
	return NewStatusReporterWithColor(writer, shouldColorize(writer))
}

// NewStatusReporterWithColor constructs a reporter with explicit color behavior.
func NewStatusReporterWithColor(writer io.Writer, colorize bool) *StatusReporter {
	if writer == nil {
		writer = io.Discard
	}
	reporter := &StatusReporter{
		writer:       writer,
		successColor: color.New(color.FgGreen),
		warningColor: color.New(color.FgYellow),
		failureColor: color.New(color.FgRed),
	}
	for _, palette := range []*color.Color{reporter.successColor, reporter.warningColor, reporter.failureColor} {
		if colorize {
			palette.EnableColor()
		} else {
			palette.DisableColor()
		}
	}
	return reporter
}

// Info prints an uncolored detail line.
func (reporter *StatusReporter) Info(format string, arguments ...any) {
	reporter.writeLine(nil, format, arguments...)
}

// Success prints a green detail line.
func (reporter *StatusReporter) Success(format string, arguments ...any) {
	reporter.writeLine(reporter.successColor, format, arguments...)
}

// Warning prints a yellow detail line.
func (reporter *StatusReporter) Warning(format string, arguments ...any) {
	reporter.writeLine(reporter.warningColor, format, arguments...)
}

// Failure prints a red detail line.
func (reporter *StatusReporter) Failure(format string, arguments ...any) {
	reporter.writeLine(reporter.failureColor, format, arguments...)
}

// Separator prints a full-width rule with the phase and repository centered in it.
func (reporter *StatusReporter) Separator(phase string, repository string) {
	label := fmt.Sprintf(separatorLabelTemplateConstant, phase, repository)
	fillWidth := separatorWidthConstant - len(label)
	if fillWidth < 0 {
		fillWidth = 0
	}
	leftFill := strings.Repeat(separatorFillConstant, fillWidth/2)
	rightFill := strings.Repeat(separatorFillConstant, fillWidth-fillWidth/2)

	reporter.guard.Lock()
	defer reporter.guard.Unlock()
	fmt.Fprintf(reporter.writer, separatorLineTemplateConstant, leftFill, label, rightFill)
}

// Write prints raw text, used for rendered tables.
func (reporter *StatusReporter) Write(content []byte) (int, error) {
	reporter.guard.Lock()
	defer reporter.guard.Unlock()
	return reporter.writer.Write(content)
}

func (reporter *StatusReporter) writeLine(palette *color.Color, format string, arguments ...any) {
	line := detailIndentConstant + fmt.Sprintf(format, arguments...)
	if palette != nil {
		line = palette.Sprint(line)
	}

	reporter.guard.Lock()
	defer reporter.guard.Unlock()
	fmt.Fprintf(reporter.writer, statusLineTemplateConstant, line)
}

// shouldColorize accepts any writer exposing a descriptor, including wrapped terminals.
func shouldColorize(writer io.Writer) bool {
	descriptorWriter, ok := writer.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	descriptor := descriptorWriter.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}
