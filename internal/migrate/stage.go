package migrate

import "fmt"

const stageErrorTemplateConstant = "%s failed during %s: %v"

// Stage names a step of the per-repository migration.
type Stage string

// Migration stages in execution order.
const (
	StageDetecting      Stage = Stage("detecting")
	StageTemplateLookup Stage = Stage("template_lookup")
	StageCloning        Stage = Stage("cloning")
	StageInjecting      Stage = Stage("injecting")
	StageTargetEnsure   Stage = Stage("target_ensure")
	StagePushing        Stage = Stage("pushing")
	StageLogging        Stage = Stage("logging")
	StageCleanup        Stage = Stage("cleanup")
	StageDone           Stage = Stage("done")
)

// StageError reports the stage at which a repository migration was aborted.
type StageError struct {
	Repository string
	Stage      Stage
	Cause      error
}

// Error describes the aborted migration.
func (stageError StageError) Error() string {
	return fmt.Sprintf(stageErrorTemplateConstant, stageError.Repository, stageError.Stage, stageError.Cause)
}

// Unwrap exposes the underlying cause.
func (stageError StageError) Unwrap() error {
	return stageError.Cause
}
