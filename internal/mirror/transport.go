package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitmigrate/internal/execshell"
	"github.com/temirov/gitmigrate/internal/templates"
	"github.com/temirov/gitmigrate/internal/workspace"
)

const (
	gitCloneSubcommandConstant           = "clone"
	gitMirrorFlagConstant                = "--mirror"
	gitRemoteSubcommandConstant          = "remote"
	gitRemoveSubcommandConstant          = "rm"
	gitAddSubcommandConstant             = "add"
	gitPushSubcommandConstant            = "push"
	gitAllFlagConstant                   = "--all"
	gitTagsFlagConstant                  = "--tags"
	gitCommitSubcommandConstant          = "commit"
	gitMessageFlagConstant               = "-m"
	gitGarbageCollectSubcommandConstant  = "gc"
	gitStageEverythingConstant           = "."
	originRemoteNameConstant             = "origin"
	defaultWorkflowDirectoryConstant     = ".github/workflows"
	defaultCommitMessageConstant         = "Added CI workflow file"
	authorNameEnvironmentConstant        = "GIT_AUTHOR_NAME"
	authorEmailEnvironmentConstant       = "GIT_AUTHOR_EMAIL"
	committerNameEnvironmentConstant     = "GIT_COMMITTER_NAME"
	committerEmailEnvironmentConstant    = "GIT_COMMITTER_EMAIL"
	workflowDirectoryPermissionConstant  = fs.FileMode(0o755)
	workflowFilePermissionConstant       = fs.FileMode(0o644)
	executorNotConfiguredMessageConstant = "git executor not configured"
	pathsNotConfiguredMessageConstant    = "workspace not configured"
	prepareErrorTemplateConstant         = "prepare %s: %w"
	cloneErrorTemplateConstant           = "clone %s into %s: %w"
	writeWorkflowErrorTemplateConstant   = "write workflow %s: %w"
	commitWorkflowErrorTemplateConstant  = "commit workflow in %s: %w"
	pushWorkflowErrorTemplateConstant    = "push workflow to %s: %w"
	repointRemoteErrorTemplateConstant   = "repoint origin of %s to %s: %w"
	pushRefsErrorTemplateConstant        = "push %s to %s: %w"
	garbageCollectErrorTemplateConstant  = "compact %s: %w"
	workflowWrittenMessageConstant       = "Wrote workflow file"
	cleanupFailedMessageConstant         = "Cleanup failed"
	logFieldPathConstant                 = "path"
	branchesLabelConstant                = "branches"
	tagsLabelConstant                    = "tags"
)

var (
	// ErrExecutorNotConfigured indicates the transport was constructed without a git executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrPathManagerNotConfigured indicates the transport was constructed without a workspace.
	ErrPathManagerNotConfigured = errors.New(pathsNotConfiguredMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// PathManager prepares and removes ephemeral directories.
type PathManager interface {
	Reset(targetPath string) error
	Remove(targetPath string) error
	Prune(targetPath string) error
	FileSystem() afero.Fs
}

// Settings controls how the workflow commit is produced.
type Settings struct {
	WorkflowDirectory string
	CommitMessage     string
	CommitAuthorName  string
	CommitAuthorEmail string
}

// Transport performs the git side of a migration.
type Transport struct {
	executor GitExecutor
	paths    PathManager
	settings Settings
	logger   *zap.Logger
}

// NewTransport constructs a Transport, filling unset settings with defaults.
func NewTransport(executor GitExecutor, paths PathManager, settings Settings, logger *zap.Logger) (*Transport, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if paths == nil {
		return nil, ErrPathManagerNotConfigured
	}
	if len(strings.TrimSpace(settings.WorkflowDirectory)) == 0 {
		settings.WorkflowDirectory = defaultWorkflowDirectoryConstant
	}
	if len(strings.TrimSpace(settings.CommitMessage)) == 0 {
		settings.CommitMessage = defaultCommitMessageConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{executor: executor, paths: paths, settings: settings, logger: logger}, nil
}

// MirrorClone clears mirrorPath and mirror-clones sourceURL into it.
func (transport *Transport) MirrorClone(executionContext context.Context, sourceURL string, mirrorPath string) error {
	if resetError := transport.paths.Reset(mirrorPath); resetError != nil {
		return fmt.Errorf(prepareErrorTemplateConstant, mirrorPath, resetError)
	}
	_, cloneError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, gitMirrorFlagConstant, sourceURL, mirrorPath},
	})
	if cloneError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, sourceURL, mirrorPath, cloneError)
	}
	return nil
}

// WorkingClone clears worktreePath and clones the local mirror into it.
func (transport *Transport) WorkingClone(executionContext context.Context, mirrorPath string, worktreePath string) error {
	if resetError := transport.paths.Reset(worktreePath); resetError != nil {
		return fmt.Errorf(prepareErrorTemplateConstant, worktreePath, resetError)
	}
	_, cloneError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, mirrorPath, worktreePath},
	})
	if cloneError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, mirrorPath, worktreePath, cloneError)
	}
	return nil
}

// InjectWorkflow writes the template into the worktree's workflow directory, commits
// everything and pushes the commit to branch of the worktree's origin, which is the
// local mirror.
func (transport *Transport) InjectWorkflow(executionContext context.Context, worktreePath string, template templates.Template, branch string) error {
	workflowDirectory := filepath.Join(worktreePath, filepath.FromSlash(transport.settings.WorkflowDirectory))
	workflowPath := filepath.Join(workflowDirectory, template.FileName)

	fileSystem := transport.paths.FileSystem()
	if mkdirError := fileSystem.MkdirAll(workflowDirectory, workflowDirectoryPermissionConstant); mkdirError != nil {
		return fmt.Errorf(writeWorkflowErrorTemplateConstant, workflowPath, mkdirError)
	}
	if writeError := afero.WriteFile(fileSystem, workflowPath, template.Content, workflowFilePermissionConstant); writeError != nil {
		return fmt.Errorf(writeWorkflowErrorTemplateConstant, workflowPath, writeError)
	}
	transport.logger.Debug(workflowWrittenMessageConstant, zap.String(logFieldPathConstant, workflowPath))

	if _, addError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitStageEverythingConstant},
		WorkingDirectory: worktreePath,
	}); addError != nil {
		return fmt.Errorf(commitWorkflowErrorTemplateConstant, worktreePath, addError)
	}

	if _, commitError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCommitSubcommandConstant, gitMessageFlagConstant, transport.settings.CommitMessage},
		WorkingDirectory:     worktreePath,
		EnvironmentVariables: transport.commitIdentity(),
	}); commitError != nil {
		return fmt.Errorf(commitWorkflowErrorTemplateConstant, worktreePath, commitError)
	}

	if _, pushError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPushSubcommandConstant, originRemoteNameConstant, branch},
		WorkingDirectory: worktreePath,
	}); pushError != nil {
		return fmt.Errorf(pushWorkflowErrorTemplateConstant, branch, pushError)
	}
	return nil
}

// PushAll replaces the mirror's origin with targetURL and pushes every branch, then every tag.
func (transport *Transport) PushAll(executionContext context.Context, mirrorPath string, targetURL string) error {
	remoteCommands := [][]string{
		{gitRemoteSubcommandConstant, gitRemoveSubcommandConstant, originRemoteNameConstant},
		{gitRemoteSubcommandConstant, gitAddSubcommandConstant, originRemoteNameConstant, targetURL},
	}
	for _, remoteArguments := range remoteCommands {
		if _, remoteError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        remoteArguments,
			WorkingDirectory: mirrorPath,
		}); remoteError != nil {
			return fmt.Errorf(repointRemoteErrorTemplateConstant, mirrorPath, targetURL, remoteError)
		}
	}

	pushSteps := []struct {
		label string
		flag  string
	}{
		{label: branchesLabelConstant, flag: gitAllFlagConstant},
		{label: tagsLabelConstant, flag: gitTagsFlagConstant},
	}
	for _, pushStep := range pushSteps {
		if _, pushError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitPushSubcommandConstant, pushStep.flag, originRemoteNameConstant},
			WorkingDirectory: mirrorPath,
		}); pushError != nil {
			return fmt.Errorf(pushRefsErrorTemplateConstant, pushStep.label, targetURL, pushError)
		}
	}
	return nil
}

// CollectGarbage compacts the repository at repositoryPath, releasing pack locks before removal.
func (transport *Transport) CollectGarbage(executionContext context.Context, repositoryPath string) error {
	if _, gcError := transport.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitGarbageCollectSubcommandConstant},
		WorkingDirectory: repositoryPath,
	}); gcError != nil {
		return fmt.Errorf(garbageCollectErrorTemplateConstant, repositoryPath, gcError)
	}
	return nil
}

// Cleanup removes every given path and then any directory they leave empty,
// logging and collecting failures instead of stopping.
func (transport *Transport) Cleanup(paths workspace.Paths) error {
	var cleanupErrors []error
	for _, ephemeralPath := range paths.All() {
		if removeError := transport.paths.Remove(ephemeralPath); removeError != nil {
			transport.logger.Warn(cleanupFailedMessageConstant, zap.String(logFieldPathConstant, ephemeralPath), zap.Error(removeError))
			cleanupErrors = append(cleanupErrors, removeError)
		}
	}
	for _, ephemeralPath := range paths.All() {
		if pruneError := transport.paths.Prune(ephemeralPath); pruneError != nil {
			transport.logger.Warn(cleanupFailedMessageConstant, zap.String(logFieldPathConstant, ephemeralPath), zap.Error(pruneError))
			cleanupErrors = append(cleanupErrors, pruneError)
		}
	}
	return errors.Join(cleanupErrors...)
}

func (transport *Transport) commitIdentity() map[string]string {
	identity := map[string]string{}
	if authorName := strings.TrimSpace(transport.settings.CommitAuthorName); len(authorName) > 0 {
		identity[authorNameEnvironmentConstant] = authorName
		identity[committerNameEnvironmentConstant] = authorName
	}
	if authorEmail := strings.TrimSpace(transport.settings.CommitAuthorEmail); len(authorEmail) > 0 {
		identity[authorEmailEnvironmentConstant] = authorEmail
		identity[committerEmailEnvironmentConstant] = authorEmail
	}
	if len(identity) == 0 {
		return nil
	}
	return identity
}
