package migrate

import (
	"strings"
	"time"

	pathutils "github.com/temirov/gitmigrate/internal/utils/path"
)

const (
	defaultSourceListConstant         = "source_repos.csv"
	defaultOrganizationConstant       = "capgemini-cg-demo"
	defaultHostConstant               = "github.com"
	defaultWorkspaceConstant          = "."
	defaultWorkflowDirectoryConstant  = ".github/workflows"
	defaultCommitMessageConstant      = "Added CI workflow file"
	defaultSettleDelayConstant        = 10 * time.Second
	defaultParallelismConstant        = 1
	defaultTemplateRepositoryConstant = "capgemini-ga-demo/github_centralized_workflows"
	defaultTemplateBranchConstant     = "develop"
	defaultTemplatePathConstant       = "templates"
	defaultMigrationLedgerConstant    = "migration_summary.csv"
	defaultTargetLogConstant          = "target_repos.csv"
	defaultFailureLedgerConstant      = "migration_failures.csv"
)

var migrateConfigurationHomeExpander = pathutils.NewHomeExpander()

// TemplateStoreConfiguration locates the centralized workflow templates.
type TemplateStoreConfiguration struct {
	Repository string `mapstructure:"repository"`
	Branch     string `mapstructure:"branch"`
	Path       string `mapstructure:"path"`
}

// LedgerConfiguration names the files written by a migration run.
type LedgerConfiguration struct {
	Migration string `mapstructure:"migration"`
	Targets   string `mapstructure:"targets"`
	Failures  string `mapstructure:"failures"`
}

// CommandConfiguration captures persisted configuration for the migrate command.
type CommandConfiguration struct {
	SourceList        string                     `mapstructure:"source_list"`
	Organization      string                     `mapstructure:"organization"`
	SourceHost        string                     `mapstructure:"source_host"`
	TargetHost        string                     `mapstructure:"target_host"`
	TargetPrivate     bool                       `mapstructure:"target_private"`
	Workspace         string                     `mapstructure:"workspace"`
	WorkflowDirectory string                     `mapstructure:"workflow_directory"`
	CommitMessage     string                     `mapstructure:"commit_message"`
	CommitAuthorName  string                     `mapstructure:"commit_author_name"`
	CommitAuthorEmail string                     `mapstructure:"commit_author_email"`
	SettleDelay       time.Duration              `mapstructure:"settle_delay"`
	Parallelism       int                        `mapstructure:"parallelism"`
	FailOnError       bool                       `mapstructure:"fail_on_error"`
	Templates         TemplateStoreConfiguration `mapstructure:"templates"`
	Ledgers           LedgerConfiguration        `mapstructure:"ledgers"`
}

// DefaultCommandConfiguration returns baseline configuration values for migrations.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SourceList:        defaultSourceListConstant,
		Organization:      defaultOrganizationConstant,
		SourceHost:        defaultHostConstant,
		TargetHost:        defaultHostConstant,
		TargetPrivate:     true,
		Workspace:         defaultWorkspaceConstant,
		WorkflowDirectory: defaultWorkflowDirectoryConstant,
		CommitMessage:     defaultCommitMessageConstant,
		SettleDelay:       defaultSettleDelayConstant,
		Parallelism:       defaultParallelismConstant,
		Templates: TemplateStoreConfiguration{
			Repository: defaultTemplateRepositoryConstant,
			Branch:     defaultTemplateBranchConstant,
			Path:       defaultTemplatePathConstant,
		},
		Ledgers: LedgerConfiguration{
			Migration: defaultMigrationLedgerConstant,
			Targets:   defaultTargetLogConstant,
			Failures:  defaultFailureLedgerConstant,
		},
	}
}

// Sanitize trims configured values, expands home-relative paths and restores
// defaults for values left empty.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.SourceList = sanitizePath(configuration.SourceList, defaults.SourceList)
	sanitized.Workspace = sanitizePath(configuration.Workspace, defaults.Workspace)
	sanitized.Ledgers.Migration = sanitizePath(configuration.Ledgers.Migration, defaults.Ledgers.Migration)
	sanitized.Ledgers.Targets = sanitizePath(configuration.Ledgers.Targets, defaults.Ledgers.Targets)
	sanitized.Ledgers.Failures = sanitizePath(configuration.Ledgers.Failures, defaults.Ledgers.Failures)

	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	sanitized.SourceHost = valueOrDefault(configuration.SourceHost, defaults.SourceHost)
	sanitized.TargetHost = valueOrDefault(configuration.TargetHost, defaults.TargetHost)
	sanitized.WorkflowDirectory = valueOrDefault(configuration.WorkflowDirectory, defaults.WorkflowDirectory)
	sanitized.CommitMessage = valueOrDefault(configuration.CommitMessage, defaults.CommitMessage)
	sanitized.CommitAuthorName = strings.TrimSpace(configuration.CommitAuthorName)
	sanitized.CommitAuthorEmail = strings.TrimSpace(configuration.CommitAuthorEmail)
	sanitized.Templates.Repository = valueOrDefault(configuration.Templates.Repository, defaults.Templates.Repository)
	sanitized.Templates.Branch = valueOrDefault(configuration.Templates.Branch, defaults.Templates.Branch)
	sanitized.Templates.Path = strings.Trim(strings.TrimSpace(configuration.Templates.Path), "/")

	if sanitized.SettleDelay < 0 {
		sanitized.SettleDelay = 0
	}
	if sanitized.Parallelism < 1 {
		sanitized.Parallelism = defaults.Parallelism
	}
	return sanitized
}

func sanitizePath(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return migrateConfigurationHomeExpander.Expand(trimmedValue)
}

func valueOrDefault(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
