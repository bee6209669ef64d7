package migrate_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitmigrate/internal/githubauth"
	"github.com/temirov/gitmigrate/internal/migrate"
	"github.com/temirov/gitmigrate/internal/migrate/testsupport"
	"github.com/temirov/gitmigrate/internal/workspace"
)

const (
	sourceListPathConstant        = "/input/source_repos.csv"
	sourceListContentConstant     = "acme/widgets\n\nacme/gadgets\n"
	commandTokenValueConstant     = "test-token"
	sourceListFlagConstant        = "--source-list"
	organizationFlagConstant      = "--organization"
	settleDelayFlagConstant       = "--settle-delay"
	parallelismFlagConstant       = "--parallelism"
	failOnErrorFlagConstant       = "--fail-on-error"
	lockFileNameConstant          = ".gitmigrate.lock"
	overriddenOrganization        = "acme-archive"
	runStartedMessageTextConstant = "Migration run started"
)

type commandFixture struct {
	executor   *testsupport.ExecutorStub
	fileSystem afero.Fs
	workspace  string
	logs       *observer.ObservedLogs
	output     *bytes.Buffer
	builder    migrate.CommandBuilder
}

func newCommandFixture(testInstance *testing.T, environment map[string]string) *commandFixture {
	testInstance.Helper()

	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	logger := zap.New(observerCore)
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, sourceListPathConstant, []byte(sourceListContentConstant), 0o644))

	workspaceRoot := testInstance.TempDir()
	fixture := &commandFixture{
		executor:   &testsupport.ExecutorStub{},
		fileSystem: fileSystem,
		workspace:  workspaceRoot,
		logs:       observedLogs,
		output:     &bytes.Buffer{},
	}
	fixture.builder = migrate.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return logger },
		Executor:       fixture.executor,
		FileSystem:     fileSystem,
		EnvironmentProvider: func() map[string]string {
			return environment
		},
		Sleeper: func(context.Context, time.Duration) error { return nil },
		ConfigurationProvider: func() migrate.CommandConfiguration {
			configuration := migrate.DefaultCommandConfiguration()
			configuration.Workspace = workspaceRoot
			configuration.Templates = migrate.TemplateStoreConfiguration{Repository: templateRepositoryConstant, Branch: templateBranchConstant, Path: templatePathConstant}
			configuration.Ledgers = migrate.LedgerConfiguration{
				Migration: migrationLedgerPathConstant,
				Targets:   targetLogPathConstant,
				Failures:  failureLedgerPathConstant,
			}
			return configuration
		},
	}
	return fixture
}

func (fixture *commandFixture) execute(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	command, buildError := fixture.builder.Build()
	require.NoError(testInstance, buildError)
	command.SetOut(fixture.output)
	command.SetErr(fixture.output)
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	return command.Execute()
}

func scriptCommandRepositories(executor *testsupport.ExecutorStub, organization string) {
	for _, repositoryName := range []string{"widgets", "gadgets"} {
		executor.ScriptSourceRepository(testsupport.SourceRepository{
			Identifier:    "acme/" + repositoryName,
			Language:      "Java",
			DefaultBranch: "main",
			Entries:       []string{"pom.xml"},
		})
		executor.ScriptResponse(
			testsupport.CreateRepositoryKey(organization, repositoryName, true),
			testsupport.CommandResponse{Output: testsupport.RepositoryPayload(organization, repositoryName, true)},
		)
	}
	executor.ScriptResponse(
		testsupport.FileContentsKey(templateRepositoryConstant, templateBranchConstant, "templates/maven-ci.yml"),
		testsupport.CommandResponse{Output: mavenTemplateContentConstant},
	)
}

func TestMigrateCommandRequiresToken(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
	testInstance.Setenv(githubauth.EnvGitHubToken, "")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")

	fixture := newCommandFixture(testInstance, map[string]string{})
	executionError := fixture.execute(testInstance, sourceListFlagConstant, sourceListPathConstant)

	require.ErrorIs(testInstance, executionError, githubauth.ErrTokenMissing)
	require.Empty(testInstance, fixture.executor.GitHubArguments())
	require.Empty(testInstance, fixture.executor.GitArguments())
}

func TestMigrateCommandRunScenarios(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		arguments            []string
		organization         string
		failPush             bool
		expectError          bool
		expectedLedgerRows   int
		expectedFailureCount int
	}{
		{
			name:               "migrates_every_listed_repository",
			arguments:          []string{sourceListFlagConstant, sourceListPathConstant, settleDelayFlagConstant, "0s"},
			organization:       organizationConstant,
			expectedLedgerRows: 2,
		},
		{
			name:               "organization_flag_overrides_configuration",
			arguments:          []string{sourceListFlagConstant, sourceListPathConstant, organizationFlagConstant, overriddenOrganization, parallelismFlagConstant, "2"},
			organization:       overriddenOrganization,
			expectedLedgerRows: 2,
		},
		{
			name:                 "failures_do_not_fail_the_command_by_default",
			arguments:            []string{sourceListFlagConstant, sourceListPathConstant},
			organization:         organizationConstant,
			failPush:             true,
			expectedFailureCount: 2,
		},
		{
			name:                 "fail_on_error_reports_failures",
			arguments:            []string{sourceListFlagConstant, sourceListPathConstant, failOnErrorFlagConstant},
			organization:         organizationConstant,
			failPush:             true,
			expectError:          true,
			expectedFailureCount: 2,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			fixture := newCommandFixture(subTest, map[string]string{githubauth.EnvGitHubToken: commandTokenValueConstant})
			scriptCommandRepositories(fixture.executor, testCase.organization)
			if testCase.failPush {
				fixture.executor.FailGit(errors.New("remote rejected"), "push", "--all", "origin")
			}

			executionError := fixture.execute(subTest, testCase.arguments...)
			if testCase.expectError {
				require.Error(subTest, executionError)
				require.ErrorContains(subTest, executionError, fmt.Sprintf("%d repositories failed to migrate", testCase.expectedFailureCount))
			} else {
				require.NoError(subTest, executionError)
			}

			require.Len(subTest, fixture.logs.FilterMessage(runStartedMessageTextConstant).All(), 1)

			if testCase.expectedLedgerRows > 0 {
				ledgerContent, readError := afero.ReadFile(fixture.fileSystem, migrationLedgerPathConstant)
				require.NoError(subTest, readError)
				require.Contains(subTest, string(ledgerContent), "https://github.com/"+testCase.organization+"/widgets.git")
				require.Contains(subTest, string(ledgerContent), "https://github.com/"+testCase.organization+"/gadgets.git")
			}
			if testCase.expectedFailureCount > 0 {
				failureContent, readError := afero.ReadFile(fixture.fileSystem, failureLedgerPathConstant)
				require.NoError(subTest, readError)
				require.Contains(subTest, string(failureContent), "acme/widgets")
				require.Contains(subTest, string(failureContent), "acme/gadgets")
			}
			require.Contains(subTest, fixture.output.String(), "Starting migration for acme/widgets")
		})
	}
}

func TestMigrateCommandContinuesPastInvalidSourceLines(testInstance *testing.T) {
	testCases := []struct {
		name        string
		arguments   []string
		expectError bool
	}{
		{
			name:      "invalid_lines_are_recorded",
			arguments: []string{sourceListFlagConstant, sourceListPathConstant},
		},
		{
			name:        "fail_on_error_counts_invalid_lines",
			arguments:   []string{sourceListFlagConstant, sourceListPathConstant, failOnErrorFlagConstant},
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			fixture := newCommandFixture(subTest, map[string]string{githubauth.EnvGitHubToken: commandTokenValueConstant})
			require.NoError(subTest, afero.WriteFile(fixture.fileSystem, sourceListPathConstant, []byte("repository\nacme/widgets\nacme/gadgets\n"), 0o644))
			scriptCommandRepositories(fixture.executor, organizationConstant)

			executionError := fixture.execute(subTest, testCase.arguments...)
			if testCase.expectError {
				require.ErrorContains(subTest, executionError, "1 repositories failed to migrate")
			} else {
				require.NoError(subTest, executionError)
			}

			ledgerContent, readError := afero.ReadFile(fixture.fileSystem, migrationLedgerPathConstant)
			require.NoError(subTest, readError)
			require.Contains(subTest, string(ledgerContent), "https://github.com/acme/widgets.git")
			require.Contains(subTest, string(ledgerContent), "https://github.com/acme/gadgets.git")

			failureContent, failureReadError := afero.ReadFile(fixture.fileSystem, failureLedgerPathConstant)
			require.NoError(subTest, failureReadError)
			require.Contains(subTest, string(failureContent), ",repository,detecting,source list line 1:")
			require.Contains(subTest, fixture.output.String(), "source list line 1")
		})
	}
}

func TestMigrateCommandRefusesLockedWorkspace(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, map[string]string{githubauth.EnvGitHubToken: commandTokenValueConstant})
	scriptCommandRepositories(fixture.executor, organizationConstant)

	heldLock := flock.New(filepath.Join(fixture.workspace, lockFileNameConstant))
	locked, lockError := heldLock.TryLock()
	require.NoError(testInstance, lockError)
	require.True(testInstance, locked)
	defer heldLock.Unlock()

	executionError := fixture.execute(testInstance, sourceListFlagConstant, sourceListPathConstant)
	require.ErrorIs(testInstance, executionError, workspace.ErrWorkspaceLocked)
	require.Empty(testInstance, fixture.executor.GitArguments())
}

func TestMigrateCommandReportsMissingSourceList(testInstance *testing.T) {
	fixture := newCommandFixture(testInstance, map[string]string{githubauth.EnvGitHubToken: commandTokenValueConstant})

	executionError := fixture.execute(testInstance, sourceListFlagConstant, "/input/missing.csv")
	require.ErrorContains(testInstance, executionError, "unable to load repositories")
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	sanitized := migrate.CommandConfiguration{
		Organization: "  acme-archive  ",
		Parallelism:  -2,
		SettleDelay:  -time.Second,
		Templates:    migrate.TemplateStoreConfiguration{Path: "/templates/"},
	}.Sanitize()

	defaults := migrate.DefaultCommandConfiguration()
	require.Equal(testInstance, "acme-archive", sanitized.Organization)
	require.Equal(testInstance, 1, sanitized.Parallelism)
	require.Equal(testInstance, time.Duration(0), sanitized.SettleDelay)
	require.Equal(testInstance, "templates", sanitized.Templates.Path)
	require.Equal(testInstance, defaults.Templates.Repository, sanitized.Templates.Repository)
	require.Equal(testInstance, defaults.Ledgers, sanitized.Ledgers)
	require.Equal(testInstance, defaults.SourceList, sanitized.SourceList)
	require.Equal(testInstance, defaults.TargetHost, sanitized.TargetHost)
}
