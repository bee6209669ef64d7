package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmigrate/internal/audit"
	"github.com/temirov/gitmigrate/internal/migrate"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_format: structured\nmigration:\n  organization: acme-archive\n  settle_delay: 2s\n  ledgers:\n    failures: failures.csv\ninventory:\n  output: inventory.csv\n"
)

func newIsolatedApplication(testInstance *testing.T, configurationContent string) *Application {
	testInstance.Helper()
	searchDirectory := testInstance.TempDir()
	if len(configurationContent) > 0 {
		configurationPath := filepath.Join(searchDirectory, testConfigurationFileNameConstant)
		require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))
	}
	testInstance.Setenv(configurationSearchPathEnvironmentName, searchDirectory)
	return NewApplication()
}

func TestEmbeddedDefaultsMatchCommandDefaults(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance, "")
	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, migrate.DefaultCommandConfiguration().Sanitize(), application.configuration.Migration.Sanitize())
	require.Equal(testInstance, audit.DefaultCommandConfiguration().Sanitize(), application.configuration.Inventory.Sanitize())
	require.Equal(testInstance, "info", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)
	require.True(testInstance, application.humanReadableLoggingEnabled())
	require.Empty(testInstance, application.configurationMetadata.ConfigFileUsed)
}

func TestConfigurationSourcesOverrideDefaults(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance, testConfigurationContentConstant)
	testInstance.Setenv("GITMIGRATE_MIGRATION_PARALLELISM", "4")

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	migration := application.configuration.Migration
	require.Equal(testInstance, "acme-archive", migration.Organization)
	require.Equal(testInstance, 2*time.Second, migration.SettleDelay)
	require.Equal(testInstance, 4, migration.Parallelism)
	require.Equal(testInstance, "failures.csv", migration.Ledgers.Failures)
	require.Equal(testInstance, migrate.DefaultCommandConfiguration().Ledgers.Migration, migration.Ledgers.Migration)
	require.Equal(testInstance, "inventory.csv", application.configuration.Inventory.Output)
	require.False(testInstance, application.humanReadableLoggingEnabled())
	require.Contains(testInstance, application.configurationMetadata.ConfigFileUsed, testConfigurationFileNameConstant)

	configurationPath, available := application.commandContextAccessor.ConfigurationFilePath(application.rootCommand.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, application.configurationMetadata.ConfigFileUsed, configurationPath)
}

func TestLogFlagsOverrideConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logLevel      string
		logFormat     string
		expectError   bool
		expectedLevel string
	}{
		{name: "debug_level", logLevel: "DEBUG", logFormat: "structured", expectedLevel: "debug"},
		{name: "warn_level", logLevel: "warn", logFormat: "console", expectedLevel: "warn"},
		{name: "invalid_level", logLevel: "loud", logFormat: "console", expectError: true},
		{name: "invalid_format", logLevel: "info", logFormat: "xml", expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			application := newIsolatedApplication(subTest, "")
			rootCommand := application.rootCommand
			require.NoError(subTest, rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, testCase.logLevel))
			require.NoError(subTest, rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, testCase.logFormat))

			initializationError := application.initializeConfiguration(rootCommand)
			if testCase.expectError {
				require.Error(subTest, initializationError)
				return
			}
			require.NoError(subTest, initializationError)

			logLevel, available := application.commandContextAccessor.LogLevel(rootCommand.Context())
			require.True(subTest, available)
			require.Equal(subTest, testCase.expectedLevel, logLevel)
		})
	}
}

func TestRootCommandRegistersSubcommands(testInstance *testing.T) {
	application := newIsolatedApplication(testInstance, "")

	registered := map[string]bool{}
	for _, subcommand := range application.rootCommand.Commands() {
		registered[subcommand.Name()] = true
	}
	require.True(testInstance, registered[migrateCommandNameConstant])
	require.True(testInstance, registered[inventoryCommandNameConstant])

	for _, flagName := range []string{configFileFlagNameConstant, logLevelFlagNameConstant, logFormatFlagNameConstant} {
		require.NotNil(testInstance, application.rootCommand.PersistentFlags().Lookup(flagName))
	}
}
