package ledger_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitmigrate/internal/ledger"
)

const (
	testMigrationLedgerPathConstant = "/ledgers/migration_summary.csv"
	testTargetLogPathConstant       = "/ledgers/target_repos.csv"
	testSourceURLConstant           = "https://github.com/acme/widgets.git"
	testSecondSourceURLConstant     = "https://github.com/acme/gadgets.git"
	testTargetURLConstant           = "https://github.com/capgemini-cg-demo/widgets.git"
	testSecondTargetURLConstant     = "https://github.com/capgemini-cg-demo/gadgets.git"
)

func readFile(testInstance *testing.T, fileSystem afero.Fs, path string) string {
	testInstance.Helper()
	content, readError := afero.ReadFile(fileSystem, path)
	require.NoError(testInstance, readError)
	return string(content)
}

func TestMigrationLedgerDeduplicatesBySource(testInstance *testing.T) {
	testCases := []struct {
		name            string
		records         []ledger.MigrationRecord
		expectedWritten []bool
		expectedContent string
	}{
		{
			name: "same_source_twice",
			records: []ledger.MigrationRecord{
				{SourceURL: testSourceURLConstant, TargetURL: testTargetURLConstant, AttachedWorkflow: true},
				{SourceURL: testSourceURLConstant, TargetURL: testTargetURLConstant, AttachedWorkflow: false},
			},
			expectedWritten: []bool{true, false},
			expectedContent: "source_github_url,target_github_url,migrated_with_workflow_file\n" +
				"https://github.com/acme/widgets.git,https://github.com/capgemini-cg-demo/widgets.git,True\n",
		},
		{
			name: "distinct_sources_in_order",
			records: []ledger.MigrationRecord{
				{SourceURL: testSourceURLConstant, TargetURL: testTargetURLConstant, AttachedWorkflow: true},
				{SourceURL: testSecondSourceURLConstant, TargetURL: testSecondTargetURLConstant},
			},
			expectedWritten: []bool{true, true},
			expectedContent: "source_github_url,target_github_url,migrated_with_workflow_file\n" +
				"https://github.com/acme/widgets.git,https://github.com/capgemini-cg-demo/widgets.git,True\n" +
				"https://github.com/acme/gadgets.git,https://github.com/capgemini-cg-demo/gadgets.git,False\n",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			migrationLedger, creationError := ledger.NewMigrationLedger(fileSystem, testMigrationLedgerPathConstant, zap.NewNop())
			require.NoError(testInstance, creationError)

			for recordIndex, record := range testCase.records {
				written, recordError := migrationLedger.Record(record.SourceURL, record.TargetURL, record.AttachedWorkflow)
				require.NoError(testInstance, recordError)
				require.Equal(testInstance, testCase.expectedWritten[recordIndex], written)
			}

			require.Equal(testInstance, testCase.expectedContent, readFile(testInstance, fileSystem, testMigrationLedgerPathConstant))
		})
	}
}

func TestMigrationLedgerSurvivesRestart(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	observerCore, observerLogs := observer.New(zapcore.InfoLevel)

	firstRun, creationError := ledger.NewMigrationLedger(fileSystem, testMigrationLedgerPathConstant, zap.NewNop())
	require.NoError(testInstance, creationError)
	_, recordError := firstRun.Record(testSourceURLConstant, testTargetURLConstant, true)
	require.NoError(testInstance, recordError)

	secondRun, creationError := ledger.NewMigrationLedger(fileSystem, testMigrationLedgerPathConstant, zap.New(observerCore))
	require.NoError(testInstance, creationError)
	written, recordError := secondRun.Record(testSourceURLConstant, testTargetURLConstant, true)
	require.NoError(testInstance, recordError)
	require.False(testInstance, written)
	require.Equal(testInstance, 1, observerLogs.FilterMessage("Duplicate entry detected; skipping ledger write").Len())

	entries, entriesError := secondRun.Entries()
	require.NoError(testInstance, entriesError)
	require.Equal(testInstance, []ledger.MigrationRecord{{SourceURL: testSourceURLConstant, TargetURL: testTargetURLConstant, AttachedWorkflow: true}}, entries)
}

func TestMigrationLedgerConcurrentRecords(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	migrationLedger, creationError := ledger.NewMigrationLedger(fileSystem, testMigrationLedgerPathConstant, nil)
	require.NoError(testInstance, creationError)

	const workerCount = 16
	var waitGroup sync.WaitGroup
	for workerIndex := 0; workerIndex < workerCount; workerIndex++ {
		waitGroup.Add(1)
		go func(workerIndex int) {
			defer waitGroup.Done()
			sourceURL := fmt.Sprintf("https://github.com/acme/repo-%d.git", workerIndex%4)
			_, _ = migrationLedger.Record(sourceURL, testTargetURLConstant, false)
		}(workerIndex)
	}
	waitGroup.Wait()

	entries, entriesError := migrationLedger.Entries()
	require.NoError(testInstance, entriesError)
	require.Len(testInstance, entries, 4)
}

func TestLedgerConstructionValidation(testInstance *testing.T) {
	_, creationError := ledger.NewMigrationLedger(nil, testMigrationLedgerPathConstant, nil)
	require.ErrorIs(testInstance, creationError, ledger.ErrFileSystemNotConfigured)

	_, creationError = ledger.NewTargetLog(afero.NewMemMapFs(), " ", "github.com", nil)
	require.ErrorIs(testInstance, creationError, ledger.ErrPathNotConfigured)
}

func TestNormalizeTarget(testInstance *testing.T) {
	require.Equal(testInstance, "capgemini-cg-demo/widgets", ledger.NormalizeTarget(testTargetURLConstant, "github.com"))
	require.Equal(testInstance, "capgemini-cg-demo/digit", ledger.NormalizeTarget("https://github.com/capgemini-cg-demo/digit.git", ""))
	require.Equal(testInstance, "capgemini-cg-demo/widgets", ledger.NormalizeTarget("git@github.com:capgemini-cg-demo/widgets.git", "github.com"))
	require.Equal(testInstance, "https://git.example.com/capgemini-cg-demo/widgets", ledger.NormalizeTarget("https://git.example.com/capgemini-cg-demo/widgets.git", "github.com"))
}

func TestTargetLogAppendsDuplicates(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	targetLog, creationError := ledger.NewTargetLog(fileSystem, testTargetLogPathConstant, "github.com", zap.NewNop())
	require.NoError(testInstance, creationError)

	for attempt := 0; attempt < 2; attempt++ {
		normalizedTarget, recordError := targetLog.Record(testTargetURLConstant)
		require.NoError(testInstance, recordError)
		require.Equal(testInstance, "capgemini-cg-demo/widgets", normalizedTarget)
	}

	require.Equal(testInstance, "capgemini-cg-demo/widgets\ncapgemini-cg-demo/widgets\n", readFile(testInstance, fileSystem, testTargetLogPathConstant))
}

func TestPreMigrationLedgerRecord(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	preMigrationLedger, creationError := ledger.NewPreMigrationLedger(fileSystem, "pre_migration_summary.csv")
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, preMigrationLedger.Record(ledger.PreMigrationRecord{
		RepositoryName:  "acme/widgets",
		PrimaryLanguage: "Java",
		BuildSystem:     "maven, npm",
		BranchCount:     2,
		SizeKB:          1024,
		Branches:        []string{"main", "develop"},
	}))
	require.NoError(testInstance, preMigrationLedger.Record(ledger.PreMigrationRecord{
		RepositoryName: "acme/docs",
		BuildSystem:    "No common build system detected.",
		Branches:       []string{},
	}))

	require.Equal(testInstance,
		"repo_name,primary_language,build_system,branch_count,repo_size,branches\n"+
			"acme/widgets,Java,\"maven, npm\",2,1024,\"main, develop\"\n"+
			"acme/docs,,No common build system detected.,0,0,\n",
		readFile(testInstance, fileSystem, "pre_migration_summary.csv"))
}

func TestFailureLedgerRecord(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	failureLedger, creationError := ledger.NewFailureLedger(fileSystem, "/ledgers/migration_failures.csv")
	require.NoError(testInstance, creationError)

	recordedAt := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	require.NoError(testInstance, failureLedger.Record(ledger.FailureRecord{
		RunID:      "run-1",
		Repository: "acme/widgets",
		Stage:      "pushing",
		Error:      "push rejected",
		RecordedAt: recordedAt,
	}))

	require.Equal(testInstance,
		"run_id,repository,stage,error,recorded_at\nrun-1,acme/widgets,pushing,push rejected,2024-03-05T09:30:00Z\n",
		readFile(testInstance, fileSystem, "/ledgers/migration_failures.csv"))
}
