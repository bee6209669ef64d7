package buildsystem_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmigrate/internal/buildsystem"
	"github.com/temirov/gitmigrate/internal/githubcli"
)

type stubInspector struct {
	metadata      githubcli.RepositoryMetadata
	metadataError error
	entries       []string
	listingError  error
	listingCalls  int
}

func (inspector *stubInspector) ResolveRepoMetadata(context.Context, string) (githubcli.RepositoryMetadata, error) {
	return inspector.metadata, inspector.metadataError
}

func (inspector *stubInspector) ListRootEntries(context.Context, string) ([]string, error) {
	inspector.listingCalls++
	return inspector.entries, inspector.listingError
}

func TestDetectMatchesFragments(testInstance *testing.T) {
	testCases := []struct {
		name         string
		entries      []string
		expectedTags []buildsystem.Tag
	}{
		{name: "maven_only", entries: []string{"pom.xml", "src", "README.md"}, expectedTags: []buildsystem.Tag{"maven"}},
		{name: "substring_match", entries: []string{"Widgets.App.csproj"}, expectedTags: []buildsystem.Tag{"dotNET_CS"}},
		{name: "indicator_order_kept", entries: []string{"yarn.lock", "package.json", "Makefile"}, expectedTags: []buildsystem.Tag{"npm", "yarn", "make"}},
		{name: "bazel_substring_of_build_files", entries: []string{"BUILD.bazel"}, expectedTags: []buildsystem.Tag{"bazel"}},
		{name: "nothing_recognized", entries: []string{"README.md", "docs"}, expectedTags: []buildsystem.Tag{}},
		{name: "empty_listing", entries: nil, expectedTags: []buildsystem.Tag{}},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedTags, buildsystem.Detect(testCase.entries, buildsystem.DefaultIndicators()))
		})
	}
}

func TestDetectIsMonotonicOverIndicators(testInstance *testing.T) {
	entries := []string{"pom.xml", "package.json", "go.mod", "requirements.txt"}
	fullIndicators := buildsystem.DefaultIndicators()

	fullResult := buildsystem.Detect(entries, fullIndicators)
	for subsetSize := 0; subsetSize <= len(fullIndicators); subsetSize++ {
		subsetResult := buildsystem.Detect(entries, fullIndicators[:subsetSize])
		for _, tag := range subsetResult {
			require.Contains(testInstance, fullResult, tag)
		}
	}
}

func TestResultString(testInstance *testing.T) {
	require.Equal(testInstance, "No common build system detected.", buildsystem.Result{}.String())
	require.True(testInstance, buildsystem.Result{}.NoneDetected())

	result := buildsystem.Result{BuildSystems: []buildsystem.Tag{"maven", "npm"}}
	require.Equal(testInstance, "maven, npm", result.String())
	require.False(testInstance, result.NoneDetected())
}

func TestDetectorDetect(testInstance *testing.T) {
	listingFailure := errors.New("listing failed")
	metadataFailure := errors.New("metadata failed")

	testCases := []struct {
		name                 string
		inspector            *stubInspector
		expectedResult       buildsystem.Result
		expectedCause        error
		expectedListingCalls int
	}{
		{
			name: "java_repository",
			inspector: &stubInspector{
				metadata: githubcli.RepositoryMetadata{PrimaryLanguage: "Java", DefaultBranch: "main", DiskUsageKB: 512},
				entries:  []string{"pom.xml", "src"},
			},
			expectedResult:       buildsystem.Result{PrimaryLanguage: "Java", BuildSystems: []buildsystem.Tag{"maven"}, DefaultBranch: "main", SizeKB: 512},
			expectedListingCalls: 1,
		},
		{
			name:                 "no_build_system_is_not_an_error",
			inspector:            &stubInspector{entries: []string{"README.md"}},
			expectedResult:       buildsystem.Result{BuildSystems: []buildsystem.Tag{}},
			expectedListingCalls: 1,
		},
		{
			name:                 "metadata_failure",
			inspector:            &stubInspector{metadataError: metadataFailure},
			expectedCause:        metadataFailure,
			expectedListingCalls: 0,
		},
		{
			name:                 "listing_failure",
			inspector:            &stubInspector{listingError: listingFailure},
			expectedCause:        listingFailure,
			expectedListingCalls: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			detector, creationError := buildsystem.NewDetector(testCase.inspector, nil)
			require.NoError(testInstance, creationError)

			result, detectionError := detector.Detect(context.Background(), "acme/widgets")
			require.Equal(testInstance, testCase.expectedListingCalls, testCase.inspector.listingCalls)
			if testCase.expectedCause != nil {
				require.ErrorIs(testInstance, detectionError, testCase.expectedCause)
				require.IsType(testInstance, buildsystem.DetectionError{}, detectionError)
				return
			}
			require.NoError(testInstance, detectionError)
			require.Equal(testInstance, testCase.expectedResult, result)
		})
	}
}

func TestNewDetectorRequiresInspector(testInstance *testing.T) {
	_, creationError := buildsystem.NewDetector(nil, nil)
	require.ErrorIs(testInstance, creationError, buildsystem.ErrInspectorNotConfigured)
}
