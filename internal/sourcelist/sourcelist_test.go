package sourcelist_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmigrate/internal/gitrepo"
	"github.com/temirov/gitmigrate/internal/sourcelist"
)

type expectedInvalidEntry struct {
	line  int
	value string
}

func TestLoad(testInstance *testing.T) {
	widgets := gitrepo.RepositoryIdentifier{Owner: "acme", Name: "widgets"}
	gadgets := gitrepo.RepositoryIdentifier{Owner: "acme", Name: "gadgets"}

	testCases := []struct {
		name                string
		content             string
		expectedIdentifiers []gitrepo.RepositoryIdentifier
		expectedInvalid     []expectedInvalidEntry
	}{
		{
			name:                "line_delimited_with_blank_lines",
			content:             "acme/widgets\n\n  acme/gadgets  \n\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets, gadgets},
		},
		{
			name:                "single_column_csv_with_extra_columns",
			content:             "acme/widgets,ignored\r\nacme/gadgets\r\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets, gadgets},
		},
		{
			name:                "comments_skipped",
			content:             "# migration wave 1\nacme/widgets\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets},
		},
		{
			name:                "repository_urls_accepted",
			content:             "https://github.com/acme/widgets.git\ngit@github.com:acme/gadgets.git\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets, gadgets},
		},
		{
			name:                "empty_file",
			content:             "",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{},
		},
		{
			name:                "header_row_skipped_and_reported",
			content:             "repository\nacme/widgets\nacme/gadgets\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets, gadgets},
			expectedInvalid:     []expectedInvalidEntry{{line: 1, value: "repository"}},
		},
		{
			name:                "invalid_identifiers_skipped_and_reported",
			content:             "acme/widgets\nacme/bad/extra\nnot-an-identifier\nacme/gadgets\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets, gadgets},
			expectedInvalid: []expectedInvalidEntry{
				{line: 2, value: "acme/bad/extra"},
				{line: 3, value: "not-an-identifier"},
			},
		},
		{
			name:                "stray_quote_confined_to_its_line",
			content:             "acme/widgets\nacme/wid\"gets\nacme/gadgets\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{widgets, gadgets},
			expectedInvalid:     []expectedInvalidEntry{{line: 2, value: "acme/wid\"gets"}},
		},
		{
			name:                "unterminated_quote_confined_to_its_line",
			content:             "\"acme/widgets\nacme/gadgets\n",
			expectedIdentifiers: []gitrepo.RepositoryIdentifier{gadgets},
			expectedInvalid:     []expectedInvalidEntry{{line: 1, value: "\"acme/widgets"}},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			list, loadError := sourcelist.Load(strings.NewReader(testCase.content))
			require.NoError(subTest, loadError)
			require.Equal(subTest, testCase.expectedIdentifiers, list.Identifiers)
			require.Len(subTest, list.Invalid, len(testCase.expectedInvalid))
			for entryIndex, expectedEntry := range testCase.expectedInvalid {
				invalidEntry := list.Invalid[entryIndex]
				require.Equal(subTest, expectedEntry.line, invalidEntry.Line)
				require.Equal(subTest, expectedEntry.value, invalidEntry.Label())
				require.Error(subTest, invalidEntry.Err)
				require.Contains(subTest, invalidEntry.Error(), fmt.Sprintf("source list line %d", expectedEntry.line))
			}
		})
	}
}

func TestListEmpty(testInstance *testing.T) {
	require.True(testInstance, sourcelist.List{}.Empty())
	require.False(testInstance, sourcelist.List{Invalid: []sourcelist.InvalidEntry{{Line: 1}}}.Empty())
	require.Equal(testInstance, "line 4", sourcelist.InvalidEntry{Line: 4}.Label())
}

func TestLoadFile(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, "source_repos.csv", []byte("acme/widgets\n"), 0o644))

	list, loadError := sourcelist.LoadFile(fileSystem, "source_repos.csv")
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []gitrepo.RepositoryIdentifier{{Owner: "acme", Name: "widgets"}}, list.Identifiers)
	require.Empty(testInstance, list.Invalid)

	_, loadError = sourcelist.LoadFile(fileSystem, "missing.csv")
	require.Error(testInstance, loadError)
}
