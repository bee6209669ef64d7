package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/temirov/gitmigrate/internal/execshell"
)

const (
	repoSubcommandConstant                    = "repo"
	viewSubcommandConstant                    = "view"
	apiSubcommandConstant                     = "api"
	jsonFlagConstant                          = "--json"
	jqFlagConstant                            = "--jq"
	paginateFlagConstant                      = "--paginate"
	methodFlagConstant                        = "-X"
	rawFieldFlagConstant                      = "-f"
	typedFieldFlagConstant                    = "-F"
	headerFlagConstant                        = "-H"
	httpMethodPostConstant                    = "POST"
	rawAcceptHeaderConstant                   = "Accept: application/vnd.github.raw"
	branchNamesQueryConstant                  = ".[].name"
	repoViewJSONFieldsConstant                = "nameWithOwner,description,defaultBranchRef,primaryLanguage,diskUsage"
	contentsEndpointTemplateConstant          = "repos/%s/contents/"
	fileContentsEndpointTemplateConstant      = "repos/%s/contents/%s?ref=%s"
	branchesEndpointTemplateConstant          = "repos/%s/branches"
	repositoryEndpointTemplateConstant        = "repos/%s/%s"
	organizationReposEndpointTemplateConstant = "orgs/%s/repos"
	nameFieldTemplateConstant                 = "name=%s"
	privateFieldTemplateConstant              = "private=%s"
	notFoundStatusMarkerConstant              = "HTTP 404"
	notFoundMessageMarkerConstant             = "Not Found"
	repositoryFieldNameConstant               = "repository"
	organizationFieldNameConstant             = "organization"
	nameFieldNameConstant                     = "name"
	pathFieldNameConstant                     = "path"
	requiredValueMessageConstant              = "value required"
	executorNotConfiguredMessageConstant      = "github cli executor not configured"
	notFoundMessageConstant                   = "resource not found"
	operationErrorMessageTemplateConstant     = "%s operation failed"
	operationErrorWithCauseTemplateConstant   = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant     = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant         = "%s: %s"
	lineSeparatorConstant                     = "\n"
	repositoryMetadataOperationNameConstant   = OperationName("ResolveRepoMetadata")
	listRootEntriesOperationNameConstant      = OperationName("ListRootEntries")
	listBranchesOperationNameConstant         = OperationName("ListBranches")
	getFileContentsOperationNameConstant      = OperationName("GetFileContents")
	getRepositoryOperationNameConstant        = OperationName("GetRepository")
	createRepositoryOperationNameConstant     = OperationName("CreateOrganizationRepository")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner   string
	Description     string
	DefaultBranch   string
	PrimaryLanguage string
	DiskUsageKB     int64
}

// Repository describes a hosted repository returned by the REST API.
type Repository struct {
	FullName      string
	CloneURL      string
	HTMLURL       string
	DefaultBranch string
	Private       bool
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrNotFound indicates GitHub answered with 404 for the requested resource.
	ErrNotFound = errors.New(notFoundMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ResolveRepoMetadata retrieves canonical metadata for a repository using gh repo view.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewJSONFieldsConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryMetadata{}, client.operationFailure(repositoryMetadataOperationNameConstant, executionError)
	}

	var response struct {
		NameWithOwner    string `json:"nameWithOwner"`
		Description      string `json:"description"`
		DiskUsage        int64  `json:"diskUsage"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
		PrimaryLanguage *struct {
			Name string `json:"name"`
		} `json:"primaryLanguage"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return RepositoryMetadata{}, ResponseDecodingError{Operation: repositoryMetadataOperationNameConstant, Cause: decodingError}
	}

	metadata := RepositoryMetadata{
		NameWithOwner: response.NameWithOwner,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranchRef.Name,
		DiskUsageKB:   response.DiskUsage,
	}
	if response.PrimaryLanguage != nil {
		metadata.PrimaryLanguage = strings.TrimSpace(response.PrimaryLanguage.Name)
	}
	return metadata, nil
}

// ListRootEntries returns the names of the files and directories at the top level of the default branch.
func (client *Client) ListRootEntries(executionContext context.Context, repository string) ([]string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(contentsEndpointTemplateConstant, repositoryIdentifier),
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, client.operationFailure(listRootEntriesOperationNameConstant, executionError)
	}

	var response []struct {
		Name string `json:"name"`
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listRootEntriesOperationNameConstant, Cause: decodingError}
	}

	entryNames := make([]string, 0, len(response))
	for _, entry := range response {
		entryNames = append(entryNames, entry.Name)
	}
	return entryNames, nil
}

// ListBranches returns every branch name of the repository across all result pages.
func (client *Client) ListBranches(executionContext context.Context, repository string) ([]string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			fmt.Sprintf(branchesEndpointTemplateConstant, repositoryIdentifier),
			jqFlagConstant,
			branchNamesQueryConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, client.operationFailure(listBranchesOperationNameConstant, executionError)
	}

	branchNames := []string{}
	for _, line := range strings.Split(executionResult.StandardOutput, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		branchNames = append(branchNames, trimmedLine)
	}
	return branchNames, nil
}

// GetFileContents downloads the raw content of a file at the given branch.
// A missing file yields an error wrapping ErrNotFound.
func (client *Client) GetFileContents(executionContext context.Context, repository string, branch string, filePath string) ([]byte, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedPath := strings.Trim(strings.TrimSpace(filePath), "/")
	if len(trimmedPath) == 0 {
		return nil, InvalidInputError{FieldName: pathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(fileContentsEndpointTemplateConstant, repositoryIdentifier, trimmedPath, url.QueryEscape(strings.TrimSpace(branch))),
			headerFlagConstant,
			rawAcceptHeaderConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, client.operationFailure(getFileContentsOperationNameConstant, executionError)
	}
	return []byte(executionResult.StandardOutput), nil
}

// GetRepository looks up organization/name. A missing repository yields an error wrapping ErrNotFound.
func (client *Client) GetRepository(executionContext context.Context, organization string, name string) (Repository, error) {
	trimmedOrganization, trimmedName, validationError := validateOrganizationRepository(organization, name)
	if validationError != nil {
		return Repository{}, validationError
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(repositoryEndpointTemplateConstant, trimmedOrganization, trimmedName),
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return Repository{}, client.operationFailure(getRepositoryOperationNameConstant, executionError)
	}
	return decodeRepository(getRepositoryOperationNameConstant, executionResult.StandardOutput)
}

// CreateOrganizationRepository creates organization/name with the requested visibility.
func (client *Client) CreateOrganizationRepository(executionContext context.Context, organization string, name string, private bool) (Repository, error) {
	trimmedOrganization, trimmedName, validationError := validateOrganizationRepository(organization, name)
	if validationError != nil {
		return Repository{}, validationError
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			httpMethodPostConstant,
			fmt.Sprintf(organizationReposEndpointTemplateConstant, trimmedOrganization),
			rawFieldFlagConstant,
			fmt.Sprintf(nameFieldTemplateConstant, trimmedName),
			typedFieldFlagConstant,
			fmt.Sprintf(privateFieldTemplateConstant, strconv.FormatBool(private)),
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return Repository{}, client.operationFailure(createRepositoryOperationNameConstant, executionError)
	}
	return decodeRepository(createRepositoryOperationNameConstant, executionResult.StandardOutput)
}

// EnsureOrganizationRepository reuses organization/name when it exists and creates it otherwise.
// The boolean result reports whether the repository was created.
func (client *Client) EnsureOrganizationRepository(executionContext context.Context, organization string, name string, private bool) (Repository, bool, error) {
	existingRepository, lookupError := client.GetRepository(executionContext, organization, name)
	if lookupError == nil {
		return existingRepository, false, nil
	}
	if !errors.Is(lookupError, ErrNotFound) {
		return Repository{}, false, lookupError
	}

	createdRepository, creationError := client.CreateOrganizationRepository(executionContext, organization, name, private)
	if creationError != nil {
		return Repository{}, false, creationError
	}
	return createdRepository, true, nil
}

func (client *Client) operationFailure(operation OperationName, executionError error) error {
	if isNotFound(executionError) {
		return OperationError{Operation: operation, Cause: fmt.Errorf("%w: %w", ErrNotFound, executionError)}
	}
	return OperationError{Operation: operation, Cause: executionError}
}

func isNotFound(executionError error) bool {
	var failedError execshell.CommandFailedError
	if !errors.As(executionError, &failedError) {
		return false
	}
	combinedOutput := failedError.Result.StandardError + failedError.Result.StandardOutput
	return strings.Contains(combinedOutput, notFoundStatusMarkerConstant) || strings.Contains(combinedOutput, notFoundMessageMarkerConstant)
}

func validateOrganizationRepository(organization string, name string) (string, string, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return "", "", InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return "", "", InvalidInputError{FieldName: nameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return trimmedOrganization, trimmedName, nil
}

func decodeRepository(operation OperationName, payload string) (Repository, error) {
	var response struct {
		FullName      string `json:"full_name"`
		CloneURL      string `json:"clone_url"`
		HTMLURL       string `json:"html_url"`
		DefaultBranch string `json:"default_branch"`
		Private       bool   `json:"private"`
	}
	decodingError := json.Unmarshal([]byte(payload), &response)
	if decodingError != nil {
		return Repository{}, ResponseDecodingError{Operation: operation, Cause: decodingError}
	}
	return Repository{
		FullName:      response.FullName,
		CloneURL:      response.CloneURL,
		HTMLURL:       response.HTMLURL,
		DefaultBranch: response.DefaultBranch,
		Private:       response.Private,
	}, nil
}
