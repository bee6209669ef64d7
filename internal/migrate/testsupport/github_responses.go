package testsupport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	repoViewFieldsConstant       = "nameWithOwner,description,defaultBranchRef,primaryLanguage,diskUsage"
	rawAcceptHeaderConstant      = "Accept: application/vnd.github.raw"
	contentsEndpointTemplate     = "repos/%s/contents/"
	fileContentsEndpointTemplate = "repos/%s/contents/%s?ref=%s"
	branchesEndpointTemplate     = "repos/%s/branches"
	repositoryEndpointTemplate   = "repos/%s/%s"
	organizationEndpointTemplate = "orgs/%s/repos"
	cloneURLTemplateConstant     = "https://github.com/%s/%s.git"
	fullNameTemplateConstant     = "%s/%s"
	branchNamesQueryConstant     = ".[].name"
	branchListSeparatorConstant  = "\n"
	privateFieldTemplateConstant = "private=%s"
	nameFieldTemplateConstant    = "name=%s"
	httpMethodPostConstant       = "POST"
	branchPaginationFlagConstant = "--paginate"
	jqFlagConstant               = "--jq"
	headerFlagConstant           = "-H"
	methodFlagConstant           = "-X"
	rawFieldFlagConstant         = "-f"
	typedFieldFlagConstant       = "-F"
	apiSubcommandConstant        = "api"
	repoSubcommandConstant       = "repo"
	viewSubcommandConstant       = "view"
	jsonFlagConstant             = "--json"
)

// SourceRepository describes a scripted source repository.
type SourceRepository struct {
	Identifier    string
	Language      string
	DefaultBranch string
	SizeKB        int64
	Entries       []string
	Branches      []string
}

// MetadataKey is the gh invocation resolving repository metadata.
func MetadataKey(repository string) string {
	return CommandKey(repoSubcommandConstant, viewSubcommandConstant, repository, jsonFlagConstant, repoViewFieldsConstant)
}

// RootEntriesKey is the gh invocation listing the top-level entries.
func RootEntriesKey(repository string) string {
	return CommandKey(apiSubcommandConstant, fmt.Sprintf(contentsEndpointTemplate, repository))
}

// BranchesKey is the gh invocation listing branches.
func BranchesKey(repository string) string {
	return CommandKey(apiSubcommandConstant, branchPaginationFlagConstant, fmt.Sprintf(branchesEndpointTemplate, repository), jqFlagConstant, branchNamesQueryConstant)
}

// FileContentsKey is the gh invocation downloading a raw file.
func FileContentsKey(repository string, branch string, filePath string) string {
	return CommandKey(apiSubcommandConstant, fmt.Sprintf(fileContentsEndpointTemplate, repository, filePath, url.QueryEscape(branch)), headerFlagConstant, rawAcceptHeaderConstant)
}

// RepositoryKey is the gh invocation looking up organization/name.
func RepositoryKey(organization string, name string) string {
	return CommandKey(apiSubcommandConstant, fmt.Sprintf(repositoryEndpointTemplate, organization, name))
}

// CreateRepositoryKey is the gh invocation creating organization/name.
func CreateRepositoryKey(organization string, name string, private bool) string {
	return CommandKey(
		apiSubcommandConstant,
		methodFlagConstant,
		httpMethodPostConstant,
		fmt.Sprintf(organizationEndpointTemplate, organization),
		rawFieldFlagConstant,
		fmt.Sprintf(nameFieldTemplateConstant, name),
		typedFieldFlagConstant,
		fmt.Sprintf(privateFieldTemplateConstant, strconv.FormatBool(private)),
	)
}

// RepositoryPayload renders the REST representation of organization/name.
func RepositoryPayload(organization string, name string, private bool) string {
	payload, _ := json.Marshal(map[string]any{
		"full_name":      fmt.Sprintf(fullNameTemplateConstant, organization, name),
		"clone_url":      fmt.Sprintf(cloneURLTemplateConstant, organization, name),
		"html_url":       strings.TrimSuffix(fmt.Sprintf(cloneURLTemplateConstant, organization, name), ".git"),
		"default_branch": "main",
		"private":        private,
	})
	return string(payload)
}

// ScriptSourceRepository registers metadata, listing and branch responses for repository.
func (executor *ExecutorStub) ScriptSourceRepository(repository SourceRepository) {
	executor.guard.Lock()
	defer executor.guard.Unlock()
	executor.ensureResponses()

	metadata := map[string]any{
		"nameWithOwner":    repository.Identifier,
		"description":      "",
		"diskUsage":        repository.SizeKB,
		"defaultBranchRef": map[string]string{"name": repository.DefaultBranch},
		"primaryLanguage":  nil,
	}
	if len(repository.Language) > 0 {
		metadata["primaryLanguage"] = map[string]string{"name": repository.Language}
	}
	metadataPayload, _ := json.Marshal(metadata)

	entries := make([]map[string]string, 0, len(repository.Entries))
	for _, entryName := range repository.Entries {
		entries = append(entries, map[string]string{"name": entryName})
	}
	entriesPayload, _ := json.Marshal(entries)

	executor.GitHubResponses[MetadataKey(repository.Identifier)] = CommandResponse{Output: string(metadataPayload)}
	executor.GitHubResponses[RootEntriesKey(repository.Identifier)] = CommandResponse{Output: string(entriesPayload)}
	executor.GitHubResponses[BranchesKey(repository.Identifier)] = CommandResponse{Output: strings.Join(repository.Branches, branchListSeparatorConstant)}
}

// ScriptResponse registers a response for the command identified by key.
func (executor *ExecutorStub) ScriptResponse(key string, response CommandResponse) {
	executor.guard.Lock()
	defer executor.guard.Unlock()
	executor.ensureResponses()
	executor.GitHubResponses[key] = response
}

// GitHubArguments returns the recorded gh argument lists joined with spaces.
func (executor *ExecutorStub) GitHubArguments() []string {
	executor.guard.Lock()
	defer executor.guard.Unlock()

	joined := make([]string, 0, len(executor.ExecutedGitHubCommands))
	for _, details := range executor.ExecutedGitHubCommands {
		joined = append(joined, CommandKey(details.Arguments...))
	}
	return joined
}

func (executor *ExecutorStub) ensureResponses() {
	if executor.GitHubResponses == nil {
		executor.GitHubResponses = map[string]CommandResponse{}
	}
}
