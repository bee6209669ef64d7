package githubauth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const (
	gitConfigCountEnvironmentConstant    = "GIT_CONFIG_COUNT"
	gitConfigKeyEnvironmentTemplate      = "GIT_CONFIG_KEY_%d"
	gitConfigValueEnvironmentTemplate    = "GIT_CONFIG_VALUE_%d"
	gitTerminalPromptEnvironmentConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant    = "0"
	extraHeaderKeyTemplateConstant       = "http.https://%s/.extraheader"
	authorizationHeaderTemplateConstant  = "AUTHORIZATION: basic %s"
	basicCredentialsTemplateConstant     = "x-access-token:%s"
	defaultHostConstant                  = "github.com"
	tokenMissingMessageConstant          = "GitHub token not found"
	tokenMissingDetailTemplateConstant   = "%w: set one of %s"
	tokenVariableListSeparatorConstant   = ", "
)

// ErrTokenMissing indicates that no GitHub token is available in the environment.
var ErrTokenMissing = errors.New(tokenMissingMessageConstant)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-empty GitHub authentication token observed
// in the provided environment map or the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

// RequireToken resolves a token or returns ErrTokenMissing naming the variables that were consulted.
func RequireToken(environment map[string]string) (string, error) {
	token, found := ResolveToken(environment)
	if !found {
		return "", fmt.Errorf(tokenMissingDetailTemplateConstant, ErrTokenMissing, strings.Join(tokenPreference, tokenVariableListSeparatorConstant))
	}
	return token, nil
}

// CommandEnvironment builds the variables that authenticate both gh and git.
// git receives the token as an HTTP extra header for every distinct host via
// GIT_CONFIG_*, so credentials never appear in remote URLs or on the command line.
// Empty hosts stand for github.com.
func CommandEnvironment(token string, hosts ...string) map[string]string {
	credentials := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf(basicCredentialsTemplateConstant, token)))
	environment := map[string]string{
		EnvGitHubCLIToken:                    token,
		gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledConstant,
	}

	if len(hosts) == 0 {
		hosts = []string{defaultHostConstant}
	}
	headerIndex := 0
	seenHosts := map[string]struct{}{}
	for _, host := range hosts {
		trimmedHost := strings.ToLower(strings.TrimSpace(host))
		if len(trimmedHost) == 0 {
			trimmedHost = defaultHostConstant
		}
		if _, seen := seenHosts[trimmedHost]; seen {
			continue
		}
		seenHosts[trimmedHost] = struct{}{}
		environment[fmt.Sprintf(gitConfigKeyEnvironmentTemplate, headerIndex)] = fmt.Sprintf(extraHeaderKeyTemplateConstant, trimmedHost)
		environment[fmt.Sprintf(gitConfigValueEnvironmentTemplate, headerIndex)] = fmt.Sprintf(authorizationHeaderTemplateConstant, credentials)
		headerIndex++
	}
	environment[gitConfigCountEnvironmentConstant] = strconv.Itoa(headerIndex)
	return environment
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
