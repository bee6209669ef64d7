package gitrepo

import (
	"fmt"
	"strings"
)

const (
	requiredValueMessageConstant     = "value required"
	invalidIdentifierMessageConstant = "expected owner/name"
	identifierTemplateConstant       = "%s/%s"
	defaultHostConstant              = "github.com"
)

// RepositoryIdentifier names a hosted repository as owner/name.
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// ParseRepositoryIdentifier validates an owner/name string. Full HTTPS or SSH
// remotes are accepted as well and reduced to their owner/name.
// Surrounding whitespace and a trailing .git are ignored.
func ParseRepositoryIdentifier(identifier string) (RepositoryIdentifier, error) {
	if IsRemoteURL(identifier) {
		remote, parseError := ParseRemoteURL(identifier)
		if parseError != nil {
			return RepositoryIdentifier{}, parseError
		}
		return remote.Identifier(), nil
	}
	return splitIdentifier(identifier, identifier)
}

func splitIdentifier(input string, repositoryPath string) (RepositoryIdentifier, error) {
	trimmedPath := strings.Trim(strings.TrimSpace(repositoryPath), pathSeparatorConstant)
	trimmedPath = strings.TrimSuffix(trimmedPath, gitSuffixConstant)
	if len(trimmedPath) == 0 {
		return RepositoryIdentifier{}, RemoteURLParseError{Input: input, Message: requiredValueMessageConstant}
	}

	owner, name, found := strings.Cut(trimmedPath, pathSeparatorConstant)
	owner = strings.TrimSpace(owner)
	name = strings.TrimSpace(name)
	if !found || len(owner) == 0 || len(name) == 0 || strings.Contains(name, pathSeparatorConstant) {
		return RepositoryIdentifier{}, RemoteURLParseError{Input: input, Message: invalidIdentifierMessageConstant}
	}
	return RepositoryIdentifier{Owner: owner, Name: name}, nil
}

// String renders owner/name.
func (identifier RepositoryIdentifier) String() string {
	return fmt.Sprintf(identifierTemplateConstant, identifier.Owner, identifier.Name)
}

// CloneURL renders the HTTPS clone URL of the repository on host.
func (identifier RepositoryIdentifier) CloneURL(host string) string {
	remote := RemoteURL{Protocol: RemoteProtocolHTTPS, Host: hostOrDefault(host), Owner: identifier.Owner, Repository: identifier.Name}
	formatted, _ := FormatRemoteURL(remote)
	return formatted
}

// WithOwner returns the identifier moved under another owner, keeping the name.
func (identifier RepositoryIdentifier) WithOwner(owner string) RepositoryIdentifier {
	return RepositoryIdentifier{Owner: strings.TrimSpace(owner), Name: identifier.Name}
}

// OwnerRepository reduces a repository URL on host to owner/name. Remotes on
// other hosts and values that are not remotes only lose a trailing .git.
func OwnerRepository(repositoryURL string, host string) string {
	trimmedURL := strings.TrimSpace(repositoryURL)
	remote, parseError := ParseRemoteURL(trimmedURL)
	if parseError == nil && strings.EqualFold(remote.Host, hostOrDefault(host)) {
		return remote.Identifier().String()
	}
	return strings.TrimSuffix(trimmedURL, gitSuffixConstant)
}

func hostOrDefault(host string) string {
	trimmedHost := strings.TrimSpace(host)
	if len(trimmedHost) == 0 {
		return defaultHostConstant
	}
	return trimmedHost
}
