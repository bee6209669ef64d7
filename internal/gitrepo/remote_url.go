package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	httpsProtocolPrefixConstant         = "https://"
	gitUserPrefixConstant               = "git@"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	unknownProtocolMessageConstant      = "unsupported remote protocol"
	sshRemoteTemplateConstant           = "git@%s:%s/%s.git"
	httpsRemoteTemplateConstant         = "https://%s/%s/%s.git"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL represents a structured git remote URL such as the source or target of a migration.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// UnsupportedProtocolError indicates the provided protocol cannot be formatted.
type UnsupportedProtocolError struct {
	Protocol RemoteProtocol
}

// Error describes the unsupported protocol.
func (protocolError UnsupportedProtocolError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, protocolError.Protocol, unknownProtocolMessageConstant)
}

// ParseRemoteURL converts an HTTPS, ssh:// or scp-style git@host:owner/name remote
// into its parts. The path must name exactly one owner and one repository.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	protocol, host, repositoryPath, split := splitRemote(trimmedRemote)
	if !split || len(host) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	identifier, identifierError := splitIdentifier(remote, repositoryPath)
	if identifierError != nil {
		return RemoteURL{}, identifierError
	}
	return RemoteURL{Protocol: protocol, Host: host, Owner: identifier.Owner, Repository: identifier.Name}, nil
}

// IsRemoteURL reports whether value carries a protocol prefix understood by ParseRemoteURL.
func IsRemoteURL(value string) bool {
	trimmedValue := strings.TrimSpace(value)
	for _, prefix := range []string{httpsProtocolPrefixConstant, sshProtocolPrefixConstant, gitUserPrefixConstant} {
		if strings.HasPrefix(trimmedValue, prefix) {
			return true
		}
	}
	return false
}

func splitRemote(remote string) (RemoteProtocol, string, string, bool) {
	switch {
	case strings.HasPrefix(remote, httpsProtocolPrefixConstant):
		host, repositoryPath, found := strings.Cut(strings.TrimPrefix(remote, httpsProtocolPrefixConstant), pathSeparatorConstant)
		return RemoteProtocolHTTPS, host, repositoryPath, found
	case strings.HasPrefix(remote, sshProtocolPrefixConstant):
		hostAndPath := withoutUser(strings.TrimPrefix(remote, sshProtocolPrefixConstant))
		host, repositoryPath, found := strings.Cut(hostAndPath, pathSeparatorConstant)
		return RemoteProtocolSSH, host, repositoryPath, found
	case strings.HasPrefix(remote, gitUserPrefixConstant):
		host, repositoryPath, found := strings.Cut(withoutUser(remote), sshPathDelimiterConstant)
		return RemoteProtocolSSH, host, repositoryPath, found
	default:
		return "", "", "", false
	}
}

func withoutUser(hostAndPath string) string {
	if _, remainder, found := strings.Cut(hostAndPath, sshUserDelimiterConstant); found {
		return remainder
	}
	return hostAndPath
}

// FormatRemoteURL creates a textual remote URL from a structured representation.
func FormatRemoteURL(remote RemoteURL) (string, error) {
	if len(strings.TrimSpace(remote.Host)) == 0 {
		return "", RemoteURLParseError{Input: remote.Host, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(remote.Owner)) == 0 {
		return "", RemoteURLParseError{Input: remote.Owner, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(remote.Repository)) == 0 {
		return "", RemoteURLParseError{Input: remote.Repository, Message: requiredValueMessageConstant}
	}

	switch remote.Protocol {
	case RemoteProtocolSSH:
		return fmt.Sprintf(sshRemoteTemplateConstant, remote.Host, remote.Owner, remote.Repository), nil
	case RemoteProtocolHTTPS:
		return fmt.Sprintf(httpsRemoteTemplateConstant, remote.Host, remote.Owner, remote.Repository), nil
	default:
		return "", UnsupportedProtocolError{Protocol: remote.Protocol}
	}
}

// Identifier returns the owner/name identifier of the remote.
func (remote RemoteURL) Identifier() RepositoryIdentifier {
	return RepositoryIdentifier{Owner: remote.Owner, Name: remote.Repository}
}
