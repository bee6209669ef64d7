package audit

import (
	"strings"

	pathutils "github.com/temirov/gitmigrate/internal/utils/path"
)

const (
	defaultSourceListConstant = "source_repos.csv"
	defaultOutputConstant     = "pre_migration_summary.csv"
	defaultHostConstant       = "github.com"
)

var inventoryConfigurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persistent settings for the inventory command.
type CommandConfiguration struct {
	SourceList string `mapstructure:"source_list"`
	Output     string `mapstructure:"output"`
	SourceHost string `mapstructure:"source_host"`
}

// DefaultCommandConfiguration returns baseline configuration values for the inventory command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SourceList: defaultSourceListConstant,
		Output:     defaultOutputConstant,
		SourceHost: defaultHostConstant,
	}
}

// Sanitize trims whitespace, expands the home directory and applies defaults to unset values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.SourceList = sanitizePath(configuration.SourceList, defaults.SourceList)
	sanitized.Output = sanitizePath(configuration.Output, defaults.Output)
	sanitized.SourceHost = strings.TrimSpace(configuration.SourceHost)
	if len(sanitized.SourceHost) == 0 {
		sanitized.SourceHost = defaults.SourceHost
	}

	return sanitized
}

func sanitizePath(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return inventoryConfigurationHomeExpander.Expand(trimmedValue)
}
