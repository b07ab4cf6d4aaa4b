package jqlcmd

import "strings"

const (
	configurationQueryKeyConstant     = "query"
	configurationKeySeparatorConstant = "."
)

// CommandConfiguration captures persisted configuration for the jql command.
type CommandConfiguration struct {
	Query string `mapstructure:"query"`
}

// DefaultCommandConfiguration returns baseline configuration values for jql.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Query: ""}
}

// DefaultConfigurationValues produces Viper defaults for jql.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationQueryKeyConstant: defaults.Query,
	}
}

// Sanitize trims configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Query = strings.TrimSpace(configuration.Query)
	return sanitized
}
