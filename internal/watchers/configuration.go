package watchers

import "strings"

const (
	configurationSourceUserKeyConstant   = "source_user_id"
	configurationTargetUserKeyConstant   = "target_user_id"
	configurationApplyChangesKeyConstant = "apply_changes"
	configurationKeySeparatorConstant    = "."
)

// CommandConfiguration captures persisted configuration for copy-watchers.
type CommandConfiguration struct {
	SourceAccountID string `mapstructure:"source_user_id"`
	TargetAccountID string `mapstructure:"target_user_id"`
	ApplyChanges    bool   `mapstructure:"apply_changes"`
}

// DefaultCommandConfiguration returns baseline configuration values for copy-watchers.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SourceAccountID: "",
		TargetAccountID: "",
		ApplyChanges:    false,
	}
}

// DefaultConfigurationValues produces Viper defaults for copy-watchers.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationSourceUserKeyConstant:   defaults.SourceAccountID,
		rootKey + configurationKeySeparatorConstant + configurationTargetUserKeyConstant:   defaults.TargetAccountID,
		rootKey + configurationKeySeparatorConstant + configurationApplyChangesKeyConstant: defaults.ApplyChanges,
	}
}

// Sanitize trims configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.SourceAccountID = strings.TrimSpace(configuration.SourceAccountID)
	sanitized.TargetAccountID = strings.TrimSpace(configuration.TargetAccountID)
	return sanitized
}
