package remap

import "strings"

const (
	configurationSourceUserKeyConstant   = "source_user_id"
	configurationTargetUserKeyConstant   = "target_user_id"
	configurationSeedQueryKeyConstant    = "seed_query"
	configurationCutoffDateKeyConstant   = "cutoff_date"
	configurationApplyChangesKeyConstant = "apply_changes"
	configurationKeySeparatorConstant    = "."
)

// CommandConfiguration captures persisted configuration for remap-user.
type CommandConfiguration struct {
	SourceAccountID string `mapstructure:"source_user_id"`
	TargetAccountID string `mapstructure:"target_user_id"`
	SeedQuery       string `mapstructure:"seed_query"`
	CutoffDate      string `mapstructure:"cutoff_date"`
	ApplyChanges    bool   `mapstructure:"apply_changes"`
}

// DefaultCommandConfiguration returns baseline configuration values for remap-user.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SourceAccountID: "",
		TargetAccountID: "",
		SeedQuery:       "",
		CutoffDate:      "",
		ApplyChanges:    false,
	}
}

// DefaultConfigurationValues produces Viper defaults for remap-user.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationSourceUserKeyConstant:   defaults.SourceAccountID,
		rootKey + configurationKeySeparatorConstant + configurationTargetUserKeyConstant:   defaults.TargetAccountID,
		rootKey + configurationKeySeparatorConstant + configurationSeedQueryKeyConstant:    defaults.SeedQuery,
		rootKey + configurationKeySeparatorConstant + configurationCutoffDateKeyConstant:   defaults.CutoffDate,
		rootKey + configurationKeySeparatorConstant + configurationApplyChangesKeyConstant: defaults.ApplyChanges,
	}
}

// Sanitize trims configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.SourceAccountID = strings.TrimSpace(configuration.SourceAccountID)
	sanitized.TargetAccountID = strings.TrimSpace(configuration.TargetAccountID)
	sanitized.SeedQuery = strings.TrimSpace(configuration.SeedQuery)
	sanitized.CutoffDate = strings.TrimSpace(configuration.CutoffDate)
	return sanitized
}
