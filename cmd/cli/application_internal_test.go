package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/jira_scripts/internal/remap"
	"github.com/temirov/jira_scripts/internal/watchers"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testTrackerURLConstant            = "https://tracker.example.com"
	testTrackerUserConstant           = "automation@example.com"
	testTrackerTokenConstant          = "api-token"
	testSourceAccountIDConstant       = "source-account"
	testTargetAccountIDConstant       = "target-account"
	testSeedQueryConstant             = "project = PROJ"
)

func writeConfigurationDocument(testInstance *testing.T, configurationDocument map[string]any) string {
	testInstance.Helper()

	encodedConfiguration, encodeError := yaml.Marshal(configurationDocument)
	require.NoError(testInstance, encodeError)

	configurationFilePath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, encodedConfiguration, 0o600))

	return configurationFilePath
}

func executeApplication(testInstance *testing.T, commandArguments []string) (*Application, error) {
	testInstance.Helper()

	application := NewApplication()
	application.rootCommand.SetOut(io.Discard)
	application.rootCommand.SetErr(io.Discard)
	application.rootCommand.SetArgs(commandArguments)

	return application, application.Execute()
}

func TestApplicationRegistersToolCommands(testInstance *testing.T) {
	application := NewApplication()

	registeredCommandNames := []string{}
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandNames = append(registeredCommandNames, registeredCommand.Name())
	}

	require.Contains(testInstance, registeredCommandNames, "remap-user")
	require.Contains(testInstance, registeredCommandNames, "copy-watchers")
	require.Contains(testInstance, registeredCommandNames, "jql")
}

func TestApplicationLoadsConfigurationFile(testInstance *testing.T) {
	configurationFilePath := writeConfigurationDocument(testInstance, map[string]any{
		"common": map[string]any{"log_level": "warn", "log_format": "console"},
		"jira": map[string]any{
			"url":   testTrackerURLConstant,
			"user":  testTrackerUserConstant,
			"token": testTrackerTokenConstant,
		},
		"tools": map[string]any{
			"remap_user": map[string]any{
				"source_user_id": testSourceAccountIDConstant,
				"target_user_id": testTargetAccountIDConstant,
				"seed_query":     testSeedQueryConstant,
				"apply_changes":  true,
			},
			"copy_watchers": map[string]any{
				"source_user_id": testSourceAccountIDConstant,
				"target_user_id": testTargetAccountIDConstant,
			},
			"jql": map[string]any{"query": testSeedQueryConstant},
		},
	})

	application, executionError := executeApplication(testInstance, []string{"--config", configurationFilePath})
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)
	require.Equal(testInstance, testTrackerURLConstant, application.configuration.Jira.URL)
	require.Equal(testInstance, testTrackerUserConstant, application.configuration.Jira.User)
	require.Equal(testInstance, testTrackerTokenConstant, application.configuration.Jira.Token)

	require.Equal(testInstance, remap.CommandConfiguration{
		SourceAccountID: testSourceAccountIDConstant,
		TargetAccountID: testTargetAccountIDConstant,
		SeedQuery:       testSeedQueryConstant,
		ApplyChanges:    true,
	}, application.configuration.Tools.RemapUser)
	require.Equal(testInstance, watchers.CommandConfiguration{
		SourceAccountID: testSourceAccountIDConstant,
		TargetAccountID: testTargetAccountIDConstant,
	}, application.configuration.Tools.CopyWatchers)
	require.Equal(testInstance, testSeedQueryConstant, application.configuration.Tools.JQL.Query)
	require.Equal(testInstance, configurationFilePath, application.configurationMetadata.ConfigFileUsed)
}

func TestApplicationAppliesDefaultsWithoutConfigurationFile(testInstance *testing.T) {
	application, executionError := executeApplication(testInstance, []string{})
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, "info", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", application.configuration.Common.LogFormat)
	require.Equal(testInstance, remap.DefaultCommandConfiguration(), application.configuration.Tools.RemapUser)
	require.Equal(testInstance, watchers.DefaultCommandConfiguration(), application.configuration.Tools.CopyWatchers)
}

func TestApplicationFlagsOverrideConfigurationFile(testInstance *testing.T) {
	configurationFilePath := writeConfigurationDocument(testInstance, map[string]any{
		"common": map[string]any{"log_level": "warn"},
		"jira":   map[string]any{"url": testTrackerURLConstant},
	})

	application, executionError := executeApplication(testInstance, []string{
		"--config", configurationFilePath,
		"--log-level", "debug",
		"--jira-url", "https://other.example.com",
	})
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, "debug", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "https://other.example.com", application.configuration.Jira.URL)
}

func TestApplicationRejectsUnsupportedLogLevel(testInstance *testing.T) {
	_, executionError := executeApplication(testInstance, []string{"--log-level", "verbose"})
	require.Error(testInstance, executionError)
}

func TestToolConfigurationsDecodeFromDocumentKeys(testInstance *testing.T) {
	remapOptions := map[string]any{
		"source_user_id": testSourceAccountIDConstant,
		"target_user_id": testTargetAccountIDConstant,
		"seed_query":     testSeedQueryConstant,
		"cutoff_date":    "2024-03-15 09:30",
		"apply_changes":  true,
	}

	var remapConfiguration remap.CommandConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &remapConfiguration})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(remapOptions))

	require.Equal(testInstance, remap.CommandConfiguration{
		SourceAccountID: testSourceAccountIDConstant,
		TargetAccountID: testTargetAccountIDConstant,
		SeedQuery:       testSeedQueryConstant,
		CutoffDate:      "2024-03-15 09:30",
		ApplyChanges:    true,
	}, remapConfiguration)
}
