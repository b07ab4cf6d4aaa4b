package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/jqlcmd"
	"github.com/temirov/jira_scripts/internal/remap"
	"github.com/temirov/jira_scripts/internal/utils"
	"github.com/temirov/jira_scripts/internal/watchers"
)

const (
	applicationNameConstant             = "jira-scripts"
	applicationShortDescriptionConstant = "Command-line interface for bulk Jira administration"
	applicationLongDescriptionConstant  = "jira_scripts ships operator tools for bulk issue administration: ownership remapping, watcher copying, and query dumps."

	configFileFlagNameConstant  = "config"
	configFileFlagUsageConstant = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant    = "log-level"
	logLevelFlagUsageConstant   = "Override the configured log level."
	logFormatFlagNameConstant   = "log-format"
	logFormatFlagUsageConstant  = "Override the configured log format (structured or console)."
	jiraURLFlagNameConstant     = "jira-url"
	jiraURLFlagUsageConstant    = "Base URL of the tracker instance."
	jiraUserFlagNameConstant    = "jira-user"
	jiraUserFlagUsageConstant   = "Username for tracker basic authentication."
	jiraTokenFlagNameConstant   = "jira-token"
	jiraTokenFlagUsageConstant  = "API token for tracker basic authentication."

	commonConfigurationKeyConstant   = "common"
	commonLogLevelConfigKeyConstant  = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant = commonConfigurationKeyConstant + ".log_format"
	jiraConfigurationKeyConstant     = "jira"
	jiraURLConfigKeyConstant         = jiraConfigurationKeyConstant + ".url"
	jiraUserConfigKeyConstant        = jiraConfigurationKeyConstant + ".user"
	jiraTokenConfigKeyConstant       = jiraConfigurationKeyConstant + ".token"
	toolsConfigurationKeyConstant    = "tools"
	remapConfigurationKeyConstant    = toolsConfigurationKeyConstant + ".remap_user"
	watchersConfigurationKeyConstant = toolsConfigurationKeyConstant + ".copy_watchers"
	jqlConfigurationKeyConstant      = toolsConfigurationKeyConstant + ".jql"

	environmentPrefixConstant              = "JIRASCRIPTS"
	configurationNameConstant              = "config"
	configurationTypeConstant              = "yaml"
	defaultConfigurationSearchPathConstant = "."

	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	rootCommandInfoMessageConstant          = "jira_scripts CLI executed"
	rootCommandDebugMessageConstant         = "jira_scripts CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Jira   TrackerConfiguration           `mapstructure:"jira"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// TrackerConfiguration stores tracker endpoint and credential values.
type TrackerConfiguration struct {
	URL   string `mapstructure:"url"`
	User  string `mapstructure:"user"`
	Token string `mapstructure:"token"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool.
type ApplicationToolsConfiguration struct {
	RemapUser    remap.CommandConfiguration    `mapstructure:"remap_user"`
	CopyWatchers watchers.CommandConfiguration `mapstructure:"copy_watchers"`
	JQL          jqlcmd.CommandConfiguration   `mapstructure:"jql"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	jiraURLFlagValue      string
	jiraUserFlagValue     string
	jiraTokenFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.jiraURLFlagValue, jiraURLFlagNameConstant, "", jiraURLFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.jiraUserFlagValue, jiraUserFlagNameConstant, "", jiraUserFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.jiraTokenFlagValue, jiraTokenFlagNameConstant, "", jiraTokenFlagUsageConstant)

	remapBuilder := remap.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ClientProvider: application.trackerClient,
		ConfigurationProvider: func() remap.CommandConfiguration {
			return application.configuration.Tools.RemapUser
		},
	}
	remapCommand, remapBuildError := remapBuilder.Build()
	if remapBuildError == nil {
		cobraCommand.AddCommand(remapCommand)
	}

	copyWatchersBuilder := watchers.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ClientProvider: application.trackerClient,
		ConfigurationProvider: func() watchers.CommandConfiguration {
			return application.configuration.Tools.CopyWatchers
		},
	}
	copyWatchersCommand, copyWatchersBuildError := copyWatchersBuilder.Build()
	if copyWatchersBuildError == nil {
		cobraCommand.AddCommand(copyWatchersCommand)
	}

	jqlBuilder := jqlcmd.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ClientProvider: application.trackerClient,
		ConfigurationProvider: func() jqlcmd.CommandConfiguration {
			return application.configuration.Tools.JQL
		},
	}
	jqlCommand, jqlBuildError := jqlBuilder.Build()
	if jqlBuildError == nil {
		cobraCommand.AddCommand(jqlCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		jiraURLConfigKeyConstant:         "",
		jiraUserConfigKeyConstant:        "",
		jiraTokenConfigKeyConstant:       "",
	}
	for configurationKey, configurationValue := range remap.DefaultConfigurationValues(remapConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range watchers.DefaultConfigurationValues(watchersConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range jqlcmd.DefaultConfigurationValues(jqlConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, jiraURLFlagNameConstant) {
		application.configuration.Jira.URL = application.jiraURLFlagValue
	}
	if application.persistentFlagChanged(command, jiraUserFlagNameConstant) {
		application.configuration.Jira.User = application.jiraUserFlagValue
	}
	if application.persistentFlagChanged(command, jiraTokenFlagNameConstant) {
		application.configuration.Jira.Token = application.jiraTokenFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

// trackerClient constructs the tracker client from the resolved
// configuration; validation happens before any remote call.
func (application *Application) trackerClient() (*jiraapi.Client, error) {
	return jiraapi.NewClient(jiraapi.ClientDependencies{
		BaseURL:  application.configuration.Jira.URL,
		Username: application.configuration.Jira.User,
		Token:    application.configuration.Jira.Token,
		Logger:   application.logger,
	})
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
