package watchers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/search"
)

const (
	commandUseConstant              = "copy-watchers"
	commandShortDescriptionConstant = "Subscribe one account to every issue watched by another"
	commandLongDescriptionConstant  = "copy-watchers collects the issues the target account already watches, then walks the issues watched by the source account and subscribes the target account to each one it is not watching yet. Without --apply-changes the command reports intended additions only."

	sourceUserFlagNameConstant    = "source-user-id"
	sourceUserFlagUsageConstant   = "Account ID whose watched issues are copied"
	targetUserFlagNameConstant    = "target-user-id"
	targetUserFlagUsageConstant   = "Account ID subscribed to the copied issues"
	applyChangesFlagNameConstant  = "apply-changes"
	applyChangesFlagUsageConstant = "Send the watcher additions instead of reporting them"

	clientProviderMissingMessageConstant = "tracker client provider not configured"
	iteratorCreationErrorTemplate        = "unable to construct issue iterator: %w"
	commandExecutionErrorTemplate        = "watcher copy failed: %w"
)

var errClientProviderMissing = errors.New(clientProviderMissingMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ClientProvider supplies a configured tracker client.
type ClientProvider func() (*jiraapi.Client, error)

// ServiceExecutor runs the watcher-copy workflow.
type ServiceExecutor interface {
	Execute(executionContext context.Context, options Options) (Result, error)
}

// ServiceProvider constructs a watcher-copy executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (ServiceExecutor, error)

// CommandBuilder assembles the copy-watchers Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ClientProvider        ClientProvider
	ConfigurationProvider func() CommandConfiguration
	ServiceProvider       ServiceProvider
}

// Build constructs the copy-watchers command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runCopy,
	}

	command.Flags().String(sourceUserFlagNameConstant, "", sourceUserFlagUsageConstant)
	command.Flags().String(targetUserFlagNameConstant, "", targetUserFlagUsageConstant)
	command.Flags().Bool(applyChangesFlagNameConstant, false, applyChangesFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runCopy(command *cobra.Command, _ []string) error {
	options := builder.parseOptions(command)

	logger := builder.resolveLogger()

	service, serviceError := builder.resolveService(logger)
	if serviceError != nil {
		return serviceError
	}

	_, executionError := service.Execute(command.Context(), options)
	if executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, executionError)
	}

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) Options {
	configuration := builder.resolveConfiguration()

	options := Options{
		SourceAccountID: configuration.SourceAccountID,
		TargetAccountID: configuration.TargetAccountID,
		ApplyChanges:    configuration.ApplyChanges,
	}

	if command != nil {
		if command.Flags().Changed(sourceUserFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(sourceUserFlagNameConstant)
			options.SourceAccountID = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(targetUserFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(targetUserFlagNameConstant)
			options.TargetAccountID = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(applyChangesFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(applyChangesFlagNameConstant)
			options.ApplyChanges = flagValue
		}
	}

	return options
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (ServiceExecutor, error) {
	if builder.ServiceProvider != nil && builder.ClientProvider == nil {
		return builder.ServiceProvider(ServiceDependencies{Logger: logger})
	}

	if builder.ClientProvider == nil {
		return nil, fmt.Errorf(commandExecutionErrorTemplate, errClientProviderMissing)
	}

	client, clientError := builder.ClientProvider()
	if clientError != nil {
		return nil, clientError
	}

	issueIterator, iteratorError := search.NewPagedIssueIterator(client, logger)
	if iteratorError != nil {
		return nil, fmt.Errorf(iteratorCreationErrorTemplate, iteratorError)
	}

	dependencies := ServiceDependencies{
		Logger:    logger,
		Iterator:  issueIterator,
		Adder:     client,
		Directory: client,
	}

	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}
