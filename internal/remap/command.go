package remap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/search"
)

const (
	commandUseConstant              = "remap-user"
	commandShortDescriptionConstant = "Reassign creator, assignee, and reporter references between accounts"
	commandLongDescriptionConstant  = "remap-user scans issues matching the seed query and rewrites every creator, assignee, and reporter reference pointing at the source account so it points at the target account. Without --apply-changes the command reports intended updates only."

	sourceUserFlagNameConstant    = "source-user-id"
	sourceUserFlagUsageConstant   = "Account ID whose issue references should be reassigned"
	targetUserFlagNameConstant    = "target-user-id"
	targetUserFlagUsageConstant   = "Account ID that receives the reassigned references"
	seedQueryFlagNameConstant     = "seed-query"
	seedQueryFlagUsageConstant    = "Optional JQL fragment limiting the scanned issues"
	cutoffDateFlagNameConstant    = "cutoff-date"
	cutoffDateFlagUsageConstant   = "Optional lower bound on last-updated time (YYYY-MM-DD HH:MM)"
	applyChangesFlagNameConstant  = "apply-changes"
	applyChangesFlagUsageConstant = "Send the staged updates instead of reporting them"

	clientProviderMissingMessageConstant = "tracker client provider not configured"
	cutoffParseErrorTemplateConstant     = "unable to parse cutoff date: %w"
	iteratorCreationErrorTemplate        = "unable to construct issue iterator: %w"
	commandExecutionErrorTemplate        = "user remap failed: %w"
)

var errClientProviderMissing = errors.New(clientProviderMissingMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ClientProvider supplies a configured tracker client.
type ClientProvider func() (*jiraapi.Client, error)

// ServiceExecutor runs the remap workflow.
type ServiceExecutor interface {
	Execute(executionContext context.Context, options Options) (Result, error)
}

// ServiceProvider constructs a remap executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (ServiceExecutor, error)

type commandOptions struct {
	sourceAccountID string
	targetAccountID string
	seedQuery       string
	cutoff          *time.Time
	applyChanges    bool
}

// CommandBuilder assembles the remap-user Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ClientProvider        ClientProvider
	ConfigurationProvider func() CommandConfiguration
	ServiceProvider       ServiceProvider
}

// Build constructs the remap-user command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runRemap,
	}

	command.Flags().String(sourceUserFlagNameConstant, "", sourceUserFlagUsageConstant)
	command.Flags().String(targetUserFlagNameConstant, "", targetUserFlagUsageConstant)
	command.Flags().String(seedQueryFlagNameConstant, "", seedQueryFlagUsageConstant)
	command.Flags().String(cutoffDateFlagNameConstant, "", cutoffDateFlagUsageConstant)
	command.Flags().Bool(applyChangesFlagNameConstant, false, applyChangesFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runRemap(command *cobra.Command, _ []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()

	service, serviceError := builder.resolveService(logger)
	if serviceError != nil {
		return serviceError
	}

	_, executionError := service.Execute(command.Context(), Options{
		SourceAccountID: options.sourceAccountID,
		TargetAccountID: options.targetAccountID,
		SeedQuery:       options.seedQuery,
		Cutoff:          options.cutoff,
		ApplyChanges:    options.applyChanges,
	})
	if executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, executionError)
	}

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	options := commandOptions{
		sourceAccountID: configuration.SourceAccountID,
		targetAccountID: configuration.TargetAccountID,
		seedQuery:       configuration.SeedQuery,
		applyChanges:    configuration.ApplyChanges,
	}

	cutoffValue := configuration.CutoffDate

	if command != nil {
		if command.Flags().Changed(sourceUserFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(sourceUserFlagNameConstant)
			options.sourceAccountID = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(targetUserFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(targetUserFlagNameConstant)
			options.targetAccountID = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(seedQueryFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(seedQueryFlagNameConstant)
			options.seedQuery = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(cutoffDateFlagNameConstant) {
			flagValue, _ := command.Flags().GetString(cutoffDateFlagNameConstant)
			cutoffValue = strings.TrimSpace(flagValue)
		}
		if command.Flags().Changed(applyChangesFlagNameConstant) {
			flagValue, _ := command.Flags().GetBool(applyChangesFlagNameConstant)
			options.applyChanges = flagValue
		}
	}

	if len(cutoffValue) > 0 {
		parsedCutoff, parseError := search.ParseCutoffTimestamp(cutoffValue)
		if parseError != nil {
			return commandOptions{}, fmt.Errorf(cutoffParseErrorTemplateConstant, parseError)
		}
		options.cutoff = &parsedCutoff
	}

	return options, nil
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
		Updater:   client,
		Directory: client,
	}

	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}
