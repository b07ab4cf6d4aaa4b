package jqlcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/search"
)

const (
	commandUseConstant              = "jql"
	commandShortDescriptionConstant = "Dump issues matching a JQL query as line-delimited JSON"
	commandLongDescriptionConstant  = "jql runs the provided query against the tracker and writes one JSON record per matching issue to standard output: key, browse URL, creation timestamp, and summary."

	queryFlagNameConstant  = "query"
	queryFlagUsageConstant = "JQL query selecting the issues to dump"

	queryFieldNameConstant       = "query"
	requiredValueMessageConstant = "value required"
	invalidInputTemplateConstant = "%s: %s"

	clientProviderMissingMessageConstant = "tracker client provider not configured"
	iteratorCreationErrorTemplate        = "unable to construct issue iterator: %w"
	commandExecutionErrorTemplate        = "query dump failed: %w"
)

var errClientProviderMissing = errors.New(clientProviderMissingMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ClientProvider supplies a configured tracker client.
type ClientProvider func() (*jiraapi.Client, error)

// ServiceExecutor runs the dump workflow.
type ServiceExecutor interface {
	Execute(executionContext context.Context, seedQuery string) (Result, error)
}

// ServiceProvider constructs a dump executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (ServiceExecutor, error)

// InvalidInputError describes jql option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// CommandBuilder assembles the jql Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ClientProvider        ClientProvider
	ConfigurationProvider func() CommandConfiguration
	ServiceProvider       ServiceProvider
	OutputWriter          io.Writer
}

// Build constructs the jql command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runDump,
	}

	command.Flags().String(queryFlagNameConstant, "", queryFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runDump(command *cobra.Command, _ []string) error {
	seedQuery, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()

	service, serviceError := builder.resolveService(logger)
	if serviceError != nil {
		return serviceError
	}

	if _, executionError := service.Execute(command.Context(), seedQuery); executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, executionError)
	}

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (string, error) {
	configuration := builder.resolveConfiguration()

	seedQuery := configuration.Query

	if command != nil && command.Flags().Changed(queryFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(queryFlagNameConstant)
		seedQuery = strings.TrimSpace(flagValue)
	}

	if len(seedQuery) == 0 {
		return "", InvalidInputError{FieldName: queryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	return seedQuery, nil
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

func (builder *CommandBuilder) resolveOutputWriter() io.Writer {
	if builder.OutputWriter != nil {
		return builder.OutputWriter
	}
	return os.Stdout
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (ServiceExecutor, error) {
	if builder.ServiceProvider != nil && builder.ClientProvider == nil {
		return builder.ServiceProvider(ServiceDependencies{Logger: logger, OutputWriter: builder.resolveOutputWriter()})
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
		Logger:       logger,
		Iterator:     issueIterator,
		URLResolver:  client,
		OutputWriter: builder.resolveOutputWriter(),
	}

	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}
