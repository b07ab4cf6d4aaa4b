package jqlcmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/search"
)

const (
	iteratorMissingMessageConstant   = "issue iterator not configured"
	resolverMissingMessageConstant   = "issue URL resolver not configured"
	writerMissingMessageConstant     = "output writer not configured"
	rowEncodingErrorTemplateConstant = "unable to encode issue %s: %w"
	rowWriteErrorTemplateConstant    = "unable to write issue %s: %w"
	dumpCompletedMessageConstant     = "query dump completed"
	logFieldIssuesPrintedConstant    = "issues_printed"
	outputLineSeparatorConstant      = "\n"
)

// IssueIterator walks every issue matching a query.
type IssueIterator interface {
	ForEachIssue(executionContext context.Context, jqlQuery string, visit func(jiraapi.Issue) error) error
}

// IssueURLResolver produces the human-facing URL for an issue key.
type IssueURLResolver interface {
	BrowseURL(issueKey string) string
}

// ServiceDependencies describes required collaborators for the dump.
type ServiceDependencies struct {
	Logger       *zap.Logger
	Iterator     IssueIterator
	URLResolver  IssueURLResolver
	OutputWriter io.Writer
}

// Result captures the observable outcome of a dump run.
type Result struct {
	IssuesPrinted int
}

type issueRow struct {
	Key     string `json:"key"`
	URL     string `json:"url"`
	Created string `json:"created"`
	Summary string `json:"summary"`
}

// Service projects matching issues onto line-delimited JSON records.
type Service struct {
	logger       *zap.Logger
	iterator     IssueIterator
	urlResolver  IssueURLResolver
	outputWriter io.Writer
}

var (
	errIteratorMissing = errors.New(iteratorMissingMessageConstant)
	errResolverMissing = errors.New(resolverMissingMessageConstant)
	errWriterMissing   = errors.New(writerMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Iterator == nil {
		return nil, errIteratorMissing
	}
	if dependencies.URLResolver == nil {
		return nil, errResolverMissing
	}
	if dependencies.OutputWriter == nil {
		return nil, errWriterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &Service{
		logger:       logger,
		iterator:     dependencies.Iterator,
		urlResolver:  dependencies.URLResolver,
		outputWriter: dependencies.OutputWriter,
	}

	return service, nil
}

// Execute writes one JSON line per issue matching the query, in
// iterator order. The run is strictly read-only.
func (service *Service) Execute(executionContext context.Context, seedQuery string) (Result, error) {
	composedQuery := search.BuildQuery(seedQuery, nil)

	result := Result{}

	iterationError := service.iterator.ForEachIssue(executionContext, composedQuery, func(issue jiraapi.Issue) error {
		row := issueRow{
			Key:     issue.Key,
			URL:     service.urlResolver.BrowseURL(issue.Key),
			Created: issue.Fields.Created,
			Summary: issue.Fields.Summary,
		}

		encodedRow, encodeError := json.Marshal(row)
		if encodeError != nil {
			return fmt.Errorf(rowEncodingErrorTemplateConstant, issue.Key, encodeError)
		}

		if _, writeError := service.outputWriter.Write(append(encodedRow, outputLineSeparatorConstant...)); writeError != nil {
			return fmt.Errorf(rowWriteErrorTemplateConstant, issue.Key, writeError)
		}

		result.IssuesPrinted++
		return nil
	})
	if iterationError != nil {
		return Result{}, iterationError
	}

	service.logger.Info(
		dumpCompletedMessageConstant,
		zap.Int(logFieldIssuesPrintedConstant, result.IssuesPrinted),
	)

	return result, nil
}
