package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
)

const (
	// searchPageSizeConstant bounds every search request; the tracker
	// caps page sizes, so this is a policy constant rather than a knob.
	searchPageSizeConstant = 100

	searcherMissingMessageConstant   = "issue searcher not configured"
	fetchingPageInfoMessageConstant  = "fetching issues"
	lastPageReachedInfoMessage       = "reached the last page, stopping"
	logFieldStartOffsetConstant      = "start_offset"
	logFieldRequestedLimitConstant   = "requested_limit"
	logFieldReturnedIssuesConstant   = "returned_issues"
	logFieldSearchQueryConstant      = "query"
)

// IssueSearcher fetches one bounded page of issues matching a query.
type IssueSearcher interface {
	SearchIssues(executionContext context.Context, jqlQuery string, startAt int, maxResults int) (jiraapi.SearchResult, error)
}

var errSearcherMissing = errors.New(searcherMissingMessageConstant)

// PagedIssueIterator walks every result of a search query in order,
// issuing bounded fetches until a short page signals the end.
type PagedIssueIterator struct {
	searcher IssueSearcher
	logger   *zap.Logger
}

// NewPagedIssueIterator constructs an iterator over the provided searcher.
func NewPagedIssueIterator(searcher IssueSearcher, logger *zap.Logger) (*PagedIssueIterator, error) {
	if searcher == nil {
		return nil, errSearcherMissing
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &PagedIssueIterator{searcher: searcher, logger: logger}, nil
}

// ForEachIssue invokes visit for every issue matching the query, in
// result order. Each fetch offset advances by the number of records the
// previous fetch returned; the first page shorter than the page size
// terminates the walk. A zero-length final page terminates without
// visiting anything. Search failures and visit errors abort immediately.
func (iterator *PagedIssueIterator) ForEachIssue(executionContext context.Context, jqlQuery string, visit func(jiraapi.Issue) error) error {
	startOffset := 0

	for {
		iterator.logger.Info(
			fetchingPageInfoMessageConstant,
			zap.String(logFieldSearchQueryConstant, jqlQuery),
			zap.Int(logFieldStartOffsetConstant, startOffset),
			zap.Int(logFieldRequestedLimitConstant, searchPageSizeConstant),
		)

		searchResult, searchError := iterator.searcher.SearchIssues(executionContext, jqlQuery, startOffset, searchPageSizeConstant)
		if searchError != nil {
			return searchError
		}

		for _, issue := range searchResult.Issues {
			if visitError := visit(issue); visitError != nil {
				return visitError
			}
		}

		if len(searchResult.Issues) < searchPageSizeConstant {
			iterator.logger.Info(
				lastPageReachedInfoMessage,
				zap.Int(logFieldReturnedIssuesConstant, len(searchResult.Issues)),
			)
			return nil
		}

		startOffset += len(searchResult.Issues)
	}
}
