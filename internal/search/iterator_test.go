package search_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/search"
)

type recordedFetch struct {
	startAt    int
	maxResults int
}

type pagingIssueSearcher struct {
	issues       []jiraapi.Issue
	fetches      []recordedFetch
	failOnFetch  int
	fetchFailure error
}

func (searcher *pagingIssueSearcher) SearchIssues(_ context.Context, _ string, startAt int, maxResults int) (jiraapi.SearchResult, error) {
	searcher.fetches = append(searcher.fetches, recordedFetch{startAt: startAt, maxResults: maxResults})

	if searcher.fetchFailure != nil && len(searcher.fetches) == searcher.failOnFetch {
		return jiraapi.SearchResult{}, searcher.fetchFailure
	}

	if startAt >= len(searcher.issues) {
		return jiraapi.SearchResult{Issues: []jiraapi.Issue{}, StartAt: startAt, MaxResults: maxResults, Total: len(searcher.issues)}, nil
	}

	endOffset := startAt + maxResults
	if endOffset > len(searcher.issues) {
		endOffset = len(searcher.issues)
	}

	return jiraapi.SearchResult{
		Issues:     searcher.issues[startAt:endOffset],
		StartAt:    startAt,
		MaxResults: maxResults,
		Total:      len(searcher.issues),
	}, nil
}

func makeSequentialIssues(issueCount int) []jiraapi.Issue {
	issues := make([]jiraapi.Issue, 0, issueCount)
	for issueIndex := 0; issueIndex < issueCount; issueIndex++ {
		issues = append(issues, jiraapi.Issue{Key: fmt.Sprintf("PROJ-%d", issueIndex+1)})
	}
	return issues
}

func TestPagedIssueIteratorRequiresSearcher(testInstance *testing.T) {
	testInstance.Parallel()

	iterator, creationError := search.NewPagedIssueIterator(nil, nil)
	require.Error(testInstance, creationError)
	require.Nil(testInstance, iterator)
}

func TestPagedIssueIteratorYieldsConcatenationOfPages(testInstance *testing.T) {
	testInstance.Parallel()

	searcher := &pagingIssueSearcher{issues: makeSequentialIssues(250)}
	iterator, creationError := search.NewPagedIssueIterator(searcher, nil)
	require.NoError(testInstance, creationError)

	visitedKeys := []string{}
	iterationError := iterator.ForEachIssue(context.Background(), "project = PROJ", func(issue jiraapi.Issue) error {
		visitedKeys = append(visitedKeys, issue.Key)
		return nil
	})
	require.NoError(testInstance, iterationError)

	require.Len(testInstance, visitedKeys, 250)
	require.Equal(testInstance, "PROJ-1", visitedKeys[0])
	require.Equal(testInstance, "PROJ-101", visitedKeys[100])
	require.Equal(testInstance, "PROJ-250", visitedKeys[249])

	require.Equal(testInstance, []recordedFetch{
		{startAt: 0, maxResults: 100},
		{startAt: 100, maxResults: 100},
		{startAt: 200, maxResults: 100},
	}, searcher.fetches)
}

func TestPagedIssueIteratorHandlesZeroLengthFinalPage(testInstance *testing.T) {
	testInstance.Parallel()

	searcher := &pagingIssueSearcher{issues: makeSequentialIssues(200)}
	iterator, creationError := search.NewPagedIssueIterator(searcher, nil)
	require.NoError(testInstance, creationError)

	visitedCount := 0
	iterationError := iterator.ForEachIssue(context.Background(), "project = PROJ", func(jiraapi.Issue) error {
		visitedCount++
		return nil
	})
	require.NoError(testInstance, iterationError)

	require.Equal(testInstance, 200, visitedCount)
	require.Equal(testInstance, []recordedFetch{
		{startAt: 0, maxResults: 100},
		{startAt: 100, maxResults: 100},
		{startAt: 200, maxResults: 100},
	}, searcher.fetches)
}

func TestPagedIssueIteratorStopsAfterSingleShortPage(testInstance *testing.T) {
	testInstance.Parallel()

	searcher := &pagingIssueSearcher{issues: makeSequentialIssues(40)}
	iterator, creationError := search.NewPagedIssueIterator(searcher, nil)
	require.NoError(testInstance, creationError)

	visitedCount := 0
	iterationError := iterator.ForEachIssue(context.Background(), "project = PROJ", func(jiraapi.Issue) error {
		visitedCount++
		return nil
	})
	require.NoError(testInstance, iterationError)

	require.Equal(testInstance, 40, visitedCount)
	require.Len(testInstance, searcher.fetches, 1)
}

func TestPagedIssueIteratorPropagatesSearchFailure(testInstance *testing.T) {
	testInstance.Parallel()

	fetchFailure := errors.New("search exploded")
	searcher := &pagingIssueSearcher{
		issues:       makeSequentialIssues(150),
		failOnFetch:  2,
		fetchFailure: fetchFailure,
	}
	iterator, creationError := search.NewPagedIssueIterator(searcher, nil)
	require.NoError(testInstance, creationError)

	visitedCount := 0
	iterationError := iterator.ForEachIssue(context.Background(), "project = PROJ", func(jiraapi.Issue) error {
		visitedCount++
		return nil
	})
	require.ErrorIs(testInstance, iterationError, fetchFailure)
	require.Equal(testInstance, 100, visitedCount)
}

func TestPagedIssueIteratorPropagatesVisitFailure(testInstance *testing.T) {
	testInstance.Parallel()

	visitFailure := errors.New("visit rejected")
	searcher := &pagingIssueSearcher{issues: makeSequentialIssues(10)}
	iterator, creationError := search.NewPagedIssueIterator(searcher, nil)
	require.NoError(testInstance, creationError)

	visitedCount := 0
	iterationError := iterator.ForEachIssue(context.Background(), "project = PROJ", func(jiraapi.Issue) error {
		visitedCount++
		if visitedCount == 3 {
			return visitFailure
		}
		return nil
	})
	require.ErrorIs(testInstance, iterationError, visitFailure)
	require.Equal(testInstance, 3, visitedCount)
	require.Len(testInstance, searcher.fetches, 1)
}
