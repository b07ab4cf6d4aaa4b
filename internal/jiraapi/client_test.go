package jiraapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/jira_scripts/internal/jiraapi"
)

const (
	testUsernameConstant = "automation@example.com"
	testTokenConstant    = "api-token"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   []byte
	header http.Header
}

// fakeTracker records every request and replays canned responses per path.
type fakeTracker struct {
	requests  []recordedRequest
	responses map[string]func(http.ResponseWriter)
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{responses: map[string]func(http.ResponseWriter){}}
}

func (tracker *fakeTracker) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	requestBody, _ := io.ReadAll(request.Body)
	tracker.requests = append(tracker.requests, recordedRequest{
		method: request.Method,
		path:   request.URL.Path,
		query:  request.URL.RawQuery,
		body:   requestBody,
		header: request.Header.Clone(),
	})

	if respond, exists := tracker.responses[request.URL.Path]; exists {
		respond(responseWriter)
		return
	}
	responseWriter.WriteHeader(http.StatusNoContent)
}

func jsonResponse(statusCode int, payload any) func(http.ResponseWriter) {
	return func(responseWriter http.ResponseWriter) {
		responseWriter.WriteHeader(statusCode)
		_ = json.NewEncoder(responseWriter).Encode(payload)
	}
}

func makeClient(testInstance *testing.T, tracker *fakeTracker) (*jiraapi.Client, *httptest.Server) {
	trackerServer := httptest.NewServer(tracker)
	testInstance.Cleanup(trackerServer.Close)

	client, clientError := jiraapi.NewClient(jiraapi.ClientDependencies{
		BaseURL:    trackerServer.URL,
		Username:   testUsernameConstant,
		Token:      testTokenConstant,
		HTTPClient: trackerServer.Client(),
	})
	require.NoError(testInstance, clientError)

	return client, trackerServer
}

func TestNewClientValidatesBaseURL(testInstance *testing.T) {
	testInstance.Parallel()

	_, emptyURLError := jiraapi.NewClient(jiraapi.ClientDependencies{BaseURL: "   "})
	require.Error(testInstance, emptyURLError)

	_, schemelessURLError := jiraapi.NewClient(jiraapi.ClientDependencies{BaseURL: "tracker.example.com"})
	require.Error(testInstance, schemelessURLError)
}

func TestClientSendsBasicAuthCredentials(testInstance *testing.T) {
	testInstance.Parallel()

	tracker := newFakeTracker()
	tracker.responses["/rest/api/2/myself"] = jsonResponse(http.StatusOK, jiraapi.User{AccountID: "self-account"})
	client, _ := makeClient(testInstance, tracker)

	currentUser, requestError := client.CurrentUser(context.Background())
	require.NoError(testInstance, requestError)
	require.Equal(testInstance, "self-account", currentUser.AccountID)

	require.Len(testInstance, tracker.requests, 1)
	username, password, ok := (&http.Request{Header: tracker.requests[0].header}).BasicAuth()
	require.True(testInstance, ok)
	require.Equal(testInstance, testUsernameConstant, username)
	require.Equal(testInstance, testTokenConstant, password)
}

func TestClientSearchIssuesSendsPaginatedPayload(testInstance *testing.T) {
	testInstance.Parallel()

	tracker := newFakeTracker()
	tracker.responses["/rest/api/2/search"] = jsonResponse(http.StatusOK, jiraapi.SearchResult{
		StartAt:    50,
		MaxResults: 100,
		Total:      51,
		Issues:     []jiraapi.Issue{{Key: "PROJ-51", Fields: jiraapi.IssueFields{Summary: "Last one"}}},
	})
	client, _ := makeClient(testInstance, tracker)

	searchResult, searchError := client.SearchIssues(context.Background(), "project = PROJ ORDER BY Updated ASC", 50, 100)
	require.NoError(testInstance, searchError)
	require.Len(testInstance, searchResult.Issues, 1)
	require.Equal(testInstance, "PROJ-51", searchResult.Issues[0].Key)

	require.Len(testInstance, tracker.requests, 1)
	require.Equal(testInstance, http.MethodPost, tracker.requests[0].method)
	require.Equal(testInstance, "/rest/api/2/search", tracker.requests[0].path)
	require.Equal(testInstance, "application/json", tracker.requests[0].header.Get("Content-Type"))

	sentPayload := map[string]any{}
	require.NoError(testInstance, json.Unmarshal(tracker.requests[0].body, &sentPayload))
	require.Equal(testInstance, "project = PROJ ORDER BY Updated ASC", sentPayload["jql"])
	require.Equal(testInstance, float64(50), sentPayload["startAt"])
	require.Equal(testInstance, float64(100), sentPayload["maxResults"])
	require.ElementsMatch(testInstance,
		[]any{"summary", "created", "creator", "assignee", "reporter"},
		sentPayload["fields"],
	)
}

func TestClientUserQueriesByAccountID(testInstance *testing.T) {
	testInstance.Parallel()

	tracker := newFakeTracker()
	tracker.responses["/rest/api/2/user"] = jsonResponse(http.StatusOK, jiraapi.User{
		AccountID:    "account-42",
		EmailAddress: "somebody@example.com",
	})
	client, _ := makeClient(testInstance, tracker)

	resolvedUser, requestError := client.User(context.Background(), "account-42")
	require.NoError(testInstance, requestError)
	require.Equal(testInstance, "somebody@example.com", resolvedUser.EmailAddress)

	require.Len(testInstance, tracker.requests, 1)
	require.Equal(testInstance, http.MethodGet, tracker.requests[0].method)
	require.Equal(testInstance, "accountId=account-42", tracker.requests[0].query)

	_, blankAccountError := client.User(context.Background(), "  ")
	require.Error(testInstance, blankAccountError)
	require.Len(testInstance, tracker.requests, 1)
}

func TestClientUpdateIssueSendsPartialFields(testInstance *testing.T) {
	testInstance.Parallel()

	tracker := newFakeTracker()
	client, _ := makeClient(testInstance, tracker)

	updateError := client.UpdateIssue(context.Background(), "PROJ-7", map[string]any{
		"assignee": jiraapi.UserReference{AccountID: "target-account"},
	})
	require.NoError(testInstance, updateError)

	require.Len(testInstance, tracker.requests, 1)
	require.Equal(testInstance, http.MethodPut, tracker.requests[0].method)
	require.Equal(testInstance, "/rest/api/2/issue/PROJ-7", tracker.requests[0].path)
	require.JSONEq(
		testInstance,
		`{"fields":{"assignee":{"accountId":"target-account"}}}`,
		string(tracker.requests[0].body),
	)
}

func TestClientAddWatcherPostsQuotedAccountID(testInstance *testing.T) {
	testInstance.Parallel()

	tracker := newFakeTracker()
	client, _ := makeClient(testInstance, tracker)

	additionError := client.AddWatcher(context.Background(), "PROJ-7", "target-account")
	require.NoError(testInstance, additionError)

	require.Len(testInstance, tracker.requests, 1)
	require.Equal(testInstance, http.MethodPost, tracker.requests[0].method)
	require.Equal(testInstance, "/rest/api/2/issue/PROJ-7/watchers", tracker.requests[0].path)
	require.Equal(testInstance, `"target-account"`, string(tracker.requests[0].body))
}

func TestClientSurfacesTrackerErrorMessages(testInstance *testing.T) {
	testInstance.Parallel()

	tracker := newFakeTracker()
	tracker.responses["/rest/api/2/search"] = jsonResponse(http.StatusBadRequest, map[string]any{
		"errorMessages": []string{"The value 'BOGUS' does not exist for the field 'project'."},
		"errors":        map[string]string{"jql": "query is malformed"},
	})
	client, _ := makeClient(testInstance, tracker)

	_, searchError := client.SearchIssues(context.Background(), "project = BOGUS", 0, 100)
	require.Error(testInstance, searchError)

	var statusError jiraapi.StatusError
	require.ErrorAs(testInstance, searchError, &statusError)
	require.Equal(testInstance, http.StatusBadRequest, statusError.StatusCode)
	require.Equal(testInstance, []string{
		"The value 'BOGUS' does not exist for the field 'project'.",
		"jql: query is malformed",
	}, statusError.Messages)
	require.Contains(testInstance, statusError.Error(), "jql: query is malformed")
}

func TestClientBrowseURLJoinsBaseAndKey(testInstance *testing.T) {
	testInstance.Parallel()

	client, clientError := jiraapi.NewClient(jiraapi.ClientDependencies{
		BaseURL:  "https://tracker.example.com/",
		Username: testUsernameConstant,
		Token:    testTokenConstant,
	})
	require.NoError(testInstance, clientError)

	require.Equal(testInstance, "https://tracker.example.com/browse/PROJ-9", client.BrowseURL("PROJ-9"))
}
