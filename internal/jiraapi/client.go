package jiraapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	searchEndpointPathConstant         = "/rest/api/2/search"
	currentUserEndpointPathConstant    = "/rest/api/2/myself"
	userEndpointPathConstant           = "/rest/api/2/user"
	issueEndpointPathTemplateConstant  = "/rest/api/2/issue/%s"
	watchersEndpointPathTemplate       = "/rest/api/2/issue/%s/watchers"
	browseURLTemplateConstant          = "%s/browse/%s"
	accountIDQueryParameterConstant    = "accountId"
	contentTypeHeaderNameConstant      = "Content-Type"
	jsonContentTypeConstant            = "application/json"
	baseURLFieldNameConstant           = "base_url"
	issueKeyFieldNameConstant          = "issue_key"
	accountIDFieldNameConstant         = "account_id"
	requiredValueMessageConstant       = "value required"
	invalidURLMessageConstant          = "value is not a valid URL"
	requestCreationErrorTemplate       = "unable to create %s request: %w"
	requestExecutionErrorTemplate      = "%s request failed: %w"
	payloadEncodingErrorTemplate       = "unable to encode %s payload: %w"
	responseDecodingErrorTemplate      = "unable to decode %s response: %w"
	requestIssuedDebugMessageConstant  = "tracker request issued"
	logFieldHTTPMethodConstant         = "http_method"
	logFieldEndpointConstant           = "endpoint"
	defaultSearchFieldSummaryConstant  = "summary"
	defaultSearchFieldCreatedConstant  = "created"
	defaultSearchFieldCreatorConstant  = "creator"
	defaultSearchFieldAssigneeConstant = "assignee"
	defaultSearchFieldReporterConstant = "reporter"
)

var searchResponseFields = []string{
	defaultSearchFieldSummaryConstant,
	defaultSearchFieldCreatedConstant,
	defaultSearchFieldCreatorConstant,
	defaultSearchFieldAssigneeConstant,
	defaultSearchFieldReporterConstant,
}

// ClientDependencies describes collaborators and credentials for the client.
type ClientDependencies struct {
	BaseURL    string
	Username   string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues authenticated requests against the Jira REST v2 API.
type Client struct {
	baseURL    *url.URL
	username   string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates the base URL and assembles a Client.
func NewClient(dependencies ClientDependencies) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(dependencies.BaseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, InvalidInputError{FieldName: baseURLFieldNameConstant, Message: requiredValueMessageConstant}
	}

	parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil || len(parsedBaseURL.Scheme) == 0 || len(parsedBaseURL.Host) == 0 {
		return nil, InvalidInputError{FieldName: baseURLFieldNameConstant, Message: invalidURLMessageConstant}
	}

	httpClient := dependencies.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		baseURL:    parsedBaseURL,
		username:   dependencies.Username,
		token:      dependencies.Token,
		httpClient: httpClient,
		logger:     logger,
	}

	return client, nil
}

// BrowseURL returns the human-facing URL for the provided issue key.
func (client *Client) BrowseURL(issueKey string) string {
	return fmt.Sprintf(browseURLTemplateConstant, client.baseURL.String(), issueKey)
}

// SearchIssues requests one page of issues matching the JQL query.
func (client *Client) SearchIssues(executionContext context.Context, jqlQuery string, startAt int, maxResults int) (SearchResult, error) {
	requestPayload := searchRequestPayload{
		JQL:        jqlQuery,
		StartAt:    startAt,
		MaxResults: maxResults,
		Fields:     searchResponseFields,
	}

	var searchResult SearchResult
	if requestError := client.sendJSON(executionContext, http.MethodPost, searchEndpointPathConstant, requestPayload, &searchResult); requestError != nil {
		return SearchResult{}, requestError
	}

	return searchResult, nil
}

// CurrentUser resolves the authenticated account.
func (client *Client) CurrentUser(executionContext context.Context) (User, error) {
	var currentUser User
	if requestError := client.sendJSON(executionContext, http.MethodGet, currentUserEndpointPathConstant, nil, &currentUser); requestError != nil {
		return User{}, requestError
	}
	return currentUser, nil
}

// User resolves the account identified by accountID.
func (client *Client) User(executionContext context.Context, accountID string) (User, error) {
	if len(strings.TrimSpace(accountID)) == 0 {
		return User{}, InvalidInputError{FieldName: accountIDFieldNameConstant, Message: requiredValueMessageConstant}
	}

	endpointPath := userEndpointPathConstant + "?" + url.Values{accountIDQueryParameterConstant: []string{accountID}}.Encode()

	var resolvedUser User
	if requestError := client.sendJSON(executionContext, http.MethodGet, endpointPath, nil, &resolvedUser); requestError != nil {
		return User{}, requestError
	}
	return resolvedUser, nil
}

// UpdateIssue applies a partial field update to the identified issue.
func (client *Client) UpdateIssue(executionContext context.Context, issueKey string, fields map[string]any) error {
	if len(strings.TrimSpace(issueKey)) == 0 {
		return InvalidInputError{FieldName: issueKeyFieldNameConstant, Message: requiredValueMessageConstant}
	}

	endpointPath := fmt.Sprintf(issueEndpointPathTemplateConstant, url.PathEscape(issueKey))
	return client.sendJSON(executionContext, http.MethodPut, endpointPath, issueUpdatePayload{Fields: fields}, nil)
}

// AddWatcher subscribes the identified account as a watcher of the issue.
func (client *Client) AddWatcher(executionContext context.Context, issueKey string, accountID string) error {
	if len(strings.TrimSpace(issueKey)) == 0 {
		return InvalidInputError{FieldName: issueKeyFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(accountID)) == 0 {
		return InvalidInputError{FieldName: accountIDFieldNameConstant, Message: requiredValueMessageConstant}
	}

	endpointPath := fmt.Sprintf(watchersEndpointPathTemplate, url.PathEscape(issueKey))
	return client.sendJSON(executionContext, http.MethodPost, endpointPath, accountID, nil)
}

func (client *Client) sendJSON(executionContext context.Context, httpMethod string, endpointPath string, requestPayload any, responseTarget any) error {
	var requestBody io.Reader
	if requestPayload != nil {
		encodedPayload, encodeError := json.Marshal(requestPayload)
		if encodeError != nil {
			return fmt.Errorf(payloadEncodingErrorTemplate, endpointPath, encodeError)
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	requestURL := client.baseURL.String() + endpointPath

	httpRequest, requestCreationError := http.NewRequestWithContext(executionContext, httpMethod, requestURL, requestBody)
	if requestCreationError != nil {
		return fmt.Errorf(requestCreationErrorTemplate, endpointPath, requestCreationError)
	}

	httpRequest.SetBasicAuth(client.username, client.token)
	if requestPayload != nil {
		httpRequest.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeConstant)
	}

	client.logger.Debug(
		requestIssuedDebugMessageConstant,
		zap.String(logFieldHTTPMethodConstant, httpMethod),
		zap.String(logFieldEndpointConstant, endpointPath),
	)

	httpResponse, executionError := client.httpClient.Do(httpRequest)
	if executionError != nil {
		return fmt.Errorf(requestExecutionErrorTemplate, endpointPath, executionError)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return client.decodeStatusError(endpointPath, httpResponse)
	}

	if responseTarget == nil {
		return nil
	}

	if decodeError := json.NewDecoder(httpResponse.Body).Decode(responseTarget); decodeError != nil {
		return fmt.Errorf(responseDecodingErrorTemplate, endpointPath, decodeError)
	}

	return nil
}

func (client *Client) decodeStatusError(endpointPath string, httpResponse *http.Response) error {
	var errorPayload errorResponsePayload
	// Error bodies are best effort; some endpoints return empty responses.
	_ = json.NewDecoder(httpResponse.Body).Decode(&errorPayload)

	return StatusError{
		Endpoint:   endpointPath,
		StatusCode: httpResponse.StatusCode,
		Messages:   collectErrorMessages(errorPayload),
	}
}
