package jiraapi

// UserReference identifies a Jira account inside an issue field.
type UserReference struct {
	AccountID string `json:"accountId"`
}

// User describes a Jira account resolved through the user endpoints.
type User struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress"`
}

// IssueFields carries the subset of issue fields consumed by the commands.
type IssueFields struct {
	Summary  string         `json:"summary"`
	Created  string         `json:"created"`
	Creator  UserReference  `json:"creator"`
	Assignee *UserReference `json:"assignee"`
	Reporter *UserReference `json:"reporter"`
}

// Issue represents a single issue returned by a search request.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// SearchResult captures one page of a paginated search response.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

type searchRequestPayload struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type issueUpdatePayload struct {
	Fields map[string]any `json:"fields"`
}

type errorResponsePayload struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
