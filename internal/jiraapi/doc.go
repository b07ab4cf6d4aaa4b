// Package jiraapi provides a minimal Jira REST v2 client covering the
// operations required by the bulk-administration commands: issue
// search, user lookup, partial issue updates, and watcher additions.
package jiraapi
