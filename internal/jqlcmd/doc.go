// Package jqlcmd implements the jql command: a read-only dump of the
// issues matching a query, one JSON line per issue.
package jqlcmd
