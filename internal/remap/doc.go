// Package remap implements the remap-user command: it scans issues
// matching a seed query and moves creator, assignee, and reporter
// references from one account to another.
package remap
