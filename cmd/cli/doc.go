// Package cli assembles the jira_scripts command-line application:
// the Cobra root command, configuration loading, logger creation, and
// subcommand registration.
package cli
