package search

import (
	"fmt"
	"time"
)

const (
	cutoffClauseTemplateConstant = ` Updated >= "%s"`
	orderingClauseConstant       = " ORDER BY Updated ASC"
	cutoffTimestampLayout        = "2006-01-02 15:04"
)

// BuildQuery composes a JQL query from an optional seed fragment and an
// optional cutoff timestamp. The seed is included verbatim; the
// ascending last-updated ordering keeps pagination stable while issues
// are touched concurrently with the scan.
func BuildQuery(seedQuery string, cutoff *time.Time) string {
	composedQuery := seedQuery

	if cutoff != nil {
		composedQuery += fmt.Sprintf(cutoffClauseTemplateConstant, cutoff.Format(cutoffTimestampLayout))
	}

	composedQuery += orderingClauseConstant

	return composedQuery
}

// ParseCutoffTimestamp parses a cutoff value in the accepted
// "YYYY-MM-DD HH:MM" layout.
func ParseCutoffTimestamp(cutoffValue string) (time.Time, error) {
	return time.Parse(cutoffTimestampLayout, cutoffValue)
}
