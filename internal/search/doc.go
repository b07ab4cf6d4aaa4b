// Package search builds JQL queries and walks paginated search
// results, yielding every matching issue in a stable order.
package search
