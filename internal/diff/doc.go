// Package diff renders the change between live policies and the merged
// policy as a unified line diff for operator review.
package diff
