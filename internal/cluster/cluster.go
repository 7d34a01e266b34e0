package cluster

import (
	"context"
	"fmt"
	"strings"
)

// Client lists and applies cluster resources.
type Client interface {
	// List returns the live resources of a type as a YAML document stream.
	List(ctx context.Context, resourceType string) ([]byte, error)
	// Apply creates or updates every document of a YAML stream.
	Apply(ctx context.Context, manifests []byte) error
}

// Error is a failed cluster operation together with its diagnostic output.
type Error struct {
	// Op describes the operation, e.g. "kubectl apply".
	Op string
	// Output is the diagnostic text reported by the cluster or tool.
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %v\nOutput: %s", e.Op, e.Err, e.Output)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Diagnostic returns the text an operator needs to understand the failure.
func (e *Error) Diagnostic() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}
