package confirm

import (
	"context"
	"fmt"
	"io"
)

// Serve waits for one request on the gate, shows its diff on out, asks the
// decider and resolves the request. A decider error resolves to Abort.
func Serve(ctx context.Context, gate *Gate, decider Decider, out io.Writer, color bool) error {
	var req *Request
	select {
	case <-ctx.Done():
		return ctx.Err()
	case req = <-gate.Requests():
	}

	if req.Diff != nil && out != nil {
		_, _ = fmt.Fprintln(out)
		_, _ = io.WriteString(out, req.Diff.Render(color))
		_, _ = fmt.Fprintln(out)
	}

	decision, err := decider.Decide(ctx)
	if err != nil {
		req.Resolve(Abort)
		return err
	}
	req.Resolve(decision)
	return nil
}
