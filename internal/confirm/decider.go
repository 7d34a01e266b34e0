package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
)

// DefaultQuestion is the question shown to the operator.
const DefaultQuestion = "Apply the merged policy to the cluster?"

// Decider obtains one decision from the operator.
type Decider interface {
	Decide(ctx context.Context) (Decision, error)
}

// StaticDecider always returns the same decision, e.g. for --yes.
type StaticDecider Decision

// Decide implements Decider.
func (s StaticDecider) Decide(context.Context) (Decision, error) {
	return Decision(s), nil
}

// LineDecider reads a single answer line. It is used when stdin is not a
// terminal.
type LineDecider struct {
	In       io.Reader
	Out      io.Writer
	Question string
}

// Decide implements Decider. End of input without an answer aborts.
func (l *LineDecider) Decide(ctx context.Context) (Decision, error) {
	question := l.Question
	if question == "" {
		question = DefaultQuestion
	}
	if l.Out != nil {
		_, _ = fmt.Fprintf(l.Out, "%s [y/N]: ", question)
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(l.In).ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return Abort, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return Abort, fmt.Errorf("failed to read answer: %w", a.err)
		}
		return ParseDecision(a.line), nil
	}
}

// PromptDecider asks with an interactive confirm form.
type PromptDecider struct {
	Question string
	// In and Out default to the process terminal when nil.
	In  io.Reader
	Out io.Writer
}

// Decide implements Decider. Interrupting the form aborts.
func (p *PromptDecider) Decide(ctx context.Context) (Decision, error) {
	question := p.Question
	if question == "" {
		question = DefaultQuestion
	}

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Description("The backup taken above is the recovery path.").
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if p.In != nil {
		form = form.WithInput(p.In)
	}
	if p.Out != nil {
		form = form.WithOutput(p.Out)
	}
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Abort, nil
		}
		return Abort, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	if ok {
		return Proceed, nil
	}
	return Abort, nil
}
