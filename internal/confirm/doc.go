// Package confirm implements the operator confirmation gate.
//
// The workflow waits on a [Gate] for a decision about a pending change.
// Whoever talks to the operator (an interactive prompt, a scripted answer)
// receives the [Request] from the gate and resolves it exactly once.
// Anything other than an explicit yes resolves to [Abort].
package confirm
