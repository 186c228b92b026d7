package agent

import ai "github.com/strandlabs/strand"

// TerminationReason explains why a loop execution ended.
type TerminationReason string

const (
	// TerminationComplete means the model produced a tool-free turn.
	TerminationComplete TerminationReason = "complete"

	// TerminationMaxIterations means the iteration safety ceiling was
	// reached. This is a graceful end, not a failure.
	TerminationMaxIterations TerminationReason = "max_iterations"

	// TerminationCancelled means the caller cancelled the run. Clean
	// stop; Result.Err is nil.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError means an unrecoverable provider error ended the
	// run. Result.Err carries it.
	TerminationError TerminationReason = "error"
)

// Result is the outcome of one loop execution.
type Result struct {
	// Output is the answer: the streamed text of the final tool-free
	// turn. Intermediate-turn text is transcript scaffolding and is
	// never delivered here. On a ceiling stop this holds whatever text
	// the last executed turn produced.
	Output string

	// Messages is the conversation as it stood when the loop ended,
	// including tool-call and tool-result messages and any compaction.
	Messages []ai.Message

	// Usage is the cumulative token usage across all turns.
	Usage ai.Usage

	// Iterations is the number of turns executed.
	Iterations int

	// Termination explains why the loop ended.
	Termination TerminationReason

	// Err is set only for TerminationError.
	Err error
}
