// Package compact collapses a long conversation into a formatted
// summary plus a recent tail, preserving leading system messages.
package compact

import (
	"strings"

	ai "github.com/strandlabs/strand"
)

// KeepRecent is the number of raw trailing messages preserved verbatim
// through a compaction.
const KeepRecent = 5

// Summary is the condensed knowledge carried across a compaction.
// It is typically produced by a tool's pruning directive.
type Summary struct {
	KeyFindings   []string `json:"keyFindings,omitempty"`
	FilesExamined []string `json:"filesExamined,omitempty"`
	NextSteps     []string `json:"nextSteps,omitempty"`
}

// Format renders the summary as the text of the replacement message.
func (s Summary) Format() string {
	var b strings.Builder
	b.WriteString("Summary of earlier conversation:")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(title)
		b.WriteString(":")
		for _, item := range items {
			b.WriteString("\n- ")
			b.WriteString(item)
		}
	}

	section("Key findings", s.KeyFindings)
	section("Files examined", s.FilesExamined)
	section("Next steps", s.NextSteps)

	return b.String()
}

// Compact replaces all but the last KeepRecent conversation messages
// with one user-role message containing the formatted summary. Leading
// system messages are preserved in place.
//
// Compact is idempotent: a conversation already at or below the target
// length is returned unchanged, and applying it twice in succession
// never grows the conversation.
func Compact(messages []ai.Message, s Summary) []ai.Message {
	systemCount := 0
	for systemCount < len(messages) && messages[systemCount].Role == ai.RoleSystem {
		systemCount++
	}

	conv := messages[systemCount:]
	if len(conv) <= KeepRecent+1 {
		return messages
	}

	tail := conv[len(conv)-KeepRecent:]

	result := make([]ai.Message, 0, systemCount+1+len(tail))
	result = append(result, messages[:systemCount]...)
	result = append(result, ai.Message{Role: ai.RoleUser, Content: s.Format()})
	result = append(result, tail...)
	return result
}
