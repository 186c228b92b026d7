package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit(t *testing.T) {
	t.Run("stamps and delivers", func(t *testing.T) {
		ch := NewChannel()
		Emit(ch, Event{Type: RunStart})

		e := <-ch
		assert.Equal(t, RunStart, e.Type)
		assert.False(t, e.Timestamp.IsZero())
	})

	t.Run("full channel drops instead of blocking", func(t *testing.T) {
		ch := make(chan Event, 1)
		Emit(ch, Event{Type: StepStart, Step: 1})
		Emit(ch, Event{Type: StepStart, Step: 2}) // dropped

		require.Len(t, ch, 1)
		assert.Equal(t, 1, (<-ch).Step)
	})
}
