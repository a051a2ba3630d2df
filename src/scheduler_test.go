package mac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEventLoopOrdering(t *testing.T) {
	var loop = NewEventLoop()
	var got []string

	var record = func(s string) func() {
		return func() { got = append(got, s) }
	}

	loop.At(10*time.Microsecond, PriorityTimer, record("timer-a"))
	loop.At(10*time.Microsecond, PriorityChannel, record("channel"))
	loop.At(5*time.Microsecond, PriorityTimer, record("early"))
	loop.At(10*time.Microsecond, PriorityTimer, record("timer-b"))

	loop.Run()

	assert.Equal(t, []string{"early", "channel", "timer-a", "timer-b"}, got)
	assert.Equal(t, 10*time.Microsecond, loop.Now())
}

func TestEventLoopCancel(t *testing.T) {
	var loop = NewEventLoop()
	var fired bool

	var timer = loop.At(time.Millisecond, PriorityTimer, func() { fired = true })
	require.True(t, timer.Scheduled())
	assert.Equal(t, time.Millisecond, timer.When())

	loop.Cancel(timer)
	assert.False(t, timer.Scheduled())

	// Harmless.
	loop.Cancel(timer)
	loop.Cancel(nil)

	loop.Run()
	assert.False(t, fired)
}

func TestEventLoopRunUntil(t *testing.T) {
	var loop = NewEventLoop()
	var count int

	loop.At(time.Millisecond, PriorityTimer, func() { count++ })
	loop.At(3*time.Millisecond, PriorityTimer, func() { count++ })

	loop.RunUntil(2 * time.Millisecond)

	assert.Equal(t, 1, count)
	assert.Equal(t, 2*time.Millisecond, loop.Now())
	assert.Equal(t, 1, loop.Pending())

	// Scheduling in the past means now.
	var late = loop.At(0, PriorityTimer, func() {})
	assert.Equal(t, 2*time.Millisecond, late.When())
	assert.Equal(t, 2*time.Millisecond, late.Started())
}

func TestEventLoopStop(t *testing.T) {
	var loop = NewEventLoop()
	var count int

	loop.At(time.Millisecond, PriorityTimer, func() {
		count++
		loop.Stop()
	})
	loop.At(2*time.Millisecond, PriorityTimer, func() { count++ })

	loop.Run()
	assert.Equal(t, 1, count)

	loop.Run()
	assert.Equal(t, 2, count)
}

func Test_eventLoopNeverGoesBackwards(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var loop = NewEventLoop()
		var last time.Duration
		var timers []*Timer

		var n = rapid.IntRange(1, 50).Draw(t, "n")
		for iter := 0; iter < n; iter++ {
			var at = time.Duration(rapid.IntRange(0, 1000).Draw(t, "at"))

			var timer = loop.At(at, Priority(rapid.IntRange(0, 1).Draw(t, "prio")), func() {
				assert.GreaterOrEqual(t, loop.Now(), last)
				last = loop.Now()
			})
			timers = append(timers, timer)
		}

		for _, timer := range timers {
			if rapid.Bool().Draw(t, "cancel") {
				loop.Cancel(timer)
			}
		}

		loop.Run()
		assert.Zero(t, loop.Pending())
	})
}
