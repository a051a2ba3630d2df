package mac

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func checkInvariants(t *rapid.T, e *Engine) {
	for _, ac := range e.categories {
		if ac.backoffPeriod != noBackoff {
			assert.GreaterOrEqual(t, ac.backoffPeriod, time.Duration(0))
			assert.Zero(t, ac.backoffPeriod%e.timing.Slot, "backoff not slot aligned")
		}

		assert.GreaterOrEqual(t, ac.retryCount, 0)
		assert.Less(t, ac.retryCount, e.cfg.RetryLimit)
		assert.LessOrEqual(t, ac.params.CWMin, ac.params.CWMax)

		if ac.queue.empty() {
			assert.False(t, ac.contending(), "%s contending with nothing queued", ac.id)
		}
	}
}

// Every frame submitted is eventually sent, given up on or dropped,
// whatever the peer does.
func Test_engineAccountsForEveryFrame(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var mode = rapid.SampledFrom([]string{ModeDCF, ModeEDCA}).Draw(t, "mode")

		var cfg = testConfig(mode)
		cfg.RTSThreshold = rapid.IntRange(0, 3000).Draw(t, "rtsThreshold")
		cfg.RetryLimit = rapid.IntRange(1, 7).Draw(t, "retryLimit")
		cfg.RateControl.Mode = rapid.SampledFrom([]string{RateConstant, RateARF, RateAARF}).Draw(t, "rateControl")
		cfg.MulticastPriority = rapid.Bool().Draw(t, "multicastPriority")
		cfg.DCF.MaxQueueSize = 5
		cfg.EDCA.BestEffort.MaxQueueSize = 5

		var loop = NewEventLoop()
		var radio = &scriptedRadio{loop: loop}
		var upper = &recordingUpper{}

		var e, err = New(cfg, loop, radio, upper, WithRand(rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))) //nolint:gosec
		require.NoError(t, err)

		radio.engine = e

		var ackProbability = rapid.Float64Range(0, 1).Draw(t, "ackProbability")
		var rng = rand.New(rand.NewSource(1)) //nolint:gosec
		radio.respond = func(*Frame) bool {
			return rng.Float64() < ackProbability
		}

		var count = rapid.IntRange(1, 20).Draw(t, "count")

		for iter := 0; iter < count; iter++ {
			var f = &Frame{
				Type:     rapid.SampledFrom([]FrameType{FrameData, FrameQoSData, FrameManagement}).Draw(t, "type"),
				Receiver: peerAddr,
				TID:      rapid.IntRange(0, 7).Draw(t, "tid"),
				Payload:  make([]byte, rapid.IntRange(0, 1500).Draw(t, "size")),
			}

			if rapid.Bool().Draw(t, "broadcast") {
				f.Receiver = Broadcast
			}

			var at = time.Duration(rapid.IntRange(0, 5000).Draw(t, "gap")) * time.Microsecond
			loop.RunUntil(loop.Now() + at)

			_ = e.Submit(f)

			checkInvariants(t, e)
		}

		for steps := 0; loop.Step(); steps++ {
			require.Less(t, steps, 1000000, "runaway")
			checkInvariants(t, e)
		}

		var total uint64
		for _, s := range e.Status() {
			assert.Zero(t, s.Queued)
			total += s.Counters.Sent + s.Counters.GivenUp + s.Counters.Dropped
		}

		assert.Equal(t, uint64(count), total)
		assert.Equal(t, StateIdle, e.State())

		// Sequence numbers go up by one in the order frames reach the
		// air, whichever category they came from.  Only retries repeat.
		var seen = make(map[uint16]bool)
		var lastSequence = -1

		for i, s := range radio.sent {
			if s.frame.IsControl() {
				continue
			}

			if seen[s.frame.Sequence] {
				assert.True(t, s.frame.Retry, "transmission %d repeats seq %d", i, s.frame.Sequence)
				continue
			}

			assert.Equal(t, (lastSequence+1)%MaxSequence, int(s.frame.Sequence), "transmission %d", i)
			lastSequence = int(s.frame.Sequence)
			seen[s.frame.Sequence] = true
		}
	})
}

func Test_backoffWithinWindow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var cfg = testConfig(ModeDCF)
		cfg.DCF.CWMin = rapid.IntRange(0, 63).Draw(t, "cwMin")
		cfg.DCF.CWMax = rapid.IntRange(cfg.DCF.CWMin, 1023).Draw(t, "cwMax")

		var e, err = New(cfg, NewEventLoop(), &scriptedRadio{}, nil,
			WithRand(rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))) //nolint:gosec
		require.NoError(t, err)

		var ac = e.categories[0]
		ac.queue.append(unicast(10), false)
		ac.retryCount = rapid.IntRange(0, 6).Draw(t, "retry")

		var cw = contentionWindow(cfg.DCF.CWMin, cfg.DCF.CWMax, ac.retryCount)
		assert.GreaterOrEqual(t, cw, cfg.DCF.CWMin)
		assert.LessOrEqual(t, cw, cfg.DCF.CWMax)

		var period = e.generateBackoff(ac)
		assert.GreaterOrEqual(t, period, time.Duration(0))
		assert.LessOrEqual(t, period, time.Duration(cw)*e.timing.Slot)
		assert.Zero(t, period%e.timing.Slot)
	})
}
