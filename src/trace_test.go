package mac

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracer(t *testing.T) {
	var buf bytes.Buffer

	var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	var tracer, err = NewTracer(&buf, "", epoch)
	require.NoError(t, err)

	var f = &Frame{
		Type:        FrameData,
		Transmitter: selfAddr,
		Receiver:    peerAddr,
		Sequence:    3,
		Payload:     make([]byte, 10),
		BitRate:     2 * Mbps,
		Duration:    314 * time.Microsecond,
	}

	tracer.Transmitted(1500*time.Microsecond, f)
	tracer.Delivered(2*time.Second, peerAddr, f)
	tracer.Transmitted(3*time.Millisecond, &Frame{Type: FrameACK, Transmitter: peerAddr, Receiver: selfAddr, BitRate: Mbps})

	assert.Equal(t,
		"[00:00:00.001500] 02:00:00:00:00:01 > 02:00:00:00:00:02 DATA seq=3 retry=false 38B @2Mb/s dur=314us\n"+
			"[00:00:02.000000] 02:00:00:00:00:02 < 02:00:00:00:00:01 DATA seq=3\n"+
			"[00:00:00.003000] 02:00:00:00:00:02 > 02:00:00:00:00:01 ACK 14B @1Mb/s dur=0us\n",
		buf.String())
}

func TestTracerFormat(t *testing.T) {
	var buf bytes.Buffer

	var tracer, err = NewTracer(&buf, "%Y-%m-%d %H:%M", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	tracer.Delivered(90*time.Second, selfAddr, &Frame{Type: FrameQoSData, Transmitter: peerAddr})
	assert.Equal(t, "[2024-03-01 12:01] 02:00:00:00:00:01 < 02:00:00:00:00:02 QOSDATA seq=0\n", buf.String())

	_, err = NewTracer(&buf, "%H:%", time.Time{})
	assert.Error(t, err)
}
