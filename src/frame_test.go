package mac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	var a, err = ParseAddress("02:00:00:00:00:2a")
	require.NoError(t, err)
	assert.Equal(t, Address{2, 0, 0, 0, 0, 0x2a}, a)
	assert.Equal(t, "02:00:00:00:00:2a", a.String())
	assert.False(t, a.IsMulticast())

	a, err = ParseAddress("01-00-5E-00-00-01")
	require.NoError(t, err)
	assert.True(t, a.IsMulticast())
	assert.True(t, Broadcast.IsMulticast())

	_, err = ParseAddress("02:00:00")
	require.Error(t, err)

	// EUI-64 parses but is the wrong size.
	_, err = ParseAddress("02:00:00:00:00:00:00:01")
	require.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	for s, want := range map[string]Category{
		"background":  Background,
		"BK":          Background,
		"best_effort": BestEffort,
		"vi":          Video,
		"voice":       Voice,
	} {
		var got, err = ParseCategory(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}

	var _, err = ParseCategory("bulk")
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, "Category(9)", Category(9).String())
}

func TestCategoryForTID(t *testing.T) {
	var want = []Category{BestEffort, Background, Background, BestEffort, Video, Video, Voice, Voice}

	for tid, c := range want {
		var got, err = CategoryForTID(tid)
		require.NoError(t, err)
		assert.Equal(t, c, got, "tid %d", tid)
	}

	var _, err = CategoryForTID(8)
	require.ErrorIs(t, err, ErrInvalidTID)

	_, err = CategoryForTID(-1)
	require.ErrorIs(t, err, ErrInvalidTID)
}

func TestFrameTypes(t *testing.T) {
	for s, want := range map[string]FrameType{
		"":           FrameData,
		"data":       FrameData,
		"qos":        FrameQoSData,
		"mgmt":       FrameManagement,
		"management": FrameManagement,
	} {
		var got, err = ParseFrameType(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	var _, err = ParseFrameType("ack")
	require.ErrorIs(t, err, ErrUnknownFrameType)

	assert.Equal(t, "FrameType(42)", FrameType(42).String())
}

func TestFrameLength(t *testing.T) {
	var payload = make([]byte, 100)

	assert.Equal(t, 20, (&Frame{Type: FrameRTS}).ByteLength())
	assert.Equal(t, 14, (&Frame{Type: FrameCTS}).ByteLength())
	assert.Equal(t, 14, (&Frame{Type: FrameACK}).ByteLength())
	assert.Equal(t, 128, (&Frame{Type: FrameData, Payload: payload}).ByteLength())
	assert.Equal(t, 130, (&Frame{Type: FrameQoSData, Payload: payload}).ByteLength())
	assert.Equal(t, 128, (&Frame{Type: FrameManagement, Payload: payload}).ByteLength())

	assert.True(t, (&Frame{Type: FrameACK}).IsControl())
	assert.False(t, (&Frame{Type: FrameManagement}).IsControl())
	assert.True(t, (&Frame{Receiver: Broadcast}).IsMulticast())
}

func TestFrameString(t *testing.T) {
	var f = &Frame{
		Type:        FrameData,
		Transmitter: selfAddr,
		Receiver:    peerAddr,
		Duration:    314 * time.Microsecond,
		Sequence:    7,
		Retry:       true,
		BitRate:     11 * Mbps,
	}

	assert.Equal(t, "02:00:00:00:00:01>02:00:00:00:00:02 DATA dur=314µs seq=7 len=28 retry 11Mb/s", f.String())

	var ack = &Frame{Type: FrameACK, Receiver: selfAddr}
	assert.Equal(t, "00:00:00:00:00:00>02:00:00:00:00:01 ACK dur=0s", ack.String())
}

func TestFrameClone(t *testing.T) {
	var f = &Frame{Type: FrameData, Sequence: 1}
	var c = f.clone()

	c.Retry = true
	assert.False(t, f.Retry)
	assert.Equal(t, f.Sequence, c.Sequence)
}
