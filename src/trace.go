package mac

/*------------------------------------------------------------------
 *
 * Purpose:	Frame trace, one line per frame put on the air or
 *		passed up.
 *
 * Description:	Something like this, with the default format:
 *
 *		[00:00:00.001234] 02:00:00:00:00:01 > 02:00:00:00:00:02 QOSDATA seq=3 retry=false 1528B @11Mb/s dur=213us
 *		[00:00:00.003002] 02:00:00:00:00:02 < 02:00:00:00:00:01 QOSDATA seq=3
 *
 *		The time stamp is simulated time added to an epoch and
 *		formatted with a strftime pattern, the same as the -T
 *		option of the other tools.  %f gives microseconds.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"
)

const DefaultTraceFormat = "%H:%M:%S.%f"

type Tracer struct {
	w     io.Writer
	stamp *strftime.Strftime
	epoch time.Time
}

// NewTracer writes to w.  Simulated time zero is shown as epoch.
func NewTracer(w io.Writer, format string, epoch time.Time) (*Tracer, error) {
	if format == "" {
		format = DefaultTraceFormat
	}

	var stamp, err = strftime.New(format, strftime.WithMicroseconds('f'))
	if err != nil {
		return nil, fmt.Errorf("trace time stamp format %q: %w", format, err)
	}

	return &Tracer{w: w, stamp: stamp, epoch: epoch}, nil
}

func (t *Tracer) timestamp(at time.Duration) string {
	return t.stamp.FormatString(t.epoch.Add(at))
}

func (t *Tracer) Transmitted(at time.Duration, f *Frame) {
	var extra string
	if !f.IsControl() {
		extra = fmt.Sprintf(" seq=%d retry=%t", f.Sequence, f.Retry)
	}

	fmt.Fprintf(t.w, "[%s] %s > %s %s%s %dB @%s dur=%dus\n",
		t.timestamp(at), f.Transmitter, f.Receiver, f.Type, extra,
		f.ByteLength(), f.BitRate, f.Duration.Microseconds())
}

func (t *Tracer) Delivered(at time.Duration, station Address, f *Frame) {
	fmt.Fprintf(t.w, "[%s] %s < %s %s seq=%d\n",
		t.timestamp(at), station, f.Transmitter, f.Type, f.Sequence)
}

/* end trace.go */
