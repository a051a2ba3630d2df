package mac

import (
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Avoid passing the same received frame up twice.
 *
 * Description:	When our ACK gets lost the sender will try again and
 *		we will hear the same frame a second time.  It must
 *		be acknowledged again but not delivered again.
 *
 *		For each transmitter we remember the sequence number
 *		and fragment number of the last frame heard.  A frame
 *		with the same pair is a duplicate.
 *
 *		Stations come and go so the records expire.  There is
 *		no timer for that; old records are swept out whenever
 *		we look something up.
 *
 *------------------------------------------------------------------*/

type dedupeEntry struct {
	sequence  uint16
	fragment  uint8
	timeStamp time.Duration /* When it was heard. */
}

type duplicateFilter struct {
	timeout time.Duration
	history map[Address]dedupeEntry
}

func newDuplicateFilter(timeout time.Duration) *duplicateFilter {
	return &duplicateFilter{
		timeout: timeout,
		history: make(map[Address]dedupeEntry),
	}
}

/*------------------------------------------------------------------------------
 *
 * Name:	dedupe_check
 *
 * Purpose:	Check whether this is a duplicate of the last frame from
 *		the same transmitter, and remember it if not.
 *
 * Input:	now	- Current time.
 *
 *		f	- Received data or management frame.
 *
 * Returns:	True if it is a duplicate.
 *
 *------------------------------------------------------------------------------*/

func (d *duplicateFilter) check(now time.Duration, f *Frame) bool {
	d.expire(now)

	var h, found = d.history[f.Transmitter]
	if found && h.sequence == f.Sequence && h.fragment == f.Fragment {
		return true
	}

	d.history[f.Transmitter] = dedupeEntry{
		sequence:  f.Sequence,
		fragment:  f.Fragment,
		timeStamp: now,
	}

	return false
}

func (d *duplicateFilter) expire(now time.Duration) {
	for addr, h := range d.history {
		if now-h.timeStamp > d.timeout {
			delete(d.history, addr)
		}
	}
}

func (d *duplicateFilter) len() int {
	return len(d.history)
}

/* end dedupe.go */
