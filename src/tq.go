package mac

/*------------------------------------------------------------------
 *
 * Purpose:	Transmit queue for one access category.
 *
 * Description:	Frames are appended at the tail by Submit and removed
 *		from the head only once the exchange is over, i.e. the
 *		ACK arrived or we gave up.  While an exchange is in
 *		progress the head frame is "in flight" and must stay
 *		where it is.
 *
 *		The queue can have a maximum length.  It is a hard
 *		limit and new frames are dropped, not just a warning
 *		that something is wrong.
 *
 *		Multicast priority:  With this option, a multicast data
 *		frame may overtake unicast data frames which are
 *		waiting at the tail.  It will never overtake a
 *		management frame, another multicast frame, or the
 *		head which might already be on the air.
 *
 *------------------------------------------------------------------*/

type transmitQueue struct {
	frames []*Frame
	limit  int /* 0 for unlimited. */
}

func newTransmitQueue(limit int) *transmitQueue {
	return &transmitQueue{limit: limit}
}

func (q *transmitQueue) len() int {
	return len(q.frames)
}

func (q *transmitQueue) empty() bool {
	return len(q.frames) == 0
}

func (q *transmitQueue) full() bool {
	return q.limit > 0 && len(q.frames) >= q.limit
}

/*-------------------------------------------------------------------
 *
 * Name:        tq_append
 *
 * Purpose:     Add a frame to the queue.
 *
 * Inputs:	f			- Frame.  The queue owns it from now on.
 *
 *		multicastPriority	- Let multicast data jump ahead of
 *					  waiting unicast data.
 *
 * Returns:	false if the queue is full and the frame was not added.
 *
 *--------------------------------------------------------------------*/

func (q *transmitQueue) append(f *Frame, multicastPriority bool) bool {
	if q.full() {
		return false
	}

	var at = len(q.frames)

	if multicastPriority && f.IsMulticast() && !f.IsControl() && f.Type != FrameManagement {
		for at > 1 && q.isUnicastData(at-1) {
			at--
		}
	}

	q.frames = append(q.frames, nil)
	copy(q.frames[at+1:], q.frames[at:])
	q.frames[at] = f

	return true
}

func (q *transmitQueue) isUnicastData(i int) bool {
	var f = q.frames[i]

	return (f.Type == FrameData || f.Type == FrameQoSData) && !f.IsMulticast()
}

func (q *transmitQueue) head() *Frame {
	if len(q.frames) == 0 {
		return nil
	}

	return q.frames[0]
}

// peek returns the n'th frame, 0 being the head, or nil.
func (q *transmitQueue) peek(n int) *Frame {
	if n < 0 || n >= len(q.frames) {
		return nil
	}

	return q.frames[n]
}

func (q *transmitQueue) pop() *Frame {
	if len(q.frames) == 0 {
		return nil
	}

	var f = q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]

	return f
}

func (q *transmitQueue) clear() {
	q.frames = nil
}

/* end tq.go */
