package mac

/*------------------------------------------------------------------
 *
 * Purpose:	Queue of what the stations pass up to the higher layer.
 *
 * Description:	Each station's engine reports received frames and
 *		frames it gave up on.  Those all go into one queue,
 *		tagged with the station and time, so they can be
 *		processed serially by something else:  a test, the
 *		scenario report, or a consumer on another goroutine.
 *
 *		The engines put items in from the event loop.  Taking
 *		them out may happen from anywhere.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"sync"
	"time"
)

type DeliveryKind int

const (
	DeliveryFrame     DeliveryKind = iota /* A frame was received. */
	DeliveryLinkBreak                     /* We gave up sending a frame. */
)

func (k DeliveryKind) String() string {
	switch k {
	case DeliveryFrame:
		return "frame"
	case DeliveryLinkBreak:
		return "link-break"
	}

	return "?"
}

type Delivery struct {
	Kind    DeliveryKind
	Station Address /* The one which received, or gave up. */
	At      time.Duration
	Frame   *Frame
}

type DeliveryQueue struct {
	clock Scheduler

	mu    sync.Mutex /* Critical section for updating items. */
	items []Delivery

	wake chan struct{} /* Notify a waiting reader when the queue is not empty. */
}

func NewDeliveryQueue(clock Scheduler) *DeliveryQueue {
	return &DeliveryQueue{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        Station
 *
 * Purpose:     The UpperLayer to give to one station's engine.
 *
 *--------------------------------------------------------------------*/

func (q *DeliveryQueue) Station(addr Address) UpperLayer {
	return stationDeliveries{queue: q, station: addr}
}

type stationDeliveries struct {
	queue   *DeliveryQueue
	station Address
}

func (s stationDeliveries) Deliver(f *Frame) {
	s.queue.append(Delivery{Kind: DeliveryFrame, Station: s.station, Frame: f})
}

func (s stationDeliveries) LinkBreak(f *Frame) {
	s.queue.append(Delivery{Kind: DeliveryLinkBreak, Station: s.station, Frame: f})
}

func (q *DeliveryQueue) append(d Delivery) {
	d.At = q.clock.Now()

	q.mu.Lock()
	q.items = append(q.items, d)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Drain removes and returns everything queued, oldest first.
func (q *DeliveryQueue) Drain() []Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out = q.items
	q.items = nil

	return out
}

/*-------------------------------------------------------------------
 *
 * Name:        Wait
 *
 * Purpose:     Remove the oldest item, waiting for one if the queue
 *		is empty.
 *
 * Returns:	ctx.Err() if ctx is done first.
 *
 *--------------------------------------------------------------------*/

func (q *DeliveryQueue) Wait(ctx context.Context) (Delivery, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			var d = q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()

			return d, nil
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		}
	}
}

/* end dlq.go */
