package mac

import (
	"fmt"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Access categories and the per-category contention state.
 *
 * Description:	EDCA has four categories, each with its own queue and
 *		its own AIFS number and contention window bounds.
 *		Plain DCF is the same machinery with only one category.
 *
 *		Categories are ordered by priority, lowest first, so
 *		a larger value always wins an internal collision.
 *
 *------------------------------------------------------------------*/

type Category int

const (
	Background Category = iota
	BestEffort
	Video
	Voice

	NumCategories = 4
)

var categoryNames = [NumCategories]string{"background", "best_effort", "video", "voice"}

func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}

	return categoryNames[c]
}

// ParseCategory accepts the names used in configuration files, plus
// the usual two letter abbreviations.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "background", "BK", "bk":
		return Background, nil
	case "best_effort", "BE", "be":
		return BestEffort, nil
	case "video", "VI", "vi":
		return Video, nil
	case "voice", "VO", "vo":
		return Voice, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// 802.1D user priority to access category.
var tidToCategory = [8]Category{
	BestEffort, // 0
	Background, // 1
	Background, // 2
	BestEffort, // 3
	Video,      // 4
	Video,      // 5
	Voice,      // 6
	Voice,      // 7
}

func CategoryForTID(tid int) (Category, error) {
	if tid < 0 || tid >= len(tidToCategory) {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTID, tid)
	}

	return tidToCategory[tid], nil
}

// Used for backoffPeriod when no value has been drawn yet.
const noBackoff time.Duration = -1

// Counters are for observability only.  Nothing in the engine reads them.
type Counters struct {
	Sent       uint64
	Retried    uint64
	GivenUp    uint64
	Dropped    uint64
	Collisions uint64 /* Internal collisions lost to a higher category. */
}

type accessCategory struct {
	id     Category
	params CategoryConfig

	queue *transmitQueue

	backoffPending bool          /* Backoff must run before the next attempt. */
	backoffPeriod  time.Duration /* Remaining, or noBackoff. */
	retryCount     int

	aifsTimer    *Timer
	backoffTimer *Timer

	counters Counters
}

func newAccessCategory(id Category, params CategoryConfig) *accessCategory {
	return &accessCategory{
		id:            id,
		params:        params,
		queue:         newTransmitQueue(params.MaxQueueSize),
		backoffPeriod: noBackoff,
	}
}

func (ac *accessCategory) contending() bool {
	return ac.aifsTimer.Scheduled() || ac.backoffTimer.Scheduled()
}

// CategoryStatus is a snapshot of one category, for tests and monitoring.
type CategoryStatus struct {
	Category       Category
	Queued         int
	BackoffPending bool
	BackoffPeriod  time.Duration
	RetryCount     int
	CWMin          int
	CWMax          int
	AIFS           int
	Counters       Counters
}

func (ac *accessCategory) status() CategoryStatus {
	return CategoryStatus{
		Category:       ac.id,
		Queued:         ac.queue.len(),
		BackoffPending: ac.backoffPending,
		BackoffPeriod:  ac.backoffPeriod,
		RetryCount:     ac.retryCount,
		CWMin:          ac.params.CWMin,
		CWMax:          ac.params.CWMax,
		AIFS:           ac.params.AIFS,
		Counters:       ac.counters,
	}
}
