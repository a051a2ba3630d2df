package mac

import (
	"fmt"
	"math"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Choose the bit rate for unicast data frames.
 *
 * Description:	Three policies:
 *
 *		constant - Never changes.
 *
 *		arf	 - Auto Rate Fallback.  Go up one rate after a run
 *			   of successes (or after enough transmissions
 *			   since the last change), go down one rate after
 *			   any failure.
 *
 *		aarf	 - Adaptive ARF.  Same, except that when the first
 *			   frame after stepping up fails, which suggests
 *			   the higher rate is no good, we become more
 *			   reluctant to try it again:  the success and
 *			   timer thresholds are multiplied up, within a
 *			   limit.  A failure at any other time puts both
 *			   back to their minimums.
 *
 *		Control frames and multicast always use the basic rate
 *		and don't come through here.
 *
 *------------------------------------------------------------------*/

type RateController interface {
	Rate() Rate
	ReportSuccess()
	ReportFailure()
}

const (
	RateConstant = "constant"
	RateARF      = "arf"
	RateAARF     = "aarf"
)

// NewRateController builds the controller for cfg.  rates must be in
// increasing order.
func NewRateController(cfg RateControlConfig, rates []Rate) (RateController, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: no bit rates", ErrInvalidConfig)
	}

	var start = -1

	if cfg.InitialRate > 0 {
		var want = RateFromMbps(cfg.InitialRate)
		for i, r := range rates {
			if r == want {
				start = i
			}
		}

		if start < 0 {
			return nil, fmt.Errorf("%w: initial rate %v is not in the rate set", ErrInvalidConfig, want)
		}
	}

	switch cfg.Mode {
	case RateConstant, "":
		if start < 0 {
			start = len(rates) - 1
		}

		return &constantRate{rate: rates[start]}, nil

	case RateARF, RateAARF:
		if start < 0 {
			start = 0
		}

		if cfg.SuccessThreshold < 1 {
			return nil, fmt.Errorf("%w: rate control success threshold must be at least 1", ErrInvalidConfig)
		}

		var a = &arf{
			rates:            rates,
			index:            start,
			successThreshold: cfg.SuccessThreshold,
			timerThreshold:   cfg.TimerThreshold,
		}

		if cfg.Mode == RateARF {
			return a, nil
		}

		if cfg.MaxSuccessThreshold < cfg.SuccessThreshold {
			return nil, fmt.Errorf("%w: max success threshold %d below success threshold %d",
				ErrInvalidConfig, cfg.MaxSuccessThreshold, cfg.SuccessThreshold)
		}

		return &aarf{
			arf:                 a,
			minSuccessThreshold: cfg.SuccessThreshold,
			maxSuccessThreshold: cfg.MaxSuccessThreshold,
			minTimerThreshold:   cfg.TimerThreshold,
			successFactor:       cfg.SuccessFactor,
			timerFactor:         cfg.TimerFactor,
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown rate control mode %q", ErrInvalidConfig, cfg.Mode)
}

type constantRate struct {
	rate Rate
}

func (c *constantRate) Rate() Rate { return c.rate }

func (c *constantRate) ReportSuccess() {}

func (c *constantRate) ReportFailure() {}

type arf struct {
	rates []Rate
	index int

	success int /* Consecutive successes at this rate. */
	timer   int /* Transmissions since the last rate change. */

	successThreshold int
	timerThreshold   int /* 0 to disable. */

	recovery bool /* Just stepped up. */
}

func (a *arf) Rate() Rate {
	return a.rates[a.index]
}

func (a *arf) ReportSuccess() {
	a.success++
	a.timer++
	a.recovery = false

	var due = a.success >= a.successThreshold ||
		(a.timerThreshold > 0 && a.timer >= a.timerThreshold)

	if due && a.index < len(a.rates)-1 {
		a.index++
		a.success = 0
		a.timer = 0
		a.recovery = true
	}
}

func (a *arf) ReportFailure() {
	a.success = 0
	a.timer++
	a.recovery = false

	if a.index > 0 {
		a.index--
		a.timer = 0
	}
}

type aarf struct {
	*arf

	minSuccessThreshold int
	maxSuccessThreshold int
	minTimerThreshold   int

	successFactor float64
	timerFactor   float64

	sustained int /* Consecutive successes.  Enough of them undo the back-off of the thresholds. */
}

func (a *aarf) ReportSuccess() {
	a.sustained++

	if a.sustained >= a.maxSuccessThreshold {
		a.successThreshold = a.minSuccessThreshold
		a.timerThreshold = a.minTimerThreshold
		a.sustained = 0
	}

	a.arf.ReportSuccess()
}

// ReportFailure raises the thresholds when a step up failed straight
// away.  Any other failure leaves them where they are.
func (a *aarf) ReportFailure() {
	a.sustained = 0

	if a.recovery {
		var st = int(math.Round(float64(a.successThreshold) * a.successFactor))
		if st > a.maxSuccessThreshold {
			st = a.maxSuccessThreshold
		}

		var tt = int(math.Round(float64(a.timerThreshold) * a.timerFactor))
		if tt < a.minTimerThreshold {
			tt = a.minTimerThreshold
		}

		a.successThreshold = st
		a.timerThreshold = tt
	}

	a.arf.ReportFailure()
}

/* end rate.go */
