package mac

import "errors"

var (
	ErrInvalidTID       = errors.New("traffic identifier must be in 0..7")
	ErrUnknownFrameType = errors.New("unknown or unsupported frame type")
	ErrUnknownCategory  = errors.New("unknown access category")
	ErrQueueFull        = errors.New("transmit queue full")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
