package traffic

import "errors"

var (
	ErrMinuteOutOfRange = errors.New("minute of day out of range [0,1439]")
)
