package tracker

import (
	"errors"
	"fmt"
)

// ErrNoCommand reports a tracker descriptor without an executable command.
var ErrNoCommand = errors.New("tracker command is empty")

// ErrNoResult reports a run that produced no parseable trajectory rows.
var ErrNoResult = errors.New("tracker produced no result")

// TrajectoryLengthError reports tracker output whose row count does not cover
// the requested sub-sequence.
type TrajectoryLengthError struct {
	Want int
	Got  int
}

func (e *TrajectoryLengthError) Error() string {
	return fmt.Sprintf("tracker output has %d trajectory rows, want %d", e.Got, e.Want)
}
