package contract

import "errors"

// ErrGone is returned when a conditional write matched no live row, usually
// because the thread was deleted while a generation was still running.
var ErrGone = errors.New("record no longer exists")
