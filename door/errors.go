package door

import "errors"

// ErrStopped is returned by actor calls made after the event loop exited.
var ErrStopped = errors.New("door actor stopped")
