package engine

import "errors"

// ErrOutOfMemory is returned by push operations when the pool has no
// free slot and eviction either was not requested or found nothing to
// evict.
var ErrOutOfMemory = errors.New("engine: out of memory")

// ErrNoMessage is the sentinel a Transport returns from Recv when no
// inbound frame is currently available. It is never surfaced to the
// host; the receive phase treats it as "nothing to do this step".
var ErrNoMessage = errors.New("engine: no message available")

// ErrNoCorrelation marks an inbound CALLRESULT/CALLERROR that matched
// no waiting request. The affected frame is logged and dropped; engine
// state does not change.
var ErrNoCorrelation = errors.New("engine: no correlation for inbound response")

// ErrInvalidRole marks an inbound frame whose role is not one of
// CALL/CALLRESULT/CALLERROR.
var ErrInvalidRole = errors.New("engine: invalid inbound role")
