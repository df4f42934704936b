package osm

import (
	"errors"
	"fmt"
)

var (
	ErrSequenceNumberNotFound = errors.New("sequence number of latest database state could not be fetched")
	ErrTimestampNotFound      = errors.New("timestamp of latest database state could not be fetched")
	ErrInvalidSequenceNumber  = errors.New("invalid sequence number")
	ErrInvalidPoint           = errors.New("invalid WKT point")
	ErrNoWayElement           = errors.New("no way element")
)

// DependencyResolutionError means a referenced node has no usable location.
// A way missing any vertex cannot get a correct geometry, so this is fatal
// for the whole resolution.
type DependencyResolutionError struct {
	NodeID string
	Err    error
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("could not get location for node with id %s: %v", e.NodeID, e.Err)
}

func (e *DependencyResolutionError) Unwrap() error {
	return e.Err
}
