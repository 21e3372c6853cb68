package vision

import "errors"

// ErrInvalidArgument is wrapped by every validation error returned from this
// package. Match it with errors.Is.
var ErrInvalidArgument = errors.New("vision: invalid argument")
