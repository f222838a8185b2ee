package wireutil

import "errors"

// ErrPadding is returned by CutPadding when a frame's declared pad length
// does not fit inside its payload.
var ErrPadding = errors.New("wireutil: padding length exceeds payload")
