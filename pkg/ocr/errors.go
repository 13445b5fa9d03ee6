package ocr

import "errors"

// ErrNilImage is returned when an operation receives no image to work on.
var ErrNilImage = errors.New("nil image")
