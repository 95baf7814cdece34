package utils

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrExtractionAmbiguous  = errors.New("expected exactly one video metadata block")
	ErrExtractionIncomplete = errors.New("video metadata is incomplete")
	ErrInvalidSelection     = errors.New("invalid resolution selection")
	ErrSelectionCancelled   = errors.New("resolution selection cancelled")
	ErrHTTPStatus           = errors.New("unexpected HTTP status")
	ErrIOFailure            = errors.New("local file error")
	ErrTransport            = errors.New("network transfer failed")
)

type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindExtractionAmbiguous  ErrorKind = "ExtractionAmbiguous"
	KindExtractionIncomplete ErrorKind = "ExtractionIncomplete"
	KindInvalidSelection     ErrorKind = "InvalidSelection"
	KindSelectionCancelled   ErrorKind = "SelectionCancelled"
	KindHTTPStatus           ErrorKind = "HttpStatus"
	KindIOFailure            ErrorKind = "IOFailure"
	KindTransport            ErrorKind = "Transport"
	KindCancelled            ErrorKind = "Cancelled"
	KindUnknown              ErrorKind = "Unknown"
)

type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("server returned %d for %s", e.StatusCode, e.URL)
}

func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// KindOf maps an error onto the kind used in reports. A cancelled run wins over
// everything else since a cancelled read usually surfaces as a transport error.
// A deadline is only Cancelled when nothing on the network side reported it.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrExtractionAmbiguous):
		return KindExtractionAmbiguous
	case errors.Is(err, ErrExtractionIncomplete):
		return KindExtractionIncomplete
	case errors.Is(err, ErrInvalidSelection):
		return KindInvalidSelection
	case errors.Is(err, ErrSelectionCancelled):
		return KindSelectionCancelled
	case errors.Is(err, ErrHTTPStatus):
		return KindHTTPStatus
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	default:
		return KindUnknown
	}
}
