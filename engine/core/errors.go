package core

import (
	"errors"
	"fmt"
)

var (
	ErrCorruptInput      = errors.New("corrupt input")
	ErrMissingDependency = errors.New("missing dependency")
	ErrDecodeFailure     = errors.New("decode failure")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNothingBuilt      = errors.New("no assets were produced")
	ErrDuplicateID       = errors.New("duplicate asset id")
	ErrSharedSidecar     = errors.New("sidecar shared with another source")
	ErrAborted           = errors.New("aborted by operator")
	ErrUnknown           = errors.New("unknown")
)

// FileError ties a failure to the source file and pipeline stage that produced it.
type FileError struct {
	Path  string
	Stage string
	Err   error
}

func (e *FileError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Path, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Kind reports which taxonomy sentinel err belongs to, or ErrUnknown.
func Kind(err error) error {
	for _, k := range []error{
		ErrCorruptInput,
		ErrMissingDependency,
		ErrDecodeFailure,
		ErrUnsupportedFormat,
		ErrDuplicateID,
		ErrSharedSidecar,
		ErrNothingBuilt,
		ErrAborted,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrUnknown
}
