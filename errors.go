package locus

import (
	"errors"
	"fmt"
)

// Kind classifies a storage failure.
type Kind int

const (
	KindPathResolution Kind = iota + 1
	KindRead
	KindParse
	KindWrite
)

var (
	ErrPathResolution = errors.New("locus: could not resolve storage path")
	ErrRead           = errors.New("locus: could not read storage")
	ErrParse          = errors.New("locus: could not parse storage")
	ErrWrite          = errors.New("locus: could not write storage")
)

func (k Kind) String() string {
	switch k {
	case KindPathResolution:
		return "path resolution"
	case KindRead:
		return "read"
	case KindParse:
		return "parse"
	case KindWrite:
		return "write"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindPathResolution:
		return ErrPathResolution
	case KindRead:
		return ErrRead
	case KindParse:
		return ErrParse
	case KindWrite:
		return ErrWrite
	default:
		return nil
	}
}

// Error records a failed storage operation together with the path it was
// working on. Use errors.Is with ErrPathResolution, ErrRead, ErrParse or
// ErrWrite to test the kind, and errors.As to get the path.
type Error struct {
	Op   string
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("locus: %s: %s failed: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("locus: %s %s: %s failed: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(op string, kind Kind, path string, err error) *Error {
	return &Error{Op: op, Kind: kind, Path: path, Err: err}
}
