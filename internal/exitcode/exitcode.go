package exitcode

import (
	"errors"

	"github.com/spf13/pflag"
)

const (
	Success = 0

	// At least one chunk could not be rendered or written
	BuildFailed = 1

	// The command line or the config file is invalid. Nothing was built.
	Usage = 2
)

// Coder is an error that knows which exit code it should produce
type Coder interface {
	error
	ExitCode() int
}

// Get returns the exit code for an error:
//
//	nil => Success
//	errors implementing Coder => value returned by ExitCode
//	pflag.ErrHelp => Usage
//	all other errors => BuildFailed
func Get(err error) int {
	if err == nil {
		return Success
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	if errors.Is(err, pflag.ErrHelp) {
		return Usage
	}

	return BuildFailed
}

// Set wraps an error so that Get returns the given code for it and for any
// error wrapping it
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{err, code}
}

type coder struct {
	error
	code int
}

func (co coder) ExitCode() int {
	return co.code
}

func (co coder) Unwrap() error {
	return co.error
}
