package fs

import "errors"

var ErrNotExist = errors.New("file does not exist")

type FS interface {
	ReadFile(path string) (string, error)

	// Creates any missing parent directories
	WriteFile(path string, contents []byte) error

	// This is part of the interface because the mock interface used for tests
	// should not depend on file system behavior (i.e. different slashes for
	// Windows) while the real interface should.
	IsAbs(path string) bool
	Abs(path string) (string, bool)
	Dir(path string) string
	Base(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)
}
