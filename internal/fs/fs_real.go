package fs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type realFS struct {
	backend       afero.Fs
	absWorkingDir string
}

type RealFSOptions struct {
	AbsWorkingDir string

	// Defaults to the operating system's file system. Tests pass an in-memory
	// backend here to exercise the same path handling without touching disk.
	Backend afero.Fs
}

func RealFS(options RealFSOptions) (FS, error) {
	cwd := options.AbsWorkingDir
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	if !filepath.IsAbs(cwd) {
		return nil, errors.New("the working directory must be an absolute path: " + cwd)
	}
	backend := options.Backend
	if backend == nil {
		backend = afero.NewOsFs()
	}
	return &realFS{backend: backend, absWorkingDir: filepath.Clean(cwd)}, nil
}

func (fs *realFS) ReadFile(path string) (string, error) {
	contents, err := afero.ReadFile(fs.backend, path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotExist
	}
	return string(contents), err
}

func (fs *realFS) WriteFile(path string, contents []byte) error {
	if err := fs.backend.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs.backend, path, contents, 0o644)
}

func (*realFS) IsAbs(p string) bool {
	return filepath.IsAbs(p)
}

func (fs *realFS) Abs(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(fs.absWorkingDir, p)
	}
	return filepath.Clean(p), true
}

func (*realFS) Dir(p string) string {
	return filepath.Dir(p)
}

func (*realFS) Base(p string) string {
	return filepath.Base(p)
}

func (*realFS) Join(parts ...string) string {
	return filepath.Join(parts...)
}

func (fs *realFS) Cwd() string {
	return fs.absWorkingDir
}

func (*realFS) Rel(base string, target string) (string, bool) {
	if rel, err := filepath.Rel(base, target); err == nil {
		return rel, true
	}
	return "", false
}
