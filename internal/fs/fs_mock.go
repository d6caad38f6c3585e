package fs

// This is a mock implementation of the "fs" module for use with tests. It does
// not touch the real file system. Instead, it reads from and writes to a map
// of file paths to contents. The path arithmetic can pretend to be either Unix
// or Windows so that path handling can be tested for both on any host.

import (
	"path"
	"strings"
	"sync"
)

type MockKind uint8

const (
	MockUnix MockKind = iota
	MockWindows
)

type mockFS struct {
	files         map[string]string
	mutex         sync.Mutex
	absWorkingDir string
	Kind          MockKind
}

// MockFS takes Unix-style keys. With MockWindows they are stored as "C:\..."
func MockFS(input map[string]string, kind MockKind, absWorkingDir string) FS {
	files := make(map[string]string, len(input))
	for k, v := range input {
		if kind == MockWindows {
			k = unix2win(k)
		}
		files[k] = v
	}
	return &mockFS{files: files, absWorkingDir: absWorkingDir, Kind: kind}
}

func (fs *mockFS) ReadFile(path string) (string, error) {
	if fs.Kind == MockWindows {
		path = strings.ReplaceAll(path, "/", "\\")
	}
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	if contents, ok := fs.files[path]; ok {
		return contents, nil
	}
	return "", ErrNotExist
}

func (fs *mockFS) WriteFile(path string, contents []byte) error {
	if fs.Kind == MockWindows {
		path = strings.ReplaceAll(path, "/", "\\")
	}
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	fs.files[path] = string(contents)
	return nil
}

func win2unix(p string) string {
	if strings.HasPrefix(p, "C:\\") || strings.HasPrefix(p, "c:\\") {
		p = p[2:]
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return p
}

func unix2win(p string) string {
	p = strings.ReplaceAll(p, "/", "\\")
	if strings.HasPrefix(p, "\\") {
		p = "C:" + p
	}
	return p
}

func (fs *mockFS) IsAbs(p string) bool {
	if fs.Kind == MockWindows {
		p = win2unix(p)
	}
	return path.IsAbs(p)
}

func (fs *mockFS) Abs(p string) (string, bool) {
	if fs.Kind == MockWindows {
		p = win2unix(p)
	}

	p = path.Clean(path.Join("/", p))

	if fs.Kind == MockWindows {
		p = unix2win(p)
	}

	return p, true
}

func (fs *mockFS) Dir(p string) string {
	if fs.Kind == MockWindows {
		p = win2unix(p)
	}

	p = path.Dir(p)

	if fs.Kind == MockWindows {
		p = unix2win(p)
	}

	return p
}

func (fs *mockFS) Base(p string) string {
	if fs.Kind == MockWindows {
		p = win2unix(p)
	}

	p = path.Base(p)

	if fs.Kind == MockWindows && p == "/" {
		p = "\\"
	}

	return p
}

func (fs *mockFS) Join(parts ...string) string {
	if fs.Kind == MockWindows {
		converted := make([]string, len(parts))
		for i, part := range parts {
			converted[i] = win2unix(part)
		}
		parts = converted
	}

	// Like "filepath.Join", an absolute part does not reset the path
	p := path.Clean(path.Join(parts...))

	if fs.Kind == MockWindows {
		p = unix2win(p)
	}

	return p
}

func (fs *mockFS) Cwd() string {
	return fs.absWorkingDir
}

func splitOnSlash(path string) (string, string) {
	if slash := strings.IndexByte(path, '/'); slash != -1 {
		return path[:slash], path[slash+1:]
	}
	return path, ""
}

func (fs *mockFS) Rel(base string, target string) (string, bool) {
	if fs.Kind == MockWindows {
		base = win2unix(base)
		target = win2unix(target)
	}

	base = path.Clean(base)
	target = path.Clean(target)

	// Go's implementation does these checks
	if base == target {
		return ".", true
	}
	if base == "." {
		base = ""
	}

	// Go's implementation fails when this condition is false. I believe this is
	// because of this part of the contract, from Go's documentation: "An error
	// is returned if targpath can't be made relative to basepath or if knowing
	// the current working directory would be necessary to compute it."
	if (len(base) > 0 && base[0] == '/') != (len(target) > 0 && target[0] == '/') {
		return "", false
	}

	// Find the common parent directory
	for {
		bHead, bTail := splitOnSlash(base)
		tHead, tTail := splitOnSlash(target)
		if bHead != tHead {
			break
		}
		base = bTail
		target = tTail
	}

	// Stop now if base is a subpath of target
	if base == "" {
		return fs.native(target), true
	}

	// Traverse up to the common parent
	commonParent := strings.Repeat("../", strings.Count(base, "/")+1)

	// Stop now if target is a subpath of base
	if target == "" {
		return fs.native(commonParent[:len(commonParent)-1]), true
	}

	// Otherwise, down to the parent
	return fs.native(commonParent + target), true
}

// Converts a relative slash-separated path to this file system's separators
func (fs *mockFS) native(p string) string {
	if fs.Kind == MockWindows {
		return strings.ReplaceAll(p, "/", "\\")
	}
	return p
}
