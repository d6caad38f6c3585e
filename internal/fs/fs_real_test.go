package fs

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealFSWithMemoryBackend(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses Unix-style absolute paths")
	}

	fs, err := RealFS(RealFSOptions{AbsWorkingDir: "/project", Backend: afero.NewMemMapFs()})
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile("/project/dist/chunks/main.js", []byte("code")))
	contents, err := fs.ReadFile("/project/dist/chunks/main.js")
	require.NoError(t, err)
	assert.Equal(t, "code", contents)

	_, err = fs.ReadFile("/project/missing.js")
	assert.ErrorIs(t, err, ErrNotExist)

	abs, ok := fs.Abs("src/a.js")
	require.True(t, ok)
	assert.Equal(t, "/project/src/a.js", abs)

	rel, ok := fs.Rel("/out/chunks", "/project/src/a.js")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("../../project/src/a.js"), rel)
}

func TestRealFSRejectsRelativeWorkingDir(t *testing.T) {
	_, err := RealFS(RealFSOptions{AbsWorkingDir: "relative/dir"})
	assert.Error(t, err)
}
