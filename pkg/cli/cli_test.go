package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/pkg/api"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, contents := range files {
		path = filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
}

func runForTest(t *testing.T, args ...string) (int, string) {
	t.Helper()
	stderr, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer stderr.Close()

	stdout := bytes.Buffer{}
	code := run(context.Background(), args, &stdout, stderr)
	return code, stdout.String()
}

func TestVersion(t *testing.T) {
	code, out := runForTest(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, Version+"\n", out)
}

func TestBuildFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"rolldown.yaml": "dir: out\nsourcemap: linked\nbanner: \"/* hi */\"\nlogLevel: silent\n",
		"rolldown.manifest.yaml": `chunks:
  - name: main
    fileName: main.js
    modules:
      - path: build/a.js
`,
		"build/a.js": "a()\n",
	})

	code, out := runForTest(t, "build", "--cwd", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "out/main.js")
	assert.Contains(t, out, "out/main.js.map")

	contents, err := os.ReadFile(filepath.Join(dir, "out", "main.js"))
	require.NoError(t, err)
	assert.Equal(t, "/* hi */\n// build/a.js\na()\n//# sourceMappingURL=main.js.map\n", string(contents))
	assert.FileExists(t, filepath.Join(dir, "out", "main.js.map"))
}

func TestBuildFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"rolldown.yaml": "dir: out\nsourcemap: linked\nlogLevel: silent\n",
		"links.yaml": `chunks:
  - { name: main, fileName: main.js, modules: [{ path: a.js }] }
`,
		"a.js": "a()",
	})

	code, _ := runForTest(t, "build", "--cwd", dir, "-m", "links.yaml", "--sourcemap", "none", "--dir", "flag-out")
	require.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dir, "flag-out", "main.js"))
	assert.NoFileExists(t, filepath.Join(dir, "flag-out", "main.js.map"))
}

func TestBuildFailures(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"rolldown.yaml": "logLevel: silent\n"})

	code, _ := runForTest(t, "build", "--cwd", dir)
	assert.Equal(t, 1, code, "missing manifest")

	code, _ = runForTest(t, "build", "--cwd", dir, "--sourcemap", "sometimes")
	assert.Equal(t, 2, code, "invalid source map mode")

	code, _ = runForTest(t, "build", "--cwd", dir, "--config", filepath.Join(dir, "nope.yaml"))
	assert.Equal(t, 2, code, "missing config file")

	code, _ = runForTest(t, "build", "unexpected")
	assert.Equal(t, 2, code, "positional arguments")

	code, _ = runForTest(t, "build", "--concurrency", "many")
	assert.Equal(t, 2, code, "invalid flag value")
}

func TestBuildOptions(t *testing.T) {
	options, err := buildOptions(&config.File{
		Cwd:            "app",
		Dir:            "dist",
		Manifest:       "m.yaml",
		Sourcemap:      "inline",
		SourcesContent: false,
		Concurrency:    3,
	}, "/work")
	require.NoError(t, err)
	assert.Equal(t, api.BuildOptions{
		AbsWorkingDir:  filepath.Join("/work", "app"),
		Outdir:         "dist",
		ManifestPath:   "m.yaml",
		Sourcemap:      api.SourceMapInline,
		SourcesContent: api.SourcesContentExclude,
		Concurrency:    3,
		Write:          true,
	}, options)

	options, err = buildOptions(&config.File{Cwd: "/abs", Sourcemap: "external", SourcesContent: true}, "/work")
	require.NoError(t, err)
	assert.Equal(t, "/abs", options.AbsWorkingDir)
	assert.Equal(t, api.SourceMapExternal, options.Sourcemap)
	assert.Equal(t, api.SourcesContentInclude, options.SourcesContent)
}

func TestSummaryTable(t *testing.T) {
	table := summaryTable(api.BuildResult{OutputFiles: []api.OutputFile{
		{Path: "/work/dist/main.js", Contents: make([]byte, 2048)},
		{Path: "/elsewhere/x.js", Contents: []byte("x")},
	}}, "/work")

	assert.Contains(t, table, "dist/main.js")
	assert.Contains(t, table, "2.0 kb")
	assert.Contains(t, table, "/elsewhere/x.js")
	assert.Contains(t, table, "1 b")
	assert.Less(t, strings.Index(table, "main.js"), strings.Index(table, "x.js"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 b", formatSize(0))
	assert.Equal(t, "1023 b", formatSize(1023))
	assert.Equal(t, "1.5 kb", formatSize(1536))
	assert.Equal(t, "2.0 mb", formatSize(2*1024*1024))
}
