package linker

import (
	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/fs"
	"github.com/kazupon/rolldown/internal/sourcemap"
)

// Source map "sources" are written relative to the directory of the file the
// map belongs to. This is pure path arithmetic. The count and order of the
// sources never change, so the indices in the mappings stay valid.
func relativizeSources(sourceMap *sourcemap.SourceMap, options *config.Options, fileName string) {
	fsys := options.FS
	file := fsys.Join(options.AbsOutputDir(), fileName)
	dir := fsys.Dir(file)
	if dir == file {
		panic("Internal error: chunk file " + file + " has no parent directory")
	}

	sources := sourceMap.GetSources()
	relative := make([]string, len(sources))
	for i, source := range sources {
		relative[i] = relativizeSource(fsys, options.Cwd, dir, source)
	}
	sourceMap.SetSources(relative)
}

func relativizeSource(fsys fs.FS, cwd string, dir string, source string) string {
	if isURL(source) {
		return source
	}
	absPath := source
	if !fsys.IsAbs(absPath) {
		absPath = fsys.Join(cwd, absPath)
	}
	if relPath, ok := fsys.Rel(dir, absPath); ok {
		return relPath
	}

	// Keep what we have if the path can't be made relative (e.g. it's on a
	// different drive on Windows)
	return source
}
