package graph

import (
	"github.com/kazupon/rolldown/internal/sourcemap"
)

// ModuleRenderOutput is what rendering one module produces. It is owned by
// the chunk renderer until it has been folded into the chunk's content.
type ModuleRenderOutput struct {
	ModulePath       string
	ModulePrettyPath string
	RenderedModule   RenderedModule
	RenderedContent  string
	SourceMap        *sourcemap.SourceMap
	LinesCount       int
}

type RenderedModule struct {
	// Byte length of the module's code in the output
	RenderedLength int

	// Byte length of the module's original source text
	OriginalLength int
}

// RenderedChunk describes a chunk to banner and footer hooks and to build
// reporting. Hooks must treat it as read-only.
type RenderedChunk struct {
	Name     string
	FileName string
	IsEntry  bool

	// Keyed by module ID
	Modules map[string]RenderedModule

	// Module IDs in output order
	ModuleIDs []string

	// Exported names, sorted
	Exports []string
}
