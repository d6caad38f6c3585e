package graph

// The types in this file are what the link stage hands to chunk rendering.
// Modules and their ASTs are stored in parallel tables addressed by module
// index, and chunks refer to modules only by index.

import (
	"github.com/kazupon/rolldown/internal/sourcemap"
)

type ModuleIdx uint32

type Module struct {
	Idx ModuleIdx

	// This is used as a unique key to identify this module. It's stable across
	// builds and is the key of the rendered-module map.
	ID string

	// This is used in the header comment that precedes the module's code. It's
	// relative to the working directory and always uses forward slashes.
	PrettyPath string

	// The absolute path of the file on disk. Do not include this in any output
	// data other than the "sources" of a source map, which are made relative
	// before they are written out.
	ResourcePath string

	// The original text of the file, embedded as "sourcesContent"
	OriginalContents string

	// The source map of the file itself if it was produced by another tool
	// (e.g. a TypeScript compiler). Mappings are remapped through it.
	InputSourceMap *sourcemap.SourceMap
}

// AST is the linked program of one module. Code generation has already run
// by the time a chunk is rendered, so only the printed form is kept here.
type AST struct {
	Code string

	// Set by tree shaking when nothing in the module is used
	IsEmpty bool
}

type LinkStageOutput struct {
	Modules []Module

	// Parallel to "Modules"
	ASTs []AST
}

type ChunkIdx uint32

type Chunk struct {
	Name    string
	IsEntry bool

	// In execution order. This is also the order of the emitted code.
	Modules []ModuleIdx

	// Filled in by filename generation, which must run before rendering
	PreliminaryFilename *PreliminaryFilename

	// Bindings this chunk imports from other chunks in the same build
	Imports []ChunkImport

	// Bindings other chunks (or the user) import from this chunk
	Exports []ExportBinding
}

type PreliminaryFilename struct {
	// Relative to the output directory. May contain directories when the file
	// name template has them (e.g. "chunks/[name].js").
	RelPath string
}

type ChunkImport struct {
	Chunk    ChunkIdx
	Bindings []ImportBinding
}

type ImportBinding struct {
	Imported string
	Local    string
}

type ExportBinding struct {
	Local    string
	Exported string
}

type ChunkGraph struct {
	Chunks []Chunk
}
