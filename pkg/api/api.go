// This API exposes the chunk renderer to Go code. A build takes a manifest,
// which is the output of the link stage written down as YAML, renders every
// chunk in it and writes the chunks and their source maps to the output
// directory.
package api

import "context"

type SourceMap uint8

const (
	SourceMapNone SourceMap = iota
	SourceMapInline
	SourceMapLinked
	SourceMapExternal
)

////////////////////////////////////////////////////////////////////////////////
// Build API

// AddonFunc computes a banner or footer for one chunk. Returning false leaves
// the chunk without one.
type AddonFunc func(ctx context.Context, chunk ChunkInfo) (string, bool, error)

type BuildOptions struct {
	// Defaults to the current directory
	AbsWorkingDir string

	// Relative to the working directory unless absolute. Defaults to "dist".
	Outdir string

	Sourcemap      SourceMap
	SourcesContent SourcesContent

	// Static text, ignored when the corresponding func is set
	Banner string
	Footer string

	BannerFunc AddonFunc
	FooterFunc AddonFunc

	// The maximum number of modules rendered at once within a chunk. Zero means
	// one per CPU.
	Concurrency int

	// Either the manifest itself or a path to it, relative to the working
	// directory
	Manifest     *Manifest
	ManifestPath string

	// If false, output files are only returned in the result
	Write bool
}

type SourcesContent uint8

const (
	SourcesContentInclude SourcesContent = iota
	SourcesContentExclude
)

type BuildResult struct {
	OutputFiles []OutputFile
	Chunks      []ChunkInfo
}

type OutputFile struct {
	Path     string
	Contents []byte
}

type ChunkInfo struct {
	Name      string
	FileName  string
	IsEntry   bool
	ModuleIDs []string
	Modules   map[string]ModuleInfo
	Exports   []string
}

type ModuleInfo struct {
	RenderedLength int
	OriginalLength int
}

// Build renders every chunk in the manifest. Chunks that fail don't stop the
// others from being rendered. The returned error joins the failures of every
// chunk, and the result contains the chunks that succeeded.
func Build(ctx context.Context, options BuildOptions) (BuildResult, error) {
	return buildImpl(ctx, options)
}
