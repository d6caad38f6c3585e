package linker

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/graph"
	"github.com/kazupon/rolldown/internal/helpers"
	"github.com/kazupon/rolldown/internal/logger"
	"github.com/kazupon/rolldown/internal/sourcemap"
)

type ChunkRenderReturn struct {
	Code          string
	Map           *sourcemap.SourceMap
	RenderedChunk graph.RenderedChunk
}

// These are the collaborators that produce the pieces of a chunk. Any nil
// field of a ChunkRenderer uses the default implementation.
type (
	ModuleRenderer func(module *graph.Module, ast *graph.AST, absPath string, options *config.Options) (graph.ModuleRenderOutput, bool)

	ImportsRenderer func(chunk *graph.Chunk, link *graph.LinkStageOutput, chunkGraph *graph.ChunkGraph) string

	ExportsRenderer func(chunk *graph.Chunk, link *graph.LinkStageOutput, options *config.Options) (string, bool)

	RenderedChunkGenerator func(
		chunk *graph.Chunk,
		link *graph.LinkStageOutput,
		options *config.Options,
		renderedModules map[string]graph.RenderedModule,
		moduleIDs []string,
	) graph.RenderedChunk
)

type ChunkRenderer struct {
	RenderModule          ModuleRenderer
	RenderImports         ImportsRenderer
	RenderExports         ExportsRenderer
	GenerateRenderedChunk RenderedChunkGenerator

	// Defaults to the global logger
	Log *log.Logger
}

// RenderChunk renders a chunk with the default collaborators
func RenderChunk(
	ctx context.Context,
	chunk *graph.Chunk,
	options *config.Options,
	link *graph.LinkStageOutput,
	chunkGraph *graph.ChunkGraph,
) (ChunkRenderReturn, error) {
	r := ChunkRenderer{}
	return r.RenderChunk(ctx, chunk, options, link, chunkGraph)
}

// RenderChunk turns the modules of one chunk into the chunk's code and source
// map. The output is laid out as:
//
//	banner
//	imports
//	// module path   (once per module that rendered anything)
//	module code
//	exports
//	footer
//
// Modules are rendered in parallel but always appear in the chunk's module
// order. Nothing is returned unless every step succeeds.
func (r *ChunkRenderer) RenderChunk(
	ctx context.Context,
	chunk *graph.Chunk,
	options *config.Options,
	link *graph.LinkStageOutput,
	chunkGraph *graph.ChunkGraph,
) (ChunkRenderReturn, error) {
	if chunk.PreliminaryFilename == nil {
		panic("Internal error: chunk file name should be generated before rendering")
	}
	fileName := chunk.PreliminaryFilename.RelPath
	l := r.logger()

	var timer *helpers.Timer
	if l.GetLevel() <= log.DebugLevel {
		timer = &helpers.Timer{}
	}
	timer.Begin(fmt.Sprintf("Render chunk %q", fileName))

	concatSource := sourcemap.ConcatSource{}
	concatSource.AddSource(sourcemap.NewRawSource(r.renderImports()(chunk, link, chunkGraph)))

	timer.Begin("Render modules")
	outputs, err := r.renderModulesInParallel(ctx, chunk, options, link)
	timer.End("Render modules")
	if err != nil {
		return ChunkRenderReturn{}, &ChunkRenderError{Chunk: fileName, Phase: PhaseRenderModules, Err: err}
	}

	// Fold the results in module order, never in completion order
	renderedModules := make(map[string]graph.RenderedModule, len(outputs))
	moduleIDs := make([]string, 0, len(outputs))
	for _, output := range outputs {
		if output == nil {
			continue
		}
		concatSource.AddSource(sourcemap.NewRawSource("// " + escapeNewlinesInComment(output.ModulePrettyPath)))
		if output.SourceMap != nil {
			concatSource.AddSource(sourcemap.NewSourceMapSource(output.RenderedContent, output.SourceMap, output.LinesCount))
		} else {
			concatSource.AddSource(sourcemap.NewRawSource(output.RenderedContent))
		}
		renderedModules[output.ModulePath] = output.RenderedModule
		moduleIDs = append(moduleIDs, output.ModulePath)
	}
	renderedChunk := r.generateRenderedChunk()(chunk, link, options, renderedModules, moduleIDs)

	// The banner goes first but can only be computed from the rendered chunk
	if text, ok, err := callAddon(ctx, options.Banner, cloneRenderedChunk(&renderedChunk)); err != nil {
		return ChunkRenderReturn{}, &ChunkRenderError{Chunk: fileName, Phase: PhaseBanner, Err: err}
	} else if ok {
		concatSource.AddPrependSource(sourcemap.NewRawSource(text))
	}

	if exports, ok := r.renderExports()(chunk, link, options); ok {
		concatSource.AddSource(sourcemap.NewRawSource(exports))
	}

	if text, ok, err := callAddon(ctx, options.Footer, cloneRenderedChunk(&renderedChunk)); err != nil {
		return ChunkRenderReturn{}, &ChunkRenderError{Chunk: fileName, Phase: PhaseFooter, Err: err}
	} else if ok {
		concatSource.AddSource(sourcemap.NewRawSource(text))
	}

	timer.Begin("Join chunk")
	content, sourceMap := concatSource.ContentAndSourceMap()
	if sourceMap != nil {
		relativizeSources(sourceMap, options, fileName)
	}
	timer.End("Join chunk")
	timer.End(fmt.Sprintf("Render chunk %q", fileName))

	l.Debug("rendered chunk",
		"chunk", fileName,
		"modules", len(moduleIDs),
		"skipped", len(chunk.Modules)-len(moduleIDs),
		"bytes", len(content),
		"sourcemap", sourceMap != nil,
	)
	timer.Log(l)

	return ChunkRenderReturn{Code: content, Map: sourceMap, RenderedChunk: renderedChunk}, nil
}

// Every module is rendered on its own goroutine, bounded by the configured
// concurrency. Each result is stored at its module's position so that the
// caller can fold them in order. A nil entry means the module was elided.
func (r *ChunkRenderer) renderModulesInParallel(
	ctx context.Context,
	chunk *graph.Chunk,
	options *config.Options,
	link *graph.LinkStageOutput,
) ([]*graph.ModuleRenderOutput, error) {
	renderModule := r.renderModule()
	outputs := make([]*graph.ModuleRenderOutput, len(chunk.Modules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(options.MaxConcurrency())

	for i, moduleIdx := range chunk.Modules {
		i, moduleIdx := i, moduleIdx
		g.Go(func() (err error) {
			module := &link.Modules[moduleIdx]
			defer recoverModulePanic(module, &err)

			if err := gctx.Err(); err != nil {
				return err
			}
			if output, ok := renderModule(module, &link.ASTs[moduleIdx], module.ResourcePath, options); ok {
				outputs[i] = &output
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// A missing hook produces nothing. Hooks are not started once the build has
// been canceled.
func callAddon(ctx context.Context, hook config.AddonHook, chunk *graph.RenderedChunk) (string, bool, error) {
	if hook == nil {
		return "", false, nil
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	return hook.Call(ctx, chunk)
}

// Recover from a panic by turning it into an error instead of crashing
func recoverModulePanic(module *graph.Module, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v (while rendering %q)\n%s", r, module.PrettyPath, helpers.PrettyPrintedStack())
	}
}

// Make sure newlines in the path can't end the comment early. This does not
// minimize allocations because it's expected that this case never comes up
// in practice.
func escapeNewlinesInComment(path string) string {
	path = strings.ReplaceAll(path, "\r", "\\r")
	path = strings.ReplaceAll(path, "\n", "\\n")
	path = strings.ReplaceAll(path, "\u2028", "\\u2028")
	path = strings.ReplaceAll(path, "\u2029", "\\u2029")
	return path
}

func (r *ChunkRenderer) logger() *log.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Logger
}

func (r *ChunkRenderer) renderModule() ModuleRenderer {
	if r.RenderModule != nil {
		return r.RenderModule
	}
	return DefaultModuleRenderer
}

func (r *ChunkRenderer) renderImports() ImportsRenderer {
	if r.RenderImports != nil {
		return r.RenderImports
	}
	return DefaultImportsRenderer
}

func (r *ChunkRenderer) renderExports() ExportsRenderer {
	if r.RenderExports != nil {
		return r.RenderExports
	}
	return DefaultExportsRenderer
}

func (r *ChunkRenderer) generateRenderedChunk() RenderedChunkGenerator {
	if r.GenerateRenderedChunk != nil {
		return r.GenerateRenderedChunk
	}
	return GenerateRenderedChunk
}
