package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/fs"
	"github.com/kazupon/rolldown/internal/helpers"
	"github.com/kazupon/rolldown/internal/linker"
	"github.com/kazupon/rolldown/internal/logger"
	"github.com/kazupon/rolldown/internal/sourcemap"
)

func buildImpl(ctx context.Context, options BuildOptions) (BuildResult, error) {
	realFS, err := fs.RealFS(fs.RealFSOptions{AbsWorkingDir: options.AbsWorkingDir})
	if err != nil {
		return BuildResult{}, err
	}
	return buildWithFS(ctx, options, realFS)
}

func buildWithFS(ctx context.Context, options BuildOptions, fsys fs.FS) (BuildResult, error) {
	log := logger.Logger

	renderOptions, err := validateOptions(options, fsys)
	if err != nil {
		return BuildResult{}, err
	}
	manifest, err := loadManifest(options, fsys)
	if err != nil {
		return BuildResult{}, err
	}
	link, chunkGraph, err := loadLinkOutput(fsys, manifest)
	if err != nil {
		return BuildResult{}, err
	}

	// Chunks are independent of each other so they are rendered in parallel
	// too. A failed chunk doesn't cancel the others.
	renderer := linker.ChunkRenderer{Log: log}
	results := make([]*linker.ChunkRenderReturn, len(chunkGraph.Chunks))
	errs := make([]error, len(chunkGraph.Chunks))
	g := errgroup.Group{}
	g.SetLimit(renderOptions.MaxConcurrency())
	for i := range chunkGraph.Chunks {
		i := i
		g.Go(func() error {
			result, err := renderer.RenderChunk(ctx, &chunkGraph.Chunks[i], &renderOptions, link, chunkGraph)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &result
			return nil
		})
	}
	_ = g.Wait()

	absOutputDir := renderOptions.AbsOutputDir()
	result := BuildResult{}
	for i, chunkResult := range results {
		if chunkResult == nil {
			log.Error("failed to render chunk", "chunk", chunkGraph.Chunks[i].Name, "err", errs[i])
			continue
		}

		files := emitChunk(fsys, absOutputDir, &renderOptions, chunkResult)
		if options.Write {
			for _, file := range files {
				if err := fsys.WriteFile(file.Path, file.Contents); err != nil {
					errs[i] = errors.Join(errs[i], fmt.Errorf("failed to write %q: %w", file.Path, err))
					continue
				}
				log.Info("wrote", "path", file.Path, "bytes", len(file.Contents))
			}
		}

		result.OutputFiles = append(result.OutputFiles, files...)
		result.Chunks = append(result.Chunks, chunkInfo(&chunkResult.RenderedChunk))
	}

	return result, errors.Join(errs...)
}

// The chunk comes first, followed by its source map when the map is written
// to its own file
func emitChunk(fsys fs.FS, absOutputDir string, options *config.Options, result *linker.ChunkRenderReturn) []OutputFile {
	absPath := fsys.Join(absOutputDir, result.RenderedChunk.FileName)
	j := helpers.Joiner{}
	j.AddString(result.Code)

	var mapFile *OutputFile
	if result.Map != nil && options.SourceMap != config.SourceMapNone {
		mapJSON := result.Map.Encode(sourcemap.EncodeOptions{
			File:                  fsys.Base(absPath),
			ExcludeSourcesContent: options.ExcludeSourcesContent,
		})

		switch options.SourceMap {
		case config.SourceMapInline:
			j.EnsureNewlineAtEnd()
			j.AddString("//# sourceMappingURL=data:application/json;base64,")
			j.AddString(base64.StdEncoding.EncodeToString(mapJSON))
			j.AddString("\n")

		case config.SourceMapLinkedWithComment:
			mapFile = &OutputFile{Path: absPath + ".map", Contents: mapJSON}
			j.EnsureNewlineAtEnd()
			j.AddString("//# sourceMappingURL=")
			j.AddString(fsys.Base(mapFile.Path))
			j.AddString("\n")

		case config.SourceMapExternalWithoutComment:
			mapFile = &OutputFile{Path: absPath + ".map", Contents: mapJSON}
		}
	}

	files := []OutputFile{{Path: absPath, Contents: []byte(j.Done())}}
	if mapFile != nil {
		files = append(files, *mapFile)
	}
	return files
}
