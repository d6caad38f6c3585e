package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kazupon/rolldown/internal/fs"
	"github.com/kazupon/rolldown/internal/graph"
	"github.com/kazupon/rolldown/internal/sourcemap"
)

func loadManifest(options BuildOptions, fsys fs.FS) (*Manifest, error) {
	if options.Manifest != nil {
		if err := options.Manifest.validate(); err != nil {
			return nil, fmt.Errorf("invalid manifest: %w", err)
		}
		return options.Manifest, nil
	}
	if options.ManifestPath == "" {
		return nil, errors.New("no manifest was given")
	}

	path := resolvePath(fsys, options.ManifestPath)
	contents, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read manifest %q: %w", path, err)
	}
	return ParseManifest([]byte(contents))
}

func resolvePath(fsys fs.FS, path string) string {
	if fsys.IsAbs(path) {
		return path
	}
	return fsys.Join(fsys.Cwd(), path)
}

// Reads every module in the manifest from disk and builds what the chunk
// renderer expects from the link stage. A module listed by more than one chunk
// is only loaded once. Every unreadable module is reported, not just the first.
func loadLinkOutput(fsys fs.FS, manifest *Manifest) (*graph.LinkStageOutput, *graph.ChunkGraph, error) {
	link := &graph.LinkStageOutput{}
	chunkGraph := &graph.ChunkGraph{Chunks: make([]graph.Chunk, len(manifest.Chunks))}
	moduleIndices := make(map[string]graph.ModuleIdx)
	chunkIndices := make(map[string]graph.ChunkIdx, len(manifest.Chunks))
	var errs []error

	for i, chunk := range manifest.Chunks {
		chunkIndices[chunk.Name] = graph.ChunkIdx(i)
	}

	for i, manifestChunk := range manifest.Chunks {
		chunk := graph.Chunk{
			Name:                manifestChunk.Name,
			IsEntry:             manifestChunk.IsEntry,
			PreliminaryFilename: &graph.PreliminaryFilename{RelPath: manifestChunk.FileName},
		}

		for _, manifestModule := range manifestChunk.Modules {
			absPath := resolvePath(fsys, manifestModule.Path)
			idx, ok := moduleIndices[absPath]
			if !ok {
				module, ast, err := loadModule(fsys, manifestModule, absPath)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				idx = graph.ModuleIdx(len(link.Modules))
				module.Idx = idx
				moduleIndices[absPath] = idx
				link.Modules = append(link.Modules, module)
				link.ASTs = append(link.ASTs, ast)
			}
			chunk.Modules = append(chunk.Modules, idx)
		}

		for _, imp := range manifestChunk.Imports {
			chunkImport := graph.ChunkImport{Chunk: chunkIndices[imp.Chunk]}
			for _, binding := range imp.Bindings {
				local := binding.Local
				if local == "" {
					local = binding.Imported
				}
				chunkImport.Bindings = append(chunkImport.Bindings, graph.ImportBinding{Imported: binding.Imported, Local: local})
			}
			chunk.Imports = append(chunk.Imports, chunkImport)
		}

		for _, export := range manifestChunk.Exports {
			exported := export.Exported
			if exported == "" {
				exported = export.Local
			}
			chunk.Exports = append(chunk.Exports, graph.ExportBinding{Local: export.Local, Exported: exported})
		}

		chunkGraph.Chunks[i] = chunk
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return link, chunkGraph, nil
}

func loadModule(fsys fs.FS, manifestModule ManifestModule, absPath string) (graph.Module, graph.AST, error) {
	code, err := fsys.ReadFile(absPath)
	if err != nil {
		return graph.Module{}, graph.AST{}, fmt.Errorf("could not read module %q: %w", absPath, err)
	}

	module := graph.Module{
		PrettyPath:       prettyPath(fsys, absPath),
		ResourcePath:     absPath,
		OriginalContents: code,
	}
	module.ID = manifestModule.ID
	if module.ID == "" {
		module.ID = module.PrettyPath
	}

	if manifestModule.Original != "" {
		originalPath := resolvePath(fsys, manifestModule.Original)
		if module.OriginalContents, err = fsys.ReadFile(originalPath); err != nil {
			return graph.Module{}, graph.AST{}, fmt.Errorf("could not read original source %q: %w", originalPath, err)
		}
	}

	if manifestModule.Map != "" {
		mapPath := resolvePath(fsys, manifestModule.Map)
		contents, err := fsys.ReadFile(mapPath)
		if err != nil {
			return graph.Module{}, graph.AST{}, fmt.Errorf("could not read source map %q: %w", mapPath, err)
		}
		if module.InputSourceMap, err = sourcemap.Parse([]byte(contents)); err != nil {
			return graph.Module{}, graph.AST{}, fmt.Errorf("could not parse source map %q: %w", mapPath, err)
		}
	}

	return module, graph.AST{Code: code, IsEmpty: manifestModule.Empty}, nil
}

// Paths in comments are relative to the working directory when possible and
// always use forward slashes
func prettyPath(fsys fs.FS, absPath string) string {
	path := absPath
	if relPath, ok := fsys.Rel(fsys.Cwd(), absPath); ok {
		path = relPath
	}
	return strings.ReplaceAll(path, "\\", "/")
}
