package api

import (
	"context"
	"fmt"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/fs"
	"github.com/kazupon/rolldown/internal/graph"
)

func validateSourceMap(value SourceMap) (config.SourceMap, error) {
	switch value {
	case SourceMapNone:
		return config.SourceMapNone, nil
	case SourceMapInline:
		return config.SourceMapInline, nil
	case SourceMapLinked:
		return config.SourceMapLinkedWithComment, nil
	case SourceMapExternal:
		return config.SourceMapExternalWithoutComment, nil
	default:
		return config.SourceMapNone, fmt.Errorf("invalid source map mode: %d", value)
	}
}

func validateAddon(text string, fn AddonFunc) config.AddonHook {
	if fn == nil {
		return config.StaticAddon(text)
	}
	return config.AddonHookFunc(func(ctx context.Context, chunk *graph.RenderedChunk) (string, bool, error) {
		return fn(ctx, chunkInfo(chunk))
	})
}

func validateOptions(options BuildOptions, fsys fs.FS) (config.Options, error) {
	sourceMap, err := validateSourceMap(options.Sourcemap)
	if err != nil {
		return config.Options{}, err
	}
	if options.Concurrency < 0 {
		return config.Options{}, fmt.Errorf("concurrency must not be negative: %d", options.Concurrency)
	}

	outdir := options.Outdir
	if outdir == "" {
		outdir = "dist"
	}

	return config.Options{
		Cwd:                   fsys.Cwd(),
		Dir:                   outdir,
		SourceMap:             sourceMap,
		ExcludeSourcesContent: options.SourcesContent == SourcesContentExclude,
		Concurrency:           options.Concurrency,
		Banner:                validateAddon(options.Banner, options.BannerFunc),
		Footer:                validateAddon(options.Footer, options.FooterFunc),
		FS:                    fsys,
	}, nil
}

func chunkInfo(chunk *graph.RenderedChunk) ChunkInfo {
	modules := make(map[string]ModuleInfo, len(chunk.Modules))
	for id, module := range chunk.Modules {
		modules[id] = ModuleInfo{RenderedLength: module.RenderedLength, OriginalLength: module.OriginalLength}
	}
	return ChunkInfo{
		Name:      chunk.Name,
		FileName:  chunk.FileName,
		IsEntry:   chunk.IsEntry,
		ModuleIDs: append([]string(nil), chunk.ModuleIDs...),
		Modules:   modules,
		Exports:   append([]string(nil), chunk.Exports...),
	}
}
