package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/kazupon/rolldown/internal/fs"
	"github.com/kazupon/rolldown/internal/graph"
)

type SourceMap uint8

const (
	SourceMapNone SourceMap = iota
	SourceMapInline
	SourceMapLinkedWithComment
	SourceMapExternalWithoutComment
)

func (sm SourceMap) String() string {
	switch sm {
	case SourceMapInline:
		return "inline"
	case SourceMapLinkedWithComment:
		return "linked"
	case SourceMapExternalWithoutComment:
		return "external"
	default:
		return "none"
	}
}

func ParseSourceMap(text string) (SourceMap, error) {
	switch text {
	case "", "none", "false":
		return SourceMapNone, nil
	case "inline":
		return SourceMapInline, nil
	case "linked", "true":
		return SourceMapLinkedWithComment, nil
	case "external":
		return SourceMapExternalWithoutComment, nil
	}
	return SourceMapNone, fmt.Errorf("invalid source map mode %q (valid: none, inline, linked, external)", text)
}

// AddonHook produces banner or footer text for a chunk. Returning false means
// the chunk gets no text. It may do I/O and may fail, which fails the chunk.
type AddonHook interface {
	Call(ctx context.Context, chunk *graph.RenderedChunk) (string, bool, error)
}

type AddonHookFunc func(ctx context.Context, chunk *graph.RenderedChunk) (string, bool, error)

func (f AddonHookFunc) Call(ctx context.Context, chunk *graph.RenderedChunk) (string, bool, error) {
	return f(ctx, chunk)
}

// StaticAddon returns a hook that always yields the same text, or nil if the
// text is empty
func StaticAddon(text string) AddonHook {
	if text == "" {
		return nil
	}
	return AddonHookFunc(func(context.Context, *graph.RenderedChunk) (string, bool, error) {
		return text, true, nil
	})
}

type Options struct {
	// Absolute. Relative paths in options are resolved against it.
	Cwd string

	// The output directory, either absolute or relative to "Cwd"
	Dir string

	SourceMap             SourceMap
	ExcludeSourcesContent bool

	// The maximum number of modules rendered at once. Zero means one per CPU.
	Concurrency int

	Banner AddonHook
	Footer AddonHook

	// Path arithmetic for source map relativization, and the file system that
	// the build layer reads modules from and writes chunks to
	FS fs.FS
}

func (options *Options) MaxConcurrency() int {
	if options.Concurrency > 0 {
		return options.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// AbsOutputDir resolves "Dir" against "Cwd"
func (options *Options) AbsOutputDir() string {
	if options.FS.IsAbs(options.Dir) {
		return options.Dir
	}
	return options.FS.Join(options.Cwd, options.Dir)
}
