package linker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/fs"
	"github.com/kazupon/rolldown/internal/graph"
	"github.com/kazupon/rolldown/internal/logger"
	"github.com/kazupon/rolldown/internal/sourcemap"
	"github.com/kazupon/rolldown/internal/test"
)

type testModule struct {
	path     string
	code     string
	original string
	inputMap *sourcemap.SourceMap
	isEmpty  bool
}

// Module paths are relative to "/project"
func makeLinkOutput(fsys fs.FS, modules ...testModule) *graph.LinkStageOutput {
	link := &graph.LinkStageOutput{}
	for i, m := range modules {
		original := m.original
		if original == "" {
			original = m.code
		}
		link.Modules = append(link.Modules, graph.Module{
			Idx:              graph.ModuleIdx(i),
			ID:               m.path,
			PrettyPath:       m.path,
			ResourcePath:     fsys.Join("/project", m.path),
			OriginalContents: original,
			InputSourceMap:   m.inputMap,
		})
		link.ASTs = append(link.ASTs, graph.AST{Code: m.code, IsEmpty: m.isEmpty})
	}
	return link
}

func makeChunk(fileName string, moduleCount int) *graph.Chunk {
	chunk := &graph.Chunk{Name: "main", IsEntry: true}
	if fileName != "" {
		chunk.PreliminaryFilename = &graph.PreliminaryFilename{RelPath: fileName}
	}
	for i := 0; i < moduleCount; i++ {
		chunk.Modules = append(chunk.Modules, graph.ModuleIdx(i))
	}
	return chunk
}

func makeOptions(fsys fs.FS, sourceMap config.SourceMap) *config.Options {
	return &config.Options{
		Cwd:       fsys.Cwd(),
		Dir:       "dist",
		SourceMap: sourceMap,
		FS:        fsys,
	}
}

func quietRenderer() *ChunkRenderer {
	return &ChunkRenderer{Log: logger.Discard()}
}

func TestRenderChunkPlacement(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys,
		testModule{path: "src/a.js", code: "const a = 1;"},
		testModule{path: "src/b.js", code: "const b = 2;\n"},
	)
	chunk := makeChunk("main.js", 2)
	chunk.Imports = []graph.ChunkImport{{Chunk: 1, Bindings: []graph.ImportBinding{
		{Imported: "x", Local: "x"},
		{Imported: "y", Local: "z"},
	}}}
	chunk.Exports = []graph.ExportBinding{
		{Local: "a", Exported: "a"},
		{Local: "b", Exported: "default"},
	}
	chunkGraph := &graph.ChunkGraph{Chunks: []graph.Chunk{*chunk, *makeChunk("shared.js", 0)}}

	options := makeOptions(fsys, config.SourceMapNone)
	options.Banner = config.StaticAddon("/* banner */")
	options.Footer = config.StaticAddon("/* footer */")

	result, err := quietRenderer().RenderChunk(context.Background(), chunk, options, link, chunkGraph)
	require.NoError(t, err)
	assert.Nil(t, result.Map)
	test.AssertEqualWithDiff(t, result.Code, `/* banner */
import { x, y as z } from "./shared.js";
// src/a.js
const a = 1;
// src/b.js
const b = 2;
export { a, b as default };
/* footer */
`)

	assert.Equal(t, "main.js", result.RenderedChunk.FileName)
	assert.Equal(t, []string{"src/a.js", "src/b.js"}, result.RenderedChunk.ModuleIDs)
	assert.Equal(t, []string{"a", "default"}, result.RenderedChunk.Exports)
	assert.Equal(t, graph.RenderedModule{RenderedLength: 12, OriginalLength: 12}, result.RenderedChunk.Modules["src/a.js"])
}

func TestRenderChunkWithoutAddons(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})
	chunk := makeChunk("main.js", 1)

	result, err := quietRenderer().RenderChunk(context.Background(), chunk, makeOptions(fsys, config.SourceMapNone), link, &graph.ChunkGraph{})
	require.NoError(t, err)
	test.AssertEqualWithDiff(t, result.Code, "// src/a.js\na()\n")
}

func TestRenderChunkEmptyChunk(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	chunk := makeChunk("main.js", 0)

	result, err := quietRenderer().RenderChunk(context.Background(), chunk, makeOptions(fsys, config.SourceMapLinkedWithComment), &graph.LinkStageOutput{}, &graph.ChunkGraph{})
	require.NoError(t, err)
	assert.Equal(t, "", result.Code)
	assert.Nil(t, result.Map)
	assert.Empty(t, result.RenderedChunk.ModuleIDs)
}

func TestRenderChunkSkipsEmptyModules(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys,
		testModule{path: "src/shaken.js", code: "unused()", isEmpty: true},
		testModule{path: "src/kept.js", code: "kept()"},
		testModule{path: "src/blank.js", code: ""},
	)
	chunk := makeChunk("main.js", 3)

	result, err := quietRenderer().RenderChunk(context.Background(), chunk, makeOptions(fsys, config.SourceMapLinkedWithComment), link, &graph.ChunkGraph{})
	require.NoError(t, err)
	test.AssertEqualWithDiff(t, result.Code, "// src/kept.js\nkept()\n")
	assert.Equal(t, []string{"src/kept.js"}, result.RenderedChunk.ModuleIDs)
	assert.Len(t, result.RenderedChunk.Modules, 1)
	assert.NotContains(t, result.RenderedChunk.Modules, "src/shaken.js")
	require.NotNil(t, result.Map)
	assert.Equal(t, []string{"../src/kept.js"}, result.Map.Sources)
}

func TestRenderChunkOrderIsDeterministic(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	var modules []testModule
	for i := 0; i < 32; i++ {
		modules = append(modules, testModule{path: fmt.Sprintf("src/m%02d.js", i), code: fmt.Sprintf("m%02d()", i)})
	}
	link := makeLinkOutput(fsys, modules...)
	chunk := makeChunk("main.js", len(modules))
	options := makeOptions(fsys, config.SourceMapLinkedWithComment)
	options.Concurrency = 8

	// Finish in a random order that is different every run
	r := quietRenderer()
	r.RenderModule = func(module *graph.Module, ast *graph.AST, absPath string, options *config.Options) (graph.ModuleRenderOutput, bool) {
		time.Sleep(time.Duration(rand.Intn(2000)) * time.Microsecond)
		return DefaultModuleRenderer(module, ast, absPath, options)
	}

	expected := bytes.Buffer{}
	for _, m := range modules {
		fmt.Fprintf(&expected, "// %s\n%s\n", m.path, m.code)
	}

	var first ChunkRenderReturn
	for run := 0; run < 5; run++ {
		result, err := r.RenderChunk(context.Background(), chunk, options, link, &graph.ChunkGraph{})
		require.NoError(t, err)
		test.AssertEqualWithDiff(t, result.Code, expected.String())
		if run == 0 {
			first = result
			continue
		}
		assert.Equal(t, first.Map, result.Map)
		assert.Equal(t, first.RenderedChunk, result.RenderedChunk)
	}
}

func TestRenderChunkSourceMapPresence(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	inputMap := test.LineMap("a.ts", 0)
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()", inputMap: inputMap})
	chunk := makeChunk("main.js", 1)

	t.Run("Disabled", func(t *testing.T) {
		result, err := quietRenderer().RenderChunk(context.Background(), chunk, makeOptions(fsys, config.SourceMapNone), link, &graph.ChunkGraph{})
		require.NoError(t, err)
		assert.Nil(t, result.Map)
	})

	t.Run("Enabled", func(t *testing.T) {
		result, err := quietRenderer().RenderChunk(context.Background(), chunk, makeOptions(fsys, config.SourceMapExternalWithoutComment), link, &graph.ChunkGraph{})
		require.NoError(t, err)
		require.NotNil(t, result.Map)
		assert.Equal(t, []string{"../src/a.ts"}, result.Map.Sources)
	})

	t.Run("OnlyRawSegments", func(t *testing.T) {
		r := quietRenderer()
		r.RenderModule = func(module *graph.Module, ast *graph.AST, absPath string, options *config.Options) (graph.ModuleRenderOutput, bool) {
			output, ok := DefaultModuleRenderer(module, ast, absPath, options)
			output.SourceMap = nil
			return output, ok
		}
		result, err := r.RenderChunk(context.Background(), chunk, makeOptions(fsys, config.SourceMapLinkedWithComment), link, &graph.ChunkGraph{})
		require.NoError(t, err)
		assert.Nil(t, result.Map)
		assert.Equal(t, "// src/a.js\na()\n", result.Code)
	})
}

func TestRenderChunkSourceMapOffsets(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys,
		testModule{path: "src/a.js", code: "a1\na2\n", inputMap: test.LineMap("a.ts", 0, 1)},
		testModule{path: "src/b.js", code: "b1"},
	)
	chunk := makeChunk("main.js", 2)
	options := makeOptions(fsys, config.SourceMapLinkedWithComment)
	options.Banner = config.StaticAddon("/* one */\n/* two */")

	result, err := quietRenderer().RenderChunk(context.Background(), chunk, options, link, &graph.ChunkGraph{})
	require.NoError(t, err)
	test.AssertEqualWithDiff(t, result.Code, "/* one */\n/* two */\n// src/a.js\na1\na2\n// src/b.js\nb1\n")

	sm := result.Map
	require.NotNil(t, sm)
	assert.Equal(t, []string{"../src/a.ts", "../src/b.js"}, sm.Sources)
	assert.Equal(t, []sourcemap.SourceContent{{}, {Quoted: `"b1"`}}, sm.SourcesContent)

	for _, line := range []int32{0, 1, 2, 5} {
		assert.Nil(t, sm.Find(line, 0), "line %d", line)
	}

	expected := map[int32][2]int32{
		3: {0, 0},
		4: {0, 1},
		6: {1, 0},
	}
	for line, original := range expected {
		mapping := sm.Find(line, 0)
		require.NotNil(t, mapping, "line %d", line)
		assert.Equal(t, original[0], mapping.SourceIndex, "line %d", line)
		assert.Equal(t, original[1], mapping.OriginalLine, "line %d", line)
	}
}

func TestRenderChunkDoesNotMutateInputSourceMap(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	inputMap := test.LineMap("a.ts", 0)
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()", inputMap: inputMap})

	for _, fileName := range []string{"main.js", "nested/main.js"} {
		_, err := quietRenderer().RenderChunk(context.Background(), makeChunk(fileName, 1), makeOptions(fsys, config.SourceMapLinkedWithComment), link, &graph.ChunkGraph{})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a.ts"}, inputMap.Sources)
	assert.Equal(t, int32(0), inputMap.Mappings[0].GeneratedLine)
}

func TestRenderChunkRelativizesSources(t *testing.T) {
	t.Run("Unix", func(t *testing.T) {
		fsys := fs.MockFS(nil, fs.MockUnix, "/project")
		link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})
		options := makeOptions(fsys, config.SourceMapLinkedWithComment)
		options.Dir = "/out"

		result, err := quietRenderer().RenderChunk(context.Background(), makeChunk("chunks/main.js", 1), options, link, &graph.ChunkGraph{})
		require.NoError(t, err)
		require.NotNil(t, result.Map)
		assert.Equal(t, []string{"../../project/src/a.js"}, result.Map.Sources)
	})

	t.Run("Windows", func(t *testing.T) {
		fsys := fs.MockFS(nil, fs.MockWindows, "C:\\project")
		link := makeLinkOutput(fsys, testModule{path: "src\\a.js", code: "a()"})
		options := makeOptions(fsys, config.SourceMapLinkedWithComment)
		options.Dir = "C:\\out"

		result, err := quietRenderer().RenderChunk(context.Background(), makeChunk("chunks/main.js", 1), options, link, &graph.ChunkGraph{})
		require.NoError(t, err)
		require.NotNil(t, result.Map)
		assert.Equal(t, []string{"..\\..\\project\\src\\a.js"}, result.Map.Sources)
	})

	t.Run("InputSourceMap", func(t *testing.T) {
		fsys := fs.MockFS(nil, fs.MockUnix, "/project")
		inputMap := &sourcemap.SourceMap{
			Sources:    []string{"a.ts", "webpack://app/b.ts", "/abs/c.ts"},
			SourceRoot: "../lib/",
			Mappings: []sourcemap.Mapping{
				{GeneratedLine: 0, SourceIndex: 0},
				{GeneratedLine: 0, GeneratedColumn: 2, SourceIndex: 1},
				{GeneratedLine: 0, GeneratedColumn: 4, SourceIndex: 2},
			},
		}
		urlRootMap := &sourcemap.SourceMap{
			Sources:    []string{"d.ts", "nested/e.ts"},
			SourceRoot: "webpack://app",
			Mappings: []sourcemap.Mapping{
				{GeneratedLine: 0, SourceIndex: 0},
				{GeneratedLine: 0, GeneratedColumn: 2, SourceIndex: 1},
			},
		}
		link := makeLinkOutput(fsys,
			testModule{path: "src/a.js", code: "a()", inputMap: inputMap},
			testModule{path: "src/d.js", code: "d()", inputMap: urlRootMap},
		)

		result, err := quietRenderer().RenderChunk(context.Background(), makeChunk("main.js", 2), makeOptions(fsys, config.SourceMapLinkedWithComment), link, &graph.ChunkGraph{})
		require.NoError(t, err)
		require.NotNil(t, result.Map)
		assert.Equal(t, []string{
			"../lib/a.ts",
			"webpack://app/b.ts",
			"../../abs/c.ts",
			"webpack://app/d.ts",
			"webpack://app/nested/e.ts",
		}, result.Map.Sources)
		assert.Len(t, result.Map.Mappings, 5)
	})
}

func TestRenderChunkPanicsWithoutFilename(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})

	var calls int32
	r := quietRenderer()
	r.RenderModule = func(module *graph.Module, ast *graph.AST, absPath string, options *config.Options) (graph.ModuleRenderOutput, bool) {
		atomic.AddInt32(&calls, 1)
		return DefaultModuleRenderer(module, ast, absPath, options)
	}

	assert.PanicsWithValue(t, "Internal error: chunk file name should be generated before rendering", func() {
		_, _ = r.RenderChunk(context.Background(), makeChunk("", 1), makeOptions(fsys, config.SourceMapNone), link, &graph.ChunkGraph{})
	})
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRenderChunkPanicsWithoutParentDirectory(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/")
	link := makeLinkOutput(fsys, testModule{path: "a.js", code: "a()"})
	options := makeOptions(fsys, config.SourceMapLinkedWithComment)
	options.Dir = "/"

	assert.Panics(t, func() {
		_, _ = quietRenderer().RenderChunk(context.Background(), makeChunk("/", 1), options, link, &graph.ChunkGraph{})
	})
}

func TestRenderChunkHookErrors(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})
	errHook := errors.New("hook failed")
	failing := config.AddonHookFunc(func(context.Context, *graph.RenderedChunk) (string, bool, error) {
		return "", false, errHook
	})

	for _, phase := range []RenderPhase{PhaseBanner, PhaseFooter} {
		t.Run(phase.String(), func(t *testing.T) {
			options := makeOptions(fsys, config.SourceMapNone)
			if phase == PhaseBanner {
				options.Banner = failing
			} else {
				options.Footer = failing
			}

			result, err := quietRenderer().RenderChunk(context.Background(), makeChunk("main.js", 1), options, link, &graph.ChunkGraph{})
			require.Error(t, err)
			assert.Equal(t, ChunkRenderReturn{}, result)
			assert.ErrorIs(t, err, errHook)

			var renderErr *ChunkRenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, "main.js", renderErr.Chunk)
			assert.Equal(t, phase, renderErr.Phase)
			assert.Contains(t, err.Error(), phase.String())
		})
	}
}

func TestRenderChunkHooksSeeRenderedChunk(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys,
		testModule{path: "src/a.js", code: "a()"},
		testModule{path: "src/b.js", code: "b()"},
	)
	options := makeOptions(fsys, config.SourceMapNone)
	options.Banner = config.AddonHookFunc(func(_ context.Context, chunk *graph.RenderedChunk) (string, bool, error) {
		return fmt.Sprintf("/* %s: %d modules */", chunk.FileName, len(chunk.ModuleIDs)), true, nil
	})
	options.Footer = config.AddonHookFunc(func(context.Context, *graph.RenderedChunk) (string, bool, error) {
		return "", false, nil
	})

	result, err := quietRenderer().RenderChunk(context.Background(), makeChunk("main.js", 2), options, link, &graph.ChunkGraph{})
	require.NoError(t, err)
	test.AssertEqualWithDiff(t, result.Code, "/* main.js: 2 modules */\n// src/a.js\na()\n// src/b.js\nb()\n")
}

func TestRenderChunkHooksCannotChangeRenderedChunk(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys,
		testModule{path: "src/a.js", code: "a()"},
		testModule{path: "src/b.js", code: "b()"},
	)
	chunk := makeChunk("main.js", 2)
	chunk.Exports = []graph.ExportBinding{{Local: "a", Exported: "a"}}

	options := makeOptions(fsys, config.SourceMapNone)
	options.Banner = config.AddonHookFunc(func(_ context.Context, c *graph.RenderedChunk) (string, bool, error) {
		delete(c.Modules, "src/a.js")
		c.ModuleIDs[0] = "changed.js"
		c.Exports[0] = "changed"
		c.FileName = "changed.js"
		return "", false, nil
	})
	var footerSaw graph.RenderedChunk
	options.Footer = config.AddonHookFunc(func(_ context.Context, c *graph.RenderedChunk) (string, bool, error) {
		footerSaw = *c
		c.Modules["src/c.js"] = graph.RenderedModule{}
		c.ModuleIDs = append(c.ModuleIDs, "src/c.js")
		return "", false, nil
	})

	result, err := quietRenderer().RenderChunk(context.Background(), chunk, options, link, &graph.ChunkGraph{})
	require.NoError(t, err)

	expected := graph.RenderedChunk{
		Name:     "main",
		FileName: "main.js",
		IsEntry:  true,
		Modules: map[string]graph.RenderedModule{
			"src/a.js": {RenderedLength: 3, OriginalLength: 3},
			"src/b.js": {RenderedLength: 3, OriginalLength: 3},
		},
		ModuleIDs: []string{"src/a.js", "src/b.js"},
		Exports:   []string{"a"},
	}
	assert.Equal(t, expected, result.RenderedChunk)
	assert.Equal(t, "main.js", footerSaw.FileName)
	assert.Equal(t, []string{"src/a.js", "src/b.js"}, footerSaw.ModuleIDs)
	assert.Equal(t, []string{"a"}, footerSaw.Exports)
}

func TestRenderChunkRecoversModulePanic(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})
	r := quietRenderer()
	r.RenderModule = func(*graph.Module, *graph.AST, string, *config.Options) (graph.ModuleRenderOutput, bool) {
		panic("boom")
	}

	_, err := r.RenderChunk(context.Background(), makeChunk("main.js", 1), makeOptions(fsys, config.SourceMapNone), link, &graph.ChunkGraph{})
	require.Error(t, err)
	var renderErr *ChunkRenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, PhaseRenderModules, renderErr.Phase)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "src/a.js")
}

func TestRenderChunkCanceled(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietRenderer().RenderChunk(ctx, makeChunk("main.js", 1), makeOptions(fsys, config.SourceMapNone), link, &graph.ChunkGraph{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderChunkDebugLogging(t *testing.T) {
	fsys := fs.MockFS(nil, fs.MockUnix, "/project")
	link := makeLinkOutput(fsys, testModule{path: "src/a.js", code: "a()"})
	buf := bytes.Buffer{}

	r := &ChunkRenderer{Log: logger.New(&buf, log.DebugLevel, logger.TerminalInfo{})}
	_, err := r.RenderChunk(context.Background(), makeChunk("main.js", 1), makeOptions(fsys, config.SourceMapNone), link, &graph.ChunkGraph{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "rendered chunk")
	assert.Contains(t, buf.String(), "chunk=main.js")
	assert.Contains(t, buf.String(), "Render modules")
}

func TestEscapeNewlinesInComment(t *testing.T) {
	assert.Equal(t, "a\\nb\\rc\\u2028d\\u2029e", escapeNewlinesInComment("a\nb\rc\u2028d\u2029e"))
	assert.Equal(t, "src/a.js", escapeNewlinesInComment("src/a.js"))
}
