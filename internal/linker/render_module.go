package linker

import (
	"strings"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/graph"
	"github.com/kazupon/rolldown/internal/helpers"
	"github.com/kazupon/rolldown/internal/sourcemap"
)

// DefaultModuleRenderer emits the code that the link stage printed for the
// module. Modules that tree shaking emptied out produce nothing.
//
// When source maps are enabled the module's own input source map is passed
// through. A module without one gets a line-level identity map back to its
// file instead, so that every module in the chunk is covered by the chunk's
// map.
func DefaultModuleRenderer(module *graph.Module, ast *graph.AST, absPath string, options *config.Options) (graph.ModuleRenderOutput, bool) {
	if ast.IsEmpty || ast.Code == "" {
		return graph.ModuleRenderOutput{}, false
	}

	output := graph.ModuleRenderOutput{
		ModulePath:       module.ID,
		ModulePrettyPath: module.PrettyPath,
		RenderedContent:  ast.Code,
		LinesCount:       sourcemap.CountLines(ast.Code),
		RenderedModule: graph.RenderedModule{
			RenderedLength: len(ast.Code),
			OriginalLength: len(module.OriginalContents),
		},
	}

	if options.SourceMap != config.SourceMapNone {
		if module.InputSourceMap != nil {
			output.SourceMap = cloneInputSourceMap(module.InputSourceMap, absPath, options)
		} else {
			output.SourceMap = identitySourceMap(ast.Code, module.OriginalContents, absPath, options)
		}
	}

	return output, true
}

// The input map is shared with the module and may be used by other chunks, so
// the parts that get rewritten are copied. Relative sources in it are relative
// to the module's file and are made absolute here. They become relative to the
// chunk again after concatenation.
func cloneInputSourceMap(input *sourcemap.SourceMap, absPath string, options *config.Options) *sourcemap.SourceMap {
	fsys := options.FS
	dir := fsys.Dir(absPath)

	sources := make([]string, len(input.Sources))
	for i, source := range input.Sources {
		switch {
		case isURL(source) || fsys.IsAbs(source):

		// A URL root makes every source a URL, which is never relativized
		case isURL(input.SourceRoot):
			root := input.SourceRoot
			if !strings.HasSuffix(root, "/") {
				root += "/"
			}
			source = root + source

		default:
			source = fsys.Join(dir, input.SourceRoot, source)
		}
		sources[i] = source
	}

	clone := &sourcemap.SourceMap{
		Sources:  sources,
		Mappings: input.Mappings,
		Names:    input.Names,
	}
	if !options.ExcludeSourcesContent {
		clone.SourcesContent = input.SourcesContent
	}
	return clone
}

func identitySourceMap(code string, originalContents string, absPath string, options *config.Options) *sourcemap.SourceMap {
	sm := &sourcemap.SourceMap{
		Sources: []string{absPath},
	}
	if !options.ExcludeSourcesContent {
		sm.SourcesContent = []sourcemap.SourceContent{{Quoted: string(helpers.QuoteForJSON(originalContents, false))}}
	}

	// One mapping at the start of every non-empty line
	line := int32(0)
	lineIsEmpty := true
	for i, c := range code {
		switch c {
		case '\r', '\n', '\u2028', '\u2029':
			if c == '\r' && i+1 < len(code) && code[i+1] == '\n' {
				continue
			}
			line++
			lineIsEmpty = true

		default:
			if lineIsEmpty {
				sm.Mappings = append(sm.Mappings, sourcemap.Mapping{
					GeneratedLine: line,
					OriginalLine:  line,
				})
				lineIsEmpty = false
			}
		}
	}
	return sm
}

// Sources like "webpack://app/a.js" or "data:..." are not file paths
func isURL(source string) bool {
	if strings.HasPrefix(source, "data:") {
		return true
	}
	for i := 0; i+2 < len(source); i++ {
		if source[i] == ':' {
			return source[i+1] == '/' && source[i+2] == '/'
		}
		if source[i] == '/' {
			return false
		}
	}
	return false
}
