package linker

import (
	"path/filepath"
	"strings"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/graph"
	"github.com/kazupon/rolldown/internal/helpers"
)

// DefaultImportsRenderer writes one ESM import statement per chunk that this
// chunk depends on, in the order the link stage recorded them. Namespace
// imports can't be combined with named imports so each gets its own
// statement.
func DefaultImportsRenderer(chunk *graph.Chunk, link *graph.LinkStageOutput, chunkGraph *graph.ChunkGraph) string {
	if len(chunk.Imports) == 0 {
		return ""
	}

	fromRelPath := chunk.PreliminaryFilename.RelPath
	sb := strings.Builder{}

	for _, imp := range chunk.Imports {
		other := &chunkGraph.Chunks[imp.Chunk]
		if other.PreliminaryFilename == nil {
			panic("Internal error: imported chunk file name should be generated before rendering")
		}
		importPath := helpers.QuoteForJSON(importPathBetweenChunks(fromRelPath, other.PreliminaryFilename.RelPath), false)

		var items []string
		for _, binding := range imp.Bindings {
			if binding.Imported == "*" {
				sb.WriteString("import * as ")
				sb.WriteString(binding.Local)
				sb.WriteString(" from ")
				sb.Write(importPath)
				sb.WriteString(";\n")
				continue
			}
			items = append(items, aliasClause(binding.Imported, binding.Local))
		}

		switch {
		case len(items) > 0:
			sb.WriteString("import { ")
			sb.WriteString(strings.Join(items, ", "))
			sb.WriteString(" } from ")
			sb.Write(importPath)
			sb.WriteString(";\n")

		case len(imp.Bindings) == 0:
			// Only imported for its side effects
			sb.WriteString("import ")
			sb.Write(importPath)
			sb.WriteString(";\n")
		}
	}

	return sb.String()
}

// DefaultExportsRenderer writes a single export clause for the chunk, or
// nothing if the chunk has no exports
func DefaultExportsRenderer(chunk *graph.Chunk, link *graph.LinkStageOutput, options *config.Options) (string, bool) {
	if len(chunk.Exports) == 0 {
		return "", false
	}

	items := make([]string, len(chunk.Exports))
	for i, export := range chunk.Exports {
		items[i] = aliasClause(export.Local, export.Exported)
	}
	return "export { " + strings.Join(items, ", ") + " };", true
}

func aliasClause(name string, alias string) string {
	if alias == "" || alias == name {
		return name
	}
	return name + " as " + alias
}

// Both paths are relative to the output directory and use forward slashes.
// The result always starts with "./" or "../" so that it isn't mistaken for a
// package name.
func importPathBetweenChunks(fromRelPath string, toRelPath string) string {
	fromRelDir := filepath.Dir(filepath.FromSlash(fromRelPath))
	relPath, err := filepath.Rel(fromRelDir, filepath.FromSlash(toRelPath))
	if err != nil {
		relPath = toRelPath
	}

	// Make sure to always use forward slashes, even on Windows
	relPath = filepath.ToSlash(relPath)

	if !strings.HasPrefix(relPath, "./") && !strings.HasPrefix(relPath, "../") {
		relPath = "./" + relPath
	}
	return relPath
}
