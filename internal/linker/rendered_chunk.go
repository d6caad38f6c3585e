package linker

import (
	"maps"
	"slices"
	"sort"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/graph"
)

// GenerateRenderedChunk snapshots what hooks are allowed to see about a chunk
// once its modules have been rendered
func GenerateRenderedChunk(
	chunk *graph.Chunk,
	link *graph.LinkStageOutput,
	options *config.Options,
	renderedModules map[string]graph.RenderedModule,
	moduleIDs []string,
) graph.RenderedChunk {
	exports := make([]string, 0, len(chunk.Exports))
	for _, export := range chunk.Exports {
		name := export.Exported
		if name == "" {
			name = export.Local
		}
		exports = append(exports, name)
	}
	sort.Strings(exports)

	return graph.RenderedChunk{
		Name:      chunk.Name,
		FileName:  chunk.PreliminaryFilename.RelPath,
		IsEntry:   chunk.IsEntry,
		Modules:   renderedModules,
		ModuleIDs: moduleIDs,
		Exports:   exports,
	}
}

// Every hook gets its own copy so that nothing it does to the copy shows up in
// the rendered chunk that is returned, or in what the next hook sees
func cloneRenderedChunk(chunk *graph.RenderedChunk) *graph.RenderedChunk {
	clone := *chunk
	clone.Modules = maps.Clone(chunk.Modules)
	clone.ModuleIDs = slices.Clone(chunk.ModuleIDs)
	clone.Exports = slices.Clone(chunk.Exports)
	return &clone
}
