package sourcemap

import (
	"github.com/kazupon/rolldown/internal/helpers"
)

type EncodeOptions struct {
	// The name of the generated file, written as the "file" field
	File string

	ExcludeSourcesContent bool
	ASCIIOnly             bool
}

// Encode serializes the map as a version 3 source map JSON document
func (sm *SourceMap) Encode(options EncodeOptions) []byte {
	j := helpers.Joiner{}
	j.AddString("{\n  \"version\": 3")

	if options.File != "" {
		j.AddString(",\n  \"file\": ")
		j.AddString(string(helpers.QuoteForJSON(options.File, options.ASCIIOnly)))
	}

	// Write the sources
	j.AddString(",\n  \"sources\": [")
	for i, source := range sm.Sources {
		if i != 0 {
			j.AddString(", ")
		}
		j.AddString(string(helpers.QuoteForJSON(source, options.ASCIIOnly)))
	}
	j.AddString("]")

	if sm.SourceRoot != "" {
		j.AddString(",\n  \"sourceRoot\": ")
		j.AddString(string(helpers.QuoteForJSON(sm.SourceRoot, options.ASCIIOnly)))
	}

	// Write the sourcesContent
	if !options.ExcludeSourcesContent && sm.hasSourcesContent() {
		j.AddString(",\n  \"sourcesContent\": [")
		for i := range sm.Sources {
			if i != 0 {
				j.AddString(", ")
			}
			if i < len(sm.SourcesContent) && sm.SourcesContent[i].Quoted != "" {
				j.AddString(sm.SourcesContent[i].Quoted)
			} else {
				j.AddString("null")
			}
		}
		j.AddString("]")
	}

	// Write the mappings
	j.AddString(",\n  \"mappings\": \"")
	j.AddString(string(sm.EncodeMappings()))
	j.AddString("\"")

	// Write the names
	j.AddString(",\n  \"names\": [")
	for i, name := range sm.Names {
		if i != 0 {
			j.AddString(", ")
		}
		j.AddString(string(helpers.QuoteForJSON(name, options.ASCIIOnly)))
	}
	j.AddString("]")

	// Finish the source map
	j.AddString("\n}\n")
	return []byte(j.Done())
}

func (sm *SourceMap) hasSourcesContent() bool {
	for _, content := range sm.SourcesContent {
		if content.Quoted != "" {
			return true
		}
	}
	return false
}

// EncodeMappings returns the "mappings" field. Mappings must already be
// ordered by generated position, which holds for anything built by Parse
// or ConcatSource.
func (sm *SourceMap) EncodeMappings() []byte {
	var buffer []byte
	var prev Mapping
	prevName := 0
	line := int32(0)
	isFirstOnLine := true

	for _, m := range sm.Mappings {
		// Record the generated line using ';' characters
		for line < m.GeneratedLine {
			buffer = append(buffer, ';')
			line++
			prev.GeneratedColumn = 0
			isFirstOnLine = true
		}

		// Put commas in between mappings
		if !isFirstOnLine {
			buffer = append(buffer, ',')
		}
		isFirstOnLine = false

		buffer = encodeVLQ(buffer, int(m.GeneratedColumn-prev.GeneratedColumn))
		buffer = encodeVLQ(buffer, int(m.SourceIndex-prev.SourceIndex))
		buffer = encodeVLQ(buffer, int(m.OriginalLine-prev.OriginalLine))
		buffer = encodeVLQ(buffer, int(m.OriginalColumn-prev.OriginalColumn))

		// Record the optional original name
		if m.OriginalName.IsValid() {
			name := int(m.OriginalName.GetIndex())
			buffer = encodeVLQ(buffer, name-prevName)
			prevName = name
		}

		prev = m
	}

	return buffer
}
