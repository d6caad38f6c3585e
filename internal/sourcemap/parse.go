package sourcemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

type jsonSourceMap struct {
	Version        int               `json:"version"`
	Sources        []*string         `json:"sources"`
	SourcesContent []json.RawMessage `json:"sourcesContent"`
	Names          []string          `json:"names"`
	Mappings       string            `json:"mappings"`
	SourceRoot     string            `json:"sourceRoot"`
	Sections       json.RawMessage   `json:"sections"`
}

// Parse decodes a version 3 source map. A map without any sources or
// mappings is returned as nil with no error, since it maps nothing.
//
// Specification: https://sourcemaps.info/spec.html
func Parse(contents []byte) (*SourceMap, error) {
	var raw jsonSourceMap
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("invalid source map: %w", err)
	}
	if raw.Sections != nil {
		return nil, errors.New("source maps with \"sections\" are not supported")
	}
	if raw.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", raw.Version)
	}

	// Silently ignore the source map if it's pointless (i.e. empty)
	if len(raw.Sources) == 0 || len(raw.Mappings) == 0 {
		return nil, nil
	}

	sources := make([]string, len(raw.Sources))
	for i, source := range raw.Sources {
		if source != nil {
			sources[i] = *source
		}
	}

	var sourcesContent []SourceContent
	if len(raw.SourcesContent) > 0 {
		sourcesContent = make([]SourceContent, len(sources))
		for i, item := range raw.SourcesContent {
			if i >= len(sources) {
				break
			}
			var value *string
			if err := json.Unmarshal(item, &value); err == nil && value != nil {
				sourcesContent[i] = SourceContent{Quoted: string(item)}
			}
		}
	}

	mappings, err := decodeMappings(raw.Mappings, len(sources), len(raw.Names))
	if err != nil {
		return nil, err
	}

	return &SourceMap{
		Sources:        sources,
		SourcesContent: sourcesContent,
		Mappings:       mappings,
		Names:          raw.Names,
		SourceRoot:     raw.SourceRoot,
	}, nil
}

func decodeMappings(mappingsRaw string, sourcesLen int, namesLen int) ([]Mapping, error) {
	var mappings mappingArray
	mappingsLen := len(mappingsRaw)
	generatedLine := 0
	generatedColumn := 0
	sourceIndex := 0
	originalLine := 0
	originalColumn := 0
	originalName := 0
	current := 0
	needSort := false

	fail := func(text string) ([]Mapping, error) {
		return nil, fmt.Errorf("bad \"mappings\" data in source map at character %d: %s", current, text)
	}

	for current < mappingsLen {
		// Handle a line break
		if mappingsRaw[current] == ';' {
			generatedLine++
			generatedColumn = 0
			current++
			continue
		}

		// Read the generated column
		generatedColumnDelta, i, ok := decodeVLQ(mappingsRaw[current:])
		if !ok {
			return fail("Missing generated column")
		}
		if generatedColumnDelta < 0 {
			// This would mess up binary search
			needSort = true
		}
		generatedColumn += generatedColumnDelta
		if generatedColumn < 0 {
			return fail(fmt.Sprintf("Invalid generated column value: %d", generatedColumn))
		}
		current += i

		// According to the specification, it's valid for a mapping to have 1,
		// 4, or 5 variable-length fields. Having one field means there's no
		// original location information, which is pretty useless. Just ignore
		// those entries.
		if current == mappingsLen {
			break
		}
		switch mappingsRaw[current] {
		case ',':
			current++
			continue
		case ';':
			continue
		}

		// Read the original source
		sourceIndexDelta, i, ok := decodeVLQ(mappingsRaw[current:])
		if !ok {
			return fail("Missing source index")
		}
		sourceIndex += sourceIndexDelta
		if sourceIndex < 0 || sourceIndex >= sourcesLen {
			return fail(fmt.Sprintf("Invalid source index value: %d", sourceIndex))
		}
		current += i

		// Read the original line
		originalLineDelta, i, ok := decodeVLQ(mappingsRaw[current:])
		if !ok {
			return fail("Missing original line")
		}
		originalLine += originalLineDelta
		if originalLine < 0 {
			return fail(fmt.Sprintf("Invalid original line value: %d", originalLine))
		}
		current += i

		// Read the original column
		originalColumnDelta, i, ok := decodeVLQ(mappingsRaw[current:])
		if !ok {
			return fail("Missing original column")
		}
		originalColumn += originalColumnDelta
		if originalColumn < 0 {
			return fail(fmt.Sprintf("Invalid original column value: %d", originalColumn))
		}
		current += i

		// Read the optional original name
		var name Index32
		if originalNameDelta, i, ok := decodeVLQ(mappingsRaw[current:]); ok {
			originalName += originalNameDelta
			if originalName < 0 || originalName >= namesLen {
				return fail(fmt.Sprintf("Invalid name index value: %d", originalName))
			}
			name = MakeIndex32(uint32(originalName))
			current += i
		}

		// Handle the next character
		if current < mappingsLen {
			if c := mappingsRaw[current]; c == ',' {
				current++
			} else if c != ';' {
				return fail(fmt.Sprintf("Invalid character after mapping: %q", mappingsRaw[current:current+1]))
			}
		}

		mappings = append(mappings, Mapping{
			GeneratedLine:   int32(generatedLine),
			GeneratedColumn: int32(generatedColumn),
			SourceIndex:     int32(sourceIndex),
			OriginalLine:    int32(originalLine),
			OriginalColumn:  int32(originalColumn),
			OriginalName:    name,
		})
	}

	if needSort {
		// If we get here, some mappings are out of order. Lines can't be out of
		// order by construction but columns can. This is a pretty rare situation
		// because almost all source map generators always write out mappings in
		// order as they write the output instead of scrambling the order.
		sort.Stable(mappings)
	}

	return mappings, nil
}
