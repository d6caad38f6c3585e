package sourcemap

import (
	"github.com/kazupon/rolldown/internal/helpers"
)

// Source is one segment of a ConcatSource. Raw segments have no source map.
type Source interface {
	Content() string
	SourceMap() *SourceMap

	// The number of line breaks this segment occupies once it has been
	// terminated by a line break
	LinesCount() int
}

type RawSource struct {
	content    string
	linesCount int
}

func NewRawSource(content string) *RawSource {
	return &RawSource{content: content, linesCount: CountLines(content)}
}

// CountLines returns how many line breaks the text spans once it has been
// terminated by a line break. An empty text spans none.
func CountLines(content string) int {
	offset := LineColumnOffset{}
	offset.AdvanceString(content)
	if needsLineBreak(content) {
		offset.Lines++
	}
	return offset.Lines
}

func needsLineBreak(content string) bool {
	if content == "" {
		return false
	}
	last := content[len(content)-1]
	return last != '\n' && last != '\r'
}

func (s *RawSource) Content() string       { return s.content }
func (s *RawSource) SourceMap() *SourceMap { return nil }
func (s *RawSource) LinesCount() int       { return s.linesCount }

type SourceMapSource struct {
	content    string
	sourceMap  *SourceMap
	linesCount int
}

// The lines count is trusted as declared by whoever generated the content and
// its map. It is what the following segments are shifted by.
func NewSourceMapSource(content string, sourceMap *SourceMap, linesCount int) *SourceMapSource {
	return &SourceMapSource{content: content, sourceMap: sourceMap, linesCount: linesCount}
}

func (s *SourceMapSource) Content() string       { return s.content }
func (s *SourceMapSource) SourceMap() *SourceMap { return s.sourceMap }
func (s *SourceMapSource) LinesCount() int       { return s.linesCount }

// ConcatSource joins segments into one output. Segments can only be appended
// at the back or inserted at the very front, and nothing is computed until
// ContentAndSourceMap is called.
type ConcatSource struct {
	// Stored in reverse order so that prepending is an append
	prepended []Source
	sources   []Source
}

func (c *ConcatSource) AddSource(source Source) {
	c.sources = append(c.sources, source)
}

func (c *ConcatSource) AddPrependSource(source Source) {
	c.prepended = append(c.prepended, source)
}

func (c *ConcatSource) Len() int {
	return len(c.prepended) + len(c.sources)
}

func (c *ConcatSource) forEach(fn func(Source)) {
	for i := len(c.prepended) - 1; i >= 0; i-- {
		fn(c.prepended[i])
	}
	for _, source := range c.sources {
		fn(source)
	}
}

// ContentAndSourceMap joins every segment in order. Each non-empty segment is
// terminated by a line break unless it already ends with one. The returned
// map is nil unless at least one segment had a source map.
func (c *ConcatSource) ContentAndSourceMap() (string, *SourceMap) {
	j := helpers.Joiner{}
	offset := LineColumnOffset{}
	var result *SourceMap

	c.forEach(func(source Source) {
		content := source.Content()
		sourceMap := source.SourceMap()

		if sourceMap != nil {
			if result == nil {
				result = &SourceMap{}
			}
			appendShiftedSourceMap(result, sourceMap, offset)
		}

		if content == "" {
			return
		}
		j.AddString(content)
		if needsLineBreak(content) {
			j.AddString("\n")
		}

		// Every segment ends on a line break, so the next one starts at column 0
		offset.Lines += source.LinesCount()
		offset.Columns = 0
	})

	return j.Done(), result
}

// Mappings on the first line of a segment are shifted by the column where the
// previous output ended. Mappings on later lines start at column zero anyway.
func appendShiftedSourceMap(result *SourceMap, sm *SourceMap, offset LineColumnOffset) {
	sourcesOffset := int32(len(result.Sources))
	namesOffset := uint32(len(result.Names))

	// Keep "sourcesContent" parallel to "sources"
	if len(sm.SourcesContent) > 0 && len(result.SourcesContent) < len(result.Sources) {
		result.SourcesContent = append(result.SourcesContent, make([]SourceContent, len(result.Sources)-len(result.SourcesContent))...)
	}
	result.Sources = append(result.Sources, sm.Sources...)
	if len(sm.SourcesContent) > 0 || len(result.SourcesContent) > 0 {
		for i := range sm.Sources {
			var content SourceContent
			if i < len(sm.SourcesContent) {
				content = sm.SourcesContent[i]
			}
			result.SourcesContent = append(result.SourcesContent, content)
		}
	}
	result.Names = append(result.Names, sm.Names...)

	for _, m := range sm.Mappings {
		if m.GeneratedLine == 0 {
			m.GeneratedColumn += int32(offset.Columns)
		}
		m.GeneratedLine += int32(offset.Lines)
		m.SourceIndex += sourcesOffset
		if m.OriginalName.IsValid() {
			m.OriginalName = MakeIndex32(m.OriginalName.GetIndex() + namesOffset)
		}
		result.Mappings = append(result.Mappings, m)
	}
}
