package helpers

import "strings"

// This provides an efficient way to join lots of big strings together. It
// measures exactly how big the result will be and then allocates once, which
// matters when a chunk is made of thousands of module bodies.
type Joiner struct {
	strings  []string
	length   int
	lastByte byte
}

func (j *Joiner) AddString(data string) {
	if len(data) == 0 {
		return
	}
	j.lastByte = data[len(data)-1]
	j.strings = append(j.strings, data)
	j.length += len(data)
}

func (j *Joiner) LastByte() byte {
	return j.lastByte
}

func (j *Joiner) Length() int {
	return j.length
}

func (j *Joiner) EnsureNewlineAtEnd() {
	if j.length > 0 && j.lastByte != '\n' {
		j.AddString("\n")
	}
}

func (j *Joiner) Done() string {
	// No need to allocate if there was only a single string written
	if len(j.strings) == 1 {
		return j.strings[0]
	}
	sb := strings.Builder{}
	sb.Grow(j.length)
	for _, s := range j.strings {
		sb.WriteString(s)
	}
	return sb.String()
}
