package helpers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestJoiner(t *testing.T) {
	j := Joiner{}
	j.EnsureNewlineAtEnd()
	assert.Equal(t, 0, j.Length())

	j.AddString("a")
	j.AddString("")
	j.AddString("bc")
	assert.Equal(t, byte('c'), j.LastByte())
	j.EnsureNewlineAtEnd()
	j.EnsureNewlineAtEnd()
	assert.Equal(t, 4, j.Length())
	assert.Equal(t, "abc\n", j.Done())

	single := Joiner{}
	single.AddString("only")
	assert.Equal(t, "only", single.Done())
}

func TestQuoteForJSON(t *testing.T) {
	cases := map[string]string{
		"":                     `""`,
		"abc":                  `"abc"`,
		"a\"b\\c":              `"a\"b\\c"`,
		"\n\r\t\b\f":           `"\n\r\t\b\f"`,
		"\x00\x1f":             `"\u0000\u001F"`,
		"\u2028\u2029":         `"\u2028\u2029"`,
		"\uFEFF":               `"\uFEFF"`,
		"\xff":                 `"\uFFFD"`,
		"caf\u00e9 \U0001F600": "\"caf\u00e9 \U0001F600\"",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, string(QuoteForJSON(input, false)), "%q", input)
	}

	assert.Equal(t, `"caf\u00E9 \uD83D\uDE00"`, string(QuoteForJSON("caf\u00e9 \U0001F600", true)))
}

func TestTimer(t *testing.T) {
	var nilTimer *Timer
	nilTimer.Begin("a")
	nilTimer.End("a")
	nilTimer.Log(nil)

	buf := bytes.Buffer{}
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	timer := &Timer{}
	timer.Begin("outer")
	timer.Begin("inner")
	timer.End("inner")
	timer.End("outer")
	timer.Log(logger)

	out := buf.String()
	assert.Contains(t, out, "inner")
	assert.Contains(t, out, "outer")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("inner")), bytes.Index(buf.Bytes(), []byte("outer")))
}

func renderWithPanic() (stack string) {
	defer func() {
		if recover() != nil {
			stack = PrettyPrintedStack()
		}
	}()
	panic("boom")
}

func TestPrettyPrintedStack(t *testing.T) {
	stack := PrettyPrintedStack()
	first := strings.SplitN(stack, "\n", 2)[0]
	assert.True(t, strings.HasPrefix(first, "helpers.TestPrettyPrintedStack (helpers/helpers_test.go:"), first)
	assert.NotContains(t, stack, "helpers.PrettyPrintedStack (")

	stack = renderWithPanic()
	assert.Contains(t, stack, "helpers.renderWithPanic (helpers/helpers_test.go:")
	assert.Contains(t, stack, "helpers.TestPrettyPrintedStack (helpers/helpers_test.go:")
	assert.NotContains(t, stack, "runtime.")
}

func TestLastPathElements(t *testing.T) {
	assert.Equal(t, "linker.RenderChunk", lastPathElements("github.com/kazupon/rolldown/internal/linker.RenderChunk", 1))
	assert.Equal(t, "linker/render_chunk.go", lastPathElements("/src/internal/linker/render_chunk.go", 2))
	assert.Equal(t, "main.go", lastPathElements("main.go", 2))
}
