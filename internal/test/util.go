package test

import (
	"testing"

	"github.com/kazupon/rolldown/internal/sourcemap"
)

// AssertEqualWithDiff fails with a readable diff when two multi-line outputs
// differ
func AssertEqualWithDiff(t *testing.T, observed string, expected string) {
	t.Helper()
	if observed != expected {
		t.Fatalf("output differs (-expected +observed):\n%s", Diff(expected, observed, false))
	}
}

// LineMap maps the first column of each listed generated line to the same
// line in source 0
func LineMap(source string, lines ...int32) *sourcemap.SourceMap {
	sm := &sourcemap.SourceMap{Sources: []string{source}}
	for _, line := range lines {
		sm.Mappings = append(sm.Mappings, sourcemap.Mapping{GeneratedLine: line, OriginalLine: line})
	}
	return sm
}
