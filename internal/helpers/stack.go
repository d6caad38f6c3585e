package helpers

import (
	"runtime"
	"strconv"
	"strings"
)

const maxStackDepth = 64

// PrettyPrintedStack describes the calling goroutine's stack with one frame
// per line, as "package.Function (dir/file.go:line)". Frames inside the Go
// runtime, such as the ones a panic unwinds through, are left out.
func PrettyPrintedStack() string {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	sb := strings.Builder{}

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !isRuntimeFunction(frame.Function) {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(lastPathElements(frame.Function, 1))
			sb.WriteString(" (")
			sb.WriteString(lastPathElements(frame.File, 2))
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(frame.Line))
			sb.WriteByte(')')
		}
		if !more {
			break
		}
	}

	return sb.String()
}

func isRuntimeFunction(name string) bool {
	return strings.HasPrefix(name, "runtime.") || strings.HasPrefix(name, "internal/runtime/")
}

// Keeps the last "count" elements of a slash-separated path
func lastPathElements(path string, count int) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			count--
			if count == 0 {
				return path[i+1:]
			}
		}
	}
	return path
}
