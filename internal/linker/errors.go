package linker

import "fmt"

type RenderPhase uint8

const (
	PhaseRenderModules RenderPhase = iota
	PhaseBanner
	PhaseFooter
)

func (p RenderPhase) String() string {
	switch p {
	case PhaseRenderModules:
		return "render modules"
	case PhaseBanner:
		return "banner"
	case PhaseFooter:
		return "footer"
	}
	return "unknown"
}

// ChunkRenderError is returned when any step of rendering a chunk fails. No
// partial output is produced for that chunk.
type ChunkRenderError struct {
	Chunk string
	Phase RenderPhase
	Err   error
}

func (e *ChunkRenderError) Error() string {
	return fmt.Sprintf("failed to render chunk %q (%s): %v", e.Chunk, e.Phase, e.Err)
}

func (e *ChunkRenderError) Unwrap() error {
	return e.Err
}
