// Package ports declares the boundary contracts for the pipeline's
// external collaborators. The core must behave correctly when any of these
// engines is replaced.
package ports

import (
	"context"
	"time"

	"github.com/mahmedraza1/Clipify/internal/geometry"
	"github.com/mahmedraza1/Clipify/internal/types"
)

// CaptionFile is one raw caption artifact fetched alongside the video.
type CaptionFile struct {
	Origin types.Origin
	Path   string
}

// Acquisition is the source provider's result. Captions may be empty;
// absence of captions is not an error.
type Acquisition struct {
	VideoPath string
	Captions  []CaptionFile
}

// SourceProvider fetches the source video and any platform captions into
// the acquisition directory.
type SourceProvider interface {
	Fetch(ctx context.Context, source, destDir string) (Acquisition, error)
}

// SpeechRecognizer transcribes an audio file with segment-level and, when
// the engine supports it, word-level timestamps.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.Segment, error)
}

// Scorer asks the semantic collaborator for a highlight suggestion. The
// returned suggestion is raw and untrusted; validation belongs to the
// selector.
type Scorer interface {
	Suggest(ctx context.Context, transcriptText string) (types.Suggestion, error)
}

// VideoInfo is the probed source metadata.
type VideoInfo struct {
	Width    int
	Height   int
	Duration time.Duration
}

// EncodeEngine wraps the external encode binary.
type EncodeEngine interface {
	ProbeVideo(ctx context.Context, inPath string) (VideoInfo, error)
	// ProbeEncoder runs a minimal synthetic encode through one codec
	// family and reports whether the path is usable.
	ProbeEncoder(ctx context.Context, family types.CodecFamily) geometry.ProbeResult
	ExtractAudio(ctx context.Context, inPath, outWav string) error
	// RenderClip cuts the window from the source, applies the crop/scale
	// filter, and encodes with the given plan.
	RenderClip(ctx context.Context, inPath string, window types.HighlightWindow, filterSpec string, plan types.EncodePlan, outPath string) error
	// BurnCaptions re-encodes a clip with an ASS subtitle overlay.
	BurnCaptions(ctx context.Context, inPath, assPath, outPath string, plan types.EncodePlan) error
}
