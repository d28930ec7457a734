package types

import "time"

// Origin identifies which caption source won reconciliation.
type Origin string

const (
	// OriginManual is a caption track authored by a human.
	OriginManual Origin = "manual"
	// OriginAuto is a platform-generated caption track.
	OriginAuto Origin = "auto"
	// OriginGenerated is speech-recognition output produced by this pipeline.
	OriginGenerated Origin = "generated"
)

// Script classifies the dominant writing system of a transcript.
type Script string

const (
	ScriptLatin    Script = "latin"
	ScriptNonLatin Script = "non-latin"
)

// Transcript is the reconciled caption record for one source video.
// It is immutable once reconciliation completes; downstream stages read it
// by reference and never mutate it.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Origin   Origin    `json:"origin"`
	Script   Script    `json:"script"`
}

// Duration returns the end time of the last segment.
func (t Transcript) Duration() time.Duration {
	if len(t.Segments) == 0 {
		return 0
	}
	return dur(t.Segments[len(t.Segments)-1].End)
}

// Text joins all segment text with single spaces.
func (t Transcript) Text() string {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, s := range t.Segments {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// HighlightWindow is the validated sub-interval selected for the short clip.
type HighlightWindow struct {
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
	Rationale string        `json:"rationale"`
}

func (w HighlightWindow) Duration() time.Duration { return w.End - w.Start }

// Suggestion is the raw, untrusted response from the semantic scorer.
// Timestamps are in the scorer's native HH:MM:SS format and must be
// validated before use.
type Suggestion struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

// CropRect is a crop rectangle in source pixel coordinates.
type CropRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// GeometryPlan describes how the source frame is cropped and scaled into
// the 9:16 target.
type GeometryPlan struct {
	SourceWidth  int      `json:"source_width"`
	SourceHeight int      `json:"source_height"`
	Crop         CropRect `json:"crop"`
	TargetWidth  int      `json:"target_width"`
	TargetHeight int      `json:"target_height"`
}

// CodecFamily is one encoder path the render stage may use.
type CodecFamily string

const (
	FamilyNVENC    CodecFamily = "nvenc"
	FamilyQSV      CodecFamily = "qsv"
	FamilySoftware CodecFamily = "software"
)

// EncodePlan is a single candidate encode path. Plans are attempted in
// list order; the first success wins, each attempted at most twice.
type EncodePlan struct {
	Family      CodecFamily `json:"family"`
	Encoder     string      `json:"encoder"`
	ThreadCount int         `json:"thread_count"`
	ExtraArgs   []string    `json:"extra_args,omitempty"`
}

// CaptionCue is one renderable overlay unit, in window-relative time.
type CaptionCue struct {
	Start  time.Duration `json:"start"`
	End    time.Duration `json:"end"`
	Tokens []CueToken    `json:"tokens"`
}

// CueToken is one highlight sub-interval inside a cue.
type CueToken struct {
	Text  string        `json:"text"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Manifest is the persisted record of a completed run.
type Manifest struct {
	RunID         string  `json:"run_id"`
	Source        string  `json:"source"`
	Origin        Origin  `json:"origin"`
	WindowStart   float64 `json:"window_start_sec"`
	WindowEnd     float64 `json:"window_end_sec"`
	Rationale     string  `json:"rationale,omitempty"`
	EncoderFamily string  `json:"encoder_family"`
	Clip          string  `json:"clip"`
	CaptionedClip string  `json:"captioned_clip,omitempty"`
	Status        string  `json:"status"`
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
