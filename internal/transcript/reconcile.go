// Package transcript reconciles candidate caption sources into one
// authoritative transcript and handles romanization of non-Latin scripts.
package transcript

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// ErrNoSource means no caption source of any origin was available.
var ErrNoSource = errors.New("no caption source available")

// RawSource is one candidate caption input prior to reconciliation.
type RawSource struct {
	Origin types.Origin
	// Path names the caption file; its extension picks the parser.
	Path    string
	Content string
	// Segments carries pre-parsed segments (speech-recognition output).
	// When set, Content is ignored.
	Segments []types.Segment
}

// Reconcile merges candidate sources into one transcript. The highest
// priority source with usable segments wins outright; lower-priority
// sources are never consulted once a winner exists.
func Reconcile(sources []RawSource) (types.Transcript, error) {
	byOrigin := map[types.Origin][]RawSource{}
	for _, s := range sources {
		byOrigin[s.Origin] = append(byOrigin[s.Origin], s)
	}

	for _, origin := range []types.Origin{types.OriginManual, types.OriginAuto, types.OriginGenerated} {
		for _, src := range byOrigin[origin] {
			segments, err := sourceSegments(src)
			if err != nil {
				return types.Transcript{}, fmt.Errorf("reconcile %s source: %w", origin, err)
			}
			segments = normalize(segments)
			if len(segments) == 0 {
				continue
			}
			tr := types.Transcript{
				Segments: segments,
				Origin:   origin,
				Script:   detectScript(segments),
			}
			return tr, nil
		}
	}
	return types.Transcript{}, ErrNoSource
}

func sourceSegments(src RawSource) ([]types.Segment, error) {
	if len(src.Segments) > 0 {
		return src.Segments, nil
	}
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".vtt":
		return ParseVTT(src.Content)
	case ".srt", "":
		return ParseSRT(src.Content)
	default:
		return nil, fmt.Errorf("unsupported caption format %q", filepath.Ext(src.Path))
	}
}

// normalize sorts segments by start, drops invalid or empty ones, and clips
// overlaps so the result is strictly non-overlapping.
func normalize(in []types.Segment) []types.Segment {
	out := make([]types.Segment, 0, len(in))
	for _, s := range in {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" || s.End <= s.Start || s.Start < 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].End < out[j].End
		}
		return out[i].Start < out[j].Start
	})

	clipped := out[:0]
	var prevEnd float64
	for _, s := range out {
		if s.Start < prevEnd {
			s.Start = prevEnd
			if s.End <= s.Start {
				continue
			}
			s.Words = clipWords(s.Words, s.Start, s.End)
		}
		prevEnd = s.End
		clipped = append(clipped, s)
	}
	return clipped
}

func clipWords(words []types.Word, start, end float64) []types.Word {
	if len(words) == 0 {
		return nil
	}
	out := make([]types.Word, 0, len(words))
	for _, w := range words {
		if w.End <= start || w.Start >= end {
			continue
		}
		if w.Start < start {
			w.Start = start
		}
		if w.End > end {
			w.End = end
		}
		out = append(out, w)
	}
	return out
}

// nonLatinThreshold mirrors the 30% script-character ratio the platform
// captions were historically checked against.
const nonLatinThreshold = 0.3

func detectScript(segments []types.Segment) types.Script {
	var letters, nonLatin int
	for _, s := range segments {
		for _, r := range s.Text {
			if !unicode.IsLetter(r) {
				continue
			}
			letters++
			if unicode.In(r, unicode.Devanagari, unicode.Arabic) {
				nonLatin++
			}
		}
	}
	if letters == 0 {
		return types.ScriptLatin
	}
	if float64(nonLatin)/float64(letters) > nonLatinThreshold {
		return types.ScriptNonLatin
	}
	return types.ScriptLatin
}
