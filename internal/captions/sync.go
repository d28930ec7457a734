// Package captions maps the reconciled transcript onto the selected
// highlight window and renders the overlay subtitle document.
package captions

import (
	"strings"
	"time"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// maxWordsPerCue bounds cue length for readability on vertical layouts
// when a segment has no word timing and must be split by even division.
const maxWordsPerCue = 5

// Synchronize restricts the transcript to the window, re-bases all times to
// window-relative offsets, and clips anything straddling a boundary. The
// returned cues are strictly ordered and non-overlapping.
func Synchronize(tr types.Transcript, window types.HighlightWindow) []types.CaptionCue {
	span := window.End - window.Start
	if span <= 0 {
		return nil
	}

	var cues []types.CaptionCue
	for _, seg := range tr.Segments {
		segStart := dur(seg.Start)
		segEnd := dur(seg.End)
		if segEnd <= window.Start || segStart >= window.End {
			continue
		}

		dispStart := clampDur(segStart-window.Start, 0, span)
		dispEnd := clampDur(segEnd-window.Start, 0, span)
		if dispEnd <= dispStart {
			continue
		}

		if len(seg.Words) > 0 {
			if cue, ok := wordCue(seg, window, dispStart, dispEnd); ok {
				cues = append(cues, cue)
			}
			continue
		}
		cues = append(cues, splitCues(seg.Text, dispStart, dispEnd)...)
	}

	return dedupeOverlaps(cues)
}

// wordCue builds a cue whose tokens are the segment's word timings clipped
// to the window.
func wordCue(seg types.Segment, window types.HighlightWindow, dispStart, dispEnd time.Duration) (types.CaptionCue, bool) {
	cue := types.CaptionCue{Start: dispStart, End: dispEnd}
	for _, w := range seg.Words {
		ws := dur(w.Start)
		we := dur(w.End)
		if we <= window.Start || ws >= window.End {
			continue
		}
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		cue.Tokens = append(cue.Tokens, types.CueToken{
			Text:  text,
			Start: clampDur(ws-window.Start, dispStart, dispEnd),
			End:   clampDur(we-window.Start, dispStart, dispEnd),
		})
	}
	if len(cue.Tokens) == 0 {
		// word list was entirely outside the window; degrade to one token
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			return types.CaptionCue{}, false
		}
		cue.Tokens = []types.CueToken{{Text: text, Start: dispStart, End: dispEnd}}
	}
	return cue, true
}

// splitCues divides untimed segment text into short cues with evenly
// divided display time. Each cue is a single highlighted unit.
func splitCues(text string, start, end time.Duration) []types.CaptionCue {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	total := end - start

	var out []types.CaptionCue
	for i := 0; i < len(words); i += maxWordsPerCue {
		j := i + maxWordsPerCue
		if j > len(words) {
			j = len(words)
		}
		cueStart := start + total*time.Duration(i)/time.Duration(len(words))
		cueEnd := start + total*time.Duration(j)/time.Duration(len(words))
		if cueEnd <= cueStart {
			continue
		}
		chunk := strings.Join(words[i:j], " ")
		out = append(out, types.CaptionCue{
			Start:  cueStart,
			End:    cueEnd,
			Tokens: []types.CueToken{{Text: chunk, Start: cueStart, End: cueEnd}},
		})
	}
	return out
}

// dedupeOverlaps enforces strict ordering: a cue starting before the
// previous one ends is trimmed forward, and dropped if nothing remains.
func dedupeOverlaps(cues []types.CaptionCue) []types.CaptionCue {
	out := cues[:0]
	var prevEnd time.Duration
	for _, c := range cues {
		if c.Start < prevEnd {
			c.Start = prevEnd
			if c.End <= c.Start {
				continue
			}
			c.Tokens = trimTokens(c.Tokens, c.Start, c.End)
			if len(c.Tokens) == 0 {
				continue
			}
		}
		prevEnd = c.End
		out = append(out, c)
	}
	return out
}

func trimTokens(tokens []types.CueToken, start, end time.Duration) []types.CueToken {
	out := make([]types.CueToken, 0, len(tokens))
	for _, t := range tokens {
		if t.End <= start || t.Start >= end {
			continue
		}
		t.Start = clampDur(t.Start, start, end)
		t.End = clampDur(t.End, start, end)
		if t.End > t.Start {
			out = append(out, t)
		}
	}
	return out
}

func clampDur(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
