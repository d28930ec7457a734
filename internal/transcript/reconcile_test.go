package transcript

import (
	"errors"
	"testing"

	"github.com/mahmedraza1/Clipify/internal/types"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello there

2
00:00:04,500 --> 00:00:06,200
General Kenobi
`

const sampleVTT = `WEBVTT

00:00:00.160 --> 00:00:02.350
<c>Auto generated line</c>

00:00:02.350 --> 00:00:05.000 align:start
Second line
`

func TestReconcile_PriorityOrder(t *testing.T) {
	t.Parallel()

	sources := []RawSource{
		{Origin: types.OriginGenerated, Segments: []types.Segment{{Start: 0, End: 1, Text: "asr"}}},
		{Origin: types.OriginAuto, Path: "captions.vtt", Content: sampleVTT},
		{Origin: types.OriginManual, Path: "captions.srt", Content: sampleSRT},
	}
	tr, err := Reconcile(sources)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if tr.Origin != types.OriginManual {
		t.Fatalf("expected manual source to win, got %s", tr.Origin)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(tr.Segments))
	}
	if tr.Segments[0].Text != "Hello there" {
		t.Fatalf("unexpected first segment text: %q", tr.Segments[0].Text)
	}
}

func TestReconcile_FallsThroughEmptyHigherPriority(t *testing.T) {
	t.Parallel()

	sources := []RawSource{
		{Origin: types.OriginManual, Path: "captions.srt", Content: "   "},
		{Origin: types.OriginAuto, Path: "captions.vtt", Content: sampleVTT},
	}
	tr, err := Reconcile(sources)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if tr.Origin != types.OriginAuto {
		t.Fatalf("expected auto source, got %s", tr.Origin)
	}
	if tr.Segments[0].Text != "Auto generated line" {
		t.Fatalf("vtt tags not stripped: %q", tr.Segments[0].Text)
	}
}

func TestReconcile_NoSource(t *testing.T) {
	t.Parallel()

	_, err := Reconcile(nil)
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestNormalize_OrderedNonOverlapping(t *testing.T) {
	t.Parallel()

	in := []types.Segment{
		{Start: 5, End: 9, Text: "b"},
		{Start: 0, End: 6, Text: "a"},
		{Start: 8, End: 8, Text: "zero length"},
		{Start: 10, End: 9, Text: "inverted"},
		{Start: 8.5, End: 12, Text: "c"},
	}
	out := normalize(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(out))
	}
	var prevEnd float64
	for i, s := range out {
		if s.Start < prevEnd {
			t.Fatalf("segment %d overlaps previous: start %v < prev end %v", i, s.Start, prevEnd)
		}
		if s.End <= s.Start {
			t.Fatalf("segment %d not positive: [%v,%v]", i, s.Start, s.End)
		}
		prevEnd = s.End
	}
}

func TestDetectScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want types.Script
	}{
		{"english", "plain english text", types.ScriptLatin},
		{"hindi", "यह एक परीक्षण है", types.ScriptNonLatin},
		{"urdu", "یہ ایک امتحان ہے", types.ScriptNonLatin},
		{"mostly english", "hello world ok नहीं", types.ScriptLatin},
		{"empty", "1234 !!", types.ScriptLatin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectScript([]types.Segment{{Start: 0, End: 1, Text: tt.text}})
			if got != tt.want {
				t.Fatalf("detectScript(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseVTT_ShortCueTimes(t *testing.T) {
	t.Parallel()

	content := "WEBVTT\n\n00:05.000 --> 00:10.500\nno hours field\n\n01:00:01.000 --> 01:00:02.000\nwith hours\n"
	segs, err := ParseVTT(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segs), segs)
	}
	if segs[0].Start != 5 || segs[0].End != 10.5 {
		t.Fatalf("short cue time misparsed: %+v", segs[0])
	}
	if segs[1].Start != 3601 {
		t.Fatalf("long cue time misparsed: %+v", segs[1])
	}
}

func TestParseSRT_SkipsBrokenBlocks(t *testing.T) {
	t.Parallel()

	content := "1\nnot a timestamp\ntext\n\n2\n00:00:01,000 --> 00:00:02,000\nok\n"
	segs, err := ParseSRT(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "ok" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}
