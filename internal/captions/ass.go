package captions

import (
	"fmt"
	"strings"
	"time"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// RenderASS renders cues as an ASS document with karaoke word highlighting,
// sized for the 1080x1920 output frame.
func RenderASS(cues []types.CaptionCue) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range cues {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(cue.Start))
		b.WriteString(",")
		b.WriteString(assTime(cue.End))
		b.WriteString(",Short,,0,0,0,,")
		writeKaraoke(&b, cue)
		b.WriteString("\n")
	}
	return b.String()
}

// writeKaraoke emits \k tags whose centisecond durations cover the cue.
// A lead-in gap before the first token becomes an untexted \k so highlight
// timing stays aligned with speech.
func writeKaraoke(b *strings.Builder, cue types.CaptionCue) {
	cursor := cue.Start
	for i, tok := range cue.Tokens {
		if gap := tok.Start - cursor; gap >= 10*time.Millisecond {
			fmt.Fprintf(b, "{\\k%d}", centis(gap))
		}
		fmt.Fprintf(b, "{\\k%d}%s", centis(tok.End-tok.Start), sanitizeASS(tok.Text))
		if i < len(cue.Tokens)-1 {
			b.WriteString(" ")
		}
		cursor = tok.End
	}
}

func centis(d time.Duration) int {
	cs := int(d / (10 * time.Millisecond))
	if cs < 1 {
		cs = 1
	}
	return cs
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Short, Inter, 72, &H00FFFFFF, &H0000D2FF, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 70,70,300,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
