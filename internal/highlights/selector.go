// Package highlights validates scorer suggestions into a usable highlight
// window. An invalid suggestion never propagates: validation always
// resolves to the default window instead of failing.
package highlights

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// Bounds configures window duration limits.
type Bounds struct {
	Min     time.Duration
	Max     time.Duration
	Default time.Duration
}

// minTranscriptChars is the shortest transcript worth sending to the
// scorer; anything shorter goes straight to the default window.
const minTranscriptChars = 100

// WorthScoring reports whether the transcript has enough text to justify a
// scorer call.
func WorthScoring(tr types.Transcript) bool {
	return len(strings.TrimSpace(tr.Text())) >= minTranscriptChars
}

// Validate turns a raw scorer suggestion into a highlight window. Malformed
// timestamps, inverted ranges, and durations outside bounds all resolve to
// the default window; a structurally valid window is clamped into
// [0, total]. The rationale is carried through unvalidated either way.
func Validate(sug types.Suggestion, total time.Duration, b Bounds) types.HighlightWindow {
	start, err := ParseTimestamp(sug.Start)
	if err != nil {
		return DefaultWindow(total, b, sug.Reason)
	}
	end, err := ParseTimestamp(sug.End)
	if err != nil {
		return DefaultWindow(total, b, sug.Reason)
	}

	if start < 0 {
		start = 0
	}
	if total > 0 && end > total {
		end = total
	}
	if end <= start {
		return DefaultWindow(total, b, sug.Reason)
	}
	if d := end - start; d < b.Min || d > b.Max {
		return DefaultWindow(total, b, sug.Reason)
	}
	return types.HighlightWindow{Start: start, End: end, Rationale: sug.Reason}
}

// DefaultWindow is the fallback: the first Default seconds, clamped to the
// transcript.
func DefaultWindow(total time.Duration, b Bounds, rationale string) types.HighlightWindow {
	end := b.Default
	if total > 0 && end > total {
		end = total
	}
	return types.HighlightWindow{Start: 0, End: end, Rationale: rationale}
}

var timestampRE = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)

// ParseTimestamp parses the scorer's native HH:MM:SS format. Nothing else
// is accepted.
func ParseTimestamp(s string) (time.Duration, error) {
	m := timestampRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("timestamp %q is not HH:MM:SS", s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if min > 59 || sec > 59 {
		return 0, fmt.Errorf("timestamp %q has out-of-range components", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second, nil
}
