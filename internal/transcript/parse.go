package transcript

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mahmedraza1/Clipify/internal/types"
)

var (
	// hours are optional: WebVTT allows MM:SS.mmm cue times
	srtTimeLineRE = regexp.MustCompile(`((?:\d{1,2}:)?\d{2}:\d{2}[,.]\d{1,3})\s*-->\s*((?:\d{1,2}:)?\d{2}:\d{2}[,.]\d{1,3})`)
	vttTagRE      = regexp.MustCompile(`<[^>]*>`)
)

// ParseSRT parses SubRip captions into segments. Blocks without a valid
// timestamp line or without text are skipped.
func ParseSRT(content string) ([]types.Segment, error) {
	return parseCueBlocks(content, false)
}

// ParseVTT parses WebVTT captions into segments. Cue settings after the
// timestamps and inline styling tags are discarded.
func ParseVTT(content string) ([]types.Segment, error) {
	content = strings.TrimPrefix(strings.TrimPrefix(content, "\ufeff"), "WEBVTT")
	return parseCueBlocks(content, true)
}

func parseCueBlocks(content string, stripTags bool) ([]types.Segment, error) {
	var out []types.Segment
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur *types.Segment
	var textLines []string
	flush := func() {
		if cur == nil {
			return
		}
		text := strings.TrimSpace(strings.Join(textLines, " "))
		if stripTags {
			text = vttTagRE.ReplaceAllString(text, "")
			text = strings.TrimSpace(text)
		}
		if text != "" && cur.End > cur.Start {
			cur.Text = text
			out = append(out, *cur)
		}
		cur = nil
		textLines = textLines[:0]
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		if m := srtTimeLineRE.FindStringSubmatch(line); m != nil {
			flush()
			start, err := parseCueTime(m[1])
			if err != nil {
				return nil, err
			}
			end, err := parseCueTime(m[2])
			if err != nil {
				return nil, err
			}
			cur = &types.Segment{Start: start, End: end}
			continue
		}
		if cur != nil {
			textLines = append(textLines, line)
		}
		// lines before a timestamp (sequence numbers, NOTE blocks) are noise
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan captions: %w", err)
	}
	return out, nil
}

// parseCueTime handles HH:MM:SS,mmm (SRT) and HH:MM:SS.mmm (VTT); the
// hours field may be absent.
func parseCueTime(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid cue time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid cue time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid cue time %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cue time %q: %w", s, err)
	}
	return float64(h)*3600 + float64(m)*60 + sec, nil
}
