// Package ffmpeg adapts the ffmpeg/ffprobe binaries to the EncodeEngine
// port.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mahmedraza1/Clipify/internal/geometry"
	"github.com/mahmedraza1/Clipify/internal/ports"
	"github.com/mahmedraza1/Clipify/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeVideo(ctx context.Context, inPath string) (ports.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "default=noprint_wrappers=1",
		inPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("ffprobe %s: %w\n%s", inPath, err, string(b))
	}
	return parseProbeOutput(string(b))
}

func parseProbeOutput(out string) (ports.VideoInfo, error) {
	var info ports.VideoInfo
	for _, line := range strings.Split(out, "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			info.Width, _ = strconv.Atoi(val)
		case "height":
			info.Height, _ = strconv.Atoi(val)
		case "duration":
			sec, err := strconv.ParseFloat(val, 64)
			if err == nil {
				info.Duration = time.Duration(sec * float64(time.Second))
			}
		}
	}
	if info.Width <= 0 || info.Height <= 0 {
		return ports.VideoInfo{}, fmt.Errorf("ffprobe returned no video stream dimensions: %q", out)
	}
	return info, nil
}

// probeEncoderTimeout bounds a synthetic probe; a hung driver should not
// stall the whole run.
const probeEncoderTimeout = 20 * time.Second

func (a *Adapter) ProbeEncoder(ctx context.Context, family types.CodecFamily) geometry.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, probeEncoderTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-hide_banner",
		"-f", "lavfi",
		"-i", "testsrc2=duration=0.2:size=256x256:rate=30",
		"-c:v", encoderFor(family),
		"-f", "null", "-",
	)
	err := cmd.Run()
	return geometry.ProbeResult{Family: family, OK: err == nil}
}

func encoderFor(family types.CodecFamily) string {
	switch family {
	case types.FamilyNVENC:
		return "h264_nvenc"
	case types.FamilyQSV:
		return "h264_qsv"
	default:
		return "libx264"
	}
}

func (a *Adapter) ExtractAudio(ctx context.Context, inPath, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) RenderClip(ctx context.Context, inPath string, window types.HighlightWindow, filterSpec string, plan types.EncodePlan, outPath string) error {
	args := renderArgs(inPath, window, filterSpec, plan, outPath)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip (%s): %w\n%s", plan.Encoder, err, string(b))
	}
	return nil
}

func renderArgs(inPath string, window types.HighlightWindow, filterSpec string, plan types.EncodePlan, outPath string) []string {
	args := []string{
		"-y",
		"-ss", fmtSeconds(window.Start),
		"-to", fmtSeconds(window.End),
		"-i", inPath,
	}
	if filterSpec != "" {
		args = append(args, "-vf", filterSpec)
	}
	args = append(args, "-c:v", plan.Encoder)
	args = append(args, plan.ExtraArgs...)
	args = append(args,
		"-threads", strconv.Itoa(plan.ThreadCount),
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	)
	return args
}

func (a *Adapter) BurnCaptions(ctx context.Context, inPath, assPath, outPath string, plan types.EncodePlan) error {
	args := []string{
		"-y",
		"-i", inPath,
		"-vf", "subtitles=" + escapeFilterPath(assPath),
		"-c:v", plan.Encoder,
	}
	args = append(args, plan.ExtraArgs...)
	args = append(args,
		"-threads", strconv.Itoa(plan.ThreadCount),
		"-c:a", "copy",
		outPath,
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg burn captions: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
