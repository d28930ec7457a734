// Package ytdlp adapts the yt-dlp CLI to the SourceProvider port. Local
// file paths bypass the download entirely.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mahmedraza1/Clipify/internal/ports"
	"github.com/mahmedraza1/Clipify/internal/types"
)

type Adapter struct {
	bin      string
	subLangs string
}

func New(binPath, subLangs string) *Adapter {
	if subLangs == "" {
		subLangs = "en.*,hi,ur"
	}
	return &Adapter{bin: binPath, subLangs: subLangs}
}

// Fetch downloads the source video plus any platform captions into
// destDir. A source that is already a file on disk is returned as-is,
// with caption files of the same base name picked up alongside it.
// Missing captions are not an error.
func (a *Adapter) Fetch(ctx context.Context, source, destDir string) (ports.Acquisition, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return localAcquisition(source)
	}

	target := filepath.Join(destDir, "video.mp4")
	args := []string{
		"--no-playlist",
		"--merge-output-format", "mp4",
		"--write-subs",
		"--sub-langs", a.subLangs,
		"--convert-subs", "srt",
		"-o", target,
		source,
	}
	if b, err := exec.CommandContext(ctx, a.bin, args...).CombinedOutput(); err != nil {
		return ports.Acquisition{}, fmt.Errorf("yt-dlp failed: %w\n%s", err, string(b))
	}
	if _, err := os.Stat(target); err != nil {
		return ports.Acquisition{}, fmt.Errorf("yt-dlp produced no video at %s: %w", target, err)
	}

	captions, err := captionFiles(destDir, types.OriginManual)
	if err != nil {
		return ports.Acquisition{}, err
	}
	if len(captions) == 0 {
		// Second pass, subtitle-only. yt-dlp names manual and
		// auto-generated tracks identically, so the passes stay
		// separate to keep the origin tag honest.
		autoArgs := []string{
			"--no-playlist",
			"--skip-download",
			"--write-auto-subs",
			"--sub-langs", a.subLangs,
			"--convert-subs", "srt",
			"-o", target,
			source,
		}
		if b, err := exec.CommandContext(ctx, a.bin, autoArgs...).CombinedOutput(); err != nil {
			return ports.Acquisition{}, fmt.Errorf("yt-dlp auto subtitles failed: %w\n%s", err, string(b))
		}
		if captions, err = captionFiles(destDir, types.OriginAuto); err != nil {
			return ports.Acquisition{}, err
		}
	}

	return ports.Acquisition{VideoPath: target, Captions: captions}, nil
}

func localAcquisition(videoPath string) (ports.Acquisition, error) {
	abs, err := filepath.Abs(videoPath)
	if err != nil {
		return ports.Acquisition{}, err
	}
	captions, err := siblingCaptions(abs)
	if err != nil {
		return ports.Acquisition{}, err
	}
	return ports.Acquisition{VideoPath: abs, Captions: captions}, nil
}

// siblingCaptions finds caption files next to a local video that share
// its base name, e.g. talk.mp4 + talk.en.srt. They are tagged manual:
// somebody put them there on purpose.
func siblingCaptions(videoPath string) ([]ports.CaptionFile, error) {
	dir := filepath.Dir(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []ports.CaptionFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isCaptionExt(name) || !strings.HasPrefix(name, base+".") {
			continue
		}
		out = append(out, ports.CaptionFile{
			Origin: types.OriginManual,
			Path:   filepath.Join(dir, name),
		})
	}
	sortCaptions(out)
	return out, nil
}

func captionFiles(dir string, origin types.Origin) ([]ports.CaptionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []ports.CaptionFile
	for _, e := range entries {
		if e.IsDir() || !isCaptionExt(e.Name()) {
			continue
		}
		out = append(out, ports.CaptionFile{
			Origin: origin,
			Path:   filepath.Join(dir, e.Name()),
		})
	}
	sortCaptions(out)
	return out, nil
}

func isCaptionExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".srt", ".vtt":
		return true
	}
	return false
}

func sortCaptions(files []ports.CaptionFile) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
