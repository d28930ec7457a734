// Package whispercpp adapts the whisper.cpp CLI to the SpeechRecognizer
// port.
package whispercpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mahmedraza1/Clipify/internal/types"
)

// ErrNoModel means none of the configured model files exist.
var ErrNoModel = errors.New("no whisper model available")

type Adapter struct {
	bin      string
	modelDir string
	// models is the fixed priority list; the first file present wins.
	models []string
}

func New(binPath, modelDir string, models []string) *Adapter {
	return &Adapter{bin: binPath, modelDir: modelDir, models: models}
}

// SelectModel walks the priority list and returns the first model file
// present on disk.
func (a *Adapter) SelectModel() (string, error) {
	return selectModel(os.Stat, a.modelDir, a.models)
}

func selectModel(stat func(string) (fs.FileInfo, error), dir string, models []string) (string, error) {
	for _, name := range models {
		path := filepath.Join(dir, name)
		if _, err := stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: none of %v found in %s", ErrNoModel, models, dir)
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.Segment, error) {
	model, err := a.SelectModel()
	if err != nil {
		return nil, err
	}

	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-ml", "1",
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	return decodeOutput(jb)
}

func decodeOutput(jb []byte) ([]types.Segment, error) {
	var out struct {
		Segments []types.Segment `json:"segments"`
	}
	if err := json.Unmarshal(jb, &out); err != nil {
		return nil, fmt.Errorf("decode whisper output: %w", err)
	}
	for i := range out.Segments {
		out.Segments[i].Text = strings.TrimSpace(out.Segments[i].Text)
		for j := range out.Segments[i].Words {
			out.Segments[i].Words[j].Word = strings.TrimSpace(out.Segments[i].Words[j].Word)
		}
	}
	return out.Segments, nil
}
