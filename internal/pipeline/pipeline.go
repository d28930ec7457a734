// Package pipeline wires configuration and adapters into one runnable
// pipeline invocation.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/mahmedraza1/Clipify/internal/config"
	"github.com/mahmedraza1/Clipify/internal/highlights"
	"github.com/mahmedraza1/Clipify/internal/ports"
	"github.com/mahmedraza1/Clipify/internal/ports/adapters/ffmpeg"
	"github.com/mahmedraza1/Clipify/internal/ports/adapters/openrouter"
	"github.com/mahmedraza1/Clipify/internal/ports/adapters/whispercpp"
	"github.com/mahmedraza1/Clipify/internal/ports/adapters/ytdlp"
	"github.com/mahmedraza1/Clipify/internal/runstate"
	"github.com/mahmedraza1/Clipify/internal/usecase"
)

// RunKey derives the stable identity for a source. The same source always
// maps to the same workspace directories and ledger row.
func RunKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:12]
}

// Run executes the pipeline for one source under the configured
// workspace. Only one invocation may process a given source at a time;
// a held lock is an immediate error, not a wait.
func Run(ctx context.Context, cfg *config.Config, log *slog.Logger, source string) (usecase.Result, error) {
	if err := openrouter.ValidateBaseURL(cfg.OpenRouter.BaseURL, cfg.OpenRouter.AllowedHosts); err != nil {
		return usecase.Result{}, err
	}

	runKey := RunKey(source)
	log = log.With("run_key", runKey)
	log.Info("starting pipeline", "source", source)

	if err := cfg.EnsureRunDirectories(runKey); err != nil {
		return usecase.Result{}, err
	}

	release, err := runstate.AcquireLock(cfg.Paths.Workspace, runKey)
	if err != nil {
		return usecase.Result{}, fmt.Errorf("source already being processed: %w", err)
	}
	defer release()

	store, err := runstate.Open(cfg.Paths.Workspace)
	if err != nil {
		return usecase.Result{}, err
	}
	defer store.Close()

	uc := usecase.New(usecase.Deps{
		Source:  ytdlp.New(cfg.Tools.YtDlp, ""),
		ASR:     whispercpp.New(cfg.Whisper.Bin, cfg.Whisper.ModelDir, cfg.Whisper.Models),
		Scorer:  openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouter.Model, cfg.OpenRouter.BaseURL),
		Encoder: ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe),
		Store:   store,
		Log:     log,
	})

	res, err := uc.Run(ctx, usecase.Input{
		RunKey:         runKey,
		Source:         source,
		AcquisitionDir: cfg.AcquisitionPath(runKey),
		TranscriptDir:  cfg.TranscriptPath(runKey),
		OutputDir:      cfg.OutputPath(runKey),
		Window: highlights.Bounds{
			Min:     time.Duration(cfg.Window.MinSeconds) * time.Second,
			Max:     time.Duration(cfg.Window.MaxSeconds) * time.Second,
			Default: time.Duration(cfg.Window.DefaultSeconds) * time.Second,
		},
	})
	if err != nil {
		return usecase.Result{}, err
	}
	log.Info("pipeline complete", "status", res.Manifest.Status, "clip", res.Manifest.Clip)
	return res, nil
}

// RunStatus is one run's ledger view for the status command.
type RunStatus struct {
	Run    runstate.Run
	Stages []runstate.StageRecord
}

// Status reads the ledger for a source without touching the lock.
func Status(ctx context.Context, cfg *config.Config, source string) (RunStatus, error) {
	store, err := runstate.Open(cfg.Paths.Workspace)
	if err != nil {
		return RunStatus{}, err
	}
	defer store.Close()

	runKey := RunKey(source)
	run, err := store.Lookup(ctx, runKey)
	if err != nil {
		return RunStatus{}, err
	}
	stages, err := store.Stages(ctx, runKey)
	if err != nil {
		return RunStatus{}, err
	}
	return RunStatus{Run: run, Stages: stages}, nil
}

// ensure adapters implement ports
var _ ports.SourceProvider = (*ytdlp.Adapter)(nil)
var _ ports.SpeechRecognizer = (*whispercpp.Adapter)(nil)
var _ ports.Scorer = (*openrouter.Adapter)(nil)
var _ ports.EncodeEngine = (*ffmpeg.Adapter)(nil)
