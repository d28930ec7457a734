// Package usecase drives the pipeline: acquire, reconcile, select, plan,
// render. Stages run strictly in order; a stage whose artifact already
// exists is skipped, so re-running the same source resumes where the last
// run stopped.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mahmedraza1/Clipify/internal/captions"
	"github.com/mahmedraza1/Clipify/internal/geometry"
	"github.com/mahmedraza1/Clipify/internal/highlights"
	"github.com/mahmedraza1/Clipify/internal/logging"
	"github.com/mahmedraza1/Clipify/internal/ports"
	"github.com/mahmedraza1/Clipify/internal/runstate"
	"github.com/mahmedraza1/Clipify/internal/transcript"
	"github.com/mahmedraza1/Clipify/internal/types"
)

// Ledger stage names, in execution order.
const (
	StageAcquire   = "acquiring"
	StageReconcile = "reconciling"
	StageSelect    = "selecting"
	StagePlan      = "planning"
	StageRender    = "rendering"
)

// StageOrder lists the ledger stages in execution order.
func StageOrder() []string {
	return []string{StageAcquire, StageReconcile, StageSelect, StagePlan, StageRender}
}

type Deps struct {
	Source  ports.SourceProvider
	ASR     ports.SpeechRecognizer
	Scorer  ports.Scorer
	Encoder ports.EncodeEngine
	Store   *runstate.Store
	Log     *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = logging.NewNop()
	}
	return Usecase{d: d}
}

type Input struct {
	RunKey string
	Source string

	AcquisitionDir string
	TranscriptDir  string
	OutputDir      string

	Window highlights.Bounds
}

const (
	// StatusSuccess means the captioned clip was produced.
	StatusSuccess = "success"
	// StatusDegraded means the caption overlay failed and the run kept
	// the captionless clip instead.
	StatusDegraded = "degraded"
)

type Result struct {
	Manifest types.Manifest
	// RenderErr carries the recoverable overlay failure when the run
	// completed degraded.
	RenderErr error
}

func (r Result) Degraded() bool { return r.Manifest.Status == StatusDegraded }

// Run executes the pipeline for one source video.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	run, err := u.d.Store.EnsureRun(ctx, in.RunKey, in.Source)
	if err != nil {
		return Result{}, err
	}
	log := u.d.Log.With("run_key", in.RunKey)

	// A finished run short-circuits on its manifest.
	manifestPath := filepath.Join(in.OutputDir, "manifest.json")
	if u.stageComplete(ctx, in.RunKey, StageRender, manifestPath) {
		var m types.Manifest
		if err := readJSON(manifestPath, &m); err == nil {
			log.Info("run already complete", "status", m.Status)
			return Result{Manifest: m}, nil
		}
	}

	acq, err := u.acquire(ctx, log, in)
	if err != nil {
		return Result{}, err
	}

	tr, err := u.reconcile(ctx, log, in, acq)
	if err != nil {
		return Result{}, err
	}

	// An unprobeable video yields no dimensions to plan from. The failure
	// is recorded against planning so the completed acquire row survives
	// for the next resume.
	info, err := u.d.Encoder.ProbeVideo(ctx, acq.VideoPath)
	if err != nil {
		err = fmt.Errorf("%w: probe %s: %v", ErrPlanning, acq.VideoPath, err)
		u.markFailed(ctx, in.RunKey, StagePlan, err)
		return Result{}, err
	}

	window, err := u.selectWindow(ctx, log, in, tr, info)
	if err != nil {
		return Result{}, err
	}

	geo, plans, err := u.plan(ctx, log, in, info)
	if err != nil {
		return Result{}, err
	}

	return u.render(ctx, log, in, run, acq, tr, window, geo, plans)
}

// acquire fetches the source video and raw captions, or reloads a prior
// acquisition when the stage already completed.
func (u Usecase) acquire(ctx context.Context, log *slog.Logger, in Input) (ports.Acquisition, error) {
	artifact := filepath.Join(in.AcquisitionDir, "acquisition.json")
	if u.stageComplete(ctx, in.RunKey, StageAcquire, artifact) {
		var acq ports.Acquisition
		if err := readJSON(artifact, &acq); err == nil {
			if _, statErr := os.Stat(acq.VideoPath); statErr == nil {
				log.Info("acquisition already complete", "video", acq.VideoPath)
				return acq, nil
			}
		}
	}

	u.markRunning(ctx, in.RunKey, StageAcquire)
	acq, err := u.d.Source.Fetch(ctx, in.Source, in.AcquisitionDir)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrAcquisition, err)
		u.markFailed(ctx, in.RunKey, StageAcquire, err)
		return ports.Acquisition{}, err
	}
	if err := writeJSON(artifact, acq); err != nil {
		u.markFailed(ctx, in.RunKey, StageAcquire, err)
		return ports.Acquisition{}, err
	}
	u.markDone(ctx, in.RunKey, StageAcquire, fmt.Sprintf("%d caption file(s)", len(acq.Captions)))
	log.Info("acquired source", "video", acq.VideoPath, "captions", len(acq.Captions))
	return acq, nil
}

// reconcile picks the winning caption source and produces the
// authoritative transcript. Speech recognition runs only when no platform
// caption yields a usable transcript.
func (u Usecase) reconcile(ctx context.Context, log *slog.Logger, in Input, acq ports.Acquisition) (types.Transcript, error) {
	artifact := filepath.Join(in.TranscriptDir, "transcript.json")
	if u.stageComplete(ctx, in.RunKey, StageReconcile, artifact) {
		var tr types.Transcript
		if err := readJSON(artifact, &tr); err == nil && len(tr.Segments) > 0 {
			log.Info("transcript already reconciled", "origin", tr.Origin)
			return tr, nil
		}
	}

	u.markRunning(ctx, in.RunKey, StageReconcile)

	sources := make([]transcript.RawSource, 0, len(acq.Captions))
	for _, c := range acq.Captions {
		b, err := os.ReadFile(c.Path)
		if err != nil {
			err = fmt.Errorf("%w: read caption %s: %v", ErrReconciliation, c.Path, err)
			u.markFailed(ctx, in.RunKey, StageReconcile, err)
			return types.Transcript{}, err
		}
		sources = append(sources, transcript.RawSource{
			Origin:  c.Origin,
			Path:    c.Path,
			Content: string(b),
		})
	}

	tr, err := transcript.Reconcile(sources)
	if errors.Is(err, transcript.ErrNoSource) {
		tr, err = u.recognize(ctx, log, in, acq)
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrReconciliation, err)
		u.markFailed(ctx, in.RunKey, StageReconcile, err)
		return types.Transcript{}, err
	}

	if tr.Script == types.ScriptNonLatin {
		log.Info("romanizing transcript", "origin", tr.Origin)
		tr = transcript.Romanize(tr)
	}

	if err := writeJSON(artifact, tr); err != nil {
		u.markFailed(ctx, in.RunKey, StageReconcile, err)
		return types.Transcript{}, err
	}
	u.markDone(ctx, in.RunKey, StageReconcile, string(tr.Origin))
	log.Info("reconciled transcript", "origin", tr.Origin, "segments", len(tr.Segments))
	return tr, nil
}

func (u Usecase) recognize(ctx context.Context, log *slog.Logger, in Input, acq ports.Acquisition) (types.Transcript, error) {
	log.Info("no platform captions, running speech recognition")

	wav := filepath.Join(in.TranscriptDir, "audio.wav")
	if err := u.d.Encoder.ExtractAudio(ctx, acq.VideoPath, wav); err != nil {
		return types.Transcript{}, fmt.Errorf("extract audio: %w", err)
	}
	segs, err := u.d.ASR.Transcribe(ctx, wav, in.TranscriptDir)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("transcribe: %w", err)
	}
	return transcript.Reconcile([]transcript.RawSource{{
		Origin:   types.OriginGenerated,
		Segments: segs,
	}})
}

// selectWindow resolves the highlight window. Selection never fails: a
// scorer error or malformed suggestion falls back to the default window.
func (u Usecase) selectWindow(ctx context.Context, log *slog.Logger, in Input, tr types.Transcript, info ports.VideoInfo) (types.HighlightWindow, error) {
	artifact := filepath.Join(in.TranscriptDir, "window.json")
	if u.stageComplete(ctx, in.RunKey, StageSelect, artifact) {
		var w types.HighlightWindow
		if err := readJSON(artifact, &w); err == nil && w.End > w.Start {
			log.Info("window already selected", "start", w.Start, "end", w.End)
			return w, nil
		}
	}

	u.markRunning(ctx, in.RunKey, StageSelect)

	total := info.Duration
	if d := tr.Duration(); total <= 0 || (d > 0 && d < total) {
		total = d
	}

	var window types.HighlightWindow
	switch {
	case !highlights.WorthScoring(tr):
		log.Info("transcript too short to score, using default window")
		window = highlights.DefaultWindow(total, in.Window, "transcript too short to score")
	default:
		sug, err := u.d.Scorer.Suggest(ctx, tr.Text())
		if err != nil {
			log.Warn("scorer unavailable, using default window", logging.Error(err))
			window = highlights.DefaultWindow(total, in.Window, "scorer unavailable")
		} else {
			window = highlights.Validate(sug, total, in.Window)
		}
	}

	if err := writeJSON(artifact, window); err != nil {
		u.markFailed(ctx, in.RunKey, StageSelect, err)
		return types.HighlightWindow{}, err
	}
	u.markDone(ctx, in.RunKey, StageSelect, fmt.Sprintf("%s..%s", window.Start, window.End))
	log.Info("selected window", "start", window.Start, "end", window.End, "rationale", window.Rationale)
	return window, nil
}

type planArtifact struct {
	Geometry types.GeometryPlan `json:"geometry"`
	Plans    []types.EncodePlan `json:"plans"`
}

// plan computes the crop geometry and probes encoder families into a
// ranked plan list.
func (u Usecase) plan(ctx context.Context, log *slog.Logger, in Input, info ports.VideoInfo) (types.GeometryPlan, []types.EncodePlan, error) {
	artifact := filepath.Join(in.OutputDir, "plan.json")
	if u.stageComplete(ctx, in.RunKey, StagePlan, artifact) {
		var pa planArtifact
		if err := readJSON(artifact, &pa); err == nil && len(pa.Plans) > 0 {
			log.Info("plan already computed", "encoder", pa.Plans[0].Encoder)
			return pa.Geometry, pa.Plans, nil
		}
	}

	u.markRunning(ctx, in.RunKey, StagePlan)

	geo, err := geometry.PlanCrop(info.Width, info.Height)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPlanning, err)
		u.markFailed(ctx, in.RunKey, StagePlan, err)
		return types.GeometryPlan{}, nil, err
	}

	probes := make([]geometry.ProbeResult, 0, len(geometry.FamilyOrder()))
	for _, fam := range geometry.FamilyOrder() {
		res := u.d.Encoder.ProbeEncoder(ctx, fam)
		log.Debug("encoder probe", "family", fam, "ok", res.OK)
		probes = append(probes, res)
	}
	plans, err := geometry.RankEncoders(probes)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPlanning, err)
		u.markFailed(ctx, in.RunKey, StagePlan, err)
		return types.GeometryPlan{}, nil, err
	}

	if err := writeJSON(artifact, planArtifact{Geometry: geo, Plans: plans}); err != nil {
		u.markFailed(ctx, in.RunKey, StagePlan, err)
		return types.GeometryPlan{}, nil, err
	}
	u.markDone(ctx, in.RunKey, StagePlan, string(plans[0].Family))
	log.Info("planned encode", "crop", geo.Crop, "families", len(plans))
	return geo, plans, nil
}

// render cuts and encodes the base clip, then burns the caption overlay.
// Overlay failure degrades the run instead of failing it.
func (u Usecase) render(ctx context.Context, log *slog.Logger, in Input, run runstate.Run, acq ports.Acquisition,
	tr types.Transcript, window types.HighlightWindow, geo types.GeometryPlan, plans []types.EncodePlan) (Result, error) {

	u.markRunning(ctx, in.RunKey, StageRender)

	clipPath := filepath.Join(in.OutputDir, "clip.mp4")
	filter := geometry.FilterSpec(geo)

	used, err := u.encodeBase(ctx, log, acq.VideoPath, window, filter, plans, clipPath)
	if err != nil {
		// Every ranked encoder failed on real input despite passing
		// its probe. There is no clip to degrade to, so this is a
		// planning failure, not a recoverable render one.
		err = fmt.Errorf("%w: %v", ErrPlanning, err)
		u.markFailed(ctx, in.RunKey, StageRender, err)
		return Result{}, err
	}

	manifest := types.Manifest{
		RunID:         run.ID,
		Source:        in.Source,
		Origin:        tr.Origin,
		WindowStart:   window.Start.Seconds(),
		WindowEnd:     window.End.Seconds(),
		Rationale:     window.Rationale,
		EncoderFamily: string(used.Family),
		Clip:          clipPath,
		Status:        StatusSuccess,
	}

	var renderErr error
	cues := captions.Synchronize(tr, window)
	if len(cues) == 0 {
		log.Warn("no caption cues inside window, keeping captionless clip")
	} else {
		assPath := filepath.Join(in.OutputDir, "captions.ass")
		captionedPath := filepath.Join(in.OutputDir, "clip.captioned.mp4")
		if err := os.WriteFile(assPath, []byte(captions.RenderASS(cues)), 0o644); err != nil {
			renderErr = fmt.Errorf("%w: write overlay: %v", ErrRender, err)
		} else if err := u.d.Encoder.BurnCaptions(ctx, clipPath, assPath, captionedPath, used); err != nil {
			renderErr = fmt.Errorf("%w: burn captions: %v", ErrRender, err)
		} else {
			manifest.CaptionedClip = captionedPath
		}
		if renderErr != nil {
			manifest.Status = StatusDegraded
			log.Warn("caption overlay failed, keeping captionless clip", logging.Error(renderErr))
		}
	}

	manifestPath := filepath.Join(in.OutputDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		u.markFailed(ctx, in.RunKey, StageRender, err)
		return Result{}, err
	}
	u.markDone(ctx, in.RunKey, StageRender, manifest.Status)
	log.Info("render complete", "status", manifest.Status, "clip", clipPath)
	return Result{Manifest: manifest, RenderErr: renderErr}, nil
}

// encodeBase walks the ranked plans in order, attempting each at most
// twice, and returns the plan that produced the clip.
func (u Usecase) encodeBase(ctx context.Context, log *slog.Logger, inPath string, window types.HighlightWindow,
	filter string, plans []types.EncodePlan, outPath string) (types.EncodePlan, error) {

	var lastErr error
	for _, plan := range plans {
		for attempt := 1; attempt <= 2; attempt++ {
			err := u.d.Encoder.RenderClip(ctx, inPath, window, filter, plan, outPath)
			if err == nil {
				return plan, nil
			}
			lastErr = err
			log.Warn("encode attempt failed",
				"family", plan.Family, "attempt", attempt, logging.Error(err))
		}
	}
	return types.EncodePlan{}, fmt.Errorf("all encode plans failed: %w", lastErr)
}

// stageComplete reports whether a stage is recorded done and its artifact
// still exists. A missing artifact forces the stage to run again.
func (u Usecase) stageComplete(ctx context.Context, runKey, stage, artifact string) bool {
	done, err := u.d.Store.StageDone(ctx, runKey, stage)
	if err != nil || !done {
		return false
	}
	if _, err := os.Stat(artifact); err != nil {
		return false
	}
	return true
}

func (u Usecase) markRunning(ctx context.Context, runKey, stage string) {
	if err := u.d.Store.MarkStage(ctx, runKey, stage, runstate.StatusRunning, ""); err != nil {
		u.d.Log.Warn("ledger update failed", "stage", stage, logging.Error(err))
	}
}

func (u Usecase) markDone(ctx context.Context, runKey, stage, detail string) {
	if err := u.d.Store.MarkStage(ctx, runKey, stage, runstate.StatusDone, detail); err != nil {
		u.d.Log.Warn("ledger update failed", "stage", stage, logging.Error(err))
	}
}

func (u Usecase) markFailed(ctx context.Context, runKey, stage string, cause error) {
	if err := u.d.Store.MarkStage(ctx, runKey, stage, runstate.StatusFailed, cause.Error()); err != nil {
		u.d.Log.Warn("ledger update failed", "stage", stage, logging.Error(err))
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
