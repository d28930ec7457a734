package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mahmedraza1/Clipify/internal/geometry"
	"github.com/mahmedraza1/Clipify/internal/highlights"
	"github.com/mahmedraza1/Clipify/internal/ports"
	"github.com/mahmedraza1/Clipify/internal/runstate"
	"github.com/mahmedraza1/Clipify/internal/types"
)

type fakeSource struct {
	acq   ports.Acquisition
	err   error
	calls int
}

func (f *fakeSource) Fetch(_ context.Context, _, _ string) (ports.Acquisition, error) {
	f.calls++
	return f.acq, f.err
}

type fakeASR struct {
	segs  []types.Segment
	err   error
	calls int
}

func (f *fakeASR) Transcribe(_ context.Context, _, _ string) ([]types.Segment, error) {
	f.calls++
	return f.segs, f.err
}

type fakeScorer struct {
	sug   types.Suggestion
	err   error
	calls int
}

func (f *fakeScorer) Suggest(_ context.Context, _ string) (types.Suggestion, error) {
	f.calls++
	return f.sug, f.err
}

type fakeEncoder struct {
	info          ports.VideoInfo
	probeVideoErr error

	probeFail map[types.CodecFamily]bool
	// renderFail counts failures to inject per family; -1 fails forever.
	renderFail map[types.CodecFamily]int
	burnErr    error

	renderCalls  []types.CodecFamily
	burnCalls    int
	extractCalls int
}

func (f *fakeEncoder) ProbeVideo(context.Context, string) (ports.VideoInfo, error) {
	return f.info, f.probeVideoErr
}

func (f *fakeEncoder) ProbeEncoder(_ context.Context, fam types.CodecFamily) geometry.ProbeResult {
	return geometry.ProbeResult{Family: fam, OK: !f.probeFail[fam]}
}

func (f *fakeEncoder) ExtractAudio(_ context.Context, _, outWav string) error {
	f.extractCalls++
	return os.WriteFile(outWav, []byte("wav"), 0o644)
}

func (f *fakeEncoder) RenderClip(_ context.Context, _ string, _ types.HighlightWindow, _ string, plan types.EncodePlan, outPath string) error {
	f.renderCalls = append(f.renderCalls, plan.Family)
	if n := f.renderFail[plan.Family]; n != 0 {
		if n > 0 {
			f.renderFail[plan.Family]--
		}
		return errors.New("encode failed")
	}
	return os.WriteFile(outPath, []byte("clip"), 0o644)
}

func (f *fakeEncoder) BurnCaptions(_ context.Context, _, _, outPath string, _ types.EncodePlan) error {
	f.burnCalls++
	if f.burnErr != nil {
		return f.burnErr
	}
	return os.WriteFile(outPath, []byte("captioned"), 0o644)
}

const testSRT = `1
00:00:00,000 --> 00:00:30,000
The first half of the talk covers how the prototype came together over a
single weekend of focused work.

2
00:00:30,000 --> 00:01:10,000
The second half walks through what broke in production and exactly how the
team recovered from it.
`

type env struct {
	in    Input
	store *runstate.Store
}

func newEnv(t *testing.T) env {
	t.Helper()
	tmp := t.TempDir()
	in := Input{
		RunKey:         "run-1",
		Source:         "https://example.com/watch?v=abc",
		AcquisitionDir: filepath.Join(tmp, "acquisition"),
		TranscriptDir:  filepath.Join(tmp, "transcripts"),
		OutputDir:      filepath.Join(tmp, "shorts"),
		Window: highlights.Bounds{
			Min:     15 * time.Second,
			Max:     120 * time.Second,
			Default: 60 * time.Second,
		},
	}
	for _, dir := range []string{in.AcquisitionDir, in.TranscriptDir, in.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	store, err := runstate.Open(tmp)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return env{in: in, store: store}
}

// manualAcquisition writes a video file plus one manual caption track into
// the acquisition dir.
func manualAcquisition(t *testing.T, e env) ports.Acquisition {
	t.Helper()
	video := filepath.Join(e.in.AcquisitionDir, "video.mp4")
	srt := filepath.Join(e.in.AcquisitionDir, "video.en.srt")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(srt, []byte(testSRT), 0o644); err != nil {
		t.Fatal(err)
	}
	return ports.Acquisition{
		VideoPath: video,
		Captions:  []ports.CaptionFile{{Origin: types.OriginManual, Path: srt}},
	}
}

func goodDeps(t *testing.T, e env) (Deps, *fakeSource, *fakeASR, *fakeScorer, *fakeEncoder) {
	t.Helper()
	src := &fakeSource{acq: manualAcquisition(t, e)}
	asr := &fakeASR{}
	scorer := &fakeScorer{sug: types.Suggestion{Start: "0:00:10", End: "0:01:00", Reason: "the recovery story"}}
	enc := &fakeEncoder{info: ports.VideoInfo{Width: 3840, Height: 2160, Duration: 120 * time.Second}}
	return Deps{Source: src, ASR: asr, Scorer: scorer, Encoder: enc, Store: e.store}, src, asr, scorer, enc
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, asr, scorer, enc := goodDeps(t, e)

	res, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	m := res.Manifest
	if m.Status != StatusSuccess {
		t.Errorf("status = %q, want %q", m.Status, StatusSuccess)
	}
	if m.Origin != types.OriginManual {
		t.Errorf("origin = %q, want manual", m.Origin)
	}
	if asr.calls != 0 {
		t.Errorf("speech recognition ran despite manual captions")
	}
	if scorer.calls != 1 {
		t.Errorf("scorer calls = %d, want 1", scorer.calls)
	}
	if m.WindowStart != 10 || m.WindowEnd != 60 {
		t.Errorf("window = [%v, %v], want [10, 60]", m.WindowStart, m.WindowEnd)
	}
	if m.EncoderFamily != string(types.FamilyNVENC) {
		t.Errorf("encoder family = %q, want nvenc", m.EncoderFamily)
	}
	if m.CaptionedClip == "" {
		t.Error("expected a captioned clip")
	}
	if enc.burnCalls != 1 {
		t.Errorf("burn calls = %d, want 1", enc.burnCalls)
	}
	if _, err := os.Stat(filepath.Join(e.in.OutputDir, "manifest.json")); err != nil {
		t.Errorf("manifest not persisted: %v", err)
	}

	stages, err := e.store.Stages(context.Background(), e.in.RunKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 5 {
		t.Fatalf("got %d ledger stages, want 5", len(stages))
	}
	for _, st := range stages {
		if st.Status != runstate.StatusDone {
			t.Errorf("stage %s status = %q, want done", st.Stage, st.Status)
		}
	}
}

func TestRun_NoCaptionsFallsBackToRecognition(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, src, asr, _, enc := goodDeps(t, e)
	src.acq.Captions = nil
	asr.segs = []types.Segment{
		{Start: 0, End: 30, Text: "the first half of a generated transcript with enough words to pass the scoring threshold easily"},
		{Start: 30, End: 70, Text: "and the second half keeps going for quite a while longer"},
	}

	res, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if asr.calls != 1 {
		t.Errorf("speech recognition calls = %d, want 1", asr.calls)
	}
	if enc.extractCalls != 1 {
		t.Errorf("audio extraction calls = %d, want 1", enc.extractCalls)
	}
	if res.Manifest.Origin != types.OriginGenerated {
		t.Errorf("origin = %q, want generated", res.Manifest.Origin)
	}
}

func TestRun_NoCaptionSourceIsFatal(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, src, _, _, _ := goodDeps(t, e)
	src.acq.Captions = nil // and the ASR fake returns no segments

	_, err := New(deps).Run(context.Background(), e.in)
	if !errors.Is(err, ErrReconciliation) {
		t.Fatalf("err = %v, want ErrReconciliation", err)
	}

	stages, err := e.store.Stages(context.Background(), e.in.RunKey)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, st := range stages {
		if st.Stage == StageReconcile {
			found = true
			if st.Status != runstate.StatusFailed {
				t.Errorf("reconcile stage status = %q, want failed", st.Status)
			}
		}
	}
	if !found {
		t.Error("reconcile stage missing from ledger")
	}
}

func TestRun_ScorerErrorUsesDefaultWindow(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, scorer, _ := goodDeps(t, e)
	scorer.err = errors.New("upstream 502")

	res, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Manifest.WindowStart != 0 || res.Manifest.WindowEnd != 60 {
		t.Errorf("window = [%v, %v], want default [0, 60]",
			res.Manifest.WindowStart, res.Manifest.WindowEnd)
	}
	if res.Manifest.Status != StatusSuccess {
		t.Errorf("status = %q, want success", res.Manifest.Status)
	}
}

func TestRun_ProbeFailureKeepsAcquireDone(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, enc := goodDeps(t, e)
	enc.probeVideoErr = errors.New("moov atom not found")

	_, err := New(deps).Run(context.Background(), e.in)
	if !errors.Is(err, ErrPlanning) {
		t.Fatalf("err = %v, want ErrPlanning", err)
	}

	stages, err := e.store.Stages(context.Background(), e.in.RunKey)
	if err != nil {
		t.Fatal(err)
	}
	byStage := map[string]runstate.Status{}
	for _, st := range stages {
		byStage[st.Stage] = st.Status
	}
	if byStage[StageAcquire] != runstate.StatusDone {
		t.Errorf("acquire stage = %q, want done", byStage[StageAcquire])
	}
	if byStage[StagePlan] != runstate.StatusFailed {
		t.Errorf("plan stage = %q, want failed", byStage[StagePlan])
	}
}

func TestRun_DefaultWindowCappedAtTranscriptEnd(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, scorer, _ := goodDeps(t, e)

	// A transcript ending before the default window length bounds the
	// window, regardless of how long the video itself runs.
	shortSRT := "1\n00:00:01,000 --> 00:00:55,000\nToo short to bother scoring.\n"
	if err := os.WriteFile(filepath.Join(e.in.AcquisitionDir, "video.en.srt"), []byte(shortSRT), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if scorer.calls != 0 {
		t.Errorf("short transcript was sent to the scorer")
	}
	if res.Manifest.WindowStart != 0 || res.Manifest.WindowEnd != 55 {
		t.Errorf("window = [%v, %v], want [0, 55]",
			res.Manifest.WindowStart, res.Manifest.WindowEnd)
	}
}

func TestRun_NoViableEncoderIsFatal(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, enc := goodDeps(t, e)
	enc.probeFail = map[types.CodecFamily]bool{
		types.FamilyNVENC:    true,
		types.FamilyQSV:      true,
		types.FamilySoftware: true,
	}

	_, err := New(deps).Run(context.Background(), e.in)
	if !errors.Is(err, ErrPlanning) {
		t.Fatalf("err = %v, want ErrPlanning", err)
	}
}

func TestRun_EncodeFallsBackAcrossFamilies(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, enc := goodDeps(t, e)
	enc.probeFail = map[types.CodecFamily]bool{types.FamilyQSV: true}
	enc.renderFail = map[types.CodecFamily]int{types.FamilyNVENC: -1}

	res, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Manifest.EncoderFamily != string(types.FamilySoftware) {
		t.Errorf("encoder family = %q, want software", res.Manifest.EncoderFamily)
	}
	want := []types.CodecFamily{types.FamilyNVENC, types.FamilyNVENC, types.FamilySoftware}
	if len(enc.renderCalls) != len(want) {
		t.Fatalf("render calls = %v, want %v", enc.renderCalls, want)
	}
	for i := range want {
		if enc.renderCalls[i] != want[i] {
			t.Fatalf("render calls = %v, want %v", enc.renderCalls, want)
		}
	}
}

func TestRun_AllEncodesFailIsFatal(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, enc := goodDeps(t, e)
	enc.renderFail = map[types.CodecFamily]int{
		types.FamilyNVENC:    -1,
		types.FamilyQSV:      -1,
		types.FamilySoftware: -1,
	}

	_, err := New(deps).Run(context.Background(), e.in)
	if !errors.Is(err, ErrPlanning) {
		t.Fatalf("err = %v, want ErrPlanning", err)
	}
}

func TestRun_OverlayFailureDegrades(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, enc := goodDeps(t, e)
	enc.burnErr = errors.New("subtitle filter crashed")

	res, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("run should complete despite overlay failure: %v", err)
	}
	if res.Manifest.Status != StatusDegraded {
		t.Errorf("status = %q, want degraded", res.Manifest.Status)
	}
	if res.Manifest.CaptionedClip != "" {
		t.Errorf("captioned clip = %q, want empty", res.Manifest.CaptionedClip)
	}
	if !errors.Is(res.RenderErr, ErrRender) {
		t.Errorf("RenderErr = %v, want ErrRender", res.RenderErr)
	}
	if res.Manifest.Clip == "" {
		t.Error("captionless clip missing from manifest")
	}
}

func TestRun_CompletedRunShortCircuits(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, _ := goodDeps(t, e)
	first, err := New(deps).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	src2 := &fakeSource{}
	scorer2 := &fakeScorer{}
	enc2 := &fakeEncoder{}
	deps2 := Deps{Source: src2, ASR: &fakeASR{}, Scorer: scorer2, Encoder: enc2, Store: e.store}

	second, err := New(deps2).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if src2.calls != 0 || scorer2.calls != 0 || len(enc2.renderCalls) != 0 {
		t.Errorf("completed run re-executed stages: source=%d scorer=%d renders=%d",
			src2.calls, scorer2.calls, len(enc2.renderCalls))
	}
	if second.Manifest.RunID != first.Manifest.RunID {
		t.Errorf("run id changed across resumes: %q vs %q",
			second.Manifest.RunID, first.Manifest.RunID)
	}
}

func TestRun_MissingArtifactRerunsOnlyLaterStages(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	deps, _, _, _, _ := goodDeps(t, e)
	if _, err := New(deps).Run(context.Background(), e.in); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := os.Remove(filepath.Join(e.in.OutputDir, "manifest.json")); err != nil {
		t.Fatal(err)
	}

	src2 := &fakeSource{}
	scorer2 := &fakeScorer{}
	enc2 := &fakeEncoder{info: ports.VideoInfo{Width: 3840, Height: 2160, Duration: 120 * time.Second}}
	deps2 := Deps{Source: src2, ASR: &fakeASR{}, Scorer: scorer2, Encoder: enc2, Store: e.store}

	res, err := New(deps2).Run(context.Background(), e.in)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if src2.calls != 0 {
		t.Errorf("acquisition re-ran: %d calls", src2.calls)
	}
	if scorer2.calls != 0 {
		t.Errorf("selection re-ran: %d scorer calls", scorer2.calls)
	}
	if len(enc2.renderCalls) == 0 {
		t.Error("render stage did not re-run after manifest removal")
	}
	if res.Manifest.Status != StatusSuccess {
		t.Errorf("status = %q, want success", res.Manifest.Status)
	}
}
