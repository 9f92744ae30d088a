package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"campack/internal/assemble"
	"campack/internal/card"
	"campack/internal/config"
	"campack/internal/inventory"
	"campack/internal/ledger"
	"campack/internal/logging"
	"campack/internal/media/ffmpeg"
	"campack/internal/media/ffprobe"
	"campack/internal/plan"
	"campack/internal/preflight"
	"campack/internal/report"
	"campack/internal/selection"
	"campack/internal/verify"
)

// Prober probes one file. The concrete implementation shells out to
// ffprobe; tests inject fakes.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.binary, path)
}

// Options carries the operator's choices for one run.
type Options struct {
	MediaID        string
	Roots          []string
	ClipExpression string
	OutputFormat   string
	DestinationDir string
	Operator       string

	// Strategy is consulted only when StrategySet is true; otherwise the
	// run defaults to the structured package, except that an unrecognized
	// card may be routed through ChooseStrategy.
	Strategy    assemble.Strategy
	StrategySet bool
	// ChooseStrategy, when non-nil, picks the strategy for General cards
	// when no strategy flag was given. The CLI wires an interactive
	// prompt here on a terminal.
	ChooseStrategy func(card.Type) assemble.Strategy

	// DryRun stops after classification, inventory, and the summary.
	// Nothing is written.
	DryRun bool
}

// RunResult is what the CLI renders after a run.
type RunResult struct {
	RunID         string
	MediaID       string
	CardTypes     []card.Type
	Strategy      assemble.Strategy
	Rows          []inventory.Row
	SelectedClips []int
	Flags         []string
	Checks        []preflight.Result
	MasterPath    string
	PackagePath   string
	DryRun        bool
}

// Runner executes packaging runs.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	prober Prober
	ffmpeg *ffmpeg.Client
}

// Option customizes a Runner, primarily for tests.
type Option func(*Runner)

// WithProber overrides the probing collaborator.
func WithProber(prober Prober) Option {
	return func(r *Runner) { r.prober = prober }
}

// WithFFmpeg overrides the ffmpeg client.
func WithFFmpeg(client *ffmpeg.Client) Option {
	return func(r *Runner) { r.ffmpeg = client }
}

// New constructs a Runner from config.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	runner := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		prober: ffprobeProber{binary: cfg.FFprobeBinary()},
		ffmpeg: ffmpeg.New(cfg.FFmpegBinary()),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes one packaging run. Review flags never fail the run;
// the returned error is non-nil only for fatal preconditions, fatal
// tool failures, or cancellation.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	if opts.MediaID == "" {
		return nil, Wrap(ErrPrecondition, "run", "validate", "media ID is required", nil)
	}
	if len(opts.Roots) == 0 {
		return nil, Wrap(ErrPrecondition, "run", "validate", "at least one root directory is required", nil)
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = r.cfg.Packaging.OutputFormat
	}
	if opts.DestinationDir == "" {
		opts.DestinationDir = r.cfg.Paths.DestinationDir
	}
	if opts.Operator == "" {
		opts.Operator = r.cfg.Packaging.Operator
	}

	classifications := make([]card.Classification, 0, len(opts.Roots))
	cardTypes := make([]card.Type, 0, len(opts.Roots))
	for _, root := range opts.Roots {
		cls, err := card.Classify(root)
		if err != nil {
			return nil, Wrap(ErrPrecondition, "classify", root, "", err)
		}
		r.logger.Info("card classified",
			logging.Args(logging.String("root", root), logging.String("type", string(cls.Profile.Type)))...)
		classifications = append(classifications, cls)
		cardTypes = append(cardTypes, cls.Profile.Type)
	}
	primaryType := cardTypes[0]
	strategy := r.resolveStrategy(opts, primaryType)

	result := &RunResult{
		MediaID:   opts.MediaID,
		CardTypes: cardTypes,
		Strategy:  strategy,
		DryRun:    opts.DryRun,
	}

	if opts.DryRun {
		builder := inventory.NewBuilder(r.prober, r.logger)
		for i, cls := range classifications {
			rows, err := builder.BuildCard(ctx, cls, i+1)
			if err != nil {
				return nil, Wrap(ErrPrecondition, "inventory", cls.Root, "", err)
			}
			result.Rows = append(result.Rows, rows...)
		}
		result.Flags = builder.ReviewFlags()
		if videos := inventory.Videos(result.Rows); len(videos) > 0 {
			preview := plan.Build(videos, selection.Parse(opts.ClipExpression))
			result.SelectedClips = preview.SelectedClips
		}
		return result, nil
	}

	result.Checks = r.preflight(opts)
	if !preflight.AllPassed(result.Checks) {
		return result, Wrap(ErrPrecondition, "preflight", "", "environment checks failed", nil)
	}

	lock := ledger.NewLock(r.cfg.Paths.LedgerDir)
	if err := lock.Acquire(); err != nil {
		return result, Wrap(ErrPrecondition, "ledger", "lock", "", err)
	}
	defer func() { _ = lock.Release() }()

	store, err := ledger.Open(r.cfg.Paths.LedgerDir)
	if err != nil {
		return result, Wrap(ErrPrecondition, "ledger", "open", "", err)
	}
	defer func() { _ = store.Close() }()

	run, err := store.StartRun(ctx, opts.MediaID, opts.OutputFormat, strategy.String(), opts.DestinationDir)
	if err != nil {
		return result, Wrap(ErrPrecondition, "ledger", "start run", "", err)
	}
	result.RunID = run.ID

	pkgLog := assemble.NewPackageLog()
	pkgLog.Add("RUN ID", run.ID)
	pkgLog.Add("MEDIAID", opts.MediaID)
	pkgLog.Add("OPERATOR", opts.Operator)
	pkgLog.Add("CARD TYPE", string(primaryType))
	pkgLog.Add("STRATEGY", strategy.String())
	pkgLog.Add("OUTPUT FORMAT", opts.OutputFormat)
	for i, root := range opts.Roots {
		pkgLog.Add(fmt.Sprintf("CARD %d ROOT", i+1), root)
	}

	assembler := assemble.New(r.logger)
	layout, err := assembler.CreateLayout(opts.DestinationDir, opts.MediaID, strategy)
	if err != nil {
		return result, r.fail(ctx, store, run.ID, pkgLog, layout, nil, Wrap(ErrPrecondition, "assemble", "create layout", "", err))
	}
	result.PackagePath = layout.Base

	rows, flags, err := r.buildInventory(ctx, classifications, layout, opts.MediaID)
	if err != nil {
		return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, err)
	}
	result.Rows = rows
	if err := r.checkpoint(ctx, store, run.ID, pkgLog, layout, flags); err != nil {
		return result, err
	}

	if primaryType != card.TypeGeneral && strategy.WantsAIP() {
		workDir, err := os.MkdirTemp("", "campack-")
		if err != nil {
			return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, Wrap(ErrPrecondition, "plan", "workdir", "", err))
		}
		defer func() { _ = os.RemoveAll(workDir) }()

		master, selected, masterFlags, err := r.buildMaster(ctx, rows, opts, workDir)
		if err != nil {
			return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, err)
		}
		flags = append(flags, masterFlags...)
		result.SelectedClips = selected
		placed, err := assembler.PlaceMaster(master, layout)
		if err != nil {
			return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, Wrap(ErrPrecondition, "assemble", "place master", "", err))
		}
		result.MasterPath = placed
		if err := r.checkpoint(ctx, store, run.ID, pkgLog, layout, flags); err != nil {
			return result, err
		}
	}

	reporter := report.New(r.prober, r.logger)
	flags = append(flags, reporter.Generate(ctx, opts.MediaID, opts.Roots, rows, layout.ReportsDir)...)
	if err := r.checkpoint(ctx, store, run.ID, pkgLog, layout, flags); err != nil {
		return result, err
	}

	if primaryType == card.TypeGeneral {
		if duplicates := assemble.DuplicateBasenames(rows); len(duplicates) > 0 {
			err := Wrap(ErrPrecondition, "assemble", "duplicate basenames",
				fmt.Sprintf("%v", duplicates), nil)
			pkgLog.Flag(fmt.Sprintf("duplicate basenames across input: %v", duplicates))
			return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, err)
		}
	}

	if err := assembler.CopyNativeMetadata(rows, layout); err != nil {
		return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, Wrap(ErrPrecondition, "assemble", "copy metadata", "", err))
	}
	if primaryType == card.TypeGeneral && strategy.WantsAIP() {
		if err := assembler.CopyAudiovisual(rows, layout); err != nil {
			return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, Wrap(ErrPrecondition, "assemble", "copy audiovisual", "", err))
		}
	}
	if strategy.WantsTar() {
		for i, root := range opts.Roots {
			name := fmt.Sprintf("%s_card%d.tar.gz", opts.MediaID, i+1)
			if err := assembler.Tarball(root, filepath.Join(layout.TarDir, name)); err != nil {
				return result, r.fail(ctx, store, run.ID, pkgLog, layout, flags, Wrap(ErrPrecondition, "assemble", "tarball", root, err))
			}
			if err := r.checkpoint(ctx, store, run.ID, pkgLog, layout, flags); err != nil {
				return result, err
			}
		}
	}

	for _, flag := range flags {
		pkgLog.Flag(flag)
		if err := store.AddFlag(ctx, run.ID, flag); err != nil {
			r.logger.Warn("failed to record review flag", logging.Args(logging.Error(err))...)
		}
	}
	result.Flags = flags

	pkgLog.Add("REVIEW FLAGS", fmt.Sprintf("%d", len(flags)))
	pkgLog.Add("FINISHED", time.Now().UTC().Format(time.RFC3339))
	r.writeLog(pkgLog, layout, opts.MediaID)

	if err := assembler.WriteManifest(layout); err != nil {
		return result, r.fail(ctx, store, run.ID, pkgLog, layout, nil, Wrap(ErrPrecondition, "assemble", "write manifest", "", err))
	}

	if err := store.MarkComplete(ctx, run.ID); err != nil {
		return result, Wrap(ErrPrecondition, "ledger", "mark complete", "", err)
	}
	r.logger.Info("run complete",
		logging.Args(logging.String("run", run.ID), logging.String("package", layout.Base),
			logging.Int("flags", len(flags)))...)
	return result, nil
}

func (r *Runner) resolveStrategy(opts Options, cardType card.Type) assemble.Strategy {
	if opts.StrategySet {
		return opts.Strategy
	}
	if cardType == card.TypeGeneral && opts.ChooseStrategy != nil {
		return opts.ChooseStrategy(cardType)
	}
	return assemble.StrategyAIP
}

func (r *Runner) preflight(opts Options) []preflight.Result {
	results := preflight.CheckTools(r.cfg.FFmpegBinary(), r.cfg.FFprobeBinary())
	results = append(results, preflight.CheckDirectoryAccess("Destination directory", opts.DestinationDir))
	results = append(results, preflight.CheckFreeSpace(opts.DestinationDir, totalSourceBytes(opts.Roots)))
	return results
}

func (r *Runner) buildInventory(ctx context.Context, classifications []card.Classification, layout assemble.Layout, mediaID string) ([]inventory.Row, []string, error) {
	csvStore, err := inventory.OpenStore(filepath.Join(layout.MetadataDir, mediaID+"_inventory.csv"))
	if err != nil {
		return nil, nil, Wrap(ErrPrecondition, "inventory", "open store", "", err)
	}
	defer func() { _ = csvStore.Close() }()

	builder := inventory.NewBuilder(r.prober, r.logger)
	var rows []inventory.Row
	for i, cls := range classifications {
		cardRows, err := builder.BuildCard(ctx, cls, i+1)
		if err != nil {
			return nil, nil, Wrap(ErrPrecondition, "inventory", cls.Root, "", err)
		}
		for _, row := range cardRows {
			if err := csvStore.Append(row); err != nil {
				return nil, nil, Wrap(ErrPrecondition, "inventory", "append row", "", err)
			}
		}
		rows = append(rows, cardRows...)
	}
	if err := csvStore.Close(); err != nil {
		return nil, nil, Wrap(ErrPrecondition, "inventory", "close store", "", err)
	}
	return rows, builder.ReviewFlags(), nil
}

// buildMaster concatenates the selected clips into the preservation
// master, merging separately recorded audio when present, and verifies
// the merge kept the video streams intact.
func (r *Runner) buildMaster(ctx context.Context, rows []inventory.Row, opts Options, workDir string) (string, []int, []string, error) {
	clips := selection.Parse(opts.ClipExpression)
	videos := inventory.Videos(rows)
	concat := plan.Build(videos, clips)
	if len(concat.Sources) == 0 {
		return "", nil, nil, Wrap(ErrPrecondition, "plan", "select clips",
			fmt.Sprintf("selection %q matches no clips", opts.ClipExpression), nil)
	}
	audioStrategy := plan.DetectAudioStrategy(rows, opts.OutputFormat)

	var donor string
	if len(rows) > 0 {
		donor = rows[0].Path
	}
	master := filepath.Join(workDir, opts.MediaID+"."+opts.OutputFormat)
	err := r.ffmpeg.Concat(ctx, ffmpeg.ConcatRequest{
		Sources:       concat.Sources,
		Output:        master,
		MetadataDonor: donor,
		Chapters:      concat.Chapters,
		AudioCodec:    audioStrategy.Codec(),
		WorkDir:       workDir,
	})
	if err != nil {
		return "", nil, nil, Wrap(ErrExternalTool, "concat", "video", "", err)
	}

	var flags []string
	audioSources := plan.BuildAudio(rows)
	if len(audioSources) == 0 {
		return master, concat.SelectedClips, flags, nil
	}

	verifier := verify.New(r.ffmpeg, r.logger)
	baseline, err := verifier.Capture(ctx, master)
	if err != nil {
		return "", nil, nil, Wrap(ErrExternalTool, "verify", "baseline", "", err)
	}

	audioOut := filepath.Join(workDir, opts.MediaID+"_audio."+opts.OutputFormat)
	err = r.ffmpeg.Concat(ctx, ffmpeg.ConcatRequest{
		Sources: audioSources,
		Output:  audioOut,
		WorkDir: workDir,
	})
	if err != nil {
		return "", nil, nil, Wrap(ErrExternalTool, "concat", "audio", "", err)
	}

	if flag := r.compareDurations(ctx, master, audioOut); flag != "" {
		flags = append(flags, flag)
	}

	merged := filepath.Join(workDir, opts.MediaID+"_merged."+opts.OutputFormat)
	if err := r.ffmpeg.Mux(ctx, master, audioOut, merged); err != nil {
		return "", nil, nil, Wrap(ErrExternalTool, "mux", "merge audio", "", err)
	}

	flag, err := verifier.Check(ctx, baseline, merged)
	if err != nil {
		return "", nil, nil, Wrap(ErrExternalTool, "verify", "final", "", err)
	}
	if flag != "" {
		flags = append(flags, flag)
	}
	return merged, concat.SelectedClips, flags, nil
}

// compareDurations flags a whole-second mismatch between the
// concatenated video and audio before they are merged.
func (r *Runner) compareDurations(ctx context.Context, videoPath, audioPath string) string {
	video, err := r.prober.Probe(ctx, videoPath)
	if err != nil {
		return fmt.Sprintf("could not probe %s for duration comparison", filepath.Base(videoPath))
	}
	audio, err := r.prober.Probe(ctx, audioPath)
	if err != nil {
		return fmt.Sprintf("could not probe %s for duration comparison", filepath.Base(audioPath))
	}
	videoSeconds := int(video.DurationSeconds())
	audioSeconds := int(audio.DurationSeconds())
	if videoSeconds != audioSeconds {
		return fmt.Sprintf("video duration %ds and audio duration %ds differ before merge", videoSeconds, audioSeconds)
	}
	return ""
}

func (r *Runner) checkpoint(ctx context.Context, store *ledger.Store, runID string, pkgLog *assemble.PackageLog, layout assemble.Layout, flags []string) error {
	if ctx.Err() == nil {
		return nil
	}
	return r.abort(ctx, store, runID, pkgLog, layout, flags)
}

// abort records an interrupted run: accumulated review flags and the
// ABORTED stamp go into the package log, the log is flushed to disk,
// and the ledger row moves to aborted.
func (r *Runner) abort(ctx context.Context, store *ledger.Store, runID string, pkgLog *assemble.PackageLog, layout assemble.Layout, flags []string) error {
	for _, flag := range flags {
		pkgLog.Flag(flag)
	}
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	pkgLog.Add("ABORTED", time.Now().UTC().Format(time.RFC3339))
	if layout.MetadataDir != "" {
		r.writeLog(pkgLog, layout, filepath.Base(layout.Base))
	}
	if err := store.MarkAborted(context.WithoutCancel(ctx), runID); err != nil {
		r.logger.Warn("failed to record aborted run", logging.Args(logging.Error(err))...)
	}
	return Wrap(ErrInterrupted, "run", "", "", cause)
}

// fail terminates the run. An interrupt that surfaced through a tool
// error is still an operator abort, not a failure, so cancellation is
// rerouted to the aborted path. Either way the package log persists.
func (r *Runner) fail(ctx context.Context, store *ledger.Store, runID string, pkgLog *assemble.PackageLog, layout assemble.Layout, flags []string, cause error) error {
	if ctx.Err() != nil || errors.Is(cause, context.Canceled) {
		return r.abort(ctx, store, runID, pkgLog, layout, flags)
	}
	for _, flag := range flags {
		pkgLog.Flag(flag)
	}
	pkgLog.Add("FAILED", time.Now().UTC().Format(time.RFC3339))
	if layout.MetadataDir != "" {
		r.writeLog(pkgLog, layout, filepath.Base(layout.Base))
	}
	if err := store.MarkFailed(context.WithoutCancel(ctx), runID, cause); err != nil {
		r.logger.Warn("failed to record failed run", logging.Args(logging.Error(err))...)
	}
	return cause
}

func (r *Runner) writeLog(pkgLog *assemble.PackageLog, layout assemble.Layout, mediaID string) {
	path := filepath.Join(layout.MetadataDir, mediaID+"_log.txt")
	if err := pkgLog.Write(path); err != nil {
		r.logger.Warn("failed to write package log", logging.Args(logging.Error(err))...)
	}
}

func totalSourceBytes(roots []string) uint64 {
	var total uint64
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			if info, err := entry.Info(); err == nil {
				total += uint64(info.Size())
			}
			return nil
		})
	}
	return total
}
