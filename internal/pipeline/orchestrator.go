package pipeline

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/corraxdev/corrax/internal/cache"
	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/depgraph"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/parserfacade"
	"github.com/corraxdev/corrax/pkg/alg/stats"
	"github.com/corraxdev/corrax/pkg/textutil"
)

// buildStages are the structural stages folded into a single parse-and-
// build pass rather than dispatched through the Registry: parsing and IR
// construction always happen together, per file, behind one cache lookup.
// Everything after them — chunking and lexical indexing included — is a
// registered stage dispatched in DAG order.
var buildStages = map[Stage]bool{
	StageParsing: true,
	StageIRBuild: true,
}

// tracer emits one span per stage wave. With no TracerProvider
// configured (the common case outside cmd/corrax's production wiring)
// otel's default no-op implementation makes every call here free.
var tracer = otel.Tracer("github.com/corraxdev/corrax/internal/pipeline")

// StageRecorder receives a rate/error/duration observation for each
// completed stage run, alongside the tracer spans and StageDuration
// entries Orchestrator already records. Defined here rather than in
// internal/observability so this package never has to import its own
// caller; cmd/corrax supplies a concrete *observability.StageMetrics,
// which satisfies this interface structurally.
type StageRecorder interface {
	RecordStage(ctx context.Context, stage Stage, dur time.Duration, err error)
}

// BuildIRFunc turns a parsed AST into an IRDocument, extracting import
// edges for dependency-graph construction along the way. It is supplied
// by the caller (the language-specific IR construction layer), never
// implemented inside this package: Orchestrator only knows how to
// schedule it.
type BuildIRFunc func(ast *parserfacade.AST, fingerprint ir.Fingerprint) (*ir.IRDocument, error)

// Source is one file's path, declared language, and current byte
// content, the orchestrator's unit of per-file work.
type Source struct {
	Path     string
	Language parserfacade.Language
	Content  []byte
}

// Orchestrator executes the stage DAG in declared dependency order,
// alternating per-file waves (run over a worker pool) with cross-file
// waves (run once over the merged RepoView), with tiered cache lookups
// and dependency-graph-scoped incremental re-runs. It is long-lived
// across calls to RunIncremental: the RepoView, cache, and dependency
// graph persist between runs the same way a real analysis server's
// process does.
type Orchestrator struct {
	facade   *parserfacade.Facade
	buildIR  BuildIRFunc
	registry *Registry
	cfg      *config.ValidatedConfig

	docCache *cache.TieredCache[*ir.IRDocument]
	depGraph *depgraph.Graph
	view     *RepoView
	metrics  StageRecorder

	// durEMA smooths each stage's duration across runs; stages dispatch
	// sequentially within a run, so no lock guards it.
	durEMA map[Stage]*stats.EMA
}

// durEMAAlpha weights the newest stage-duration sample at 30%.
const durEMAAlpha = 0.3

// Options configures a new Orchestrator.
type Options struct {
	Facade   *parserfacade.Facade
	BuildIR  BuildIRFunc
	Registry *Registry
	Config   *config.ValidatedConfig
	// CacheDiskRoot enables the disk tier when non-empty, matching
	// internal/cache.Options semantics.
	CacheDiskRoot string
	// Metrics, when non-nil, receives a RED observation for every
	// completed stage run. A nil Metrics is a valid no-op.
	Metrics StageRecorder
}

// New constructs an Orchestrator. The document cache's memory budget and
// worker pool size come from cfg's effective_cache/effective_parallel.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		facade:   opts.Facade,
		buildIR:  opts.BuildIR,
		registry: opts.Registry,
		cfg:      opts.Config,
		docCache: cache.New[*ir.IRDocument](cache.Options[*ir.IRDocument]{
			MemoryBudgetBytes: opts.Config.EffectiveCache().MemoryBudgetBytes,
			SizeFunc:          estimateDocSize,
			DiskRoot:          opts.CacheDiskRoot,
			Codec:             cache.GobCodec[*ir.IRDocument]{},
		}),
		depGraph: depgraph.New(),
		view:     NewRepoView(),
		metrics:  opts.Metrics,
		durEMA:   make(map[Stage]*stats.EMA),
	}
}

// smoothDuration folds dur into stage's cross-run EMA and returns the
// updated average.
func (o *Orchestrator) smoothDuration(stage Stage, dur time.Duration) time.Duration {
	ema, ok := o.durEMA[stage]
	if !ok {
		ema = stats.NewEMA(durEMAAlpha)
		o.durEMA[stage] = ema
	}

	return time.Duration(ema.Update(float64(dur)))
}

// estimateDocSize is a coarse per-node/per-edge size estimate for the
// memory tier's byte budget; exact accounting is not worth the cost of
// reflecting over IRDocument's contents on every Put.
func estimateDocSize(doc *ir.IRDocument) int64 {
	const bytesPerNode, bytesPerEdge = 256, 64

	if doc == nil {
		return 0
	}

	return int64(len(doc.Nodes)*bytesPerNode + len(doc.Edges)*bytesPerEdge)
}

// numWorkers resolves effective_parallel().num_workers, defaulting to
// host concurrency minus one per §4.3's execution model.
func (o *Orchestrator) numWorkers() int {
	n := o.cfg.EffectiveParallel().NumWorkers
	if n > 0 {
		return n
	}

	return max(runtime.NumCPU()-1, 1)
}

// maxFailures resolves the absolute failure budget from
// max_failures_fraction against the total file count for this run.
func (o *Orchestrator) maxFailures(totalFiles int) int {
	frac := o.cfg.EffectiveParallel().MaxFailuresFraction
	if frac <= 0 {
		frac = 0.1
	}

	n := int(float64(totalFiles) * frac)

	return max(n, 1)
}

// stageTimeout resolves the per-stage, per-file wall-clock budget; zero
// means no timeout.
func (o *Orchestrator) stageTimeout() time.Duration {
	s := o.cfg.EffectiveParallel().StageTimeoutSeconds
	if s <= 0 {
		return 0
	}

	return time.Duration(s) * time.Second
}

// Run executes a full pipeline over sources: every file is (re)parsed
// subject to the tiered cache, and every enabled stage runs in DAG
// order. Use RunIncremental for subsequent runs once Run has populated
// this Orchestrator's state.
func (o *Orchestrator) Run(ctx context.Context, sources []Source) (*Result, error) {
	for _, s := range sources {
		o.depGraph.AddFile(s.Path)
	}

	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}

	return o.execute(ctx, sources, paths)
}

// RunIncremental re-runs the pipeline for only the files affected by
// changedPaths (themselves plus every file transitively dependent on
// them via reverse import edges), invalidating their cache entries
// first. sources must include fresh content for every file the caller
// knows to currently exist; files no longer present should simply be
// omitted and passed in removed.
func (o *Orchestrator) RunIncremental(ctx context.Context, sources []Source, changedPaths, removed []string) (*Result, error) {
	for _, path := range removed {
		o.depGraph.RemoveFile(path)
		o.view.Remove(path)
	}

	byPath := make(map[string]Source, len(sources))
	for _, s := range sources {
		byPath[s.Path] = s
		o.depGraph.AddFile(s.Path)
	}

	affected := o.depGraph.AffectedFilesSorted(changedPaths)

	affectedSources := make([]Source, 0, len(affected))

	for _, path := range affected {
		s, ok := byPath[path]
		if !ok {
			continue
		}

		affectedSources = append(affectedSources, s)

		if doc, ok := o.view.Get(path); ok {
			_ = o.docCache.Invalidate(ir.CacheKey{File: doc.File, Fingerprint: doc.Fingerprint})
		}
	}

	allPaths := make([]string, len(sources))
	for i, s := range sources {
		allPaths[i] = s.Path
	}

	return o.execute(ctx, affectedSources, allPaths)
}

// runState tracks the shared per-file failure budget and abort signal
// across every wave of a single execute() call: the budget accumulates
// over the whole run, not per stage, matching §4.3's "at most
// max_failures files may fail before the orchestrator aborts".
type runState struct {
	mu          sync.Mutex
	failed      int
	maxFailures int
	aborted     bool
	cause       string
}

func (rs *runState) recordFailure(cancel context.CancelFunc, reason string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.failed++

	if rs.failed > rs.maxFailures && !rs.aborted {
		rs.aborted = true
		rs.cause = reason
		cancel()
	}
}

func (rs *runState) isAborted() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return rs.aborted
}

// execute runs the full stage DAG in dependency order: a build wave
// (parsing/IR-build) over toProcess, then every
// remaining enabled stage, per-file stages over toProcess through the
// worker pool and cross-file stages once over the full merged view
// spanned by allPaths.
func (o *Orchestrator) execute(ctx context.Context, toProcess []Source, allPaths []string) (*Result, error) {
	result := &Result{Summaries: make(map[Stage]any)}
	rs := &runState{maxFailures: o.maxFailures(max(len(allPaths), 1))}

	summaries := newSummaryStore()
	ctx = withSummaryStore(ctx, summaries)

	var cacheHits, cacheMisses atomic.Int64

	buildCtx, buildSpan := tracer.Start(ctx, "pipeline.build")
	metrics := o.runBuildWave(buildCtx, toProcess, rs, result, &cacheHits, &cacheMisses)
	buildSpan.End()
	result.Files = metrics
	result.CacheHits = cacheHits.Load()
	result.CacheMisses = cacheMisses.Load()

	if !rs.isAborted() {
		o.runRemainingStages(ctx, toProcess, rs, result)
	}

	result.Aborted = rs.isAborted()
	result.AbortCause = rs.cause

	if ctx.Err() != nil {
		result.Cancelled = true
		result.InFlightAtCancel = max(len(toProcess)-len(result.Files), 0)
	}

	for _, cycle := range o.depGraph.Cycles(allPaths) {
		result.Warnings = append(result.Warnings, "import cycle: "+strings.Join(cycle, " -> "))
	}

	for _, doc := range o.view.Documents() {
		result.TotalNodes += doc.NodeCount()
		result.TotalEdges += doc.EdgeCount()
	}

	for stage, v := range summaries.snapshot() {
		result.Summaries[stage] = v
	}

	return result, nil
}

// runRemainingStages walks every declared stage after the build wave,
// dispatching per-file stages over toProcess and cross-file stages over
// the full RepoView, stopping as soon as the run is aborted.
func (o *Orchestrator) runRemainingStages(ctx context.Context, toProcess []Source, rs *runState, result *Result) {
	for _, stage := range orderedStages() {
		if buildStages[stage] || !enabled(stage, o.cfg) {
			continue
		}

		d := catalog[stage]

		switch d.kind {
		case KindCrossFile:
			fn, ok := o.registry.crossStages[stage]
			if !ok {
				continue
			}

			stageCtx, span := tracer.Start(ctx, "pipeline.stage."+string(stage))
			start := time.Now()
			err := fn(stageCtx, o.view, o.cfg)
			dur := time.Since(start)
			span.End()

			if o.metrics != nil {
				o.metrics.RecordStage(ctx, stage, dur, err)
			}

			if err != nil {
				rs.mu.Lock()
				rs.aborted = true
				rs.cause = err.Error()
				rs.mu.Unlock()

				return
			}

			result.Stages = append(result.Stages, StageDuration{Stage: stage, Duration: dur, Smoothed: o.smoothDuration(stage, dur)})
		case KindPerFile:
			fn, ok := o.registry.fileStages[stage]
			if !ok {
				continue
			}

			stageCtx, span := tracer.Start(ctx, "pipeline.stage."+string(stage))
			start := time.Now()
			fileErrs := o.runFileStageWave(stageCtx, stage, fn, toProcess, rs)
			dur := time.Since(start)
			span.End()
			result.Errors = append(result.Errors, fileErrs...)

			if o.metrics != nil {
				var recordErr error
				if len(fileErrs) > 0 {
					recordErr = errors.New(fileErrs[0].Message)
				}

				o.metrics.RecordStage(ctx, stage, dur, recordErr)
			}

			result.Stages = append(result.Stages, StageDuration{Stage: stage, Duration: dur, Smoothed: o.smoothDuration(stage, dur)})
		}

		if rs.isAborted() {
			return
		}
	}
}

// runBuildWave parses and builds IR for every source in toProcess,
// subject to the tiered document cache, populating the RepoView and
// dependency graph as it goes.
func (o *Orchestrator) runBuildWave(
	ctx context.Context, sources []Source, rs *runState, result *Result, cacheHits, cacheMisses *atomic.Int64,
) []FileMetric {
	var mu sync.Mutex

	metrics := make([]FileMetric, 0, len(sources))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	forEachConcurrent(runCtx, o.numWorkers(), sources, rs, cancel, func(ctx context.Context, s Source) error {
		metric, fileErr := o.buildFile(ctx, s, cacheHits, cacheMisses)

		mu.Lock()
		metrics = append(metrics, metric)
		if fileErr != nil {
			result.Errors = append(result.Errors, *fileErr)
		}
		mu.Unlock()

		return errOf(fileErr)
	})

	return metrics
}

// runFileStageWave runs fn for every source's current RepoView document
// under the configured per-stage timeout, across the worker pool.
func (o *Orchestrator) runFileStageWave(
	ctx context.Context, stage Stage, fn FileStageFunc, sources []Source, rs *runState,
) []FileError {
	var mu sync.Mutex

	var errs []FileError

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	forEachConcurrent(runCtx, o.numWorkers(), sources, rs, cancel, func(ctx context.Context, s Source) error {
		doc, ok := o.view.Get(s.Path)
		if !ok {
			return nil
		}

		err := o.runFileStage(ctx, fn, doc)
		if err != nil {
			mu.Lock()
			errs = append(errs, FileError{Path: s.Path, Stage: stage, Kind: classifyErr(err), Message: err.Error()})
			mu.Unlock()
		}

		return err
	})

	return errs
}

// forEachConcurrent runs fn over items across a bounded worker pool,
// recording a failure against rs's shared budget whenever fn errors and
// cancelling via cancel once the budget is exceeded.
func forEachConcurrent[T any](
	ctx context.Context, workers int, items []T, rs *runState, cancel context.CancelFunc, fn func(context.Context, T) error,
) {
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup

	for _, item := range items {
		if rs.isAborted() {
			break
		}

		wg.Add(1)

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Done()
			continue
		}

		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := fn(ctx, item); err != nil {
				rs.recordFailure(cancel, "per-file failure budget exceeded")
			}
		}(item)
	}

	wg.Wait()
}

// buildFile parses and builds IR for s, subject to the tiered document
// cache, and installs the result into the RepoView and dependency graph.
func (o *Orchestrator) buildFile(ctx context.Context, s Source, cacheHits, cacheMisses *atomic.Int64) (FileMetric, *FileError) {
	metric := FileMetric{Path: s.Path, Language: string(s.Language), LinesOfCode: textutil.CountLines(s.Content)}

	if textutil.IsBinary(s.Content) {
		return metric, &FileError{Path: s.Path, Stage: StageParsing, Kind: ErrorKindParse, Message: "binary file"}
	}

	fp := ir.ComputeFingerprint(s.Content)
	fileID := ir.FileID{Path: s.Path, Language: string(s.Language)}
	key := ir.CacheKey{File: fileID, Fingerprint: fp}

	doc, hit, err := o.docCache.Get(key)
	if err != nil {
		return metric, &FileError{Path: s.Path, Stage: StageIRBuild, Kind: ErrorKindCache, Message: err.Error()}
	}

	if hit {
		cacheHits.Add(1)
	} else {
		cacheMisses.Add(1)
	}

	metric.CacheHit = hit

	if !hit {
		doc, err = o.parseAndBuild(ctx, s, fp, fileID)
		if err != nil {
			return metric, &FileError{Path: s.Path, Stage: StageParsing, Kind: ErrorKindParse, Message: err.Error()}
		}

		if putErr := o.docCache.Put(key, doc); putErr != nil {
			return metric, &FileError{Path: s.Path, Stage: StageIRBuild, Kind: ErrorKindCache, Message: putErr.Error()}
		}

		for _, imp := range doc.Imports {
			o.depGraph.AddEdge(s.Path, imp)
		}
	}

	o.view.Put(doc)

	metric.NodeCount = doc.NodeCount()
	metric.EdgeCount = doc.EdgeCount()
	metric.ChunkCount = len(doc.Chunks)

	return metric, nil
}

func errOf(fe *FileError) error {
	if fe == nil {
		return nil
	}

	return errors.New(fe.Message)
}

// runFileStage invokes fn under the configured per-stage timeout, if
// any, surfacing a timeout as a recoverable per-file error per §5's
// cancellation model rather than aborting the run.
func (o *Orchestrator) runFileStage(ctx context.Context, fn FileStageFunc, doc *ir.IRDocument) error {
	timeout := o.stageTimeout()
	if timeout <= 0 {
		return fn(ctx, doc, o.cfg)
	}

	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- fn(stageCtx, doc, o.cfg) }()

	select {
	case err := <-done:
		return err
	case <-stageCtx.Done():
		return stageCtx.Err()
	}
}

func classifyErr(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	return ErrorKindStage
}

// parseAndBuild parses s and builds its IRDocument, setting the merged
// Fingerprint/FileID the cache key already carries.
func (o *Orchestrator) parseAndBuild(ctx context.Context, s Source, fp ir.Fingerprint, fileID ir.FileID) (*ir.IRDocument, error) {
	ast, err := o.facade.Parse(ctx, s.Path, s.Content, s.Language)
	if err != nil {
		return nil, err
	}

	doc, err := o.buildIR(ast, fp)
	if err != nil {
		return nil, err
	}

	doc.File = fileID
	doc.Fingerprint = fp

	return doc, nil
}

// View exposes the persistent RepoView for read-only inspection between
// runs (e.g. by a caller rendering repomap output from the last result).
func (o *Orchestrator) View() *RepoView { return o.view }

// DependencyGraph exposes the persistent dependency graph, e.g. for a
// caller surfacing Cycles() as warnings alongside a Result.
func (o *Orchestrator) DependencyGraph() *depgraph.Graph { return o.depGraph }
