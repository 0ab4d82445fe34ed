package orchestrator

import (
	"context"
	"fmt"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/idlemerge/automerge/internal/classify"
	"github.com/idlemerge/automerge/internal/logging"
	"github.com/idlemerge/automerge/internal/notify"
	"github.com/idlemerge/automerge/internal/recordonly"
	"github.com/idlemerge/automerge/internal/resolve"
	"github.com/idlemerge/automerge/internal/revision"
	"github.com/idlemerge/automerge/internal/vcsproc"
)

// Client is the subset of vcsproc.Client the orchestrator needs directly;
// it is also threaded into revision.Load, resolve.Resolver, and
// revert.Revert, each of which declares its own narrower view of it.
type Client interface {
	Run(ctx context.Context, args []string) (*vcsproc.Result, error)
	Stream(ctx context.Context, args []string) (*vcsproc.Stream, error)
}

// Orchestrator is the merge orchestrator: it owns the VCS client, the
// conflict resolver, the record-only store, and the notification sink, and
// exposes LaunchMerge as its single entry point.
type Orchestrator struct {
	Client     Client
	Config     Config
	RecordOnly *recordonly.Store
	Resolver   *resolve.Resolver
	Sink       notify.Sink
	Logger     *logging.Logger

	ignoreMatcher *ignore.GitIgnore
}

// New builds an Orchestrator from its dependencies, compiling the
// configured ignore list once up front.
func New(client Client, cfg Config, sink notify.Sink, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	store := recordonly.New(cfg.RecordOnlyPath, logger)
	resolver := resolve.New(client, logger)

	var matcher *ignore.GitIgnore
	if len(cfg.IgnoreList) > 0 {
		matcher = ignore.CompileIgnoreLines(cfg.IgnoreList...)
	}

	return &Orchestrator{
		Client:        client,
		Config:        cfg,
		RecordOnly:    store,
		Resolver:      resolver,
		Sink:          sink,
		Logger:        logger,
		ignoreMatcher: matcher,
	}
}

// ConflictError is the typed failure raised when a revision's tree
// conflicts survive the resolver, per SPEC_FULL.md §4.9.2 and §9's note on
// modeling Conflict propagation as a typed return rather than an
// exception.
type ConflictError struct {
	Revision        revision.Revision
	PendingMetadata []revision.Revision
	PendingMerged   []revision.Revision
	Source          string
	Target          string
	StatusLines     []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("automerge: unresolved conflict at r%d merging %s into %s", e.Revision, e.Source, e.Target)
}

// LaunchMerge is the single entry point: reset the workspace, find
// eligible revisions, run the configured batch mode, and on conflict
// print+persist+notify. It returns the process exit code (0 or 1) the CLI
// layer should use, mirroring the teacher's RunE convention of returning
// an error that main.go turns into os.Exit(1).
func (o *Orchestrator) LaunchMerge(ctx context.Context) (int, error) {
	if err := o.resetWorkspace(ctx); err != nil {
		return 1, fmt.Errorf("orchestrator: workspace reset: %w", err)
	}

	eligible, err := o.eligibleRevisions(ctx)
	if err != nil {
		return 1, fmt.Errorf("orchestrator: eligibility query: %w", err)
	}

	recordOnlyPersisted := o.RecordOnly.Load()
	classifier := classify.New(o.Config.ExtraNoMergePatterns, recordOnlyPersisted)

	var runErr error
	if o.Config.Concise {
		runErr = o.runConcise(ctx, eligible, classifier, recordOnlyPersisted)
	} else {
		runErr = o.runSingleNonConcise(ctx, eligible, classifier)
	}

	if runErr == nil {
		return 0, nil
	}

	conflict, ok := runErr.(*ConflictError)
	if !ok {
		return 1, runErr
	}

	report := notify.Report{
		Revision:      conflict.Revision,
		Source:        conflict.Source,
		Target:        conflict.Target,
		PendingMerged: conflict.PendingMerged,
		PendingMeta:   conflict.PendingMetadata,
		StatusLines:   conflict.StatusLines,
		Recipe:        notify.Recipe(conflict.Target, conflict.Revision, conflict.Source),
	}
	fmt.Print(report.Text())

	o.RecordOnly.Save(recordonly.Union(
		toSet(conflict.PendingMetadata),
		recordOnlyPersisted,
	))

	if o.Sink != nil {
		if err := o.Sink.Notify(report); err != nil {
			o.Logger.Errorf("orchestrator: notification delivery failed: %s", err)
		}
	}

	return 1, runErr
}

func toSet(revs []revision.Revision) map[revision.Revision]bool {
	out := make(map[revision.Revision]bool, len(revs))
	for _, r := range revs {
		out[r] = true
	}
	return out
}

func fromSet(set map[revision.Revision]bool) []revision.Revision {
	out := make([]revision.Revision, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	return revision.Sorted(out)
}
