package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idlemerge/automerge/internal/config"
	"github.com/idlemerge/automerge/internal/logging"
	"github.com/idlemerge/automerge/internal/notify"
	"github.com/idlemerge/automerge/internal/orchestrator"
	"github.com/idlemerge/automerge/internal/vcsproc"
)

var mergeFlags struct {
	source           string
	target           string
	targetRepoPath   string
	concise          bool
	noMergePatterns  []string
	maxRevisions     int
	recordOnlyPath   string
	commitMergeinfo  bool
	ignoreList       []string
	username         string
	password         string
	noop             bool
	verbose          bool
	daemon           bool
	pollInterval     time.Duration
	webhookURL       string
	notifyRecipients []string
	emailDomain      string
}

func init() {
	f := mergeCmd.Flags()
	f.StringVar(&mergeFlags.source, "source", "", "Source branch URL, e.g. ^/project/stable")
	f.StringVar(&mergeFlags.target, "target", "", "Target working copy path")
	f.StringVar(&mergeFlags.targetRepoPath, "target-repo-path", "", "Target branch's repository-relative path, e.g. ^/project/trunk")
	f.BoolVar(&mergeFlags.concise, "concise", true, "Batch record-only revisions with the next content revision into one commit")
	f.StringSliceVar(&mergeFlags.noMergePatterns, "no-merge-pattern", nil, "Additional substrings that mark a revision record-only")
	f.IntVar(&mergeFlags.maxRevisions, "max-revisions", 0, "Advisory cap on revisions replayed per run; accepted but not enforced (0 = no cap)")
	f.StringVar(&mergeFlags.recordOnlyPath, "record-only-path", "", "CSV file persisting revisions merged record-only across runs")
	f.BoolVar(&mergeFlags.commitMergeinfo, "commit-mergeinfo", false, "Commit a trailing batch of metadata-only revisions instead of deferring them")
	f.StringSliceVar(&mergeFlags.ignoreList, "ignore", nil, "Working-copy-relative glob reverted after every merge")
	f.StringVar(&mergeFlags.username, "username", "", "svn --username")
	f.StringVar(&mergeFlags.password, "password", "", "svn --password")
	f.BoolVar(&mergeFlags.noop, "noop", false, "Skip every commit and revert the working copy in its place")
	f.BoolVar(&mergeFlags.verbose, "verbose", false, "Echo svn invocations and raise the log level to debug")
	f.BoolVar(&mergeFlags.daemon, "daemon", false, "Keep running, replaying on an interval instead of exiting after one pass")
	f.DurationVar(&mergeFlags.pollInterval, "poll-interval", 5*time.Minute, "Interval between passes in --daemon mode")
	f.StringVar(&mergeFlags.webhookURL, "webhook-url", "", "POST conflict reports to this URL instead of stdout")
	f.StringSliceVar(&mergeFlags.notifyRecipients, "notify-recipient", nil, "Recipient usernames to expand with --email-domain")
	f.StringVar(&mergeFlags.emailDomain, "email-domain", "", "Domain appended to bare --notify-recipient usernames")

	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Replay eligible revisions from source onto target",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			defaults, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if errs := config.Validate(defaults); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(os.Stderr, "Error: %s\n", e)
				}
				return fmt.Errorf("%d config error(s)", len(errs))
			}
			applyDefaults(cmd, defaults)
		}

		if mergeFlags.source == "" || mergeFlags.target == "" {
			return fmt.Errorf("--source and --target are required")
		}

		level := logging.LevelInfo
		if mergeFlags.verbose {
			level = logging.LevelDebug
		}
		logger := logging.New(os.Stderr, level)

		client := vcsproc.NewClient(vcsproc.Options{
			Username: mergeFlags.username,
			Password: mergeFlags.password,
			Verbose:  mergeFlags.verbose,
			Logger:   logger,
		})

		sink := buildSink(logger)

		cfg := orchestrator.Config{
			Source:               mergeFlags.source,
			Target:               mergeFlags.target,
			TargetRepoPath:       mergeFlags.targetRepoPath,
			Noop:                 mergeFlags.noop,
			Concise:              mergeFlags.concise,
			ExtraNoMergePatterns: mergeFlags.noMergePatterns,
			MaxRevisions:         mergeFlags.maxRevisions,
			RecordOnlyPath:       mergeFlags.recordOnlyPath,
			Verbose:              mergeFlags.verbose,
			CommitMergeinfo:      mergeFlags.commitMergeinfo,
			IgnoreList:           mergeFlags.ignoreList,
			Username:             mergeFlags.username,
			Password:             mergeFlags.password,
		}

		orch := orchestrator.New(client, cfg, sink, logger)

		if !mergeFlags.daemon {
			code, err := orch.LaunchMerge(cmd.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		}

		return runMergeDaemon(cmd.Context(), orch, logger)
	},
}

// applyDefaults fills any merge flag the caller did not set explicitly
// from the YAML defaults file. Flags win over the file; the file wins
// over the flag package's zero value.
func applyDefaults(cmd *cobra.Command, d *config.Defaults) {
	set := func(name string, apply func()) {
		if !cmd.Flags().Changed(name) {
			apply()
		}
	}

	set("source", func() { mergeFlags.source = d.Source })
	set("target", func() { mergeFlags.target = d.Target })
	set("target-repo-path", func() { mergeFlags.targetRepoPath = d.TargetRepoPath })
	set("concise", func() { mergeFlags.concise = d.Concise })
	set("no-merge-pattern", func() { mergeFlags.noMergePatterns = d.NoMergePatterns })
	set("max-revisions", func() { mergeFlags.maxRevisions = d.MaxRevisions })
	set("record-only-path", func() { mergeFlags.recordOnlyPath = d.RecordOnlyPath })
	set("commit-mergeinfo", func() { mergeFlags.commitMergeinfo = d.CommitMergeinfo })
	set("ignore", func() { mergeFlags.ignoreList = d.IgnoreList })
	set("username", func() { mergeFlags.username = d.Username })
	set("noop", func() { mergeFlags.noop = d.Noop })
	set("verbose", func() { mergeFlags.verbose = d.Verbose })
	set("webhook-url", func() { mergeFlags.webhookURL = d.WebhookURL })
	set("notify-recipient", func() { mergeFlags.notifyRecipients = d.NotifyRecipients })
	set("email-domain", func() { mergeFlags.emailDomain = d.EmailDomain })
}

func buildSink(logger *logging.Logger) notify.Sink {
	var sink notify.Sink = notify.NewStdoutSink()
	if mergeFlags.webhookURL != "" {
		sink = notify.NewWebhookSink(mergeFlags.webhookURL)
	}
	if len(mergeFlags.notifyRecipients) == 0 {
		return sink
	}
	logger.Debugf("orchestrator: expanding %d notify recipient(s) with domain %s", len(mergeFlags.notifyRecipients), mergeFlags.emailDomain)
	return &notify.RecipientSink{Inner: sink, Recipients: mergeFlags.notifyRecipients, Domain: mergeFlags.emailDomain}
}

func runMergeDaemon(ctx context.Context, orch *orchestrator.Orchestrator, logger *logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Infof("automerge daemon started (polling every %s)", mergeFlags.pollInterval)

	ticker := time.NewTicker(mergeFlags.pollInterval)
	defer ticker.Stop()

	runOnce := func() {
		if _, err := orch.LaunchMerge(ctx); err != nil {
			logger.Errorf("automerge: pass failed: %s", err)
		}
	}

	runOnce()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("automerge daemon stopped")
			return nil
		case sig := <-sigCh:
			logger.Infof("received %s, shutting down", sig)
			cancel()
		case <-ticker.C:
			runOnce()
		}
	}
}
