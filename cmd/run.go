package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/user/clipcutter/batch"
	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/db"
	"github.com/user/clipcutter/deps"
	"github.com/user/clipcutter/encoder"
	"github.com/user/clipcutter/logging"
	"github.com/user/clipcutter/pkg/timeutil"
	"github.com/user/clipcutter/publish"
	"github.com/user/clipcutter/sheet"
	"github.com/user/clipcutter/tui"
	"github.com/user/clipcutter/tui/forms"
)

var errBatchCancelled = errors.New("batch cancelled")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Cut every queued clip",
	Long: `Match each clip request to the recording that covers it and encode it with
ffmpeg. Requests come from --sheet or the stored queue, recordings from
--recordings or the stored catalog.

While the progress view is open: p pauses or resumes, c cancels, q cancels and
quits. Pass --headless for plain log output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Environment overrides flags, then validate the result
		if err := cfg.ApplyEnv(os.Getenv); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Resolve and create the output directory
		outDir, err := filepath.Abs(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to resolve output dir: %w", err)
		}
		cfg.OutputDir = outDir
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		if cfg.LogFile == "" {
			cfg.LogFile = cfg.DefaultLogFile()
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Close()

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		// Find ffmpeg before doing any work
		ffmpeg, err := deps.NewResolver(cfg.BundleDir).Resolve("ffmpeg")
		if err != nil {
			return err
		}
		log.Debug("using %s", ffmpeg)

		plan, err := loadPlan(cmd, database, log)
		if err != nil {
			return err
		}

		if cfg.Interactive {
			ok, err := editPlan(&plan)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		notifiers, closeAll, err := buildNotifiers(database, log)
		if err != nil {
			return err
		}
		defer closeAll()

		driver := encoder.NewDriver(cfg.EncoderOptions(ffmpeg), encoder.ExecLauncher{}, log)
		orch := batch.New(driver,
			batch.WithLogger(log),
			batch.WithNotifiers(notifiers...),
			batch.WithSkipExisting(cfg.SkipExisting),
		)

		// Ctrl+C and SIGTERM cancel the batch
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Plain logs when headless or not on a terminal
		var report batch.Report
		if cfg.Headless || !isatty.IsTerminal(os.Stdout.Fd()) {
			report, err = orch.Run(ctx, plan)
			if err != nil {
				return err
			}
		} else {
			if err := orch.Start(ctx, plan); err != nil {
				return err
			}
			// Keep log lines off the alt screen
			log.Mute(true)
			uiErr := tui.Run(orch, tui.Options{
				Quality:      plan.Quality.String(),
				Settings:     settingsLines(plan),
				ExitWhenDone: cfg.ExitWhenDone,
			})
			log.Mute(false)
			if uiErr != nil {
				orch.Cancel()
			}
			report = orch.Wait()
			if uiErr != nil {
				log.Error("progress view: %v", uiErr)
			}
		}

		printReport(os.Stdout, report)
		// Non-zero exit on failures or cancel
		switch {
		case report.Failed > 0:
			return fmt.Errorf("%d of %d clips failed", report.Failed, report.Total())
		case report.Cancelled:
			return errBatchCancelled
		}
		return nil
	},
}

// loadPlan gathers the recordings and requests for a run.
func loadPlan(cmd *cobra.Command, database *sql.DB, log *logging.Logger) (batch.Plan, error) {
	plan := batch.Plan{Quality: cfg.QualityLevel(), Offsets: cfg.Offsets}

	// Scan fresh recordings and remember them, or fall back to the catalog
	if cfg.RecordingsDir != "" {
		recs, err := scanRecordings(cmd, cfg.RecordingsDir, log)
		if err != nil {
			return plan, err
		}
		now := time.Now()
		for _, r := range recs {
			if err := db.UpsertRecording(database, r, now); err != nil {
				return plan, err
			}
		}
		plan.Catalog = recs
	} else {
		recs, err := db.SelectRecordings(database)
		if err != nil {
			return plan, err
		}
		if len(recs) == 0 {
			return plan, errors.New("no recordings: pass --recordings <dir> or run 'recording scan' first")
		}
		plan.Catalog = recs
	}

	// Sheet requests, or the stored queue
	if cfg.Sheet != "" {
		res, err := sheet.Load(cfg.Sheet, cfg.OutputDir)
		if err != nil {
			return plan, err
		}
		// Bad rows are reported, not fatal
		for _, p := range res.Problems {
			log.Warn("%s: %v", filepath.Base(cfg.Sheet), p)
		}
		plan.Requests = res.Requests
	} else {
		queued, err := db.SelectClipRequests(database)
		if err != nil {
			return plan, err
		}
		for _, q := range queued {
			plan.Requests = append(plan.Requests, q.Request)
		}
	}
	if len(plan.Requests) == 0 {
		return plan, errors.New("no clip requests: pass --sheet <file> or run 'request import' first")
	}

	log.Info("%d clip requests, %d recordings", len(plan.Requests), len(plan.Catalog))
	return plan, nil
}

// editPlan lets the user adjust quality and offsets, then confirm.
func editPlan(plan *batch.Plan) (bool, error) {
	result := forms.NewRunFormResult(plan.Quality, plan.Offsets)
	if err := forms.NewRunForm(result).Run(); err != nil {
		return false, err
	}
	q, offsets, err := result.Settings()
	if err != nil {
		return false, err
	}
	plan.Quality, plan.Offsets = q, offsets

	proceed := true
	if err := forms.NewConfirmRunForm(len(plan.Requests), len(plan.Catalog), &proceed).Run(); err != nil {
		return false, err
	}
	return proceed, nil
}

// buildNotifiers returns the run recorder plus any configured publishers.
func buildNotifiers(database *sql.DB, log *logging.Logger) ([]batch.Notifier, func(), error) {
	// The recorder always runs
	notifiers := []batch.Notifier{db.NewRecorder(database)}
	var closers []io.Closer

	if cfg.Kafka.Enabled() {
		p, err := publish.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		log.Info("publishing events to kafka topic %s", cfg.Kafka.Topic)
		notifiers = append(notifiers, p)
		closers = append(closers, p)
	}
	if cfg.Minio.Endpoint != "" {
		u, err := publish.NewMinioUploader(cfg.Minio)
		if err != nil {
			return nil, nil, err
		}
		log.Info("uploading clips to %s/%s", cfg.Minio.Endpoint, cfg.Minio.Bucket)
		notifiers = append(notifiers, u)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn("close: %v", err)
			}
		}
	}
	return notifiers, closeAll, nil
}

func settingsLines(plan batch.Plan) []string {
	lines := []string{
		" quality    " + plan.Quality.String(),
		" leniency   -" + timeutil.FormatSeconds(plan.Offsets.StartLeniency) + " / +" + timeutil.FormatSeconds(plan.Offsets.EndLeniency),
		" min length " + timeutil.FormatSeconds(plan.Offsets.MinDuration),
		" output     " + filepath.Base(cfg.OutputDir),
	}
	if cfg.SkipExisting {
		lines = append(lines, " skipping existing outputs")
	}
	return lines
}

// printReport writes the per-clip summary table.
func printReport(w io.Writer, r batch.Report) {
	fmt.Fprintf(w, "\nRun %s: %d completed, %d failed, %d skipped of %d in %s\n\n",
		shortID(r.RunID), r.Completed, r.Failed, r.Skipped, r.Total(),
		timeutil.FormatDuration(r.FinishedAt.Sub(r.StartedAt)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tStatus\tRetries\tSize\tFile\tDetail")
	fmt.Fprintln(tw, "-\t------\t-------\t----\t----\t------")
	for _, j := range r.Jobs {
		size := "-"
		if j.Status == clip.StatusCompleted {
			size = humanize.Bytes(uint64(j.OutputSize))
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			j.Index+1, j.Status, j.Retries, size, filepath.Base(j.Request.OutputPath), j.Error)
	}
	tw.Flush()
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&cfg.RecordingsDir, "recordings", "r", "", "scan this directory instead of using the stored catalog")
	f.StringVarP(&cfg.Sheet, "sheet", "s", "", "read requests from this .xlsx/.csv instead of the stored queue")
	f.StringVarP(&cfg.OutputDir, "out", "o", cfg.OutputDir, "output directory for clips read from --sheet, and for log.txt")
	f.StringVarP(&cfg.Quality, "quality", "q", cfg.Quality, "encode quality: high, medium or low")
	f.Float64Var(&cfg.Offsets.StartLeniency, "start-leniency", cfg.Offsets.StartLeniency, "seconds added before each clip")
	f.Float64Var(&cfg.Offsets.EndLeniency, "end-leniency", cfg.Offsets.EndLeniency, "seconds added after each clip")
	f.Float64Var(&cfg.Offsets.MinDuration, "min-duration", cfg.Offsets.MinDuration, "shortest clip length in seconds")
	f.BoolVar(&cfg.SkipExisting, "skip-existing", false, "skip clips whose output file already exists")
	f.BoolVarP(&cfg.Interactive, "interactive", "i", false, "edit quality and offsets in a form before starting")
	f.BoolVar(&cfg.Headless, "headless", false, "log progress instead of showing the progress view")
	f.BoolVar(&cfg.ExitWhenDone, "exit-when-done", false, "close the progress view as soon as the batch ends")
	f.DurationVar(&cfg.StallTimeout, "stall-timeout", cfg.StallTimeout, "restart an encode that makes no progress for this long")
	f.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "encode attempts per clip before giving up")
	f.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "pause between encode attempts")
	f.StringSliceVar(&cfg.Kafka.Brokers, "kafka-brokers", nil, "publish batch events to these Kafka brokers (env CLIPCUTTER_KAFKA_BROKERS)")
	f.StringVar(&cfg.Kafka.Topic, "kafka-topic", cfg.Kafka.Topic, "Kafka topic for batch events")
	f.StringVar(&cfg.Minio.Endpoint, "minio-endpoint", "", "upload finished clips to this S3/MinIO endpoint (env CLIPCUTTER_MINIO_ENDPOINT)")
	f.StringVar(&cfg.Minio.Bucket, "minio-bucket", cfg.Minio.Bucket, "bucket for uploaded clips")
	f.BoolVar(&cfg.Minio.Secure, "minio-secure", false, "use TLS for the MinIO endpoint")

	rootCmd.AddCommand(runCmd)
}
