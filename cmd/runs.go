package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/db"
	"github.com/user/clipcutter/deps"
	"github.com/user/clipcutter/mpv"
	"github.com/user/clipcutter/pkg/timeutil"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past batches",
	Long:  `List past batches, show the outcome of every clip in one, or play a produced clip in mpv.`,
}

func runStatus(r db.Run) string {
	switch {
	case r.FinishedAt == nil:
		return "running"
	case r.Cancelled:
		return "cancelled"
	case r.Failed > 0:
		return "failed"
	}
	return "ok"
}

// lookupRun resolves an ID or ID prefix with friendlier errors.
func lookupRun(database *sql.DB, id string) (db.Run, error) {
	run, err := db.SelectRun(database, id)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("run not found: %s", id)
	}
	return run, err
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		runs, err := db.SelectRuns(database, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tStarted\tQuality\tClips\tDone\tFailed\tSkipped\tStatus")
		fmt.Fprintln(w, "--\t-------\t-------\t-----\t----\t------\t-------\t------")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				shortID(r.ID), humanize.Time(r.StartedAt), r.Quality,
				r.Total, r.Completed, r.Failed, r.Skipped, runStatus(r))
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show every clip of a batch",
	Long:  `Show the outcome of every clip of a batch. <id> may be any unique prefix of the run ID.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		run, err := lookupRun(database, args[0])
		if err != nil {
			return err
		}
		jobs, err := db.SelectRunJobs(database, run.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Run %s (%s quality)\n", run.ID, run.Quality)
		fmt.Printf("Started:  %s\n", run.StartedAt.Format(time.DateTime))
		if run.FinishedAt != nil {
			fmt.Printf("Finished: %s (took %s)\n", run.FinishedAt.Format(time.DateTime),
				timeutil.FormatDuration(run.FinishedAt.Sub(run.StartedAt)))
		}
		fmt.Printf("Result:   %d completed, %d failed, %d skipped of %d (%s)\n\n",
			run.Completed, run.Failed, run.Skipped, run.Total, runStatus(run))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tStatus\tRetries\tSize\tLabel\tDetail")
		fmt.Fprintln(w, "-\t------\t-------\t----\t-----\t------")
		for _, j := range jobs {
			size := "-"
			if j.Filesize > 0 {
				size = humanize.Bytes(uint64(j.Filesize))
			}
			// Prefix the failure kind when there is one
			detail := j.Log
			if j.Failure != "" {
				detail = j.Failure + ": " + j.Log
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", j.Position, j.Status, j.Retries, size, j.Label, detail)
		}
		return w.Flush()
	},
}

var runsPlayCmd = &cobra.Command{
	Use:   "play <id> <n>",
	Short: "Open clip n of a batch in mpv",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loop, _ := cmd.Flags().GetBool("loop")

		// Clip numbers are 1-based
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid clip number: %s", args[1])
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		run, err := lookupRun(database, args[0])
		if err != nil {
			return err
		}
		jobs, err := db.SelectRunJobs(database, run.ID)
		if err != nil {
			return err
		}

		// Find the clip and make sure it was produced
		var path, label string
		for _, j := range jobs {
			if j.Position == n {
				status, err := clip.ParseStatus(j.Status)
				if err != nil {
					return err
				}
				if status != clip.StatusCompleted {
					return fmt.Errorf("clip %d was not produced (%s)", n, j.Status)
				}
				path, label = j.OutputPath, j.Label
			}
		}
		if path == "" {
			return fmt.Errorf("run %s has no clip %d", shortID(run.ID), n)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("clip file missing: %w", err)
		}

		fmt.Printf("Playing %s\n", path)
		player, err := mpv.Play(deps.NewResolver(cfg.BundleDir), path, mpv.PlayOptions{Title: label, Loop: loop})
		if err != nil {
			return err
		}
		return player.Wait()
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "number of runs to show")
	runsPlayCmd.Flags().Bool("loop", false, "replay the clip until the window is closed")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsPlayCmd)
	rootCmd.AddCommand(runsCmd)
}
