package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/user/clipcutter/catalog"
	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/db"
	"github.com/user/clipcutter/deps"
	"github.com/user/clipcutter/logging"
	"github.com/user/clipcutter/pkg/timeutil"
)

var recordingCmd = &cobra.Command{
	Use:     "recording",
	Aliases: []string{"recordings", "rec"},
	Short:   "Manage the recording catalog",
	Long:    `Scan directories of timestamped recordings into the catalog, list it, or clear it.`,
}

var recordingScanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Scan a directory of recordings into the catalog",
	Long: `Find video files under <dir>, read each start time from its file name and
probe its duration, resolution and bitrate with ffprobe. Files without a
recognisable start time are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

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

		recs, err := scanRecordings(cmd, args[0], log)
		if err != nil {
			return err
		}

		// Clear only after a successful scan
		if replace {
			if _, err := db.DeleteRecordings(database); err != nil {
				return err
			}
		}
		now := time.Now()
		for _, r := range recs {
			if err := db.UpsertRecording(database, r, now); err != nil {
				return err
			}
		}

		log.Success("catalogued %d recordings from %s", len(recs), args[0])
		return nil
	},
}

// scanRecordings runs a catalog scan of dir and logs every issue.
func scanRecordings(cmd *cobra.Command, dir string, log *logging.Logger) ([]clip.Recording, error) {
	ffprobe, err := deps.NewResolver(cfg.BundleDir).Resolve("ffprobe")
	if err != nil {
		return nil, err
	}
	log.Debug("using %s", ffprobe)

	recs, issues, err := catalog.Scan(cmd.Context(), dir, catalog.FFprobe{Path: ffprobe})
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		log.Warn("%s", issue)
	}
	// per-file details only matter with -v
	if log.Verbose() {
		for _, r := range recs {
			log.Debug("%s: starts %s, %.1fs, %d b/s", filepath.Base(r.Path), r.Start.Format(time.DateTime), r.Duration, r.Bitrate)
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no usable recordings found in %s", dir)
	}
	return recs, nil
}

var recordingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued recordings",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		recs, err := db.SelectRecordings(database)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No recordings catalogued. Use 'recording scan <dir>' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Start\tDuration\tCovers Until\tVideo\tBitrate\tFile")
		fmt.Fprintln(w, "-----\t--------\t------------\t-----\t-------\t----")
		for i, r := range recs {
			// Unknown values print as ?
			duration := "?"
			if r.HasDuration() {
				duration = timeutil.FormatTime(r.Duration)
			}
			video := "?"
			if r.Width > 0 {
				video = fmt.Sprintf("%dx%d@%.3g", r.Width, r.Height, r.FrameRate)
			}
			bitrate := "?"
			if r.Bitrate > 0 {
				bitrate = humanize.SIWithDigits(float64(r.Bitrate), 1, "b/s")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Start.Format(time.DateTime), duration,
				clip.CoverageEnd(recs, i).Format(time.DateTime),
				video, bitrate, filepath.Base(r.Path))
		}
		w.Flush()

		fmt.Printf("\nTotal: %d recordings\n", len(recs))
		return nil
	},
}

var recordingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every recording from the catalog",
	Long:  `Remove every recording from the catalog. The video files themselves are not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := db.DeleteRecordings(database)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d recordings from the catalog\n", n)
		return nil
	},
}

func init() {
	recordingScanCmd.Flags().Bool("replace", false, "clear the catalog before adding the scanned recordings")

	recordingCmd.AddCommand(recordingScanCmd)
	recordingCmd.AddCommand(recordingListCmd)
	recordingCmd.AddCommand(recordingClearCmd)
	rootCmd.AddCommand(recordingCmd)
}
