package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/db"
	"github.com/user/clipcutter/pkg/timeutil"
	"github.com/user/clipcutter/sheet"
)

var requestCmd = &cobra.Command{
	Use:     "request",
	Aliases: []string{"requests", "req"},
	Short:   "Manage the queue of clip requests",
	Long:    `Import clip requests from a spreadsheet, add them by hand, list or clear the queue used by 'run'.`,
}

var requestImportCmd = &cobra.Command{
	Use:   "import <sheet>",
	Short: "Import clip requests from an .xlsx or .csv sheet",
	Long: `Import one clip request per row of <sheet>. The header row must name a time
column (起始时间 / 开始时间 / time, or separate start and end columns) and a
label column (问题 / 描述 / 标题 / 片段名称 / label). Rows without a usable
time range are reported and skipped. The queue is replaced unless --append is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")
		appendQueue, _ := cmd.Flags().GetBool("append")

		outDir, err := filepath.Abs(outDir)
		if err != nil {
			return fmt.Errorf("failed to resolve output dir: %w", err)
		}

		res, err := sheet.Load(args[0], outDir)
		if err != nil {
			return err
		}
		for _, p := range res.Problems {
			fmt.Fprintf(os.Stderr, "skipped %v\n", p)
		}
		if len(res.Requests) == 0 {
			return fmt.Errorf("no usable rows in %s", args[0])
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		// Appended rows must not reuse queued output paths
		reqs := res.Requests
		if appendQueue {
			paths, err := queuedPaths(database)
			if err != nil {
				return err
			}
			for i := range reqs {
				reqs[i].OutputPath = paths.Unique(reqs[i].OutputPath)
			}
		} else if _, err := db.DeleteClipRequests(database); err != nil {
			return err
		}

		if err := db.InsertClipRequests(database, reqs); err != nil {
			return err
		}
		fmt.Printf("Queued %d clip requests (%d rows skipped)\n", len(reqs), len(res.Problems))
		return nil
	},
}

var requestAddCmd = &cobra.Command{
	Use:   "add <start> <end> <label>",
	Short: "Queue a single clip request",
	Long:  `Queue a clip by wall-clock range, e.g. add "2026-01-15 10:00:00" "2026-01-15 10:02:30" "first try".`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")

		// Parse start and end times
		start, ok := sheet.ParseDateTime(args[0])
		if !ok {
			return fmt.Errorf("invalid start time: %q", args[0])
		}
		end, ok := sheet.ParseDateTime(args[1])
		if !ok {
			return fmt.Errorf("invalid end time: %q", args[1])
		}

		outDir, err := filepath.Abs(outDir)
		if err != nil {
			return fmt.Errorf("failed to resolve output dir: %w", err)
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		paths, err := queuedPaths(database)
		if err != nil {
			return err
		}
		req := clip.Request{
			Start:      start,
			End:        end,
			Label:      args[2],
			OutputPath: paths.Unique(clip.OutputPath(outDir, args[2])),
		}
		if err := req.Validate(); err != nil {
			return err
		}

		id, err := db.InsertClipRequest(database, req)
		if err != nil {
			return err
		}
		fmt.Printf("Request queued: ID %d (%s, %s) -> %s\n",
			id, start.Format(time.DateTime), timeutil.FormatDuration(req.Duration()), req.OutputPath)
		return nil
	},
}

// queuedPaths returns a PathSet holding the output paths already queued.
func queuedPaths(database *sql.DB) (*clip.PathSet, error) {
	queued, err := db.SelectClipRequests(database)
	if err != nil {
		return nil, err
	}
	paths := clip.NewPathSet()
	for _, r := range queued {
		paths.Reserve(r.OutputPath)
	}
	return paths, nil
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued clip requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		reqs, err := db.SelectClipRequests(database)
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Println("No clip requests queued.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tStart\tEnd\tLength\tLabel\tOutput")
		fmt.Fprintln(w, "-\t-----\t---\t------\t-----\t------")
		for _, r := range reqs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				r.Position, r.Start.Format(time.DateTime), r.End.Format(time.DateTime),
				timeutil.FormatDuration(r.Duration()), r.Label, filepath.Base(r.OutputPath))
		}
		w.Flush()

		fmt.Printf("\nTotal: %d requests\n", len(reqs))
		return nil
	},
}

var requestClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the request queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := db.DeleteClipRequests(database)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d queued requests\n", n)
		return nil
	},
}

func init() {
	requestImportCmd.Flags().StringP("out", "o", cfg.OutputDir, "directory the clips will be written to")
	requestImportCmd.Flags().Bool("append", false, "add to the queue instead of replacing it")
	requestAddCmd.Flags().StringP("out", "o", cfg.OutputDir, "directory the clip will be written to")

	requestCmd.AddCommand(requestImportCmd)
	requestCmd.AddCommand(requestAddCmd)
	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(requestClearCmd)
	rootCmd.AddCommand(requestCmd)
}
