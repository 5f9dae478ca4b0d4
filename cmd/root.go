package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/clipcutter/config"
	"github.com/user/clipcutter/db"
	"github.com/user/clipcutter/deps"
	"github.com/user/clipcutter/logging"
)

var Version = "0.1.0"

// cfg collects every flag; subcommands read it after cobra has parsed.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "clipcutter",
	Short: "Cut labelled clips out of long timestamped recordings",
	Long: `clipcutter turns a list of wall-clock time ranges into video clips.

It catalogs recordings whose file names carry their start time, matches each
requested range to the recording that covers it, and re-encodes the clip with
ffmpeg, retrying encodes that stall.

  clipcutter recording scan ./footage
  clipcutter request import issues.xlsx --out ./clips
  clipcutter run`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clipcutter version %s\n", Version)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system dependencies",
	Long:  `Check that ffmpeg and ffprobe (required) and mpv (optional, for 'runs play') can be found, bundled or on PATH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := deps.NewResolver(cfg.BundleDir)
		fmt.Println("Checking dependencies...")
		fmt.Println()

		missing := 0
		for _, dep := range []struct {
			name     string
			required bool
		}{
			{"ffmpeg", true},
			{"ffprobe", true},
			{"mpv", false},
		} {
			// Check if the dependency is available
			path, err := resolver.Resolve(dep.name)
			if err != nil {
				var depErr *deps.DependencyError
				if errors.As(err, &depErr) {
					fmt.Printf("✗ %s: NOT FOUND\n  Install from: %s\n", dep.name, depErr.InstallURL)
				} else {
					fmt.Printf("✗ %s: %v\n", dep.name, err)
				}
				if dep.required {
					missing++
				}
				continue
			}

			// Ask the binary for its version
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			version, err := deps.Version(ctx, path)
			cancel()
			if err != nil {
				version = "version unknown: " + err.Error()
			}
			fmt.Printf("✓ %s: %s\n  %s\n", dep.name, path, version)
		}

		fmt.Println()
		if missing > 0 {
			return fmt.Errorf("%d required dependencies missing", missing)
		}
		fmt.Println("All required dependencies are installed!")
		return nil
	},
}

// openDB opens the database chosen by --db, or the default one.
func openDB() (*sql.DB, error) {
	var (
		database *sql.DB
		err      error
	)
	if cfg.DBPath != "" {
		database, err = db.OpenPath(cfg.DBPath)
	} else {
		database, err = db.Open()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// newLogger builds the console logger from the persistent flags.
func newLogger() (*logging.Logger, error) {
	return logging.New(cfg.LogOptions())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DBPath, "db", "", "database file (default ~/.local/share/clipcutter/data.db)")
	pf.StringVar(&cfg.BundleDir, "bundle-dir", "", "directory holding bundled ffmpeg/ffprobe/mpv binaries")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "show debug output")
	pf.StringVar(&cfg.Color, "color", cfg.Color, "colorize output: auto, always or never")
	pf.StringVar(&cfg.LogFile, "log-file", "", "also append log lines to this file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(doctorCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
