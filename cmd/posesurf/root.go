package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/posesurf/internal/store"
)

// Version is the application version.
const Version = "0.1.0"

// Environment variables read when the matching flag is not set.
const (
	envURL = "POSESURF_URL"
	envDB  = "POSESURF_DB"
)

var (
	// dbPath is the history database file
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "posesurf",
	Short:         "Play a browser runner game with body gestures",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			if env := os.Getenv(envDB); env != "" {
				dbPath = env
			} else {
				dir, err := dataDir()
				if err != nil {
					return err
				}
				dbPath = filepath.Join(dir, "posesurf.db")
			}
		}

		if !verbose {
			log.SetFlags(log.Ltime)
		} else {
			log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		}
		return nil
	},
}

// Execute runs the root command with a context cancelled by SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (default: $"+envDB+" or ~/.posesurf/posesurf.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every frame")
}

// dataDir returns ~/.posesurf.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".posesurf"), nil
}

// openStore opens the history database selected by --db.
func openStore() (*store.Store, error) {
	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", dbPath, err)
	}
	return st, nil
}
