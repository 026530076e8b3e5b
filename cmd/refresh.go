package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jacobfeldgoise/country-comparison/internal/format"
	"github.com/jacobfeldgoise/country-comparison/internal/refresh"
)

var refreshIfStale bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every indicator once and store a new snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Store == nil {
			zap.L().Warn("no store available, the refreshed snapshot will not be persisted")
		}

		if refreshIfStale {
			env.Service.LoadCached(ctx)
			_, noData := env.Service.Data()
			if !refresh.ShouldRefresh(env.Service.Status().LastRefresh, time.Now(), noData == nil, env.interval()) {
				printStatus(os.Stdout, env.Service.Status(), time.Now())
				fmt.Fprintln(os.Stderr, "Snapshot is fresh, skipping refresh.")
				return nil
			}
		}

		start := time.Now()
		if err := env.Service.Refresh(ctx); err != nil {
			return err
		}
		zap.L().Info("refresh complete", zap.Duration("elapsed", time.Since(start)))

		printStatus(os.Stdout, env.Service.Status(), time.Now())
		return nil
	},
}

func printStatus(out io.Writer, st refresh.Status, now time.Time) {
	_, _ = fmt.Fprintf(out, "Countries:    %d\n", st.Records)
	if st.SnapshotID != "" {
		_, _ = fmt.Fprintf(out, "Snapshot:     %s\n", st.SnapshotID)
	}
	updated := "never"
	if !st.LastRefresh.IsZero() {
		updated = fmt.Sprintf("%s (%s)", format.Timestamp(st.LastRefresh.UnixMilli()), format.Relative(st.LastRefresh, now))
	}
	_, _ = fmt.Fprintf(out, "Last refresh: %s\n", updated)
	if st.LastError != "" {
		_, _ = fmt.Fprintf(out, "Last error:   %s\n", st.LastError)
	}
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshIfStale, "if-stale", false, "only refresh when the stored snapshot is older than the refresh interval")
	rootCmd.AddCommand(refreshCmd)
}
