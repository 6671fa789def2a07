package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/clienthunt-admin/e2etests"
	"github.com/jrsteele09/clienthunt-admin/poller"
	"github.com/spf13/cobra"
)

func newE2ECmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "e2e",
		Short:             "End-to-end test runs",
		PersistentPreRunE: a.adminPreRun,
	}

	var limit int
	results := &cobra.Command{
		Use:   "results",
		Short: "List recent test results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e2etests.NewService(a.client).Results(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.printResults(r)
		},
	}
	results.Flags().IntVar(&limit, "limit", e2etests.DefaultLimit, "Number of results")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Pass rate and run totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e2etests.NewService(a.client).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.print(st, func(w *tabwriter.Writer) {
				row(w, "Total runs", st.TotalRuns)
				row(w, "Passed", st.Passed)
				row(w, "Failed", st.Failed)
				row(w, "Pass rate", fmt.Sprintf("%.1f%%", st.PassRate))
				row(w, "Running", yesNo(st.InFlight()))
				row(w, "Last run", st.LastRunAt.Format(dateTimeLayout))
			})
		},
	}

	var watch bool
	var interval time.Duration
	run := &cobra.Command{
		Use:   "run",
		Short: "Start a test run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := e2etests.NewService(a.client)
			resp, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			msg := resp.Message
			if msg == "" {
				msg = "E2E test run started"
			}
			if !watch {
				return a.printer.success(msg)
			}
			if a.printer.format == formatTable {
				fmt.Fprintln(a.stdout, msg)
			}
			return a.watchRun(cmd.Context(), svc, pollInterval(interval, a.cfg.GetE2EPollInterval()))
		},
	}
	run.Flags().BoolVarP(&watch, "watch", "w", false, "Wait for the run to finish, then print the results")
	run.Flags().DurationVar(&interval, "interval", 0, "Poll interval for --watch (default 10s)")

	clearResults := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored test results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := e2etests.NewService(a.client).Clear(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.success(fmt.Sprintf("Cleared %d results", resp.Deleted))
		},
	}

	cmd.AddCommand(results, stats, run, clearResults)
	return cmd
}

// watchRun polls until neither stats nor results report work in flight.
func (a *app) watchRun(ctx context.Context, svc *e2etests.Service, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var latest *e2etests.Results
	p, err := poller.New(interval, func(ctx context.Context) (bool, error) {
		results, stats, inFlight, err := svc.Snapshot(ctx, e2etests.DefaultLimit)
		if err != nil {
			return false, err
		}
		latest = results
		if inFlight && a.printer.format == formatTable {
			fmt.Fprintf(a.stdout, "running... %d passed, %d failed\n", stats.Passed, stats.Failed)
		}
		return inFlight, nil
	},
		poller.StopWhenIdle(),
		poller.WithErrorHandler(a.reportPollError),
		poller.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	if err := p.Run(ctx); err != nil {
		return ignoreCanceled(err)
	}
	if latest == nil {
		return nil
	}
	return a.printResults(latest)
}

func (a *app) printResults(r *e2etests.Results) error {
	return a.printer.print(r, func(w *tabwriter.Writer) {
		row(w, "TEST", "STATUS", "DURATION", "STARTED", "ERROR")
		for _, res := range r.Results {
			row(w, res.TestName, res.Status, res.Duration(), res.StartedAt.Format(dateTimeLayout), res.Error)
		}
	})
}
