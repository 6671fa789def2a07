package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/clienthunt-admin/activity"
	"github.com/jrsteele09/clienthunt-admin/analytics"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/poller"
	"github.com/jrsteele09/clienthunt-admin/subscriptions"
	"github.com/jrsteele09/clienthunt-admin/system"
	"github.com/spf13/cobra"
)

const dateTimeLayout = "2006-01-02 15:04"

func newAnalyticsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "analytics",
		Short:             "Revenue, growth and subscription reports",
		PersistentPreRunE: a.adminPreRun,
	}

	overview := &cobra.Command{
		Use:   "overview",
		Short: "Headline numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := analytics.NewService(a.client).Overview(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.print(o, func(w *tabwriter.Writer) {
				row(w, "Total users", o.TotalUsers)
				row(w, "Active users", o.ActiveUsers)
				row(w, "New today", o.NewUsersToday)
				row(w, "Total revenue", fmt.Sprintf("$%.2f", o.TotalRevenue))
				row(w, "MRR", fmt.Sprintf("$%.2f", o.MRR))
				row(w, "Active subscriptions", o.ActiveSubscriptions)
				row(w, "Churn rate", fmt.Sprintf("%.1f%%", o.ChurnRate))
			})
		},
	}

	var revenueDays int
	revenue := &cobra.Command{
		Use:   "revenue",
		Short: "Daily revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := analytics.NewService(a.client).Revenue(cmd.Context(), revenueDays)
			if err != nil {
				return err
			}
			a.printer.title("Revenue, last %d days: $%.2f (peak $%.2f)", r.Days, r.Total, r.Peak())
			return a.printer.print(r, func(w *tabwriter.Writer) {
				row(w, "DATE", "AMOUNT")
				for _, p := range r.Data {
					row(w, p.Date, fmt.Sprintf("$%.2f", p.Amount))
				}
			})
		},
	}
	revenue.Flags().IntVar(&revenueDays, "days", analytics.DefaultDays, "Window in days (max 365)")

	var growthDays int
	growth := &cobra.Command{
		Use:   "users",
		Short: "Daily signups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := analytics.NewService(a.client).Users(cmd.Context(), growthDays)
			if err != nil {
				return err
			}
			a.printer.title("Signups, last %d days: %d", g.Days, g.TotalSignups)
			return a.printer.print(g, func(w *tabwriter.Writer) {
				row(w, "DATE", "SIGNUPS")
				for _, p := range g.Data {
					row(w, p.Date, p.Signups)
				}
			})
		},
	}
	growth.Flags().IntVar(&growthDays, "days", analytics.DefaultDays, "Window in days (max 365)")

	breakdown := &cobra.Command{
		Use:   "subscriptions",
		Short: "Subscriptions by tier and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := analytics.NewService(a.client).Subscriptions(cmd.Context())
			if err != nil {
				return err
			}
			a.printer.title("Subscriptions: %d", b.Total)
			return a.printer.print(b, func(w *tabwriter.Writer) {
				row(w, "GROUP", "NAME", "COUNT")
				for _, k := range sortedKeys(b.ByTier) {
					row(w, "tier", k, b.ByTier[k])
				}
				for _, k := range sortedKeys(b.ByStatus) {
					row(w, "status", k, b.ByStatus[k])
				}
			})
		},
	}

	cmd.AddCommand(overview, revenue, growth, breakdown)
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newSubscriptionsCmd(a *app) *cobra.Command {
	var params subscriptions.ListParams
	cmd := &cobra.Command{
		Use:               "subscriptions",
		Short:             "List subscriptions",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.adminPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := subscriptions.NewService(a.client).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer.print(page, func(w *tabwriter.Writer) {
				row(w, "ID", "USER", "TIER", "STATUS", "PRICE", "PERIOD END")
				for _, s := range page.Subscriptions {
					row(w, s.ID, s.UserEmail, s.Tier, s.Status, s.Price(), s.CurrentPeriodEnd.Format("2006-01-02"))
				}
				pageFooter(w, page.Window.Page, page.Window.TotalPages, page.Window.Total)
			})
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Rows per page (default 20)")
	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by subscription status")
	return cmd
}

func newAuditLogsCmd(a *app) *cobra.Command {
	var params activity.ListParams
	cmd := &cobra.Command{
		Use:               "audit-logs",
		Short:             "List admin actions",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.adminPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := activity.NewService(a.client).AuditLogs(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer.print(page, func(w *tabwriter.Writer) {
				row(w, "TIME", "ADMIN", "ACTION", "TARGET", "DETAILS", "IP")
				for _, l := range page.Logs {
					row(w, l.CreatedAt.Format(dateTimeLayout), l.AdminEmail, l.Action,
						l.TargetType+" "+l.TargetID, l.Summary(), l.IPAddress)
				}
				pageFooter(w, page.Window.Page, page.Window.TotalPages, page.Window.Total)
			})
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Rows per page (default 20)")
	return cmd
}

func newPageVisitsCmd(a *app) *cobra.Command {
	var params activity.ListParams
	cmd := &cobra.Command{
		Use:               "page-visits",
		Short:             "List recent page visits",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.adminPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := activity.NewService(a.client).PageVisits(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer.print(page, func(w *tabwriter.Writer) {
				row(w, "TIME", "PATH", "VISITOR", "IP", "REFERRER")
				for _, v := range page.Visits {
					row(w, v.CreatedAt.Format(dateTimeLayout), v.Path, v.Visitor(), v.IPAddress, v.Referrer)
				}
				pageFooter(w, page.Window.Page, page.Window.TotalPages, page.Window.Total)
			})
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Rows per page (default 20)")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var watch bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:               "status",
		Short:             "Show backend health",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.adminPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := system.NewService(a.client)
			show := func(ctx context.Context) error {
				st, err := svc.Status(ctx)
				if err != nil {
					return err
				}
				return a.printStatus(st)
			}
			if !watch {
				return show(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			p, err := poller.New(pollInterval(interval, a.cfg.GetStatusPollInterval()),
				func(ctx context.Context) (bool, error) { return true, show(ctx) },
				poller.WithErrorHandler(a.reportPollError),
				poller.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return ignoreCanceled(p.Run(ctx))
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval for --watch (default 30s)")
	return cmd
}

func (a *app) printStatus(st *system.Status) error {
	state := titleCase(st.Status)
	if st.Status == system.Healthy && !st.Healthy() {
		state = titleCase(system.Degraded)
	}
	a.printer.title("%s  version %s  up %s  (checked %s)", state, st.Version, st.Uptime(), st.CheckedAt.Format(dateTimeLayout))
	return a.printer.print(st, func(w *tabwriter.Writer) {
		row(w, "COMPONENT", "STATUS", "LATENCY", "MESSAGE")
		for _, c := range st.Components {
			row(w, c.Name, c.Status, fmt.Sprintf("%.0fms", c.LatencyMS), c.Message)
		}
	})
}

func pollInterval(flag, fallback time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return fallback
}

// reportPollError keeps a watch going after a failed refresh.
func (a *app) reportPollError(err error) {
	fmt.Fprintf(a.stderr, "refresh failed: %s\n", errorMessage(err))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
