package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/clienthunt-admin/internal/utils"
	"github.com/jrsteele09/clienthunt-admin/support"
	"github.com/spf13/cobra"
)

func newSupportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "support",
		Short:             "Support threads",
		PersistentPreRunE: a.adminPreRun,
	}

	var params support.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List support threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := support.NewService(a.client).Threads(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer.print(page, func(w *tabwriter.Writer) {
				row(w, "ID", "SUBJECT", "USER", "STATUS", "MESSAGES", "UPDATED")
				for _, t := range page.Threads {
					row(w, t.ID, t.Subject, t.UserEmail, t.Status, t.MessageCount, t.UpdatedAt.Format(dateTimeLayout))
				}
				pageFooter(w, page.Window.Page, page.Window.TotalPages, page.Window.Total)
			})
		},
	}
	list.Flags().IntVar(&params.Page, "page", 1, "Page number, starting at 1")
	list.Flags().IntVar(&params.Limit, "limit", 0, "Threads per page (default 20)")
	list.Flags().StringVar(&params.Status, "status", "", "Filter: open|pending|resolved|closed")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a thread and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := support.NewService(a.client).Thread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printer.title("#%s %s (%s, %s)", t.ID, t.Subject, t.UserEmail, t.Status)
			return a.printer.print(t, func(w *tabwriter.Writer) {
				for _, m := range t.Messages {
					author := m.Author
					if m.IsAdmin {
						author += " (admin)"
					}
					fmt.Fprintf(w, "%s  %s\n%s\n\n", m.CreatedAt.Format(dateTimeLayout), author, m.Content)
				}
			})
		},
	}

	var message string
	reply := &cobra.Command{
		Use:   "reply <id>",
		Short: "Reply to a thread (Markdown)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := support.NewService(a.client).Reply(cmd.Context(), args[0], message); err != nil {
				return err
			}
			return a.printer.success("Reply sent")
		},
	}
	reply.Flags().StringVarP(&message, "message", "m", "", "Reply content")
	_ = reply.MarkFlagRequired("message")

	status := &cobra.Command{
		Use:       "status <id> <status>",
		Short:     "Change a thread's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: support.Statuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := support.NewService(a.client).SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.printer.success(fmt.Sprintf("Thread %s marked %s", args[0], utils.FirstNonEmpty(t.Status, args[1])))
		},
	}

	cmd.AddCommand(list, show, reply, status)
	return cmd
}
