// Command clienthunt is the operator CLI for the ClientHunt admin API.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/internal/config"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/spf13/cobra"
)

func main() {
	_ = config.LoadDotEnv()
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := newApp(config.New(), stdout, stderr)

	root := &cobra.Command{
		Use:           "clienthunt",
		Short:         "Administer ClientHunt from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", a.cfg.GetAPIBaseURL(), "ClientHunt API base URL (env CLIENTHUNT_API_URL)")
	flags.StringVarP(&a.format, "output", "o", formatTable, "Output format: table|json|yaml")
	flags.StringVar(&a.configDir, "config-dir", "", "Directory for stored credentials (default: user config dir)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log API requests to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newUsersCmd(a),
		newAnalyticsCmd(a),
		newSubscriptionsCmd(a),
		newAuditLogsCmd(a),
		newPageVisitsCmd(a),
		newStatusCmd(a),
		newE2ECmd(a),
		newSupportCmd(a),
	)
	return root
}

// errorMessage prefers the backend's own detail over the wrapped error chain.
func errorMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Detail, apiErr.Status)
	case errors.Is(err, errors.ErrNotAuthenticated), errors.Is(err, errors.ErrNoCredentials):
		return "not logged in, run `clienthunt login` first"
	case errors.Is(err, errors.ErrNotAdmin):
		return auth.AccessDeniedMsg
	case errors.Is(err, errors.ErrSessionExpired):
		return "session expired, run `clienthunt login` again"
	}
	return err.Error()
}
