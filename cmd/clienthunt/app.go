package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/internal/config"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/logging"
	"github.com/jrsteele09/clienthunt-admin/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	credentialsFile = "credentials"
	keyFile         = "credentials.key"
	configDirEnvVar = "CLIENTHUNT_CONFIG_DIR"
)

var nowTime = time.Now

// app holds what every command needs: the flags, the credential stores and one API client.
type app struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer

	apiURL    string
	format    string
	configDir string
	verbose   bool

	printer *printer
	logger  zerolog.Logger
	tokens  *session.FileTokenStore
	tab     *session.TabStore
	client  *apiclient.Client
	auth    *auth.Store
}

func newApp(cfg config.Config, stdout, stderr io.Writer) *app {
	return &app{cfg: cfg, stdout: stdout, stderr: stderr}
}

// init runs once flags are parsed.
func (a *app) init() error {
	p, err := newPrinter(a.format, a.stdout)
	if err != nil {
		return err
	}
	a.printer = p

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.SetupWriter(a.stderr, "DEV", level)

	dir, err := a.credentialsDir()
	if err != nil {
		return err
	}
	key, err := session.LoadOrCreateKey(filepath.Join(dir, keyFile))
	if err != nil {
		return errors.Wrapf(err, "[clienthunt init] credentials key")
	}
	a.tokens = session.NewFileTokenStore(filepath.Join(dir, credentialsFile), key)
	a.tab = session.NewTabStore(0)

	a.client, err = apiclient.New(a.apiURL, a.tokens, a.tab,
		apiclient.WithTimeout(a.cfg.GetAPITimeout()),
		apiclient.WithCSRF(a.cfg.GetCSRFCookieName(), a.cfg.GetCSRFHeaderName(), a.cfg.GetCSRFTokenEndpoint()),
		apiclient.WithLogger(a.logger),
	)
	if err != nil {
		return errors.Wrapf(err, "[clienthunt init] api client")
	}
	a.auth, err = auth.NewStore(a.client, a.tokens, a.tab, auth.WithLogger(a.logger))
	return err
}

func (a *app) credentialsDir() (string, error) {
	if a.configDir != "" {
		return a.configDir, nil
	}
	if dir := os.Getenv(configDirEnvVar); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrapf(err, "[clienthunt credentialsDir]")
	}
	return filepath.Join(base, "clienthunt"), nil
}

// requireLogin fails fast when there are no stored credentials, or they have expired.
func (a *app) requireLogin() error {
	tok, err := a.tokens.Load()
	if err != nil {
		return errors.Wrapf(errors.ErrNotAuthenticated, "[clienthunt] %v", err)
	}
	if session.Expired(tok, nowTime()) {
		_ = a.tokens.Clear()
		return errors.ErrSessionExpired
	}
	return nil
}

// adminPreRun replaces the root hook on commands that need a signed-in admin.
func (a *app) adminPreRun(cmd *cobra.Command, args []string) error {
	if err := a.init(); err != nil {
		return err
	}
	return a.requireLogin()
}
