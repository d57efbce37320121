// Command clinic is a terminal client for the clinic service.
//
// Usage:
//
//	clinic login --email you@example.com
//	clinic patients list
//	clinic ask "Does patient 3 have allergies?" --patient 3
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic-client/internal/app"
	"github.com/clinicdesk/clinic-client/internal/pkg/config"
	"github.com/clinicdesk/clinic-client/pkg/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := newRootCmd(envconfig.OsLookuper()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand.
type cli struct {
	env envconfig.Lookuper

	apiURL     string
	profile    string
	tokenStore string
	logLevel   string

	app *app.App
	log zerolog.Logger
}

func newRootCmd(env envconfig.Lookuper) *cobra.Command {
	c := &cli{env: env}

	root := &cobra.Command{
		Use:           "clinic",
		Short:         "Terminal client for the clinic service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "API base URL (overrides CLINIC_API_URL)")
	root.PersistentFlags().StringVar(&c.profile, "profile", "", "credential profile (overrides CLINIC_PROFILE)")
	root.PersistentFlags().StringVar(&c.tokenStore, "token-store", "", "token store: file, redis or memory")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.passwdCmd(),
		c.patientsCmd(),
		c.askCmd(),
		c.chatCmd(),
		versionCmd(),
	)
	return root
}

// connect loads configuration and starts the client. The returned func
// releases it.
func (c *cli) connect(cmd *cobra.Command) (func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadWith(ctx, c.env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.apiURL != "" {
		cfg.Client.APIURL = c.apiURL
	}
	if c.profile != "" {
		cfg.Client.Profile = c.profile
	}
	if c.tokenStore != "" {
		cfg.Client.TokenStore = c.tokenStore
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: cmd.ErrOrStderr()})
	c.log = logger.For("cli")

	a, err := app.New(ctx, app.Options{
		Client:    cfg.Client,
		Redis:     cfg.Redis,
		Navigator: loginNotice{w: cmd.ErrOrStderr()},
		Log:       logger.Get(),
	})
	if err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	c.app = a

	return func() {
		if err := a.Close(); err != nil {
			c.log.Warn().Err(err).Msg("close client")
		}
	}, nil
}

// withApp runs fn against a started client.
func (c *cli) withApp(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		release, err := c.connect(cmd)
		if err != nil {
			return err
		}
		defer release()
		return fn(cmd, args)
	}
}

// loginNotice is the terminal's login screen: it tells the user to log in
// again.
type loginNotice struct{ w io.Writer }

func (n loginNotice) RedirectToLogin() {
	fmt.Fprintln(n.w, "session expired, run `clinic login`")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clinic %s\n", Version)
		},
	}
}
