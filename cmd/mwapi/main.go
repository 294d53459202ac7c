// Command mwapi is a command-line client for the MediaWiki action API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olgasafonova/mwapi/wiki"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports err, listing each server error code of an API
// failure on its own line. Terminals get color.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		red.EnableColor()
	} else {
		red.DisableColor()
	}

	var apiErr *wiki.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		red.Fprintf(w, "Error: %v\n", err)
		return
	}
	red.Fprintln(w, "Error: the wiki rejected the request")
	for _, d := range apiErr.Errors {
		fmt.Fprintf(w, "  %s: %s\n", red.Sprint(d.Code), d.Text)
	}
}

// app carries the state shared by all subcommands
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	format  string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "mwapi",
		Short: "MediaWiki action API client",
		Long: `mwapi talks to a MediaWiki wiki through its action API.

Queries follow continuation automatically, tokens are fetched on demand and
bot-password logins happen when an action needs them:

  mwapi --url https://test.wikipedia.org/w/api.php list allpages aplimit=10
  mwapi prop revisions titles=Main_Page rvprop=timestamp|user
  mwapi post action=patrol revid=12345`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.loadConfig() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.mwapi/config.yaml)")
	flags.String("url", "", "wiki API endpoint, e.g. https://en.wikipedia.org/w/api.php")
	flags.String("user-agent", "", "User-Agent header (include contact information)")
	flags.Int("maxlag", 5, "maxlag parameter sent with every request, in seconds")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout per request")
	flags.String("username", "", "bot password user name")
	flags.String("credentials-file", "", "YAML credentials file (default ~/.mwapi.yaml)")
	flags.Float64("rate-limit", 0, "maximum requests per second, 0 for no limit")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log API requests and responses to stderr")
	flags.StringVar(&a.format, "format", "json", "output format: json or jsonl")

	for key, flag := range map[string]string{
		"url":              "url",
		"user_agent":       "user-agent",
		"maxlag":           "maxlag",
		"timeout":          "timeout",
		"username":         "username",
		"credentials_file": "credentials-file",
		"rate_limit":       "rate-limit",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.postCmd(),
		a.listCmd(),
		a.propCmd(),
		a.metaCmd(),
		a.siteinfoCmd(),
		a.loginCmd(),
		a.uploadCmd(),
		versionCmd(),
	)
	return root
}

// loadConfig layers the config file and MEDIAWIKI_* environment under the flags
func (a *app) loadConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".mwapi"))
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}
	a.v.SetEnvPrefix("MEDIAWIKI")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	switch a.format {
	case "json", "jsonl":
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or jsonl)", a.format)
	}
}

// client builds a Client from the layered configuration
func (a *app) client(cmd *cobra.Command) (*wiki.Client, error) {
	config, err := wiki.ConfigFromViper(a.v)
	if err != nil {
		return nil, errors.New("no wiki configured: pass --url or set MEDIAWIKI_URL")
	}
	return wiki.NewClient(config, a.logger(cmd.ErrOrStderr())), nil
}

func (a *app) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mwapi version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mwapi %s\n", wiki.Version)
		},
	}
}
