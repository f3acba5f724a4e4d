// Command server runs the linechat line-protocol server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/NicolasHaas/linechat/pkg/logging"
	"github.com/NicolasHaas/linechat/pkg/server"
	"github.com/NicolasHaas/linechat/pkg/store"
	"github.com/NicolasHaas/linechat/pkg/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "linechat-server: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions are flags that select an action rather than configure the server.
type cliOptions struct {
	configPath  string
	importPath  string
	export      bool
	showVersion bool
}

// parseFlags builds the effective config: defaults, then the YAML config
// file, then flags the user set explicitly, then the positional port.
func parseFlags(args []string, stderr io.Writer) (server.Config, cliOptions, error) {
	var opts cliOptions
	fl := server.DefaultConfig()

	fs := flag.NewFlagSet("linechat-server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: linechat-server [flags] [port]\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "YAML config file; flags override it")
	fs.StringVar(&fl.ListenAddr, "listen", fl.ListenAddr, "TCP bind address")
	fs.StringVar(&fl.AccountsPath, "accounts", fl.AccountsPath, "Account file or SQLite database path")
	fs.StringVar(&fl.AccountsDriver, "accounts-driver", fl.AccountsDriver, "Account store driver: file or sqlite")
	fs.BoolVar(&fl.WatchAccounts, "watch-accounts", fl.WatchAccounts, "Reload the account file when it changes")
	fs.StringVar(&fl.TranscriptPath, "transcript", fl.TranscriptPath, "Append request/response transcript to this file")
	fs.StringVar(&fl.MetricsAddr, "metrics", fl.MetricsAddr, "HTTP bind address for /metrics and /healthz (empty to disable)")
	fs.IntVar(&fl.MaxConns, "max-conns", fl.MaxConns, "Maximum concurrent connections (0 = unlimited)")
	fs.DurationVar(&fl.MetricsLogInterval, "metrics-log-interval", fl.MetricsLogInterval, "Interval between metrics log summaries (0 to disable)")
	fs.StringVar(&fl.LogLevel, "log-level", fl.LogLevel, "Log level: "+logging.LevelNames())
	fs.StringVar(&fl.LogFormat, "log-format", fl.LogFormat, "Log format: text or json")
	fs.StringVar(&opts.importPath, "import-accounts", "", "Import accounts from a YAML file into the sqlite store and exit")
	fs.BoolVar(&opts.export, "export-accounts", false, "Print all accounts as YAML and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return server.Config{}, opts, err
	}

	cfg := server.DefaultConfig()
	if opts.configPath != "" {
		if err := server.LoadConfigFile(opts.configPath, &cfg); err != nil {
			return server.Config{}, opts, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = fl.ListenAddr
		case "accounts":
			cfg.AccountsPath = fl.AccountsPath
		case "accounts-driver":
			cfg.AccountsDriver = fl.AccountsDriver
		case "watch-accounts":
			cfg.WatchAccounts = fl.WatchAccounts
		case "transcript":
			cfg.TranscriptPath = fl.TranscriptPath
		case "metrics":
			cfg.MetricsAddr = fl.MetricsAddr
		case "max-conns":
			cfg.MaxConns = fl.MaxConns
		case "metrics-log-interval":
			cfg.MetricsLogInterval = fl.MetricsLogInterval
		case "log-level":
			cfg.LogLevel = fl.LogLevel
		case "log-format":
			cfg.LogFormat = fl.LogFormat
		}
	})

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		addr, err := server.ListenAddrFromPort(rest[0])
		if err != nil {
			return server.Config{}, opts, err
		}
		cfg.ListenAddr = addr
	default:
		return server.Config{}, opts, fmt.Errorf("too many arguments: %v", rest)
	}
	return cfg, opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "linechat-server %s\n", version.Full())
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	}); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	st, err := store.Open(cfg.AccountsDriver, cfg.AccountsPath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	// Administrative actions (run and exit)
	if opts.importPath != "" {
		w, ok := st.(store.AccountWriter)
		if !ok {
			return fmt.Errorf("--import-accounts requires --accounts-driver=%s", store.DriverSQLite)
		}
		n, err := store.LoadAccountsYAML(opts.importPath, w)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "imported %d accounts into %s\n", n, cfg.AccountsPath)
		return nil
	}
	if opts.export {
		data, err := store.ExportAccountsYAML(st)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	var transcript *logging.Transcript
	if cfg.TranscriptPath != "" {
		transcript, err = logging.OpenTranscript(cfg.TranscriptPath)
		if err != nil {
			return err
		}
		defer func() { _ = transcript.Close() }()
	}

	slog.Info("starting linechat server",
		"version", version.String(),
		"accounts", cfg.AccountsPath,
		"driver", cfg.AccountsDriver,
		"transcript", cfg.TranscriptPath,
	)
	srv := server.New(cfg, server.Dependencies{Accounts: st, Transcript: transcript})
	return srv.Run(ctx)
}
